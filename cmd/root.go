// =============================================================================
// FTZ to GEDCOM Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ftz2ged)
//   ├── processCmd (ftz2ged process)
//   ├── renderCmd  (ftz2ged render)
//   ├── enrichCmd  (ftz2ged enrich)
//   ├── configCmd  (ftz2ged config show|init)
//   └── versionCmd (ftz2ged version)
//
// CONFIGURATION:
//   Before any command runs, the root command:
//   1. Reads the config file (--config, or ./config.yaml when present)
//   2. Applies FTZ2GED_* environment overrides through viper
//   3. Builds the zap logger (stderr plus the optional log file)
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/config"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug-level console logging.
var verbose bool

// appFs is the file system every command works on.
var appFs afero.Fs = afero.NewOsFs()

// appConfig and logger are set by loadConfig before a command runs.
var (
	appConfig *config.MainConfig
	logger    *zap.SugaredLogger
	logFile   io.Closer
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "ftz2ged",
	Short: "FTZ to GEDCOM Converter - Turn .ftz family tree archives into GEDCOM 5.5.1",
	Long: `ftz2ged reads family tree archives (.ftz), decodes the tab-delimited record
file inside them and writes a lineage-linked GEDCOM 5.5.1 file for each.

Key Features:
  - Batch conversion of every archive in the input directory
  - Optional JSON document, spreadsheet roster and portrait extraction
  - Rendering of hand-edited JSON documents back to GEDCOM
  - Optional enrichment of individual records through a chat model

Example Usage:
  ftz2ged process                          # Convert every archive in input_dir
  ftz2ged process --single --file a.ftz    # Convert one archive
  ftz2ged render output/a.json             # Render a JSON document
  ftz2ged enrich output/a.json             # Enrich, then render`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		if logFile != nil {
			_ = logFile.Close()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the main configuration file (default is ./config.yaml when present)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// loadConfig reads configuration through viper and builds the logger.
func loadConfig() error {
	v := viper.New()
	v.SetFs(appFs)
	config.RegisterDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	var fileOut io.Writer
	if cfg.LogFile != "" {
		f, err := appFs.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		fileOut = f
		logFile = f
	}

	log, err := logging.New(level, os.Stderr, fileOut)
	if err != nil {
		return err
	}

	if used := v.ConfigFileUsed(); used != "" {
		log.Debugf("Using config file: %s", used)
	}

	appConfig = cfg
	logger = log
	return nil
}
