// =============================================================================
// FTZ to GEDCOM Converter - Config Command
// =============================================================================
//
// COMMAND USAGE:
//   ftz2ged config show          - Print the effective configuration
//   ftz2ged config init [path]   - Write a default config file (config.yaml)
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/config"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *appConfig
		if shown.LLM.APIKey != "" {
			shown.LLM.APIKey = "********"
		}
		data, err := shown.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "config.yaml"
		if len(args) == 1 {
			target = args[0]
		}

		exists, err := afero.Exists(appFs, target)
		if err != nil {
			return err
		}
		if exists && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", target)
		}

		data, err := config.Default().YAML()
		if err != nil {
			return err
		}
		if err := afero.WriteFile(appFs, target, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
