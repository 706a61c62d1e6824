// =============================================================================
// FTZ to GEDCOM Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, the main batch conversion.
//
// COMMAND USAGE:
//   ftz2ged process [flags]
//
// FLAGS:
//   --dry-run : Run the pipeline without writing output files
//   --single  : Process only a single archive (specify with --file)
//   --file    : Path to a specific archive to process (used with --single)
//
// PROCESSING PIPELINE:
//   1. Discover archives in the input directory
//   2. Convert each archive on the worker pool (max_concurrency at a time)
//   3. Write the error log and processing summary
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/archive"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/config"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/converter"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/fttparser"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/worker"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun     bool
	singleFile bool
	filePath   string
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert .ftz archives to GEDCOM",
	Long: `The process command scans the input directory for archives matching
archive_pattern and converts each one to GEDCOM 5.5.1.

Archives are processed concurrently. An error in one archive does not affect
the others unless continue_on_error is false.

On success:
  - <name>.ged is written to the output directory, with <name>.json,
    <name>.xlsx and <name>_faces/ when enabled
  - The archive is moved to input_archive_dir when archive_input is set

On error:
  - Partial outputs for that archive are removed
  - An error log is written to the output directory
  - The archive stays in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the conversion without writing output files")
	processCmd.Flags().BoolVar(&singleFile, "single", false, "Process only a single archive (use with --file)")
	processCmd.Flags().StringVar(&filePath, "file", "", "Path to a specific archive to process (used with --single)")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// convertJob adapts one archive conversion to the worker pool.
type convertJob struct {
	path string
	cfg  *config.MainConfig
}

func (j *convertJob) Execute(ctx context.Context) worker.Result {
	if err := ctx.Err(); err != nil {
		return converter.Result{FilePath: j.path, Error: err}
	}
	return converter.New(appFs, j.path, j.cfg).
		WithLogger(logger.With("archive", filepath.Base(j.path))).
		WithDryRun(dryRun).
		Run()
}

func runProcess(ctx context.Context, cmd *cobra.Command) error {
	startTime := time.Now()
	cfg := appConfig
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "=== FTZ to GEDCOM Converter ===")

	if !dryRun {
		if err := cfg.EnsureDirs(appFs); err != nil {
			return err
		}
	}

	files := utils.NewFileManager(appFs, cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	var inputs []string
	if singleFile {
		if filePath == "" {
			return errors.New("--single requires --file")
		}
		inputs = []string{filePath}
	} else {
		found, err := files.DiscoverArchives(cfg.ArchivePattern)
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
		inputs = found
	}

	if len(inputs) == 0 {
		fmt.Fprintf(out, "No archives matching %q found in %s.\n", cfg.ArchivePattern, cfg.InputDir)
		return nil
	}

	fmt.Fprintf(out, "Found %d archive(s) to process\n", len(inputs))

	// =========================================================================
	// STEP 2: PROCESS FILES CONCURRENTLY
	// =========================================================================

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := worker.NewPool(runCtx, cfg.MaxConcurrency)
	pool.OnResult(func(r worker.Result) {
		result := r.(converter.Result)
		name := filepath.Base(result.FilePath)
		if result.Success {
			target := result.OutputFile
			if target == "" {
				target = "(dry run)"
			}
			fmt.Fprintf(out, "  ✓ %s -> %s\n", name, target)
			return
		}
		fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
		if !cfg.ContinueOnError {
			cancel()
		}
	})
	pool.Start()

	for _, input := range inputs {
		if !pool.Submit(&convertJob{path: input, cfg: cfg}) {
			break
		}
	}

	results := pool.Wait()

	// =========================================================================
	// STEP 3: SUMMARY AND ERROR LOG
	// =========================================================================

	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		TotalFiles: len(inputs),
	}
	var errorEntries []utils.ErrorLogEntry

	for _, r := range results {
		result := r.(converter.Result)
		if result.Success {
			summary.SuccessfulFiles++
			summary.TotalIndividuals += result.Stats.Individuals
			summary.TotalFamilies += result.Stats.Families
			summary.TotalPortraits += result.Stats.Portraits
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   result.FilePath,
				OutputFile:  result.OutputFile,
				Individuals: result.Stats.Individuals,
				Families:    result.Stats.Families,
				Portraits:   result.Stats.Portraits,
				ProcessTime: result.Stats.ProcessingTime,
			})
			continue
		}

		summary.FailedFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    result.FilePath,
			ErrorMessage: result.Error.Error(),
		})
		errorEntries = append(errorEntries, utils.ErrorLogEntry{
			Timestamp:    time.Now(),
			FileName:     result.FilePath,
			ErrorType:    errorType(result.Error),
			ErrorMessage: result.Error.Error(),
		})
	}
	summary.EndTime = time.Now()

	skipped := len(inputs) - len(results)

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total archives:  %d\n", len(inputs))
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	if skipped > 0 {
		fmt.Fprintf(out, "Skipped:         %d\n", skipped)
	}
	fmt.Fprintf(out, "Individuals:     %d\n", summary.TotalIndividuals)
	fmt.Fprintf(out, "Families:        %d\n", summary.TotalFamilies)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if !dryRun {
		if logPath, err := files.WriteErrorLog(errorEntries); err != nil {
			logger.Warnf("%v", err)
		} else if logPath != "" {
			fmt.Fprintf(out, "\nErrors have been logged to %s\n", logPath)
		}

		if summaryPath, err := files.WriteSummaryLog(summary); err != nil {
			logger.Warnf("%v", err)
		} else {
			logger.Debugf("Summary written to %s", summaryPath)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d archive(s) failed", summary.FailedFiles, len(inputs))
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// errorType classifies a conversion error for the error log.
func errorType(err error) string {
	var formatErr *fttparser.FormatError
	var truncated *fttparser.TruncatedInputError

	switch {
	case errors.As(err, &formatErr), errors.As(err, &truncated):
		return "RECORD_FILE"
	case errors.Is(err, archive.ErrInvalidEncoding):
		return "ENCODING"
	case errors.Is(err, archive.ErrNotArchive),
		errors.Is(err, archive.ErrNoTreeFolder),
		errors.Is(err, archive.ErrRecordFileMissing):
		return "ARCHIVE"
	case errors.Is(err, context.Canceled):
		return "CANCELLED"
	default:
		return "IO"
	}
}
