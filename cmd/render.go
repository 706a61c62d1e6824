// =============================================================================
// FTZ to GEDCOM Converter - Render Command
// =============================================================================
//
// This file defines the 'render' command, which turns a JSON tag document
// (as written by 'process' or 'enrich', possibly edited by hand) into GEDCOM.
//
// COMMAND USAGE:
//   ftz2ged render <document.json> [output.ged]
//
// The output defaults to the input path with a .ged extension. Documents
// with structural errors are refused; warnings are logged.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/converter"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/validation"
)

var renderCmd = &cobra.Command{
	Use:   "render <document.json> [output.ged]",
	Short: "Render a JSON tag document to GEDCOM",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		output := ""
		if len(args) == 2 {
			output = args[1]
		}
		return runRender(cmd, args[0], output)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, input, output string) error {
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + converter.ExtGEDCOM
	}

	f, err := appFs.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	result, err := converter.RenderJSON(f)
	if result != nil {
		logFindings(result.Validation)
	}
	if err != nil {
		return err
	}

	if err := afero.WriteFile(appFs, output, []byte(result.GEDCOM), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d lines to %s\n", result.Lines, output)
	return nil
}

func logFindings(result *validation.ValidationResult) {
	if result == nil {
		return
	}
	for _, finding := range result.Errors {
		if finding.Severity == validation.SeverityError {
			logger.Errorf("%s", finding.Error())
		} else {
			logger.Warnf("%s", finding.Error())
		}
	}
}
