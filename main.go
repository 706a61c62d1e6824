// =============================================================================
// FTZ to GEDCOM Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the ftz2ged CLI application. It hands
// control to the Cobra commands in the cmd package.
//
// USAGE:
//   ftz2ged process   - Convert every .ftz archive in the input directory
//   ftz2ged render    - Render a JSON tag document to GEDCOM
//   ftz2ged enrich    - Enrich individual records through a chat model
//   ftz2ged config    - Show or create the configuration file
//   ftz2ged version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Conversion pipeline and supporting packages
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/cmd"
)

func main() {
	cmd.Execute()
}
