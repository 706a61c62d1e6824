// =============================================================================
// FTZ to GEDCOM Converter - Converter Module
// =============================================================================
//
// This module converts a single .ftz archive. It orchestrates the pipeline
// from archive extraction to the GEDCOM file and its side artifacts.
//
// CONVERSION STEPS:
//   1. Open the archive and locate the record file
//   2. Decode the record file as UTF-8
//   3. Run the in-memory pipeline (pipeline.go)
//   4. Pick the output base name
//   5. Write the JSON document            (write_json)
//   6. Write the spreadsheet roster       (write_xlsx)
//   7. Extract portraits                  (extract_portraits)
//   8. Write the GEDCOM file
//   9. Archive the input                  (archive_input)
//
// The GEDCOM file is written last. If any write fails, every artifact written
// for this archive is removed so a rerun starts clean.
//
// CONCURRENCY:
//   A Converter handles one archive and shares nothing mutable with others,
//   so several can run at once on the same file system.
//
// =============================================================================

package converter

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/archive"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/config"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/document"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/gedbuilder"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/logging"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/xlsxreport"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/pkg/utils"
)

// File extensions of the generated artifacts.
const (
	ExtGEDCOM = ".ged"
	ExtJSON   = ".json"
	ExtXLSX   = ".xlsx"

	// PortraitDirSuffix is appended to the base name for the portrait folder.
	PortraitDirSuffix = "_faces"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single archive.
type Result struct {
	// FilePath is the path to the input archive.
	FilePath string

	// OutputFile is the path to the generated GEDCOM file.
	// This is empty if processing failed or was a dry run.
	OutputFile string

	// Artifacts lists every file written, the GEDCOM file included.
	Artifacts []string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// GetError returns the processing error, so a Result can travel through the
// worker pool.
func (r Result) GetError() error {
	return r.Error
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Individuals and Families count the emitted records.
	Individuals int
	Families    int

	// Portraits is the number of face images found in the archive.
	Portraits int

	// Lines is the number of GEDCOM lines.
	Lines int

	// DuplicatePeople and DuplicateCouples count identifiers that appeared
	// more than once in the record file. The last record won.
	DuplicatePeople  int
	DuplicateCouples int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Logger is the logging surface the converter needs.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Converter handles the conversion of a single archive.
type Converter struct {
	// fs is the file system holding the input and output directories.
	fs afero.Fs

	// archivePath is the path to the input .ftz file.
	archivePath string

	// config is the main application configuration.
	config *config.MainConfig

	// files names outputs and archives inputs.
	files *utils.FileManager

	// build holds the GEDCOM header options.
	build gedbuilder.Options

	// dryRun stops after the pipeline without writing anything.
	dryRun bool

	logger Logger
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - fs: The file system to read from and write to.
//   - archivePath: The path to the input .ftz file.
//   - cfg: The main application configuration.
//
// RETURNS:
//   - A new Converter with a no-op logger.
func New(fs afero.Fs, archivePath string, cfg *config.MainConfig) *Converter {
	build := gedbuilder.DefaultOptions()
	build.Language = cfg.Language
	build.SubmitterName = cfg.SubmitterName

	return &Converter{
		fs:          fs,
		archivePath: archivePath,
		config:      cfg,
		files:       utils.NewFileManager(fs, cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir),
		build:       build,
		logger:      logging.Nop(),
	}
}

// WithLogger replaces the logger.
func (c *Converter) WithLogger(logger Logger) *Converter {
	c.logger = logger
	return c
}

// WithBuildOptions replaces the GEDCOM header options.
func (c *Converter) WithBuildOptions(opts gedbuilder.Options) *Converter {
	c.build = opts
	return c
}

// WithDryRun makes Run stop before writing any file.
func (c *Converter) WithDryRun(dryRun bool) *Converter {
	c.dryRun = dryRun
	return c
}

// WithFileManager replaces the file manager, e.g. to pin its clock.
func (c *Converter) WithFileManager(files *utils.FileManager) *Converter {
	c.files = files
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion for the archive.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (c *Converter) Run() Result {
	startTime := time.Now()
	result := Result{FilePath: c.archivePath}

	// =========================================================================
	// STEP 1-2: OPEN ARCHIVE AND DECODE RECORD FILE
	// =========================================================================

	c.logger.Infof("Processing archive: %s", c.archivePath)

	arc, err := archive.Open(c.fs, c.archivePath)
	if err != nil {
		result.Error = err
		return result
	}

	text, err := archive.DecodeRecordFile(arc.RecordFile)
	if err != nil {
		result.Error = err
		return result
	}

	c.logger.Debugf("Tree %q: %d bytes of records, %d portraits", arc.TreeName, len(arc.RecordFile), len(arc.Portraits))

	// =========================================================================
	// STEP 3: CONVERT
	// =========================================================================

	conv, err := ConvertText(text, c.build)
	if err != nil {
		result.Error = err
		return result
	}

	result.Stats = ProcessingStats{
		Individuals:      len(conv.Tree.People),
		Families:         len(conv.Tree.Couples),
		Portraits:        len(arc.Portraits),
		Lines:            conv.Lines,
		DuplicatePeople:  len(conv.Tree.DuplicatePeople),
		DuplicateCouples: len(conv.Tree.DuplicateCouples),
	}
	c.reportAnomalies(conv)

	if header := conv.Tree.Header; header.PersonCount != len(conv.Tree.People) || header.CoupleCount != len(conv.Tree.Couples) {
		c.logger.Debugf("Header declared %d people and %d couples; %d and %d distinct identifiers remain",
			header.PersonCount, header.CoupleCount, len(conv.Tree.People), len(conv.Tree.Couples))
	}

	// =========================================================================
	// STEP 4: OUTPUT NAME
	// =========================================================================

	base := path.Join(c.config.OutputDir, c.outputName(arc.TreeName))

	if c.dryRun {
		c.logger.Infof("Dry run: would write %s%s (%d lines)", base, ExtGEDCOM, conv.Lines)
		result.Success = true
		result.Stats.ProcessingTime = time.Since(startTime)
		return result
	}

	if err := c.fs.MkdirAll(c.config.OutputDir, 0755); err != nil {
		result.Error = fmt.Errorf("failed to create output directory: %w", err)
		return result
	}

	// =========================================================================
	// STEP 5-8: WRITE ARTIFACTS
	// =========================================================================

	if err := c.writeArtifacts(&result, base, arc, conv); err != nil {
		c.removeArtifacts(result.Artifacts)
		result.Artifacts = nil
		result.OutputFile = ""
		result.Error = err
		return result
	}

	c.logger.Infof("Wrote output to: %s", result.OutputFile)

	// =========================================================================
	// STEP 9: ARCHIVE INPUT
	// =========================================================================

	if c.config.ArchiveInput {
		if dest, err := c.files.ArchiveInputFile(c.archivePath); err != nil {
			c.logger.Warnf("Failed to archive input: %v", err)
		} else {
			c.logger.Debugf("Archived input to %s", dest)
		}
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// outputName applies the configured name format. {name} is the archive file
// name without extension and {tree} the folder name inside the archive.
func (c *Converter) outputName(treeName string) string {
	stem := strings.TrimSuffix(filepath.Base(c.archivePath), filepath.Ext(c.archivePath))

	return c.files.GenerateOutputName(c.config.OutputNameFormat, map[string]string{
		"name": stem,
		"tree": treeName,
	})
}

func (c *Converter) reportAnomalies(conv *Conversion) {
	tree := conv.Tree

	for _, id := range tree.DuplicatePeople {
		c.logger.Warnf("Person identifier %d appears more than once; keeping the last record", id)
	}
	for _, id := range tree.DuplicateCouples {
		c.logger.Warnf("Couple identifier %d appears more than once; keeping the last record", id)
	}
	if _, ok := tree.People[0]; ok {
		c.logger.Warnf("A person record has identifier 0; its identifier cell may be malformed")
	}
	if _, ok := tree.Couples[0]; ok {
		c.logger.Warnf("A couple record has identifier 0; its identifier cell may be malformed")
	}
}

func (c *Converter) writeArtifacts(result *Result, base string, arc *archive.Archive, conv *Conversion) error {
	if c.config.WriteJSON {
		var buf bytes.Buffer
		if err := document.Encode(&buf, conv.Document); err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		if err := c.writeFile(result, base+ExtJSON, buf.Bytes()); err != nil {
			return err
		}
	}

	if c.config.WriteXLSX {
		var buf bytes.Buffer
		if err := xlsxreport.Write(&buf, conv.Tree, conv.Indexes, conv.Pointers); err != nil {
			return fmt.Errorf("failed to build spreadsheet: %w", err)
		}
		if err := c.writeFile(result, base+ExtXLSX, buf.Bytes()); err != nil {
			return err
		}
	}

	if c.config.ExtractPortraits && len(arc.Portraits) > 0 {
		dir := base + PortraitDirSuffix
		if err := c.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create portrait directory: %w", err)
		}
		for _, name := range arc.SkippedPortraits {
			c.logger.Warnf("Skipping portrait %s: a portrait with the same name was already extracted", name)
		}
		for _, portrait := range arc.Portraits {
			target := path.Join(dir, portrait.Name)
			if err := c.fs.MkdirAll(path.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create portrait directory: %w", err)
			}
			if err := c.writeFile(result, target, portrait.Data); err != nil {
				return err
			}
		}
		c.logger.Debugf("Extracted %d portraits to %s", len(arc.Portraits), dir)
	}

	if err := c.writeFile(result, base+ExtGEDCOM, []byte(conv.GEDCOM)); err != nil {
		return err
	}
	result.OutputFile = base + ExtGEDCOM

	return nil
}

func (c *Converter) writeFile(result *Result, p string, data []byte) error {
	if err := afero.WriteFile(c.fs, p, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	result.Artifacts = append(result.Artifacts, p)
	return nil
}

func (c *Converter) removeArtifacts(paths []string) {
	var dirs []string
	seen := map[string]bool{}
	for _, p := range paths {
		if err := c.fs.Remove(p); err != nil {
			c.logger.Warnf("Failed to remove %s: %v", p, err)
		}
		// portrait subfolders up to and including the <base>_faces folder
		i := strings.Index(p, PortraitDirSuffix+"/")
		if i < 0 {
			continue
		}
		root := p[:i+len(PortraitDirSuffix)]
		for dir := path.Dir(p); len(dir) >= len(root); dir = path.Dir(dir) {
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
			if dir == root {
				break
			}
		}
	}
	// deepest first, so parents are empty when their turn comes
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		_ = c.fs.Remove(dir)
	}
}
