// =============================================================================
// FTZ to GEDCOM Converter - File Manager Utility
// =============================================================================
//
// This module provides the file operations around a conversion run:
//   - Archive discovery in the input directory
//   - Output base names from a placeholder format
//   - Moving processed archives to input_archive
//   - Error log and processing summary files
//
// All operations go through an afero.Fs so they can run against an
// in-memory file system in tests.
//
// ARCHIVAL STRATEGY:
//   - Input archives are moved only after a successful conversion
//   - Failed archives remain in their original location
//   - Error logs and summaries are written to the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const logRule = "================================================================================\n"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	// Fs is the file system all paths refer to.
	Fs afero.Fs

	// InputDir is scanned for archives.
	InputDir string

	// OutputDir receives outputs, error logs and summaries.
	OutputDir string

	// InputArchiveDir receives archives after successful processing.
	InputArchiveDir string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(fs afero.Fs, inputDir, outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		Fs:              fs,
		InputDir:        inputDir,
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
		Now:             time.Now,
	}
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverArchives returns the files in the input directory matching pattern,
// sorted by path.
//
// PARAMETERS:
//   - pattern: A glob pattern such as "*.ftz". Empty means "*.ftz".
//
// RETURNS:
//   - Matching file paths. Directories are skipped.
//   - An error for a malformed pattern.
func (fm *FileManager) DiscoverArchives(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.ftz"
	}

	matches, err := afero.Glob(fm.Fs, filepath.Join(fm.InputDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, match := range matches {
		info, err := fm.Fs.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		result = append(result, match)
	}
	sort.Strings(result)

	return result, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input archive into the input archive directory.
//
// RETURNS:
//   - The new path of the file.
//   - An error if the move fails. The file is then left where it was.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if err := fm.Fs.MkdirAll(fm.InputArchiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(fm.InputArchiveDir, filepath.Base(filePath))

	if err := fm.Fs.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(fm.Fs, filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := fm.Fs.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputName expands an output name format. The result has no
// extension; callers add .ged, .json or .xlsx.
//
// PARAMETERS:
//   - format: The format string. Placeholders:
//       {uuid}      - A random UUID
//       {timestamp} - Current time (YYYYMMDD_HHMMSS)
//       {date}      - Current date (YYYYMMDD)
//       any key of params, e.g. {name} or {tree}
//   - params: Placeholder values.
//
// EXAMPLE:
//   format: "{tree}_{timestamp}"
//   params: {"tree": "Smiths"}
//   output: "Smiths_20240115_143022"
func (fm *FileManager) GenerateOutputName(format string, params map[string]string) string {
	now := fm.now()

	pairs := []string{
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		pairs = append(pairs, "{"+key+"}", params[key])
	}

	name := strings.NewReplacer(pairs...).Replace(format)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if strings.TrimSpace(name) == "" {
		name = uuid.New().String()
	}
	return name
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	ErrorType    string
	ErrorMessage string
}

// WriteErrorLog writes error entries to error_log_<timestamp>.txt in the
// output directory.
//
// RETURNS:
//   - The path to the error log file, or "" when there are no entries.
//   - An error if writing fails.
func (fm *FileManager) WriteErrorLog(entries []ErrorLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := fm.now()
	logPath := filepath.Join(fm.OutputDir, fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405")))

	err := fm.writeText(logPath, func(w *bufio.Writer) {
		fmt.Fprintf(w, "FTZ to GEDCOM Converter - Error Log\n"+
			"Generated: %s\n"+
			"Total Errors: %d\n"+
			logRule+"\n",
			now.Format("2006-01-02 15:04:05"),
			len(entries))

		for i, entry := range entries {
			fmt.Fprintf(w, "Error #%d\n"+
				"  Timestamp:  %s\n"+
				"  File:       %s\n"+
				"  Error Type: %s\n"+
				"  Message:    %s\n\n",
				i+1,
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.FileName,
				entry.ErrorType,
				entry.ErrorMessage)
		}

		w.WriteString(logRule + "End of Error Log\n")
	})
	if err != nil {
		return "", fmt.Errorf("failed to write error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	StartTime        time.Time
	EndTime          time.Time
	TotalFiles       int
	SuccessfulFiles  int
	FailedFiles      int
	TotalIndividuals int
	TotalFamilies    int
	TotalPortraits   int
	ProcessedFiles   []ProcessedFileInfo
	FailedFilesList  []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	Individuals int
	Families    int
	Portraits   int
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes processing_summary_<timestamp>.txt to the output
// directory.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (string, error) {
	summaryPath := filepath.Join(fm.OutputDir,
		fmt.Sprintf("processing_summary_%s.txt", fm.now().Format("20060102_150405")))

	err := fm.writeText(summaryPath, func(w *bufio.Writer) {
		fmt.Fprintf(w, "FTZ to GEDCOM Converter - Processing Summary\n"+
			logRule+"\n"+
			"Run Information:\n"+
			"  Start Time:  %s\n"+
			"  End Time:    %s\n"+
			"  Duration:    %s\n\n"+
			"Statistics:\n"+
			"  Total Files:       %d\n"+
			"  Successful:        %d\n"+
			"  Failed:            %d\n"+
			"  Total Individuals: %d\n"+
			"  Total Families:    %d\n"+
			"  Total Portraits:   %d\n\n",
			summary.StartTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Sub(summary.StartTime).String(),
			summary.TotalFiles,
			summary.SuccessfulFiles,
			summary.FailedFiles,
			summary.TotalIndividuals,
			summary.TotalFamilies,
			summary.TotalPortraits)

		if len(summary.ProcessedFiles) > 0 {
			w.WriteString("Successful Files:\n")
			w.WriteString(strings.Repeat("-", 80) + "\n")
			for _, pf := range summary.ProcessedFiles {
				fmt.Fprintf(w, "  Input:        %s\n", pf.InputFile)
				fmt.Fprintf(w, "  Output:       %s\n", pf.OutputFile)
				fmt.Fprintf(w, "  Individuals:  %d\n", pf.Individuals)
				fmt.Fprintf(w, "  Families:     %d\n", pf.Families)
				fmt.Fprintf(w, "  Portraits:    %d\n", pf.Portraits)
				fmt.Fprintf(w, "  Process Time: %s\n\n", pf.ProcessTime.String())
			}
		}

		if len(summary.FailedFilesList) > 0 {
			w.WriteString("Failed Files:\n")
			w.WriteString(strings.Repeat("-", 80) + "\n")
			for _, ff := range summary.FailedFilesList {
				fmt.Fprintf(w, "  File:  %s\n", ff.InputFile)
				fmt.Fprintf(w, "  Error: %s\n\n", ff.ErrorMessage)
			}
		}

		w.WriteString(logRule + "End of Summary\n")
	})
	if err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// writeText creates path and fills it through a buffered writer.
func (fm *FileManager) writeText(path string, fill func(w *bufio.Writer)) (err error) {
	if err := fm.Fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := fm.Fs.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	w := bufio.NewWriter(file)
	fill(w)
	return w.Flush()
}

// copyFile copies a file from src to dst on fs.
func copyFile(fs afero.Fs, src, dst string) error {
	sourceFile, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := fs.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
