// =============================================================================
// FTZ to GEDCOM Converter - Enrich Command
// =============================================================================
//
// This file defines the 'enrich' command. It sends the individual records of a
// JSON tag document to an OpenAI-compatible chat endpoint, merges the replies
// and renders the result.
//
// COMMAND USAGE:
//   ftz2ged enrich <document.json> [flags]
//
// OUTPUTS (next to the input unless --output-dir is set):
//   <name>_processed.json   - The enriched document
//   <name>_processed.ged    - The enriched document rendered to GEDCOM
//   error_chunk_<n>.txt     - Request and reply of every rejected chunk
//
// API KEY LOOKUP ORDER:
//   llm.api_key, FTZ2GED_LLM_API_KEY, KEY, OPENAI_API_KEY
//   A .env file in the working directory is loaded first.
//
// =============================================================================

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/cache"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/converter"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/document"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/enrich"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/worker"
)

const processedSuffix = "_processed"

var (
	enrichOutputDir string
	enrichModel     string
	enrichChunkSize int
	enrichNoCache   bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <document.json>",
	Short: "Enrich individual records through a chat model",
	Long: `The enrich command splits the INDI list of a JSON tag document into chunks,
asks the configured chat model to tidy each chunk and keeps a reply only when
it preserves the records' pointers and structure. Rejected or failed chunks
keep their original records.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnrich(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringVar(&enrichOutputDir, "output-dir", "", "Directory for outputs (default: next to the input)")
	enrichCmd.Flags().StringVar(&enrichModel, "model", "", "Override llm.model")
	enrichCmd.Flags().IntVar(&enrichChunkSize, "chunk-size", 0, "Override llm.chunk_size")
	enrichCmd.Flags().BoolVar(&enrichNoCache, "no-cache", false, "Ignore and do not fill the response cache")
}

func runEnrich(cmd *cobra.Command, input string) error {
	out := cmd.OutOrStdout()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Failed to load .env: %v", err)
	}

	llm := appConfig.LLM
	if enrichModel != "" {
		llm.Model = enrichModel
	}
	if enrichChunkSize > 0 {
		llm.ChunkSize = enrichChunkSize
	}
	llm.APIKey = firstNonEmpty(llm.APIKey,
		os.Getenv("FTZ2GED_LLM_API_KEY"), os.Getenv("KEY"), os.Getenv("OPENAI_API_KEY"))

	client, err := enrich.NewClient(llm)
	if err != nil {
		return err
	}

	prompt, err := llm.LoadPrompt(appFs)
	if err != nil {
		return err
	}

	// =========================================================================
	// LOAD DOCUMENT
	// =========================================================================

	data, err := afero.ReadFile(appFs, input)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := document.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	individuals, ok := doc.List(document.TagIndividual)
	if !ok {
		return enrich.ErrNoIndividuals
	}

	// =========================================================================
	// ENRICH
	// =========================================================================

	opts := enrich.OptionsFromConfig(llm, prompt)
	opts.Limiter = worker.NewLimiter(llm.RequestsPerSecond, llm.Burst)
	opts.Logger = logger
	if !enrichNoCache {
		var disk cache.Cache
		if llm.CacheDir != "" {
			disk = cache.NewDiskCache(appFs, llm.CacheDir, llm.CacheTTL)
		}
		opts.Cache = cache.NewLayeredCache(llm.CacheTTL, disk)
	}

	chunks := (len(individuals) + llm.ChunkSize - 1) / llm.ChunkSize
	bar := progressbar.NewOptions(chunks,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Enriching"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	opts.OnChunkDone = func(enrich.ChunkResult) {
		_ = bar.Add(1)
	}

	start := time.Now()
	enriched, report, err := enrich.New(client, opts).Enrich(cmd.Context(), doc)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	// =========================================================================
	// WRITE OUTPUTS
	// =========================================================================

	dir := enrichOutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	if err := appFs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	base := filepath.Join(dir, stem+processedSuffix)

	for _, chunk := range report.Chunks {
		if chunk.Status != enrich.StatusKept || chunk.Response == "" {
			continue
		}
		debugPath := filepath.Join(dir, fmt.Sprintf("error_chunk_%d.txt", chunk.Index+1))
		if err := afero.WriteFile(appFs, debugPath, []byte(chunk.DebugText()), 0644); err != nil {
			logger.Warnf("Failed to save %s: %v", debugPath, err)
		}
	}

	var buf bytes.Buffer
	if err := document.Encode(&buf, enriched); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := afero.WriteFile(appFs, base+converter.ExtJSON, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	rendered, err := converter.RenderDocument(enriched)
	if rendered != nil {
		logFindings(rendered.Validation)
	}
	if err != nil {
		return fmt.Errorf("enriched document saved to %s but could not be rendered: %w", base+converter.ExtJSON, err)
	}
	if err := afero.WriteFile(appFs, base+converter.ExtGEDCOM, []byte(rendered.GEDCOM), 0644); err != nil {
		return fmt.Errorf("failed to write GEDCOM: %w", err)
	}

	fmt.Fprintf(out, "Enriched %d individuals in %d chunks (%d enriched, %d cached, %d kept) in %s\n",
		report.Individuals, len(report.Chunks), report.Enriched, report.Cached, report.Kept,
		time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "Wrote %s and %s\n", base+converter.ExtJSON, base+converter.ExtGEDCOM)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
