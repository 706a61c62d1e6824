// =============================================================================
// FTZ to GEDCOM Converter - Document Enrichment
// =============================================================================
//
// This module sends the individual records of a built document to a chat
// model in chunks and merges the replies back.
//
// PROCESSING FLOW:
//   1. Split the INDI list into chunks of ChunkSize records
//   2. For each chunk (concurrently, through the worker pool):
//      a. Look the request up in the cache
//      b. Otherwise wait for the rate limiter and call the model, retrying
//         429 and 5xx replies with exponential backoff
//      c. Extract a JSON array from the reply and check its shape
//      d. Keep the original records if anything fails
//   3. Return a copy of the document with only INDI replaced
//
// A chunk never fails the whole run; its outcome is recorded in the Report.
//
// =============================================================================

package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/cache"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/config"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/document"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/worker"
)

// StrictSuffix is appended to every prompt.
const StrictSuffix = "\n\nIMPORTANT: Return ONLY the JSON array, no explanations, no markdown, no backticks, no additional text."

// ErrNoIndividuals is returned when the document has no INDI list.
var ErrNoIndividuals = errors.New("document has no INDI list")

// =============================================================================
// OPTIONS AND RESULTS
// =============================================================================

// Options controls an Enricher.
type Options struct {
	Model  string
	Prompt string

	// ChunkSize is the number of records per request. Default: 10
	ChunkSize int

	// Concurrency is the number of chunks in flight. Default: 1
	Concurrency int

	// MaxRetries bounds retries of transient failures per chunk.
	MaxRetries int

	// Endpoint keys the rate limiter. Usually the configured base URL.
	Endpoint string

	// Limiter paces requests. Nil means unlimited.
	Limiter *worker.Limiter

	// Cache stores accepted replies. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	// NewBackOff returns the retry schedule for one chunk.
	// Default: exponential starting at 1s.
	NewBackOff func() backoff.BackOff

	// OnChunkDone is called once per chunk as it finishes. Calls are serialized.
	OnChunkDone func(ChunkResult)

	Logger *zap.SugaredLogger
}

// OptionsFromConfig maps the LLM configuration onto Options. The limiter and
// cache are left for the caller to attach.
func OptionsFromConfig(cfg config.LLMConfig, prompt string) Options {
	return Options{
		Model:       cfg.Model,
		Prompt:      prompt,
		ChunkSize:   cfg.ChunkSize,
		Concurrency: cfg.Concurrency,
		MaxRetries:  cfg.MaxRetries,
		Endpoint:    cfg.BaseURL,
		CacheTTL:    cfg.CacheTTL,
	}
}

// ChunkStatus is the outcome of one chunk.
type ChunkStatus string

const (
	// StatusEnriched means the model reply replaced the records.
	StatusEnriched ChunkStatus = "enriched"
	// StatusCached means a cached reply replaced the records.
	StatusCached ChunkStatus = "cached"
	// StatusKept means the original records were kept.
	StatusKept ChunkStatus = "kept"
)

// ChunkResult describes one processed chunk.
type ChunkResult struct {
	Index    int // zero-based chunk number
	Start    int // index of the first record in INDI
	Size     int
	Status   ChunkStatus
	Attempts int

	// Request is the chunk as sent, Response the raw reply text (empty when
	// no reply was received).
	Request  string
	Response string

	Err error

	records []any
}

// GetError implements worker.Result.
func (r *ChunkResult) GetError() error {
	return r.Err
}

// DebugText renders the request and reply for offline inspection.
func (r ChunkResult) DebugText() string {
	return fmt.Sprintf("Request:\n%s\n\nResponse:\n%s", r.Request, r.Response)
}

// Report summarizes an Enrich call.
type Report struct {
	Individuals int
	Chunks      []ChunkResult
	Enriched    int
	Cached      int
	Kept        int
}

// =============================================================================
// ENRICHER
// =============================================================================

// Enricher rewrites individual records through a chat model.
type Enricher struct {
	client ChatClient
	opts   Options
}

// New creates an Enricher.
func New(client ChatClient, opts Options) *Enricher {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.NewBackOff == nil {
		opts.NewBackOff = defaultBackOff
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Enricher{client: client, opts: opts}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Enrich processes every INDI record of doc.
//
// PARAMETERS:
//   - ctx: Cancels outstanding requests.
//   - doc: A built document. It is not modified.
//
// RETURNS:
//   - A deep copy of doc with INDI replaced by the merged records, in the
//     original order.
//   - A Report with one entry per chunk, ordered by chunk index.
//   - ErrNoIndividuals, or the context error if ctx was cancelled.
func (e *Enricher) Enrich(ctx context.Context, doc *document.Document) (*document.Document, *Report, error) {
	value, ok := doc.Get(document.TagIndividual)
	if !ok {
		return nil, nil, ErrNoIndividuals
	}
	records, ok := value.([]any)
	if !ok {
		return nil, nil, ErrNoIndividuals
	}

	chunks := split(records, e.opts.ChunkSize)
	e.opts.Logger.Infof("Enriching %d individuals in %d chunks", len(records), len(chunks))

	pool := worker.NewPool(ctx, e.opts.Concurrency)
	if e.opts.OnChunkDone != nil {
		pool.OnResult(func(r worker.Result) {
			e.opts.OnChunkDone(*r.(*ChunkResult))
		})
	}
	pool.Start()

	start := 0
	for i, chunk := range chunks {
		pool.Submit(&chunkJob{enricher: e, index: i, start: start, records: chunk})
		start += len(chunk)
	}

	results := pool.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	report := &Report{Individuals: len(records)}
	for _, r := range results {
		report.Chunks = append(report.Chunks, *r.(*ChunkResult))
	}
	sort.Slice(report.Chunks, func(i, j int) bool {
		return report.Chunks[i].Index < report.Chunks[j].Index
	})

	merged := make([]any, 0, len(records))
	for _, chunk := range report.Chunks {
		switch chunk.Status {
		case StatusEnriched:
			report.Enriched++
		case StatusCached:
			report.Cached++
		default:
			report.Kept++
		}
		merged = append(merged, chunk.records...)
	}

	out := doc.Clone()
	out.Set(document.TagIndividual, merged)
	return out, report, nil
}

func split(records []any, size int) [][]any {
	var chunks [][]any
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

// =============================================================================
// CHUNK PROCESSING
// =============================================================================

type chunkJob struct {
	enricher *Enricher
	index    int
	start    int
	records  []any
}

func (j *chunkJob) Execute(ctx context.Context) worker.Result {
	e := j.enricher
	log := e.opts.Logger

	result := &ChunkResult{
		Index:   j.index,
		Start:   j.start,
		Size:    len(j.records),
		Status:  StatusKept,
		records: j.records,
	}

	request, err := encodeChunk(j.records)
	if err != nil {
		result.Err = fmt.Errorf("encoding chunk: %w", err)
		return result
	}
	result.Request = request

	key := cache.Key(e.opts.Model, e.opts.Prompt, request)
	if e.opts.Cache != nil {
		if cached, ok := e.opts.Cache.Get(key); ok {
			if records, err := accept(j.records, string(cached)); err == nil {
				log.Debugf("Chunk %d served from cache", j.index+1)
				result.Status = StatusCached
				result.Response = string(cached)
				result.records = records
				return result
			}
			_ = e.opts.Cache.Delete(key)
		}
	}

	content, attempts, err := e.complete(ctx, request, len(j.records))
	result.Attempts = attempts
	result.Response = content
	if err != nil {
		log.Warnf("Chunk %d: request failed after %d attempts: %v", j.index+1, attempts, err)
		result.Err = err
		return result
	}

	records, err := accept(j.records, content)
	if err != nil {
		log.Warnf("Chunk %d: keeping original %d records: %v", j.index+1, len(j.records), err)
		result.Err = err
		return result
	}

	if e.opts.Cache != nil {
		if err := e.opts.Cache.Set(key, []byte(content), e.opts.CacheTTL); err != nil {
			log.Warnf("Chunk %d: caching reply: %v", j.index+1, err)
		}
	}

	log.Debugf("Chunk %d enriched (%d records)", j.index+1, len(records))
	result.Status = StatusEnriched
	result.records = records
	return result
}

func accept(original []any, content string) ([]any, error) {
	records, err := ExtractJSONArray(content)
	if err != nil {
		return nil, err
	}
	if err := CheckShape(original, records); err != nil {
		return nil, err
	}
	return records, nil
}

// encodeChunk renders records as two-space indented JSON.
func encodeChunk(records []any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// complete sends one chunk, retrying transient failures.
func (e *Enricher) complete(ctx context.Context, request string, count int) (string, int, error) {
	content := fmt.Sprintf("%s%s\n\nProcess these %d individuals:\n%s", e.opts.Prompt, StrictSuffix, count, request)

	req := openai.ChatCompletionRequest{
		Model: e.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	}

	attempts := 0
	operation := func() (string, error) {
		attempts++

		if e.opts.Limiter != nil {
			if err := e.opts.Limiter.Wait(ctx, e.opts.Endpoint); err != nil {
				return "", backoff.Permanent(err)
			}
		}

		resp, err := e.client.CreateChatCompletion(ctx, req)
		if err != nil {
			if ctx.Err() != nil || !isTransient(err) {
				return "", backoff.Permanent(err)
			}
			e.opts.Logger.Debugf("Transient enrichment error (attempt %d): %v", attempts, err)
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", backoff.Permanent(errors.New("reply has no choices"))
		}
		return resp.Choices[0].Message.Content, nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(e.opts.NewBackOff(), uint64(e.opts.MaxRetries)), ctx)
	text, err := backoff.RetryWithData[string](operation, policy)
	return text, attempts, err
}

// isTransient reports whether err is worth retrying: rate limiting, server
// errors and transport failures.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
