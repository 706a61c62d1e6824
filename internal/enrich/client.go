// =============================================================================
// FTZ to GEDCOM Converter - Enrichment Chat Client
// =============================================================================
//
// This module builds the OpenAI-compatible chat client used for enrichment.
// The default endpoint is OpenRouter, which expects two attribution headers on
// every request; headerTransport adds them.
//
// =============================================================================

package enrich

import (
	"context"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/config"
)

// ErrMissingAPIKey is returned by NewClient when no key is configured.
var ErrMissingAPIKey = errors.New("enrichment API key is required")

// ChatClient is the part of the OpenAI client the enricher needs.
// *openai.Client satisfies it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewClient creates a chat client for cfg.
//
// PARAMETERS:
//   - cfg: The LLM section of the main configuration. APIKey must be set.
//
// RETURNS:
//   - A client that sends cfg.Referer and cfg.Title as HTTP-Referer and X-Title.
//   - ErrMissingAPIKey when cfg.APIKey is empty.
func NewClient(cfg config.LLMConfig) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	headers := http.Header{}
	if cfg.Referer != "" {
		headers.Set("HTTP-Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		headers.Set("X-Title", cfg.Title)
	}

	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			headers: headers,
		},
	}

	return openai.NewClientWithConfig(clientConfig), nil
}

// headerTransport adds fixed headers to every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	for name, values := range t.headers {
		for _, value := range values {
			clone.Header.Add(name, value)
		}
	}
	return t.base.RoundTrip(clone)
}
