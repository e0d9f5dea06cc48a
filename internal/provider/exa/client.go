// Package exa is a client for the Exa web search and page contents API.
package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const maxErrorBody = 4096

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client. A zero timeout leaves the http.Client unbounded.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "exa"),
	}
}

// Search runs a web search. Results keep the provider's ranking order.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := searchBody{
		Query:          req.Query,
		NumResults:     req.NumResults,
		Type:           req.Type,
		IncludeDomains: req.IncludeDomains,
	}
	if req.MaxCharacters != nil {
		body.Contents = &contentsOptions{
			Text:      textOptions{MaxCharacters: *req.MaxCharacters},
			Livecrawl: req.Livecrawl,
		}
	}

	return c.post(ctx, "/search", body)
}

// GetContents fetches page text for each URL the provider could retrieve.
// A non-positive maxCharacters means DefaultContentsChars.
func (c *Client) GetContents(ctx context.Context, urls []string, maxCharacters int, livecrawl Livecrawl) ([]Result, error) {
	if len(urls) == 0 {
		return nil, &ValidationError{Reason: "at least one URL is required"}
	}
	if len(urls) > MaxContentsURLsPerReq {
		return nil, &ValidationError{Reason: fmt.Sprintf("at most %d URLs per request, got %d", MaxContentsURLsPerReq, len(urls))}
	}
	if maxCharacters <= 0 {
		maxCharacters = DefaultContentsChars
	}
	lc, err := normalizeLivecrawl(livecrawl)
	if err != nil {
		return nil, err
	}

	return c.post(ctx, "/contents", contentsBody{
		URLs:      urls,
		Text:      textOptions{MaxCharacters: maxCharacters},
		Livecrawl: lc,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]Result, error) {
	if c.apiKey == "" {
		return nil, &AuthenticationError{Detail: "no API key configured"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("request failed", "path", path, "status", resp.StatusCode)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return nil, &AuthenticationError{Detail: strings.TrimSpace(string(b))}
		case http.StatusTooManyRequests:
			return nil, &RateLimitedError{RetryAfter: resp.Header.Get("Retry-After")}
		default:
			return nil, &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		}
	}

	var env resultsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &InvalidResponseError{Cause: err}
	}
	if env.Results == nil {
		return nil, &InvalidResponseError{Cause: errors.New("missing results field")}
	}

	results := make([]Result, 0, len(*env.Results))
	for _, w := range *env.Results {
		results = append(results, w.toResult())
	}
	c.logger.Debug("request finished", "path", path, "results", len(results), "duration", time.Since(start))
	return results, nil
}
