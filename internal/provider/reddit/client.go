// Package reddit reads forum threads through the public JSON endpoints.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	maxErrorBody       = 4096
	defaultConcurrency = 4
	baseURL            = "https://www.reddit.com"
)

// Client is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	concurrency int
	logger      *slog.Logger
}

// NewClient creates a client. concurrency bounds FetchThreads fan-out.
func NewClient(userAgent string, timeout time.Duration, concurrency int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		userAgent:   userAgent,
		concurrency: concurrency,
		logger:      logger.With("component", "reddit"),
	}
}

// WithHTTPClient replaces the transport. Used to point the client at a test server.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// FetchThread downloads and parses one thread.
func (c *Client) FetchThread(ctx context.Context, threadURL string) (*Thread, error) {
	endpoint, err := NormalizeURL(threadURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("thread fetch failed", "url", threadURL, "status", resp.StatusCode)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, &ThreadNotFoundError{URL: threadURL}
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, &AuthenticationError{StatusCode: resp.StatusCode}
		case http.StatusTooManyRequests:
			return nil, &RateLimitedError{RetryAfter: resp.Header.Get("Retry-After")}
		default:
			return nil, &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}
	return parseThread(raw, threadURL)
}

// FetchThreads fetches every URL concurrently and returns one result per
// input, in input order.
func (c *Client) FetchThreads(ctx context.Context, urls []string) []ThreadResult {
	results := make([]ThreadResult, len(urls))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			thread, err := c.FetchThread(ctx, u)
			results[i] = ThreadResult{URL: u, Thread: thread, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func parseThread(raw []byte, threadURL string) (*Thread, error) {
	var listings []listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &InvalidResponseError{Cause: err}
		}
		return nil, &ParseError{Reason: "expected an array of listings"}
	}
	if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		return nil, &ParseError{Reason: "missing post listing"}
	}

	postChild := listings[0].Data.Children[0]
	if postChild.Kind != "t3" {
		return nil, &ParseError{Reason: fmt.Sprintf("unexpected post kind %q", postChild.Kind)}
	}
	var post postData
	if err := json.Unmarshal(postChild.Data, &post); err != nil {
		return nil, &ParseError{Reason: "malformed post: " + err.Error()}
	}

	thread := &Thread{
		Title:       post.Title,
		Selftext:    post.Selftext,
		Author:      post.Author,
		Score:       post.Score,
		NumComments: post.NumComments,
		Subreddit:   post.Subreddit,
		URL:         threadURL,
	}
	if post.CreatedUTC > 0 {
		thread.CreatedAt = time.Unix(int64(post.CreatedUTC), 0).UTC()
	}
	if post.Permalink != "" {
		thread.URL = baseURL + "/" + strings.TrimLeft(post.Permalink, "/")
	}

	if len(listings) > 1 {
		thread.Comments, _ = parseComments(listings[1].Data.Children, 0, MaxTotalComments)
	}
	return thread, nil
}
