package forum

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Cyclone1070/lumen/internal/config"
	"github.com/Cyclone1070/lumen/internal/provider/exa"
	"github.com/Cyclone1070/lumen/internal/provider/reddit"
	"github.com/Cyclone1070/lumen/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSearchClient struct {
	searchFunc func(ctx context.Context, req exa.SearchRequest) ([]exa.Result, error)
}

func (m *mockSearchClient) Search(ctx context.Context, req exa.SearchRequest) ([]exa.Result, error) {
	return m.searchFunc(ctx, req)
}

type mockFetcher struct {
	calls            int
	fetchThreadsFunc func(ctx context.Context, urls []string) []reddit.ThreadResult
}

func (m *mockFetcher) FetchThreads(ctx context.Context, urls []string) []reddit.ThreadResult {
	m.calls++
	return m.fetchThreadsFunc(ctx, urls)
}

func toolsConfig() config.ToolsConfig {
	return config.DefaultConfig().Tools
}

func requireInvalid(t *testing.T, err error, contains string) {
	t.Helper()
	var invalid *tool.InvalidArgumentsError
	require.True(t, errors.As(err, &invalid), "expected InvalidArgumentsError, got %v", err)
	assert.Contains(t, invalid.Error(), contains)
}

func TestSearchTool_RestrictsToForumDomain(t *testing.T) {
	var got exa.SearchRequest
	client := &mockSearchClient{searchFunc: func(_ context.Context, req exa.SearchRequest) ([]exa.Result, error) {
		got = req
		return []exa.Result{{Title: "Best mechanical keyboard?", URL: "https://www.reddit.com/r/keyboards/comments/k1/best/", Text: "I use..."}}, nil
	}}

	out, err := NewSearchTool(client, toolsConfig()).Execute(context.Background(), `{"query":"mechanical keyboard"}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"reddit.com"}, got.IncludeDomains)
	assert.Equal(t, 5, got.NumResults)
	assert.Equal(t, 1000, *got.MaxCharacters)
	assert.Contains(t, out, "Found 1 Reddit discussions")
	assert.Contains(t, out, "reddit_read")
}

func TestSearchTool_NarrowerRanges(t *testing.T) {
	st := NewSearchTool(&mockSearchClient{}, toolsConfig())

	_, err := st.Execute(context.Background(), `{"query":"q","numResults":21}`)
	requireInvalid(t, err, "numResults must be between 1 and 20, got 21")

	_, err = st.Execute(context.Background(), `{"query":"q","maxCharacters":6000}`)
	requireInvalid(t, err, "maxCharacters must be between 100 and 5000, got 6000")
}

func TestSearchTool_ProviderFailure(t *testing.T) {
	client := &mockSearchClient{searchFunc: func(context.Context, exa.SearchRequest) ([]exa.Result, error) {
		return nil, &exa.AuthenticationError{Detail: "no API key configured"}
	}}

	_, err := NewSearchTool(client, toolsConfig()).Execute(context.Background(), `{"query":"q"}`)
	var failed *tool.ExecutionFailedError
	require.True(t, errors.As(err, &failed))
	assert.Contains(t, failed.Reason, "no API key configured")
}

func sampleThread() *reddit.Thread {
	return &reddit.Thread{
		Title:       "Is Go good for CLIs?",
		Selftext:    "Thinking about rewriting my tool.",
		Author:      "op",
		Score:       120,
		NumComments: 3,
		Subreddit:   "golang",
		CreatedAt:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		URL:         "https://www.reddit.com/r/golang/comments/abc/is_go_good/",
		Comments: []reddit.Comment{
			{Author: "a", Body: "Yes.\nSingle binary.", Score: 50, Depth: 0, Replies: []reddit.Comment{
				{Author: "b", Body: "cobra helps", Score: 9, Depth: 1},
			}},
		},
	}
}

func TestReadTool_FormatsThreads(t *testing.T) {
	fetcher := &mockFetcher{fetchThreadsFunc: func(_ context.Context, urls []string) []reddit.ThreadResult {
		return []reddit.ThreadResult{
			{URL: urls[0], Thread: sampleThread()},
			{URL: urls[1], Err: &reddit.ThreadNotFoundError{URL: urls[1]}},
		}
	}}

	out, err := NewReadTool(fetcher, toolsConfig()).Execute(context.Background(),
		`{"urls":["https://www.reddit.com/r/golang/comments/abc/is_go_good/","https://reddit.com/r/golang/comments/gone/x"]}`)
	require.NoError(t, err)

	assert.Contains(t, out, "# Is Go good for CLIs?")
	assert.Contains(t, out, "r/golang | u/op | score 120 | 3 comments | 2024-05-01")
	assert.Contains(t, out, "Thinking about rewriting my tool.")
	assert.Contains(t, out, "## Top comments (2 shown)")
	assert.Contains(t, out, "- u/a (50): Yes.\n  Single binary.")
	assert.Contains(t, out, "  - u/b (9): cobra helps")
	assert.Contains(t, out, "Failed to read https://reddit.com/r/golang/comments/gone/x: thread not found")
	assert.Less(t, strings.Index(out, "Is Go good"), strings.Index(out, "Failed to read"), "results keep input order")
}

func TestReadTool_AllFailed(t *testing.T) {
	fetcher := &mockFetcher{fetchThreadsFunc: func(_ context.Context, urls []string) []reddit.ThreadResult {
		return []reddit.ThreadResult{{URL: urls[0], Err: &reddit.RateLimitedError{}}}
	}}

	_, err := NewReadTool(fetcher, toolsConfig()).Execute(context.Background(), `{"urls":"https://reddit.com/r/a/comments/b/c"}`)

	var failed *tool.ExecutionFailedError
	require.True(t, errors.As(err, &failed))
	var rl *reddit.RateLimitedError
	assert.True(t, errors.As(err, &rl))
}

func TestReadTool_InvalidArguments(t *testing.T) {
	fetcher := &mockFetcher{fetchThreadsFunc: func(context.Context, []string) []reddit.ThreadResult {
		return nil
	}}
	rt := NewReadTool(fetcher, toolsConfig())

	tests := []struct {
		name string
		args string
		want string
	}{
		{"Missing", `{}`, "at least one thread URL"},
		{"Not Reddit", `{"urls":"https://news.ycombinator.com/item?id=1"}`, "not a reddit.com thread URL"},
		{"Subreddit Only", `{"urls":"https://reddit.com/r/golang"}`, "not a reddit.com thread URL"},
		{"Too Many", `{"urls":["https://reddit.com/r/a/comments/1/x","https://reddit.com/r/a/comments/2/x","https://reddit.com/r/a/comments/3/x","https://reddit.com/r/a/comments/4/x","https://reddit.com/r/a/comments/5/x","https://reddit.com/r/a/comments/6/x"]}`, "at most 5 threads per call, got 6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.Execute(context.Background(), tt.args)
			requireInvalid(t, err, tt.want)
		})
	}
	assert.Zero(t, fetcher.calls)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Equal(t, "hé…", truncate("héllo", 2))
}
