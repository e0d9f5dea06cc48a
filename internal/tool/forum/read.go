package forum

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Cyclone1070/lumen/internal/config"
	"github.com/Cyclone1070/lumen/internal/provider/reddit"
	"github.com/Cyclone1070/lumen/internal/tool"
)

const (
	ReadToolName = "reddit_read"

	maxSelftextChars = 4000
	maxCommentChars  = 1000
)

// ReadTool reads full threads with their top comments.
type ReadTool struct {
	fetcher threadFetcher
	cfg     config.ToolsConfig
}

// NewReadTool creates the reddit_read tool.
func NewReadTool(fetcher threadFetcher, cfg config.ToolsConfig) *ReadTool {
	return &ReadTool{fetcher: fetcher, cfg: cfg}
}

func (t *ReadTool) Name() string { return ReadToolName }

func (t *ReadTool) Description() string {
	return fmt.Sprintf("Read up to %d Reddit threads: the post plus its top comments and replies. "+
		"Pass a single thread URL or a list.", t.cfg.ForumMaxThreadsPerCall)
}

func (t *ReadTool) Parameters() []tool.Parameter {
	return []tool.Parameter{
		{Name: "urls", Type: tool.TypeArray, Description: "Reddit thread URLs (https://www.reddit.com/r/.../comments/...).", Required: true, Items: &tool.Parameter{Type: tool.TypeString}},
	}
}

func (t *ReadTool) Execute(ctx context.Context, arguments string) (string, error) {
	args, err := tool.ParseArgs(arguments)
	if err != nil {
		return "", err
	}
	urls, err := args.StringList("urls")
	if err != nil {
		return "", err
	}
	if len(urls) == 0 {
		return "", tool.InvalidArguments("urls must contain at least one thread URL")
	}
	if len(urls) > t.cfg.ForumMaxThreadsPerCall {
		return "", tool.InvalidArguments("urls accepts at most %d threads per call, got %d", t.cfg.ForumMaxThreadsPerCall, len(urls))
	}
	for _, u := range urls {
		if !reddit.IsThreadURL(u) {
			return "", tool.InvalidArguments("%q is not a reddit.com thread URL", u)
		}
	}

	results := t.fetcher.FetchThreads(ctx, urls)

	var b strings.Builder
	failed := 0
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n=====\n\n")
		}
		if r.Err != nil {
			failed++
			fmt.Fprintf(&b, "Failed to read %s: %v\n", r.URL, r.Err)
			continue
		}
		formatThread(&b, r.Thread)
	}

	if failed == len(results) {
		return "", &tool.ExecutionFailedError{Tool: ReadToolName, Reason: strings.TrimSpace(b.String()), Cause: results[0].Err}
	}
	return b.String(), nil
}

func formatThread(b *strings.Builder, th *reddit.Thread) {
	fmt.Fprintf(b, "# %s\n", th.Title)
	fmt.Fprintf(b, "r/%s | u/%s | score %d | %d comments", th.Subreddit, th.Author, th.Score, th.NumComments)
	if !th.CreatedAt.IsZero() {
		fmt.Fprintf(b, " | %s", th.CreatedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(b, "\nURL: %s\n", th.URL)
	if text := strings.TrimSpace(th.Selftext); text != "" {
		b.WriteString("\n")
		b.WriteString(truncate(text, maxSelftextChars))
		b.WriteString("\n")
	}

	if len(th.Comments) == 0 {
		b.WriteString("\n(no comments)\n")
		return
	}
	fmt.Fprintf(b, "\n## Top comments (%d shown)\n\n", reddit.CountComments(th.Comments))
	writeComments(b, th.Comments)
}

func writeComments(b *strings.Builder, comments []reddit.Comment) {
	for _, c := range comments {
		indent := strings.Repeat("  ", c.Depth)
		body := strings.ReplaceAll(truncate(strings.TrimSpace(c.Body), maxCommentChars), "\n", "\n"+indent+"  ")
		fmt.Fprintf(b, "%s- u/%s (%d): %s\n", indent, c.Author, c.Score, body)
		writeComments(b, c.Replies)
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}
