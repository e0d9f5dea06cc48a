// Package forum implements the reddit_search and reddit_read tools.
package forum

import (
	"context"
	"errors"
	"fmt"

	"github.com/Cyclone1070/lumen/internal/config"
	"github.com/Cyclone1070/lumen/internal/provider/exa"
	"github.com/Cyclone1070/lumen/internal/tool"
	"github.com/Cyclone1070/lumen/internal/tool/web"
)

const (
	SearchToolName = "reddit_search"
	forumDomain    = "reddit.com"
)

// SearchTool searches forum discussions only.
type SearchTool struct {
	client searchClient
	cfg    config.ToolsConfig
}

// NewSearchTool creates the reddit_search tool.
func NewSearchTool(client searchClient, cfg config.ToolsConfig) *SearchTool {
	return &SearchTool{client: client, cfg: cfg}
}

func (t *SearchTool) Name() string { return SearchToolName }

func (t *SearchTool) Description() string {
	return "Search Reddit for discussions, opinions and first-hand experiences. " +
		"Returns thread URLs with excerpts; pass them to reddit_read for the full thread and top comments."
}

func (t *SearchTool) Parameters() []tool.Parameter {
	return []tool.Parameter{
		{Name: "query", Type: tool.TypeString, Description: "What to look for.", Required: true},
		{Name: "numResults", Type: tool.TypeInteger, Description: fmt.Sprintf("Number of threads, 1-%d (default %d).", t.cfg.ForumMaxNumResults, t.cfg.DefaultNumResults)},
		{Name: "maxCharacters", Type: tool.TypeInteger, Description: fmt.Sprintf("Excerpt length, %d-%d (default %d).", t.cfg.MinMaxCharacters, t.cfg.ForumMaxCharacters, t.cfg.ForumDefaultChars)},
	}
}

func (t *SearchTool) Execute(ctx context.Context, arguments string) (string, error) {
	args, err := tool.ParseArgs(arguments)
	if err != nil {
		return "", err
	}
	query, err := args.RequiredString("query")
	if err != nil {
		return "", err
	}
	numResults, err := args.IntInRange("numResults", min(t.cfg.DefaultNumResults, t.cfg.ForumMaxNumResults), 1, t.cfg.ForumMaxNumResults)
	if err != nil {
		return "", err
	}
	maxChars, err := args.IntInRange("maxCharacters", t.cfg.ForumDefaultChars, t.cfg.MinMaxCharacters, t.cfg.ForumMaxCharacters)
	if err != nil {
		return "", err
	}

	results, err := t.client.Search(ctx, exa.SearchRequest{
		Query:          query,
		NumResults:     numResults,
		MaxCharacters:  &maxChars,
		Type:           exa.SearchAuto,
		Livecrawl:      exa.LivecrawlFallback,
		IncludeDomains: []string{forumDomain},
	})
	if err != nil {
		var invalid *exa.ValidationError
		if errors.As(err, &invalid) {
			return "", tool.InvalidArguments("%s", invalid.Reason)
		}
		return "", &tool.ExecutionFailedError{Tool: SearchToolName, Reason: err.Error(), Cause: err}
	}
	if len(results) == 0 {
		return fmt.Sprintf("No Reddit discussions found for %q.", query), nil
	}

	out := web.FormatResults(fmt.Sprintf("Found %d Reddit discussions for %q:", len(results), query), results)
	return out + "\nUse reddit_read with the thread URLs above to read full discussions.\n", nil
}
