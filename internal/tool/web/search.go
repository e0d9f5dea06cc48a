// Package web implements the web_search and get_page_contents tools.
package web

import (
	"context"
	"errors"
	"fmt"

	"github.com/Cyclone1070/lumen/internal/config"
	"github.com/Cyclone1070/lumen/internal/provider/exa"
	"github.com/Cyclone1070/lumen/internal/tool"
)

const SearchToolName = "web_search"

// SearchTool searches the web.
type SearchTool struct {
	client searchClient
	cfg    config.ToolsConfig
}

// NewSearchTool creates the web_search tool.
func NewSearchTool(client searchClient, cfg config.ToolsConfig) *SearchTool {
	return &SearchTool{client: client, cfg: cfg}
}

func (t *SearchTool) Name() string { return SearchToolName }

func (t *SearchTool) Description() string {
	return "Search the web for current information. Returns ranked results with title, URL, " +
		"publication date and an excerpt of the page text. Use get_page_contents to read a result in full."
}

func (t *SearchTool) Parameters() []tool.Parameter {
	return []tool.Parameter{
		{Name: "query", Type: tool.TypeString, Description: "Natural-language search query.", Required: true},
		{Name: "numResults", Type: tool.TypeInteger, Description: fmt.Sprintf("Number of results, 1-%d (default %d).", t.cfg.MaxNumResults, t.cfg.DefaultNumResults)},
		{Name: "maxCharacters", Type: tool.TypeInteger, Description: fmt.Sprintf("Characters of page text per result, %d-%d (default %d).", t.cfg.MinMaxCharacters, t.cfg.MaxMaxCharacters, t.cfg.DefaultSearchChars)},
		{Name: "type", Type: tool.TypeString, Description: "fast for quick lookups, deep for thorough research (default auto).", Enum: searchTypes},
		{Name: "livecrawl", Type: tool.TypeString, Description: "Freshness: fallback uses the cache when possible (default).", Enum: livecrawlModes},
		{Name: "includeDomains", Type: tool.TypeArray, Description: "Only return results from these domains.", Items: &tool.Parameter{Type: tool.TypeString}},
	}
}

func (t *SearchTool) Execute(ctx context.Context, arguments string) (string, error) {
	req, err := parseSearchRequest(arguments, t.cfg)
	if err != nil {
		return "", err
	}

	maxChars := req.MaxCharacters
	results, err := t.client.Search(ctx, exa.SearchRequest{
		Query:          req.Query,
		NumResults:     req.NumResults,
		MaxCharacters:  &maxChars,
		Type:           req.Type,
		Livecrawl:      req.Livecrawl,
		IncludeDomains: req.IncludeDomains,
	})
	if err != nil {
		return "", providerError(SearchToolName, err)
	}
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", req.Query), nil
	}

	return FormatResults(fmt.Sprintf("Found %d results for %q:", len(results), req.Query), results), nil
}

// providerError keeps input errors recoverable and wraps everything else.
func providerError(toolName string, err error) error {
	var invalid *exa.ValidationError
	if errors.As(err, &invalid) {
		return tool.InvalidArguments("%s", invalid.Reason)
	}
	return &tool.ExecutionFailedError{Tool: toolName, Reason: err.Error(), Cause: err}
}
