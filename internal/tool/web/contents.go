package web

import (
	"context"
	"fmt"
	"strings"

	"github.com/Cyclone1070/lumen/internal/config"
	"github.com/Cyclone1070/lumen/internal/tool"
)

const ContentsToolName = "get_page_contents"

// ContentsTool fetches the text of known URLs.
type ContentsTool struct {
	client searchClient
	cfg    config.ToolsConfig
}

// NewContentsTool creates the get_page_contents tool.
func NewContentsTool(client searchClient, cfg config.ToolsConfig) *ContentsTool {
	return &ContentsTool{client: client, cfg: cfg}
}

func (t *ContentsTool) Name() string { return ContentsToolName }

func (t *ContentsTool) Description() string {
	return fmt.Sprintf("Fetch the readable text of up to %d web pages. Pass a single URL or a list.", t.cfg.MaxURLsPerCall)
}

func (t *ContentsTool) Parameters() []tool.Parameter {
	return []tool.Parameter{
		{Name: "urls", Type: tool.TypeArray, Description: "http(s) URLs to fetch.", Required: true, Items: &tool.Parameter{Type: tool.TypeString}},
		{Name: "maxCharacters", Type: tool.TypeInteger, Description: fmt.Sprintf("Characters per page, %d-%d (default %d).", t.cfg.MinMaxCharacters, t.cfg.MaxMaxCharacters, t.cfg.DefaultContentsChars)},
		{Name: "livecrawl", Type: tool.TypeString, Description: "Freshness mode (default fallback).", Enum: livecrawlModes},
	}
}

func (t *ContentsTool) Execute(ctx context.Context, arguments string) (string, error) {
	req, err := parseContentsRequest(arguments, t.cfg)
	if err != nil {
		return "", err
	}

	results, err := t.client.GetContents(ctx, req.URLs, req.MaxCharacters, req.Livecrawl)
	if err != nil {
		return "", providerError(ContentsToolName, err)
	}
	if len(results) == 0 {
		return "", &tool.ExecutionFailedError{Tool: ContentsToolName, Reason: "no content could be retrieved from " + strings.Join(req.URLs, ", ")}
	}

	out := FormatResults(fmt.Sprintf("Retrieved %d of %d pages:", len(results), len(req.URLs)), results)

	returned := make(map[string]bool, len(results))
	for _, r := range results {
		returned[r.URL] = true
	}
	var missing []string
	for _, u := range req.URLs {
		if !returned[u] {
			missing = append(missing, u)
		}
	}
	if len(missing) > 0 && len(missing) < len(req.URLs) {
		out += "\nCould not retrieve:\n- " + strings.Join(missing, "\n- ") + "\n"
	}
	return out, nil
}
