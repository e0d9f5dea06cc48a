package web

import (
	"net/url"

	"github.com/Cyclone1070/lumen/internal/config"
	"github.com/Cyclone1070/lumen/internal/provider/exa"
	"github.com/Cyclone1070/lumen/internal/tool"
)

var (
	searchTypes    = []string{string(exa.SearchFast), string(exa.SearchAuto), string(exa.SearchDeep)}
	livecrawlModes = []string{string(exa.LivecrawlFallback), string(exa.LivecrawlPreferred), string(exa.LivecrawlAlways)}
)

// SearchRequest is the validated input of web_search.
type SearchRequest struct {
	Query          string
	NumResults     int
	MaxCharacters  int
	Type           exa.SearchType
	Livecrawl      exa.Livecrawl
	IncludeDomains []string
}

func parseSearchRequest(arguments string, cfg config.ToolsConfig) (*SearchRequest, error) {
	args, err := tool.ParseArgs(arguments)
	if err != nil {
		return nil, err
	}

	req := &SearchRequest{}
	if req.Query, err = args.RequiredString("query"); err != nil {
		return nil, err
	}
	if req.NumResults, err = args.IntInRange("numResults", cfg.DefaultNumResults, 1, cfg.MaxNumResults); err != nil {
		return nil, err
	}
	if req.MaxCharacters, err = args.IntInRange("maxCharacters", cfg.DefaultSearchChars, cfg.MinMaxCharacters, cfg.MaxMaxCharacters); err != nil {
		return nil, err
	}
	searchType, err := args.Enum("type", string(exa.SearchAuto), searchTypes)
	if err != nil {
		return nil, err
	}
	req.Type = exa.SearchType(searchType)
	livecrawl, err := args.Enum("livecrawl", string(exa.LivecrawlFallback), livecrawlModes)
	if err != nil {
		return nil, err
	}
	req.Livecrawl = exa.Livecrawl(livecrawl)
	if req.IncludeDomains, err = args.StringList("includeDomains"); err != nil {
		return nil, err
	}
	return req, nil
}

// ContentsRequest is the validated input of get_page_contents.
type ContentsRequest struct {
	URLs          []string
	MaxCharacters int
	Livecrawl     exa.Livecrawl
}

func parseContentsRequest(arguments string, cfg config.ToolsConfig) (*ContentsRequest, error) {
	args, err := tool.ParseArgs(arguments)
	if err != nil {
		return nil, err
	}

	req := &ContentsRequest{}
	if req.URLs, err = args.StringList("urls"); err != nil {
		return nil, err
	}
	if len(req.URLs) == 0 {
		return nil, tool.InvalidArguments("urls must contain at least one URL")
	}
	if len(req.URLs) > cfg.MaxURLsPerCall {
		return nil, tool.InvalidArguments("urls accepts at most %d URLs per call, got %d", cfg.MaxURLsPerCall, len(req.URLs))
	}
	for _, u := range req.URLs {
		if !isHTTPURL(u) {
			return nil, tool.InvalidArguments("%q is not an http(s) URL", u)
		}
	}
	if req.MaxCharacters, err = args.IntInRange("maxCharacters", cfg.DefaultContentsChars, cfg.MinMaxCharacters, cfg.MaxMaxCharacters); err != nil {
		return nil, err
	}
	livecrawl, err := args.Enum("livecrawl", string(exa.LivecrawlFallback), livecrawlModes)
	if err != nil {
		return nil, err
	}
	req.Livecrawl = exa.Livecrawl(livecrawl)
	return req, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
