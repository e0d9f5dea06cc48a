package exa

import (
	"fmt"
	"strings"
)

// SearchType selects the search provider's retrieval mode.
type SearchType string

const (
	SearchFast SearchType = "fast"
	SearchAuto SearchType = "auto"
	SearchDeep SearchType = "deep"
)

// Livecrawl governs cached vs. freshly crawled content.
type Livecrawl string

const (
	LivecrawlFallback  Livecrawl = "fallback"
	LivecrawlPreferred Livecrawl = "preferred"
	LivecrawlAlways    Livecrawl = "always"
)

// Limits enforced by the client before any request is sent.
const (
	MinNumResults         = 1
	MaxNumResults         = 50
	DefaultNumResults     = 5
	DefaultSearchChars    = 2000
	DefaultContentsChars  = 5000
	MaxContentsURLsPerReq = 100
)

// SearchRequest is the input to Search.
type SearchRequest struct {
	Query      string
	NumResults int // zero means DefaultNumResults

	// MaxCharacters bounds the text returned per result. Nil skips
	// content retrieval entirely.
	MaxCharacters  *int
	Type           SearchType // empty means auto
	Livecrawl      Livecrawl  // empty means fallback
	IncludeDomains []string
}

// Validate checks the request and fills defaults in place.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return &ValidationError{Reason: "query is required"}
	}
	if r.NumResults == 0 {
		r.NumResults = DefaultNumResults
	}
	if r.NumResults < MinNumResults || r.NumResults > MaxNumResults {
		return &ValidationError{Reason: fmt.Sprintf("numResults must be between %d and %d, got %d", MinNumResults, MaxNumResults, r.NumResults)}
	}
	if r.MaxCharacters != nil && *r.MaxCharacters <= 0 {
		return &ValidationError{Reason: fmt.Sprintf("maxCharacters must be positive, got %d", *r.MaxCharacters)}
	}
	switch r.Type {
	case "":
		r.Type = SearchAuto
	case SearchFast, SearchAuto, SearchDeep:
	default:
		return &ValidationError{Reason: fmt.Sprintf("unknown search type %q", r.Type)}
	}
	lc, err := normalizeLivecrawl(r.Livecrawl)
	if err != nil {
		return err
	}
	r.Livecrawl = lc
	return nil
}

func normalizeLivecrawl(lc Livecrawl) (Livecrawl, error) {
	switch lc {
	case "":
		return LivecrawlFallback, nil
	case LivecrawlFallback, LivecrawlPreferred, LivecrawlAlways:
		return lc, nil
	default:
		return "", &ValidationError{Reason: fmt.Sprintf("unknown livecrawl mode %q", lc)}
	}
}

// Result is one search hit or fetched page.
type Result struct {
	Title         string `json:"title,omitempty"`
	URL           string `json:"url"`
	Text          string `json:"text,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty"`
	Author        string `json:"author,omitempty"`
}

// Wire shapes.

type textOptions struct {
	MaxCharacters int `json:"maxCharacters"`
}

type contentsOptions struct {
	Text      textOptions `json:"text"`
	Livecrawl Livecrawl   `json:"livecrawl"`
}

type searchBody struct {
	Query          string           `json:"query"`
	NumResults     int              `json:"numResults"`
	Type           SearchType       `json:"type"`
	IncludeDomains []string         `json:"includeDomains,omitempty"`
	Contents       *contentsOptions `json:"contents,omitempty"`
}

type contentsBody struct {
	URLs      []string    `json:"urls"`
	Text      textOptions `json:"text"`
	Livecrawl Livecrawl   `json:"livecrawl"`
}

type resultsEnvelope struct {
	Results *[]wireResult `json:"results"`
}

// The API sends null for missing optional fields.
type wireResult struct {
	Title         *string `json:"title"`
	URL           string  `json:"url"`
	Text          *string `json:"text"`
	PublishedDate *string `json:"publishedDate"`
	Author        *string `json:"author"`
}

func (w wireResult) toResult() Result {
	return Result{
		Title:         deref(w.Title),
		URL:           w.URL,
		Text:          deref(w.Text),
		PublishedDate: deref(w.PublishedDate),
		Author:        deref(w.Author),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
