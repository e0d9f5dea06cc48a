package web

import (
	"context"

	"github.com/Cyclone1070/lumen/internal/provider/exa"
)

// searchClient is the slice of the search provider the web tools need.
type searchClient interface {
	Search(ctx context.Context, req exa.SearchRequest) ([]exa.Result, error)
	GetContents(ctx context.Context, urls []string, maxCharacters int, livecrawl exa.Livecrawl) ([]exa.Result, error)
}
