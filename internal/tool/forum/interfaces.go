package forum

import (
	"context"

	"github.com/Cyclone1070/lumen/internal/provider/exa"
	"github.com/Cyclone1070/lumen/internal/provider/reddit"
)

// searchClient finds threads through the web search provider.
type searchClient interface {
	Search(ctx context.Context, req exa.SearchRequest) ([]exa.Result, error)
}

// threadFetcher reads threads concurrently, one result per input URL.
type threadFetcher interface {
	FetchThreads(ctx context.Context, urls []string) []reddit.ThreadResult
}
