package adapters

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ppiankov/reviewharvest/internal/fetch"
	"github.com/ppiankov/reviewharvest/internal/worker"
)

// JSONClient performs JSON GETs against review and social APIs
type JSONClient interface {
	GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error
}

// PageFetcher fetches storefront HTML
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Page, error)
}

// CrawlSupport is the part of the fetch stack the site crawler shares
type CrawlSupport interface {
	Client() *http.Client
	UserAgent() string
	Allowed(ctx context.Context, rawURL string) error
	Limiter() *worker.Limiter
}

var (
	_ JSONClient   = (*fetch.APIClient)(nil)
	_ PageFetcher  = (*fetch.Fetcher)(nil)
	_ CrawlSupport = (*fetch.Fetcher)(nil)
)
