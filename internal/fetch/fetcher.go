package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/reviewharvest/internal/cache"
	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/ppiankov/reviewharvest/internal/resilience"
	"github.com/ppiankov/reviewharvest/internal/util"
	"github.com/ppiankov/reviewharvest/internal/worker"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Options configures the shared HTTP stack used by every adapter
type Options struct {
	HTTP     model.HTTPConfig
	Retry    resilience.RetryConfig
	Cache    cache.Cache // nil disables caching
	CacheTTL time.Duration
	Limiter  *worker.Limiter // nil disables pacing
}

// OptionsFromConfig builds fetch options from the run configuration
func OptionsFromConfig(cfg *model.Config) Options {
	return Options{
		HTTP:     cfg.HTTP,
		Retry:    resilience.FromConfig(cfg.Retry),
		Cache:    cache.New(cfg.Cache),
		CacheTTL: cfg.Cache.TTL,
		Limiter:  worker.NewLimiterFromConfig(cfg.RateLimiting),
	}
}

// Page is a fetched HTML document
type Page struct {
	HTML        string
	URL         string // Requested URL
	FinalURL    string // After redirects
	StatusCode  int
	ContentType string
	FromCache   bool
}

// Fetcher fetches HTML pages with robots gating, per-domain pacing, retry and caching
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	retry      resilience.RetryConfig
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter
	robots     *util.RobotsChecker // nil when robots.txt is ignored
}

// NewFetcher creates a Fetcher. The underlying http.Client is shared with the
// API client, the site crawler and the robots checker.
func NewFetcher(opts Options) (*Fetcher, error) {
	proxy, err := util.NewProxyFunc(opts.HTTP.Proxies)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxy
	if opts.HTTP.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in flag
	}

	timeout := opts.HTTP.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBytes := opts.HTTP.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 5_000_000
	}
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("stopped after 5 redirects")
			}
			return nil
		},
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  opts.HTTP.UserAgent,
		maxBytes:   maxBytes,
		retry:      opts.Retry,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		limiter:    opts.Limiter,
	}
	if opts.HTTP.RespectRobots {
		f.robots = util.NewRobotsChecker(opts.HTTP.UserAgent, client)
	}
	return f, nil
}

// Client returns the shared http.Client
func (f *Fetcher) Client() *http.Client { return f.httpClient }

// UserAgent returns the configured User-Agent
func (f *Fetcher) UserAgent() string { return f.userAgent }

// Limiter returns the shared per-domain limiter, possibly nil
func (f *Fetcher) Limiter() *worker.Limiter { return f.limiter }

// Allowed checks robots.txt for rawURL, applying any crawl delay to the limiter.
// It returns an error wrapping util.ErrRobotsDisallowed when the page is off limits.
func (f *Fetcher) Allowed(ctx context.Context, rawURL string) error {
	if f.robots == nil {
		return nil
	}
	delay, err := f.robots.Check(ctx, rawURL)
	if f.limiter != nil && delay > 0 {
		f.limiter.ApplyCrawlDelay(rawURL, delay)
	}
	return err
}

// Fetch retrieves an HTML page
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := f.Allowed(ctx, rawURL); err != nil {
		return nil, err
	}

	key := cache.Key("html", rawURL)
	if body, ok := f.cache.Get(key); ok {
		zap.L().Debug("html cache hit", zap.String("url", rawURL))
		return &Page{HTML: string(body), URL: rawURL, FinalURL: rawURL, StatusCode: http.StatusOK, FromCache: true}, nil
	}

	retry := f.retry
	retry.OnRetry = resilience.RetryLogger("html", rawURL)
	page, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*Page, error) {
		return f.fetchOnce(ctx, rawURL)
	})
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(key, []byte(page.HTML), f.cacheTTL); err != nil {
		zap.L().Debug("html cache write failed", zap.String("url", rawURL), zap.Error(err))
	}
	return page, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*Page, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, statusErr(resp.StatusCode, http.StatusText(resp.StatusCode), rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}

	return &Page{
		HTML:        string(body),
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
