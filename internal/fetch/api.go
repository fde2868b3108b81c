package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ppiankov/reviewharvest/internal/cache"
	"github.com/ppiankov/reviewharvest/internal/resilience"
	"github.com/ppiankov/reviewharvest/internal/worker"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// APIClient is the JSON client for review and social APIs. It shares the
// Fetcher's transport, limiter and cache.
type APIClient struct {
	client   *resty.Client
	retry    resilience.RetryConfig
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *worker.Limiter
}

// NewAPIClient creates a resty client on top of the fetcher's http.Client
func NewAPIClient(f *Fetcher) *APIClient {
	client := resty.NewWithClient(f.httpClient)
	client.SetHeader("User-Agent", f.userAgent)
	client.SetHeader("Accept", "application/json")

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		zap.L().Debug("api request", zap.String("method", req.Method), zap.String("url", req.URL))
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		zap.L().Debug("api response",
			zap.String("url", res.Request.URL),
			zap.Int("status", res.StatusCode()),
			zap.Duration("elapsed", res.Time()),
		)
		return nil
	})

	return &APIClient{
		client:   client,
		retry:    f.retry,
		cache:    f.cache,
		cacheTTL: f.cacheTTL,
		limiter:  f.limiter,
	}
}

// GetBody performs a cached, paced, retried GET and returns the raw body
func (c *APIClient) GetBody(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	full := rawURL
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	key := cache.Key("api", full)
	if body, ok := c.cache.Get(key); ok {
		zap.L().Debug("api cache hit", zap.String("url", full))
		return body, nil
	}

	retry := c.retry
	retry.OnRetry = resilience.RetryLogger("api", rawURL)
	body, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, rawURL); err != nil {
				return nil, err
			}
		}

		res, err := c.client.R().
			SetContext(ctx).
			SetQueryParamsFromValues(query).
			Get(rawURL)
		if err != nil {
			return nil, eris.Wrap(err, "api get")
		}
		if !res.IsSuccess() {
			return nil, statusErr(res.StatusCode(), http.StatusText(res.StatusCode()), full)
		}
		return res.Body(), nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(key, body, c.cacheTTL); err != nil {
		zap.L().Debug("api cache write failed", zap.String("url", full), zap.Error(err))
	}
	return body, nil
}

// GetJSON performs GetBody and decodes the JSON body into out
func (c *APIClient) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	body, err := c.GetBody(ctx, rawURL, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "decode %s", rawURL)
	}
	return nil
}

// PostJSON sends body as JSON and decodes the response into out. Responses are
// never cached.
func (c *APIClient) PostJSON(ctx context.Context, rawURL string, body, out any) error {
	retry := c.retry
	retry.OnRetry = resilience.RetryLogger("api", rawURL)
	return resilience.Do(ctx, retry, func(ctx context.Context) error {
		res, err := c.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post(rawURL)
		if err != nil {
			return eris.Wrap(err, "api post")
		}
		if !res.IsSuccess() {
			return statusErr(res.StatusCode(), http.StatusText(res.StatusCode()), rawURL)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(res.Body(), out); err != nil {
			return eris.Wrapf(err, "decode %s", rawURL)
		}
		return nil
	})
}
