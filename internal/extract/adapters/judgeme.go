package adapters

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// JudgeMeAdapter reads the public Judge.me review API
type JudgeMeAdapter struct {
	siteOnly
	client  JSONClient
	baseURL string
	perPage int
}

// NewJudgeMeAdapter creates the Judge.me adapter
func NewJudgeMeAdapter(client JSONClient, cfg model.JudgeMeConfig) *JudgeMeAdapter {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://judge.me/api/v1"
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	return &JudgeMeAdapter{client: client, baseURL: base, perPage: perPage}
}

func (a *JudgeMeAdapter) Name() string              { return "judge.me" }
func (a *JudgeMeAdapter) Method() model.Method      { return model.MethodJudgeMe }
func (a *JudgeMeAdapter) Class() model.AdapterClass { return model.ClassAPI }

type judgeMeEndpoint struct {
	path       string
	shopDomain string
}

type judgeMeResponse struct {
	Reviews []judgeMeReview `json:"reviews"`
}

type judgeMeReview struct {
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Rating   flexFloat `json:"rating"`
	Reviewer struct {
		Name string `json:"name"`
	} `json:"reviewer"`
	CreatedAt    string   `json:"created_at"`
	Verified     flexBool `json:"verified"`
	ProductTitle string   `json:"product_title"`
}

// endpoints lists the URL patterns in the order they are tried: the
// myshopify.com handle, the storefront domain, then the widget endpoint
func (a *JudgeMeAdapter) endpoints(u *url.URL) []judgeMeEndpoint {
	domain := u.Hostname()
	return []judgeMeEndpoint{
		{path: "/reviews", shopDomain: model.ShopName(u) + ".myshopify.com"},
		{path: "/reviews", shopDomain: domain},
		{path: "/widgets/product_review", shopDomain: domain},
	}
}

// Fetch tries each endpoint until one returns reviews. The winning endpoint
// index travels in the cursor so later pages skip the probing.
func (a *JudgeMeAdapter) Fetch(ctx context.Context, req Request) Result {
	u, err := model.ValidateURL(req.URL)
	if err != nil {
		return Failure(err)
	}

	endpoints := a.endpoints(u)
	first := 0
	if req.Cursor != "" {
		idx, err := strconv.Atoi(req.Cursor)
		if err != nil || idx < 0 || idx >= len(endpoints) {
			return Failure(eris.Errorf("judge.me: bad cursor %q", req.Cursor))
		}
		first = idx
		endpoints = endpoints[idx : idx+1]
	}

	page := req.Page
	if page < 1 {
		page = 1
	}

	var lastErr error
	failures := 0
	for i, ep := range endpoints {
		records, fetched, err := a.fetchPage(ctx, ep, page)
		if err != nil {
			zap.L().Debug("judge.me endpoint failed",
				zap.String("path", ep.path),
				zap.String("shop_domain", ep.shopDomain),
				zap.Error(err),
			)
			lastErr = err
			failures++
			continue
		}
		if len(records) == 0 {
			continue
		}
		res := Success(records, a.perPage)
		res.Fetched = fetched
		res.Cursor = strconv.Itoa(first + i)
		return res
	}

	if failures == len(endpoints) {
		return Failure(lastErr)
	}
	return Empty("no judge.me reviews")
}

// fetchPage returns the usable records and the raw review count of the page
func (a *JudgeMeAdapter) fetchPage(ctx context.Context, ep judgeMeEndpoint, page int) ([]model.RawRecord, int, error) {
	q := url.Values{}
	q.Set("shop_domain", ep.shopDomain)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(a.perPage))

	endpoint := a.baseURL + ep.path
	var resp judgeMeResponse
	if err := a.client.GetJSON(ctx, endpoint, q, &resp); err != nil {
		return nil, 0, eris.Wrap(err, "judge.me")
	}

	source := endpoint + "?" + q.Encode()
	records := make([]model.RawRecord, 0, len(resp.Reviews))
	for _, r := range resp.Reviews {
		text := strings.TrimSpace(r.Body)
		if text == "" {
			continue
		}
		rec := model.RawRecord{
			Text:         text,
			Rating:       r.Rating.Value,
			Author:       strings.TrimSpace(r.Reviewer.Name),
			Date:         r.CreatedAt,
			Verified:     bool(r.Verified),
			Verifiable:   true,
			SourceURL:    source,
			OriginMethod: model.MethodJudgeMe,
		}
		if extra := extras("title", r.Title, "product", r.ProductTitle); extra != nil {
			rec.Extra = extra
		}
		records = append(records, rec)
	}
	return records, len(resp.Reviews), nil
}

// extras builds an Extra map from key/value pairs, skipping blank values
func extras(kv ...string) map[string]string {
	var m map[string]string
	for i := 0; i+1 < len(kv); i += 2 {
		v := strings.TrimSpace(kv[i+1])
		if v == "" {
			continue
		}
		if m == nil {
			m = make(map[string]string)
		}
		m[kv[i]] = v
	}
	return m
}
