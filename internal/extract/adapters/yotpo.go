package adapters

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/rotisserie/eris"
)

var yotpoAppKeyRe = regexp.MustCompile(`(?i)yotpo.*?app_key["']?\s*[:=]\s*["']([^"']+)`)

// YotpoAdapter discovers a store's Yotpo app key from its HTML and pages
// through the Yotpo reviews API
type YotpoAdapter struct {
	siteOnly
	pages   PageFetcher
	client  JSONClient
	baseURL string
	perPage int
}

// NewYotpoAdapter creates the Yotpo adapter
func NewYotpoAdapter(pages PageFetcher, client JSONClient, cfg model.YotpoConfig) *YotpoAdapter {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.yotpo.com/v1"
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	return &YotpoAdapter{pages: pages, client: client, baseURL: base, perPage: perPage}
}

func (a *YotpoAdapter) Name() string              { return "yotpo" }
func (a *YotpoAdapter) Method() model.Method      { return model.MethodYotpo }
func (a *YotpoAdapter) Class() model.AdapterClass { return model.ClassAPI }

type yotpoReview struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Score     flexFloat `json:"score"`
	CreatedAt string    `json:"created_at"`
	Verified  flexBool  `json:"verified_buyer"`
	User      struct {
		DisplayName string `json:"display_name"`
	} `json:"user"`
}

// yotpoResponse accepts both the bare and the enveloped review list
type yotpoResponse struct {
	Reviews  []yotpoReview `json:"reviews"`
	Response struct {
		Reviews []yotpoReview `json:"reviews"`
	} `json:"response"`
}

// FindYotpoAppKey extracts the Yotpo app key embedded in storefront HTML
func FindYotpoAppKey(html string) string {
	if m := yotpoAppKeyRe.FindStringSubmatch(html); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// Fetch resolves the app key on the first page and carries it in the cursor
func (a *YotpoAdapter) Fetch(ctx context.Context, req Request) Result {
	appKey := req.Cursor
	if appKey == "" {
		page, err := a.pages.Fetch(ctx, req.URL)
		if err != nil {
			return Failure(eris.Wrap(err, "yotpo: storefront"))
		}
		appKey = FindYotpoAppKey(page.HTML)
		if appKey == "" {
			return Empty("no yotpo app key on page")
		}
	}

	page := req.Page
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("count", strconv.Itoa(a.perPage))

	endpoint := a.baseURL + "/apps/" + url.PathEscape(appKey) + "/reviews"
	var resp yotpoResponse
	if err := a.client.GetJSON(ctx, endpoint, q, &resp); err != nil {
		return Failure(eris.Wrap(err, "yotpo"))
	}

	reviews := resp.Reviews
	if len(reviews) == 0 {
		reviews = resp.Response.Reviews
	}

	source := endpoint + "?" + q.Encode()
	records := make([]model.RawRecord, 0, len(reviews))
	for _, r := range reviews {
		text := strings.TrimSpace(r.Content)
		if text == "" {
			continue
		}
		records = append(records, model.RawRecord{
			Text:         text,
			Rating:       r.Score.Value,
			Author:       strings.TrimSpace(r.User.DisplayName),
			Date:         r.CreatedAt,
			Verified:     bool(r.Verified),
			Verifiable:   true,
			SourceURL:    source,
			OriginMethod: model.MethodYotpo,
			Extra:        extras("title", r.Title),
		})
	}

	res := Success(records, a.perPage)
	res.Fetched = len(reviews)
	res.Cursor = appKey
	if len(records) == 0 {
		res.Reason = "no yotpo reviews"
	}
	return res
}
