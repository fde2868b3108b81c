package adapters

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/ppiankov/reviewharvest/internal/extract"
	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// SiteAdapter crawls a marketing site's start page plus a few linked review
// pages and scrapes them with the selector cascade and JSON-LD. Single shot.
type SiteAdapter struct {
	siteOnly
	support       CrawlSupport
	maxExtraPages int
}

// NewSiteAdapter creates the static site adapter
func NewSiteAdapter(support CrawlSupport, cfg model.SiteConfig) *SiteAdapter {
	maxExtra := cfg.MaxExtraPages
	if maxExtra < 0 {
		maxExtra = 0
	}
	return &SiteAdapter{support: support, maxExtraPages: maxExtra}
}

func (a *SiteAdapter) Name() string              { return "site" }
func (a *SiteAdapter) Method() model.Method      { return model.MethodSelector }
func (a *SiteAdapter) Class() model.AdapterClass { return model.ClassDOM }

// Fetch crawls the site. Records keep page order: start page first, then
// review pages in link order.
func (a *SiteAdapter) Fetch(ctx context.Context, req Request) Result {
	u, err := model.ValidateURL(req.URL)
	if err != nil {
		return Failure(err)
	}

	c := colly.NewCollector(
		colly.AllowedDomains(u.Hostname()),
		colly.MaxDepth(2),
		colly.UserAgent(a.support.UserAgent()),
		colly.StdlibContext(ctx),
	)
	client := a.support.Client()
	c.WithTransport(client.Transport)
	c.SetRequestTimeout(client.Timeout)

	var (
		mu       sync.Mutex
		pages    = map[string][]model.RawRecord{}
		order    []string
		startErr error
	)

	c.OnRequest(func(r *colly.Request) {
		target := r.URL.String()
		if err := a.support.Allowed(ctx, target); err != nil {
			zap.L().Debug("site crawl skipped page", zap.String("url", target), zap.Error(err))
			if r.Depth <= 1 {
				mu.Lock()
				startErr = err
				mu.Unlock()
			}
			r.Abort()
			return
		}
		if l := a.support.Limiter(); l != nil {
			if err := l.Wait(ctx, target); err != nil {
				r.Abort()
			}
		}
	})

	c.OnResponse(func(r *colly.Response) {
		if ct := strings.ToLower(r.Headers.Get("Content-Type")); ct != "" && !strings.Contains(ct, "html") {
			return
		}
		pageURL := r.Request.URL.String()
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			zap.L().Debug("site page parse failed", zap.String("url", pageURL), zap.Error(err))
			return
		}

		records := extract.SelectorReviews(doc, pageURL)
		records = append(records, extract.JSONLDReviews(string(r.Body), pageURL)...)

		mu.Lock()
		order = append(order, pageURL)
		pages[pageURL] = records
		mu.Unlock()

		zap.L().Debug("site page scraped", zap.String("url", pageURL), zap.Int("records", len(records)))

		if r.Request.Depth == 1 && a.maxExtraPages > 0 {
			for _, link := range extract.ReviewPageLinks(doc, pageURL, a.maxExtraPages) {
				if err := r.Request.Visit(link); err != nil {
					zap.L().Debug("site link not followed", zap.String("url", link), zap.Error(err))
				}
			}
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		zap.L().Debug("site crawl error", zap.String("url", r.Request.URL.String()), zap.Error(err))
		if r.Request.Depth <= 1 {
			mu.Lock()
			startErr = err
			mu.Unlock()
		}
	})

	if err := c.Visit(u.String()); err != nil {
		mu.Lock()
		if startErr == nil {
			startErr = err
		}
		mu.Unlock()
	}
	c.Wait()

	var records []model.RawRecord
	for _, p := range order {
		records = append(records, pages[p]...)
	}

	if len(records) == 0 {
		if startErr != nil {
			return Failure(eris.Wrap(startErr, "site crawl"))
		}
		return Empty("no reviews found on site")
	}

	zap.L().Info("site crawl complete",
		zap.String("url", req.URL),
		zap.Int("pages", len(order)),
		zap.Int("records", len(records)),
	)
	res := Success(records, 0)
	res.Done = true
	return res
}
