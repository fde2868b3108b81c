package adapters

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
	"github.com/ppiankov/reviewharvest/internal/dedup"
	"github.com/ppiankov/reviewharvest/internal/extract"
	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// LoadMoreSelectors are the pagination and "load more" controls clicked by
// the browser adapter, widget-specific ones last
var LoadMoreSelectors = []string{
	`button[class*='load-more']`, `button[class*='show-more']`,
	`a[class*='load-more']`, `a[class*='show-more']`,
	`a[class*='next']`, `button[class*='next']`,
	`a[aria-label*='next']`, `button[aria-label*='next']`,
	"button.jdgm-paginate__next", "a.jdgm-paginate__next",
	"button.yotpo-show-more", "a.yotpo-next-page",
}

var reviewLinkTexts = []string{
	"View all reviews", "See all reviews", "All reviews", "Read reviews",
	"Customer reviews", "Product reviews", "Reviews", "Testimonials",
}

// BrowserPage is the slice of a rendered page the load-more loop drives
type BrowserPage interface {
	Goto(url string) error
	Content() (string, error)
	// ClickFirst clicks the first visible element matching any selector, in order
	ClickFirst(selectors []string) (bool, error)
	// ClickLinkText clicks the first visible link whose text contains one of texts
	ClickLinkText(texts []string) (bool, error)
	Wait(d time.Duration)
	Close() error
}

// BrowserLauncher opens rendered pages
type BrowserLauncher interface {
	NewPage(ctx context.Context) (BrowserPage, error)
}

// BrowserAdapter renders storefronts in a headless browser and pages through
// their review widgets. Single shot.
type BrowserAdapter struct {
	siteOnly
	launcher    BrowserLauncher
	maxLoadMore int
	waitAfter   time.Duration
}

// NewBrowserAdapter creates the rendered-browser adapter
func NewBrowserAdapter(launcher BrowserLauncher, cfg model.BrowserConfig) *BrowserAdapter {
	maxLoadMore := cfg.MaxLoadMore
	if maxLoadMore <= 0 {
		maxLoadMore = 10
	}
	return &BrowserAdapter{launcher: launcher, maxLoadMore: maxLoadMore, waitAfter: cfg.WaitAfter}
}

func (a *BrowserAdapter) Name() string              { return "browser" }
func (a *BrowserAdapter) Method() model.Method      { return model.MethodBrowser }
func (a *BrowserAdapter) Class() model.AdapterClass { return model.ClassBrowser }

// Fetch loads the page, follows a reviews link when the landing page shows no
// reviews, then alternates extraction and load-more clicks. It stops when a
// click finds no control, when an iteration adds nothing new, when the quota
// is met, or after maxLoadMore iterations.
func (a *BrowserAdapter) Fetch(ctx context.Context, req Request) Result {
	if _, err := model.ValidateURL(req.URL); err != nil {
		return Failure(err)
	}

	page, err := a.launcher.NewPage(ctx)
	if err != nil {
		return Failure(eris.Wrap(err, "browser: open page"))
	}
	defer func() {
		if err := page.Close(); err != nil {
			zap.L().Debug("browser page close failed", zap.Error(err))
		}
	}()

	if err := page.Goto(req.URL); err != nil {
		return Failure(eris.Wrap(err, "browser: navigate"))
	}
	page.Wait(a.waitAfter)

	seen := dedup.New()
	var records []model.RawRecord

	collect := func() (int, error) {
		html, err := page.Content()
		if err != nil {
			return 0, eris.Wrap(err, "browser: content")
		}
		added := 0
		for _, rec := range renderedReviews(html, req.URL) {
			if seen.Add(rec.Text) {
				records = append(records, rec)
				added++
			}
		}
		return added, nil
	}

	if added, err := collect(); err != nil {
		return Failure(err)
	} else if added == 0 {
		if ok, _ := page.ClickLinkText(reviewLinkTexts); ok {
			page.Wait(a.waitAfter)
			if _, err := collect(); err != nil {
				return Failure(err)
			}
		}
	}

	for i := 0; i < a.maxLoadMore; i++ {
		if ctx.Err() != nil {
			break
		}
		if req.QuotaRemaining > 0 && len(records) >= req.QuotaRemaining {
			break
		}
		clicked, err := page.ClickFirst(LoadMoreSelectors)
		if err != nil || !clicked {
			break
		}
		page.Wait(a.waitAfter)

		added, err := collect()
		if err != nil {
			zap.L().Debug("browser extraction failed", zap.Error(err))
			break
		}
		zap.L().Debug("browser load more", zap.Int("iteration", i+1), zap.Int("new", added), zap.Int("total", len(records)))
		if added == 0 {
			break
		}
	}

	if len(records) == 0 {
		return Empty("no rendered reviews")
	}
	res := Success(records, 0)
	res.Done = true
	return res
}

func renderedReviews(html, pageURL string) []model.RawRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return extract.CascadeReviews(doc, pageURL, extract.RenderedReviewSelectors, model.MethodBrowser)
}

// PlaywrightLauncher starts Chromium lazily on first use and shares it
// between pages. Close must be called when the run ends.
type PlaywrightLauncher struct {
	headless  bool
	userAgent string
	timeout   time.Duration

	once    sync.Once
	pw      *playwright.Playwright
	browser playwright.Browser
	err     error
}

// NewPlaywrightLauncher creates a launcher; nothing starts until NewPage
func NewPlaywrightLauncher(cfg model.BrowserConfig, userAgent string, timeout time.Duration) *PlaywrightLauncher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PlaywrightLauncher{headless: cfg.Headless, userAgent: userAgent, timeout: timeout}
}

func (l *PlaywrightLauncher) start() {
	pw, err := playwright.Run()
	if err != nil {
		l.err = eris.Wrap(err, "start playwright")
		return
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		_ = pw.Stop()
		l.err = eris.Wrap(err, "launch chromium")
		return
	}
	l.pw = pw
	l.browser = browser
}

// NewPage opens a page in a fresh browser context
func (l *PlaywrightLauncher) NewPage(ctx context.Context) (BrowserPage, error) {
	l.once.Do(l.start)
	if l.err != nil {
		return nil, l.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := playwright.BrowserNewContextOptions{}
	if l.userAgent != "" {
		opts.UserAgent = playwright.String(l.userAgent)
	}
	bctx, err := l.browser.NewContext(opts)
	if err != nil {
		return nil, eris.Wrap(err, "new browser context")
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, eris.Wrap(err, "new page")
	}
	page.SetDefaultTimeout(float64(l.timeout.Milliseconds()))
	return &playwrightPage{ctx: bctx, page: page, timeout: l.timeout}, nil
}

// Close stops the browser and the playwright driver
func (l *PlaywrightLauncher) Close() error {
	var errs []error
	if l.browser != nil {
		if err := l.browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if l.pw != nil {
		if err := l.pw.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("close browser: %v", errs)
	}
	return nil
}

type playwrightPage struct {
	ctx     playwright.BrowserContext
	page    playwright.Page
	timeout time.Duration
}

func (p *playwrightPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(p.timeout.Milliseconds())),
	})
	return err
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) ClickFirst(selectors []string) (bool, error) {
	for _, selector := range selectors {
		if p.clickVisible(p.page.Locator(selector).First()) {
			zap.L().Debug("browser clicked", zap.String("selector", selector))
			return true, nil
		}
	}
	return false, nil
}

func (p *playwrightPage) ClickLinkText(texts []string) (bool, error) {
	for _, text := range texts {
		loc := p.page.Locator(fmt.Sprintf("a:has-text(%q)", text)).First()
		if p.clickVisible(loc) {
			zap.L().Debug("browser followed link", zap.String("text", text))
			return true, nil
		}
	}
	return false, nil
}

func (p *playwrightPage) clickVisible(loc playwright.Locator) bool {
	count, err := loc.Count()
	if err != nil || count == 0 {
		return false
	}
	visible, err := loc.IsVisible()
	if err != nil || !visible {
		return false
	}
	if disabled, err := loc.GetAttribute("aria-disabled"); err == nil && disabled == "true" {
		return false
	}
	return loc.Click() == nil
}

func (p *playwrightPage) Wait(d time.Duration) {
	if d > 0 {
		p.page.WaitForTimeout(float64(d.Milliseconds()))
	}
}

func (p *playwrightPage) Close() error {
	if err := p.page.Close(); err != nil {
		_ = p.ctx.Close()
		return err
	}
	return p.ctx.Close()
}
