package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homePage = `<html><head><title>GroundLuxe</title></head><body>
<a href="/pages/reviews">Reviews</a>
<a href="/collections/all">Shop</a>
<div class="review"><p>These grounding sheets changed how I sleep, highly recommend.</p><span class="rating">5/5</span></div>
<div class="review"><p>Soft organic cotton and the silver thread feels durable.</p></div>
</body></html>`

const reviewsPage = `<html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Product","name":"Sheet",
 "review":[{"@type":"Review","reviewBody":"Ordered a second set for the guest room, love them.",
 "author":{"@type":"Person","name":"Kim"},"reviewRating":{"@type":"Rating","ratingValue":"4"}}]}</script>
</head><body><p>Our customers</p></body></html>`

func siteServer(robots string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		if robots == "" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, robots)
	})
	mux.HandleFunc("/pages/reviews", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, reviewsPage)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, homePage)
	})
	return httptest.NewServer(mux)
}

func TestSiteAdapter_CrawlsStartAndReviewPages(t *testing.T) {
	server := siteServer("")
	defer server.Close()

	f, _ := testClients(t, false)
	a := NewSiteAdapter(f, model.SiteConfig{MaxExtraPages: 3})

	res := a.Fetch(context.Background(), Request{URL: server.URL + "/", Page: 1})
	require.Equal(t, model.OutcomeSuccess, res.Outcome, res.Reason)
	require.Len(t, res.Records, 3)
	assert.True(t, res.Done)
	assert.Zero(t, res.PageSize)

	assert.Contains(t, res.Records[0].Text, "changed how I sleep")
	assert.Equal(t, model.MethodSelector, res.Records[0].OriginMethod)
	require.NotNil(t, res.Records[0].Rating)
	assert.Equal(t, 5.0, *res.Records[0].Rating)

	ld := res.Records[2]
	assert.Equal(t, model.MethodJSONLD, ld.OriginMethod)
	assert.Equal(t, "Kim", ld.Author)
	assert.True(t, strings.HasSuffix(ld.SourceURL, "/pages/reviews"))
}

func TestSiteAdapter_StartPageOnly(t *testing.T) {
	server := siteServer("")
	defer server.Close()

	f, _ := testClients(t, false)
	res := NewSiteAdapter(f, model.SiteConfig{MaxExtraPages: 0}).Fetch(context.Background(), Request{URL: server.URL + "/"})
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Len(t, res.Records, 2)
}

func TestSiteAdapter_RobotsDisallowed(t *testing.T) {
	server := siteServer("User-agent: *\nDisallow: /\n")
	defer server.Close()

	f, _ := testClients(t, true)
	res := NewSiteAdapter(f, model.SiteConfig{MaxExtraPages: 3}).Fetch(context.Background(), Request{URL: server.URL + "/"})
	assert.Equal(t, model.OutcomeError, res.Outcome)
	assert.Contains(t, res.Reason, "robots")
}

func TestSiteAdapter_Unreachable(t *testing.T) {
	server := siteServer("")
	url := server.URL
	server.Close()

	f, _ := testClients(t, false)
	res := NewSiteAdapter(f, model.SiteConfig{}).Fetch(context.Background(), Request{URL: url + "/"})
	assert.Equal(t, model.OutcomeError, res.Outcome)
}

// fakePage replays a fixed sequence of rendered states; each successful
// load-more click advances one state
type fakePage struct {
	states   []string
	idx      int
	clicks   int
	linkHTML string
	closed   bool
}

func (p *fakePage) Goto(string) error { return nil }
func (p *fakePage) Content() (string, error) {
	return p.states[p.idx], nil
}
func (p *fakePage) ClickFirst([]string) (bool, error) {
	if p.idx >= len(p.states)-1 {
		return false, nil
	}
	p.idx++
	p.clicks++
	return true, nil
}
func (p *fakePage) ClickLinkText([]string) (bool, error) {
	if p.linkHTML == "" {
		return false, nil
	}
	p.states[p.idx] = p.linkHTML
	return true, nil
}
func (p *fakePage) Wait(time.Duration) {}
func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeLauncher struct {
	page *fakePage
	err  error
}

func (l *fakeLauncher) NewPage(context.Context) (BrowserPage, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.page, nil
}

func jdgmPage(n int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<div class="jdgm-rev"><div class="jdgm-rev__body">Rendered review %d, sleeping much better now</div></div>`, i)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestBrowserAdapter_LoadMoreUntilNothingNew(t *testing.T) {
	page := &fakePage{states: []string{jdgmPage(2), jdgmPage(4), jdgmPage(4)}}
	a := NewBrowserAdapter(&fakeLauncher{page: page}, model.BrowserConfig{MaxLoadMore: 10})

	res := a.Fetch(context.Background(), Request{URL: "https://shop.example.com/", Page: 1})
	require.Equal(t, model.OutcomeSuccess, res.Outcome, res.Reason)
	assert.Len(t, res.Records, 4)
	assert.Equal(t, 2, page.clicks)
	assert.True(t, page.closed)
	assert.Equal(t, model.MethodBrowser, res.Records[0].OriginMethod)
	assert.Contains(t, res.Records[3].Text, "Rendered review 4")
}

func TestBrowserAdapter_LoadMoreCeiling(t *testing.T) {
	states := make([]string, 20)
	for i := range states {
		states[i] = jdgmPage(i + 1)
	}
	page := &fakePage{states: states}
	a := NewBrowserAdapter(&fakeLauncher{page: page}, model.BrowserConfig{MaxLoadMore: 3})

	res := a.Fetch(context.Background(), Request{URL: "https://shop.example.com/"})
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Equal(t, 3, page.clicks)
	assert.Len(t, res.Records, 4)
}

func TestBrowserAdapter_StopsAtQuota(t *testing.T) {
	states := make([]string, 20)
	for i := range states {
		states[i] = jdgmPage((i + 1) * 2)
	}
	page := &fakePage{states: states}
	a := NewBrowserAdapter(&fakeLauncher{page: page}, model.BrowserConfig{MaxLoadMore: 10})

	res := a.Fetch(context.Background(), Request{URL: "https://shop.example.com/", QuotaRemaining: 5})
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Equal(t, 2, page.clicks)
	assert.Len(t, res.Records, 6)
}

func TestBrowserAdapter_FollowsReviewsLink(t *testing.T) {
	page := &fakePage{
		states:   []string{"<html><body><a>Reviews</a></body></html>"},
		linkHTML: jdgmPage(3),
	}
	a := NewBrowserAdapter(&fakeLauncher{page: page}, model.BrowserConfig{})

	res := a.Fetch(context.Background(), Request{URL: "https://shop.example.com/"})
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Len(t, res.Records, 3)
}

func TestBrowserAdapter_LaunchFailure(t *testing.T) {
	a := NewBrowserAdapter(&fakeLauncher{err: errors.New("playwright not installed")}, model.BrowserConfig{})
	res := a.Fetch(context.Background(), Request{URL: "https://shop.example.com/"})
	assert.Equal(t, model.OutcomeError, res.Outcome)
	assert.Contains(t, res.Reason, "playwright not installed")
}

func TestBrowserAdapter_NoReviews(t *testing.T) {
	page := &fakePage{states: []string{"<html><body>nothing here</body></html>"}}
	res := NewBrowserAdapter(&fakeLauncher{page: page}, model.BrowserConfig{}).
		Fetch(context.Background(), Request{URL: "https://shop.example.com/"})
	assert.Equal(t, model.OutcomeEmpty, res.Outcome)
}
