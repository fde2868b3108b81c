package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/ppiankov/reviewharvest/internal/social"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redditPostJSON(id, title, body, author string, score int) map[string]any {
	return map[string]any{"kind": "t3", "data": map[string]any{
		"id": id, "title": title, "selftext": body, "author": author,
		"created_utc": 1717000000.0, "subreddit": "BuyItForLife", "score": score,
		"num_comments": 4, "permalink": "/r/BuyItForLife/comments/" + id + "/",
	}}
}

func TestRedditAdapter_SearchesAndFilters(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/search.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "grounding sheets", q.Get("q"))
		assert.Equal(t, "relevance", q.Get("sort"))

		if q.Get("after") == "" {
			writeJSON(w, map[string]any{"data": map[string]any{
				"after": "t3_b",
				"children": []any{
					redditPostJSON("a", "Grounding sheets worth it?", "I tried grounding sheets for three months and my sleep improved a bit.", "sleepy_dev", 42),
					redditPostJSON("b", "Free stuff", "Click here to get free grounding sheets for your bed today", "spammer", 1),
					redditPostJSON("c", "Deleted", "[deleted]", "[deleted]", 0),
				},
			}})
			return
		}
		writeJSON(w, map[string]any{"data": map[string]any{
			"after": "",
			"children": []any{
				redditPostJSON("d", "Cotton sheets", "Anyone compared grounding sheets with plain organic cotton ones for comfort?", "[deleted]", 3),
				redditPostJSON("a", "Grounding sheets worth it?", "I tried grounding sheets for three months and my sleep improved a bit.", "sleepy_dev", 42),
			},
		}})
	}))
	defer server.Close()

	_, api := testClients(t, false)
	a := NewRedditAdapter(api, model.RedditConfig{BaseURL: server.URL, PerKeyword: 25, MinRelevance: 0.3})

	sub := model.SubSource{Kind: model.KindSocial, Channel: model.MethodReddit, Keywords: []string{"grounding sheets"}}
	require.True(t, a.Supports(sub))
	assert.False(t, a.Supports(model.SubSource{Kind: model.KindCustomer}))

	res := a.Fetch(context.Background(), Request{Keywords: sub.Keywords, Page: 1})
	require.Equal(t, model.OutcomeSuccess, res.Outcome, res.Reason)
	require.Len(t, res.Records, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	top := res.Records[0]
	assert.True(t, strings.HasPrefix(top.Text, "Grounding sheets worth it?"))
	assert.Equal(t, social.Anonymize("sleepy_dev"), top.Author)
	assert.Equal(t, "BuyItForLife", top.Extra["subreddit"])
	assert.Equal(t, "grounding sheets", top.Extra["keyword"])
	assert.Equal(t, server.URL+"/r/BuyItForLife/comments/a/", top.SourceURL)
	assert.Equal(t, "2024-05-29T16:26:40Z", top.Date)
	assert.Equal(t, model.MethodReddit, top.OriginMethod)

	assert.Equal(t, social.AnonymousUser, res.Records[1].Author)
}

func TestRedditAdapter_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, api := testClients(t, false)
	a := NewRedditAdapter(api, model.RedditConfig{BaseURL: server.URL})
	res := a.Fetch(context.Background(), Request{Keywords: []string{"sheets"}})
	assert.Equal(t, model.OutcomeError, res.Outcome)

	assert.Equal(t, model.OutcomeEmpty, a.Fetch(context.Background(), Request{}).Outcome)
}

func TestRedditAdapter_BlankKeywordsDoNotMaskFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, api := testClients(t, false)
	a := NewRedditAdapter(api, model.RedditConfig{BaseURL: server.URL})
	res := a.Fetch(context.Background(), Request{Keywords: []string{"sheets", " ", ""}})
	assert.Equal(t, model.OutcomeError, res.Outcome)
	assert.Contains(t, res.Reason, "403")
}

func youtubeServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		writeJSON(w, map[string]any{"items": []any{
			map[string]any{"id": map[string]any{"videoId": "v1"}, "snippet": map[string]any{"title": "Grounding sheet review"}},
			map[string]any{"id": map[string]any{"videoId": "v2"}, "snippet": map[string]any{"title": "Second video"}},
		}})
	})
	mux.HandleFunc("/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		comment := func(id, text, author string, likes int) map[string]any {
			return map[string]any{"id": id, "snippet": map[string]any{"topLevelComment": map[string]any{
				"snippet": map[string]any{
					"textOriginal": text, "authorDisplayName": author,
					"likeCount": likes, "publishedAt": "2024-03-01T00:00:00Z",
				},
			}}}
		}
		writeJSON(w, map[string]any{"items": []any{
			comment(r.URL.Query().Get("videoId")+"-1", "I have used grounding sheets for a year and my back pain eased", "Pat", 12),
			comment(r.URL.Query().Get("videoId")+"-2", "Check out my channel www.example.com for more", "Spam", 0),
			comment(r.URL.Query().Get("videoId")+"-3", "first", "Kid", 0),
		}})
	})
	return httptest.NewServer(mux)
}

func TestYouTubeAdapter_CollectsComments(t *testing.T) {
	server := youtubeServer(t)
	defer server.Close()

	_, api := testClients(t, false)
	ledger := social.NewQuotaLedger(10000)
	a := NewYouTubeAdapter(api, model.YouTubeConfig{BaseURL: server.URL, APIKey: "test-key", MinRelevance: 0.3}, ledger)

	res := a.Fetch(context.Background(), Request{Keywords: []string{"grounding sheets"}})
	require.Equal(t, model.OutcomeSuccess, res.Outcome, res.Reason)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 10000-100-2, ledger.Remaining())

	rec := res.Records[0]
	assert.Equal(t, model.MethodYouTube, rec.OriginMethod)
	assert.Equal(t, social.Anonymize("Pat"), rec.Author)
	assert.Equal(t, "v1", rec.Extra["video_id"])
	assert.Equal(t, "Grounding sheet review", rec.Extra["video_title"])
	assert.Equal(t, "https://www.youtube.com/watch?v=v1", rec.SourceURL)
}

func TestYouTubeAdapter_QuotaRefusesCalls(t *testing.T) {
	server := youtubeServer(t)
	defer server.Close()

	_, api := testClients(t, false)
	ledger := social.NewQuotaLedger(101)
	a := NewYouTubeAdapter(api, model.YouTubeConfig{BaseURL: server.URL, APIKey: "test-key"}, ledger)

	res := a.Fetch(context.Background(), Request{Keywords: []string{"grounding sheets", "earthing"}})
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Len(t, res.Records, 1, "second video and second search refused")
	assert.Zero(t, ledger.Remaining())
}

func TestYouTubeAdapter_RequiresKey(t *testing.T) {
	_, api := testClients(t, false)
	a := NewYouTubeAdapter(api, model.YouTubeConfig{}, nil)
	res := a.Fetch(context.Background(), Request{Keywords: []string{"x"}})
	assert.Equal(t, model.OutcomeError, res.Outcome)
	assert.Contains(t, res.Reason, "YOUTUBE_API_KEY")
}
