package adapters

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/ppiankov/reviewharvest/internal/social"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// redditPagesPerKeyword bounds the "after" cursor walk for one keyword
const redditPagesPerKeyword = 3

// RedditAdapter searches Reddit's public JSON listing for keyword discussions
type RedditAdapter struct {
	client       JSONClient
	baseURL      string
	perKeyword   int
	minRelevance float64
}

// NewRedditAdapter creates the Reddit adapter
func NewRedditAdapter(client JSONClient, cfg model.RedditConfig) *RedditAdapter {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://www.reddit.com"
	}
	perKeyword := cfg.PerKeyword
	if perKeyword <= 0 {
		perKeyword = 25
	}
	return &RedditAdapter{client: client, baseURL: base, perKeyword: perKeyword, minRelevance: cfg.MinRelevance}
}

func (a *RedditAdapter) Name() string              { return "reddit" }
func (a *RedditAdapter) Method() model.Method      { return model.MethodReddit }
func (a *RedditAdapter) Class() model.AdapterClass { return model.ClassSocial }

func (a *RedditAdapter) Supports(sub model.SubSource) bool {
	return sub.Kind == model.KindSocial && sub.Channel == model.MethodReddit && len(sub.Keywords) > 0
}

type redditListing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Permalink   string  `json:"permalink"`
}

type scoredRecord struct {
	record model.RawRecord
	rank   float64
}

// Fetch searches every keyword, walking the listing cursor, and keeps quality
// posts above the relevance floor. Single shot.
func (a *RedditAdapter) Fetch(ctx context.Context, req Request) Result {
	if len(req.Keywords) == 0 {
		return Empty("no keywords")
	}

	seen := make(map[string]bool)
	var records []model.RawRecord
	var lastErr error
	searched, failures := 0, 0

	for _, keyword := range req.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		if req.QuotaRemaining > 0 && len(records) >= req.QuotaRemaining {
			break
		}

		searched++
		scored, err := a.searchKeyword(ctx, keyword, seen)
		if err != nil {
			zap.L().Warn("reddit search failed", zap.String("keyword", keyword), zap.Error(err))
			lastErr = err
			failures++
			continue
		}
		for _, s := range scored {
			records = append(records, s.record)
		}
	}

	if len(records) == 0 {
		if failures > 0 && failures == searched {
			return Failure(lastErr)
		}
		return Empty("no relevant reddit discussions")
	}
	res := Success(records, 0)
	res.Done = true
	return res
}

func (a *RedditAdapter) searchKeyword(ctx context.Context, keyword string, seen map[string]bool) ([]scoredRecord, error) {
	var out []scoredRecord
	after := ""

	for page := 0; page < redditPagesPerKeyword && len(out) < a.perKeyword; page++ {
		q := url.Values{}
		q.Set("q", keyword)
		q.Set("limit", strconv.Itoa(a.perKeyword))
		q.Set("sort", "relevance")
		q.Set("raw_json", "1")
		if after != "" {
			q.Set("after", after)
		}

		var listing redditListing
		if err := a.client.GetJSON(ctx, a.baseURL+"/search.json", q, &listing); err != nil {
			if page == 0 {
				return nil, eris.Wrap(err, "reddit search")
			}
			break
		}

		for _, child := range listing.Data.Children {
			if rec, rank, ok := a.postRecord(child.Data, keyword, seen); ok {
				out = append(out, scoredRecord{record: rec, rank: rank})
			}
		}

		after = listing.Data.After
		if after == "" {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].rank > out[j].rank })
	if len(out) > a.perKeyword {
		out = out[:a.perKeyword]
	}
	return out, nil
}

func (a *RedditAdapter) postRecord(p redditPost, keyword string, seen map[string]bool) (model.RawRecord, float64, bool) {
	body := strings.TrimSpace(p.Selftext)
	if p.Title == "" || body == "" || body == "[deleted]" || body == "[removed]" {
		return model.RawRecord{}, 0, false
	}
	key := p.ID
	if key == "" {
		key = p.Permalink
	}
	if seen[key] {
		return model.RawRecord{}, 0, false
	}

	full := p.Title + " " + body
	if !social.IsQualityContent(full, p.Score) {
		return model.RawRecord{}, 0, false
	}
	relevance := social.Relevance(full, keyword)
	if relevance < a.minRelevance {
		return model.RawRecord{}, 0, false
	}
	seen[key] = true

	rec := model.RawRecord{
		Text:         strings.TrimSpace(p.Title) + "\n\n" + body,
		Author:       social.Anonymize(p.Author),
		SourceURL:    a.baseURL + p.Permalink,
		OriginMethod: model.MethodReddit,
		Extra: map[string]string{
			"subreddit":    p.Subreddit,
			"score":        strconv.Itoa(p.Score),
			"num_comments": strconv.Itoa(p.NumComments),
			"relevance":    strconv.FormatFloat(relevance, 'f', 2, 64),
			"keyword":      keyword,
			"post_id":      p.ID,
		},
	}
	if p.CreatedUTC > 0 {
		rec.Date = time.Unix(int64(p.CreatedUTC), 0).UTC().Format(time.RFC3339)
	}
	return rec, social.Rank(relevance, p.Score), true
}
