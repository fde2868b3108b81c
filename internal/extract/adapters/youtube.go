package adapters

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/ppiankov/reviewharvest/internal/social"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// YouTube Data API unit costs
const (
	youtubeSearchCost   = 100
	youtubeCommentsCost = 1
)

// YouTubeAdapter collects comments on videos found by keyword search
type YouTubeAdapter struct {
	client           JSONClient
	baseURL          string
	apiKey           string
	videosPerKeyword int
	commentsPerVideo int
	minRelevance     float64
	quota            *social.QuotaLedger
}

// NewYouTubeAdapter creates the YouTube adapter. The ledger may be shared
// between runs of one process so the daily budget holds across targets.
func NewYouTubeAdapter(client JSONClient, cfg model.YouTubeConfig, quota *social.QuotaLedger) *YouTubeAdapter {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://www.googleapis.com/youtube/v3"
	}
	if quota == nil {
		limit := cfg.DailyQuota
		if limit <= 0 {
			limit = 10000
		}
		quota = social.NewQuotaLedger(limit)
	}
	videos := cfg.VideosPerKeyword
	if videos <= 0 {
		videos = 5
	}
	comments := cfg.CommentsPerVideo
	if comments <= 0 {
		comments = 50
	}
	return &YouTubeAdapter{
		client:           client,
		baseURL:          base,
		apiKey:           cfg.APIKey,
		videosPerKeyword: videos,
		commentsPerVideo: comments,
		minRelevance:     cfg.MinRelevance,
		quota:            quota,
	}
}

func (a *YouTubeAdapter) Name() string              { return "youtube" }
func (a *YouTubeAdapter) Method() model.Method      { return model.MethodYouTube }
func (a *YouTubeAdapter) Class() model.AdapterClass { return model.ClassSocial }

func (a *YouTubeAdapter) Supports(sub model.SubSource) bool {
	return sub.Kind == model.KindSocial && sub.Channel == model.MethodYouTube && len(sub.Keywords) > 0
}

type youtubeSearch struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

type youtubeThreads struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					TextOriginal      string `json:"textOriginal"`
					TextDisplay       string `json:"textDisplay"`
					AuthorDisplayName string `json:"authorDisplayName"`
					LikeCount         int    `json:"likeCount"`
					PublishedAt       string `json:"publishedAt"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

type youtubeVideo struct {
	id    string
	title string
}

// Fetch searches each keyword (100 units) and reads comment threads of the
// found videos (1 unit each) while the daily budget allows. Single shot.
func (a *YouTubeAdapter) Fetch(ctx context.Context, req Request) Result {
	if a.apiKey == "" {
		return Failure(eris.New("youtube: YOUTUBE_API_KEY not set"))
	}
	if len(req.Keywords) == 0 {
		return Empty("no keywords")
	}

	seen := make(map[string]bool)
	var records []model.RawRecord
	var lastErr error

	for _, keyword := range req.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		if req.QuotaRemaining > 0 && len(records) >= req.QuotaRemaining {
			break
		}

		videos, err := a.search(ctx, keyword)
		if err != nil {
			zap.L().Warn("youtube search failed", zap.String("keyword", keyword), zap.Error(err))
			lastErr = err
			continue
		}

		var scored []scoredRecord
		for _, v := range videos {
			comments, err := a.comments(ctx, v, keyword, seen)
			if err != nil {
				zap.L().Debug("youtube comments failed", zap.String("video_id", v.id), zap.Error(err))
				lastErr = err
				continue
			}
			scored = append(scored, comments...)
		}
		sort.SliceStable(scored, func(i, j int) bool { return scored[i].rank > scored[j].rank })
		for _, s := range scored {
			records = append(records, s.record)
		}
	}

	zap.L().Debug("youtube quota", zap.Int("remaining", a.quota.Remaining()))

	if len(records) == 0 {
		if lastErr != nil {
			return Failure(lastErr)
		}
		return Empty("no relevant youtube comments")
	}
	res := Success(records, 0)
	res.Done = true
	return res
}

func (a *YouTubeAdapter) search(ctx context.Context, keyword string) ([]youtubeVideo, error) {
	if err := a.quota.Spend(youtubeSearchCost); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("q", keyword)
	q.Set("order", "relevance")
	q.Set("relevanceLanguage", "en")
	q.Set("maxResults", strconv.Itoa(a.videosPerKeyword))
	q.Set("key", a.apiKey)

	var resp youtubeSearch
	if err := a.client.GetJSON(ctx, a.baseURL+"/search", q, &resp); err != nil {
		return nil, eris.Wrap(err, "youtube search")
	}

	videos := make([]youtubeVideo, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID != "" {
			videos = append(videos, youtubeVideo{id: item.ID.VideoID, title: item.Snippet.Title})
		}
	}
	return videos, nil
}

func (a *YouTubeAdapter) comments(ctx context.Context, v youtubeVideo, keyword string, seen map[string]bool) ([]scoredRecord, error) {
	if err := a.quota.Spend(youtubeCommentsCost); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("videoId", v.id)
	q.Set("order", "relevance")
	q.Set("textFormat", "plainText")
	q.Set("maxResults", strconv.Itoa(a.commentsPerVideo))
	q.Set("key", a.apiKey)

	var resp youtubeThreads
	if err := a.client.GetJSON(ctx, a.baseURL+"/commentThreads", q, &resp); err != nil {
		return nil, eris.Wrap(err, "youtube comment threads")
	}

	var out []scoredRecord
	for _, item := range resp.Items {
		c := item.Snippet.TopLevelComment.Snippet
		text := strings.TrimSpace(nonEmpty(c.TextOriginal, c.TextDisplay))
		if len(text) < 20 || social.IsSpamComment(text) || seen[item.ID] {
			continue
		}
		relevance := social.Relevance(text, keyword)
		if relevance < a.minRelevance {
			continue
		}
		seen[item.ID] = true

		out = append(out, scoredRecord{
			record: model.RawRecord{
				Text:         text,
				Author:       social.Anonymize(c.AuthorDisplayName),
				Date:         c.PublishedAt,
				SourceURL:    "https://www.youtube.com/watch?v=" + url.QueryEscape(v.id),
				OriginMethod: model.MethodYouTube,
				Extra: map[string]string{
					"video_id":    v.id,
					"video_title": v.title,
					"like_count":  strconv.Itoa(c.LikeCount),
					"relevance":   strconv.FormatFloat(relevance, 'f', 2, 64),
					"keyword":     keyword,
				},
			},
			rank: social.Rank(relevance, c.LikeCount),
		})
	}
	return out, nil
}
