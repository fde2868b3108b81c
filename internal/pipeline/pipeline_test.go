package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/reviewharvest/internal/extract/adapters"
	"github.com/ppiankov/reviewharvest/internal/foundation"
	"github.com/ppiankov/reviewharvest/internal/llm"
	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/ppiankov/reviewharvest/internal/quality"
)

// scriptedAdapter serves canned records per URL (site adapters) or per channel (social)
type scriptedAdapter struct {
	name   string
	method model.Method
	class  model.AdapterClass
	byURL  map[string][]model.RawRecord
	err    error
}

func (a *scriptedAdapter) Name() string              { return a.name }
func (a *scriptedAdapter) Method() model.Method      { return a.method }
func (a *scriptedAdapter) Class() model.AdapterClass { return a.class }

func (a *scriptedAdapter) Supports(sub model.SubSource) bool {
	if a.class == model.ClassSocial {
		return sub.Kind == model.KindSocial && sub.Channel == a.method
	}
	return sub.IsSite()
}

func (a *scriptedAdapter) Fetch(_ context.Context, req adapters.Request) adapters.Result {
	if a.err != nil {
		return adapters.Failure(a.err)
	}
	return adapters.Success(a.byURL[req.URL], 0)
}

func reviews(n int, prefix string) []model.RawRecord {
	out := make([]model.RawRecord, n)
	for i := range out {
		out[i] = model.RawRecord{
			Text:       fmt.Sprintf("%s review %d: comfortable, true to size and well made", prefix, i+1),
			Rating:     model.Rating(4),
			Author:     fmt.Sprintf("Buyer %d", i+1),
			Date:       "2024-03-01",
			Verified:   true,
			Verifiable: true,
		}
	}
	return out
}

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Collection.PageDelay = 0
	cfg.Output.DebugDir = t.TempDir()
	return cfg
}

func newPipeline(t *testing.T, cfg *model.Config, opts Options) *Pipeline {
	t.Helper()
	p, err := New(cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestRun_BasicTierCapsCustomer(t *testing.T) {
	judge := &scriptedAdapter{
		name: "judge.me", method: model.MethodJudgeMe, class: model.ClassAPI,
		byURL: map[string][]model.RawRecord{"https://shop.example.com": reviews(35, "customer")},
	}
	p := newPipeline(t, testConfig(t), Options{Registry: adapters.NewRegistry(judge)})

	report, err := p.Run(context.Background(), model.Target{
		JobID:      "job_a",
		PrimaryURL: "https://shop.example.com",
		Tier:       model.TierBasic,
	})
	require.NoError(t, err)

	assert.Equal(t, 20, report.TotalReviewCount)
	assert.Equal(t, 20, report.CustomerReviewCount)
	assert.Equal(t, "R020", report.Reviews[19].ReviewID)
	assert.True(t, report.DataQuality.TierLimitApplied)
	assert.Equal(t, 35, report.DataQuality.AvailableReviewsEstimated)
	assert.GreaterOrEqual(t, report.DataQuality.ConfidenceLevel.Rank(), model.ConfidenceMedium.Rank())
	assert.True(t, report.DataQuality.HasMinimumReviews)
	assert.Empty(t, report.DataQuality.Warnings)
	assert.Equal(t, model.MethodJudgeMe, report.Metadata.ExtractionMethods["customer"])
	assert.Equal(t, foundation.SourceCustomer, report.SourceType)
}

func TestRun_PremiumAllSourcesEmpty(t *testing.T) {
	registry := adapters.NewRegistry(
		&scriptedAdapter{name: "judge.me", method: model.MethodJudgeMe, class: model.ClassAPI, err: errors.New("403 forbidden")},
		&scriptedAdapter{name: "site", method: model.MethodSelector, class: model.ClassDOM},
		&scriptedAdapter{name: "reddit", method: model.MethodReddit, class: model.ClassSocial},
		&scriptedAdapter{name: "youtube", method: model.MethodYouTube, class: model.ClassSocial},
	)
	p := newPipeline(t, testConfig(t), Options{Registry: registry})

	report, err := p.Run(context.Background(), model.Target{
		JobID:          "job_b",
		PrimaryURL:     "https://shop.example.com",
		CompetitorURLs: []string{"https://rival.example.com"},
		Tier:           model.TierPremium,
		Keywords:       []string{"barefoot shoes"},
	})
	require.NoError(t, err)

	dq := report.DataQuality
	assert.Equal(t, model.ConfidenceVeryLow, dq.ConfidenceLevel)
	assert.Equal(t, 0, report.TotalReviewCount)
	require.NotEmpty(t, dq.Warnings)
	assert.Equal(t, quality.MinimumWarning(0), dq.Warnings[0])
	for _, ch := range []string{
		quality.ChannelCustomer, quality.ChannelStructuredAPI, quality.ChannelCompetitors,
		quality.ChannelReddit, quality.ChannelYouTube,
	} {
		assert.Contains(t, dq.Warnings, quality.LimitationWarning(ch))
	}
	assert.Len(t, dq.MissingSources, 5)

	attempts := report.Metadata.Attempts["customer"]
	require.Len(t, attempts, 2)
	assert.Equal(t, "judge.me - failed", attempts[0].Summary())
	assert.Equal(t, model.OutcomeError, attempts[0].Outcome)
	assert.Equal(t, "site - failed", attempts[1].Summary())
	assert.Contains(t, report.Metadata.Attempts, "reddit")
	assert.Contains(t, report.Metadata.Attempts, "youtube")
}

func TestRun_CustomerAndCompetitors(t *testing.T) {
	site := &scriptedAdapter{
		name: "site", method: model.MethodSelector, class: model.ClassDOM,
		byURL: map[string][]model.RawRecord{
			"https://shop.example.com": reviews(22, "customer"),
			"https://one.example.com":  reviews(8, "one"),
			"https://two.example.com":  reviews(15, "two"),
		},
	}
	p := newPipeline(t, testConfig(t), Options{Registry: adapters.NewRegistry(site)})

	report, err := p.Run(context.Background(), model.Target{
		JobID:          "job_c",
		PrimaryURL:     "https://shop.example.com",
		CompetitorURLs: []string{"https://one.example.com", "https://two.example.com"},
		Tier:           model.TierPremium,
	})
	require.NoError(t, err)

	assert.Equal(t, 45, report.TotalReviewCount)
	assert.Equal(t, 22, report.CustomerReviewCount)
	assert.Equal(t, 23, report.CompetitorReviewCount)
	assert.Equal(t, "C1-R008", report.Reviews[29].ReviewID)
	assert.Equal(t, "C2-R001", report.Reviews[30].ReviewID)
	assert.Equal(t, 1.0, report.DataQuality.SuccessRatio)
	assert.Equal(t, model.ConfidenceMedium, report.DataQuality.ConfidenceLevel)
}

func TestRun_InputErrors(t *testing.T) {
	p := newPipeline(t, testConfig(t), Options{Registry: adapters.NewRegistry()})

	_, err := p.Run(context.Background(), model.Target{PrimaryURL: "not a url"})
	assert.True(t, errors.Is(err, model.ErrInvalidTarget))

	_, err = p.Run(context.Background(), model.Target{PrimaryURL: "https://shop.example.com", Tier: "gold"})
	assert.True(t, errors.Is(err, model.ErrUnknownTier))
}

func TestRun_BadCompetitorDoesNotFailRun(t *testing.T) {
	site := &scriptedAdapter{
		name: "site", method: model.MethodSelector, class: model.ClassDOM,
		byURL: map[string][]model.RawRecord{"https://shop.example.com": reviews(5, "customer")},
	}
	p := newPipeline(t, testConfig(t), Options{Registry: adapters.NewRegistry(site)})

	report, err := p.Run(context.Background(), model.Target{
		PrimaryURL:     "https://shop.example.com",
		CompetitorURLs: []string{"ftp://rival.example.com"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(report.JobID, "job_"))
	assert.Equal(t, model.TierBasic, report.Tier)
	require.Len(t, report.CompetitorInfo, 1)
	assert.NotEmpty(t, report.CompetitorInfo[0].Error)
	assert.Empty(t, report.Metadata.Attempts["competitor_1"])
	assert.Equal(t, 5, report.TotalReviewCount)
}

type stubProfiler struct{}

func (stubProfiler) Profile(_ context.Context, siteURL string) (*model.SiteProfile, error) {
	if strings.Contains(siteURL, "rival") {
		return nil, errors.New("blocked")
	}
	return &model.SiteProfile{
		Company:  model.CompanyInfo{Name: "Shop Co", Website: siteURL},
		Products: []model.ProductSummary{{Title: "Runner", Price: "99.00"}},
	}, nil
}

type stubProvider struct{}

func (stubProvider) Name() string                     { return "stub" }
func (stubProvider) IsAvailable(context.Context) bool { return true }
func (stubProvider) Summarize(_ context.Context, req llm.SummarizeRequest) (*llm.SummarizeResponse, error) {
	return &llm.SummarizeResponse{Summary: "Comfort is praised [R001] [R999].", Model: "stub-1"}, nil
}

func TestRun_ProfileBriefAndDump(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Debug = true

	site := &scriptedAdapter{
		name: "site", method: model.MethodSelector, class: model.ClassDOM,
		byURL: map[string][]model.RawRecord{"https://shop.example.com": reviews(3, "customer")},
	}
	p := newPipeline(t, cfg, Options{
		Registry: adapters.NewRegistry(site),
		Profiler: stubProfiler{},
		Briefer:  llm.NewBrieferWithProvider(stubProvider{}, llm.Config{}),
	})

	report, err := p.Run(context.Background(), model.Target{
		JobID:          "job_d",
		PrimaryURL:     "https://shop.example.com",
		CompetitorURLs: []string{"https://rival.example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Shop Co", report.CompanyInfo.Name)
	require.Len(t, report.Products, 1)
	assert.Contains(t, report.Metadata.ProcessingNotes, "competitor_1 profile unavailable: blocked")

	require.NotNil(t, report.Brief)
	assert.Equal(t, "Comfort is praised [R001].", report.Brief.Text)
	assert.Equal(t, []string{"R001"}, report.Brief.CitedIDs)
	assert.Len(t, report.Brief.Warnings, 1)

	loaded, cols, err := foundation.LoadDump(cfg.Output.DebugDir, "job_d")
	require.NoError(t, err)
	assert.Len(t, cols, 2)
	assert.Equal(t, report.TotalReviewCount, loaded.TotalReviewCount)
	require.NotNil(t, loaded.Brief)
}
