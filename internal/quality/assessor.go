// Package quality assesses the volume, coverage and trustworthiness of a
// run's collected reviews and assigns a confidence level.
package quality

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/ppiankov/reviewharvest/internal/model"
)

// Channel names used in DATA LIMITATION warnings and missing_sources
const (
	ChannelCustomer      = "Customer reviews"
	ChannelStructuredAPI = "Structured review API"
	ChannelCompetitors   = "Competitor reviews"
	ChannelReddit        = "Reddit discussions"
	ChannelYouTube       = "YouTube comments"
)

// Thresholds drive the confidence cascade
type Thresholds struct {
	HighTotal           int
	MediumTotal         int
	LowTotal            int
	HighRatio           float64
	MediumRatio         float64
	HighTrustMethods    []model.Method
	CategoryEvidenceMin int
}

// DefaultThresholds returns the stock cascade: 50/20/10 reviews, 0.8/0.6 success ratio
func DefaultThresholds() Thresholds {
	return ThresholdsFromConfig(model.DefaultConfig().Quality)
}

// ThresholdsFromConfig maps the quality config section, filling zero values
// with defaults
func ThresholdsFromConfig(cfg model.QualityConfig) Thresholds {
	t := Thresholds{
		HighTotal:           cfg.HighTotal,
		MediumTotal:         cfg.MediumTotal,
		LowTotal:            cfg.LowTotal,
		HighRatio:           cfg.HighRatio,
		MediumRatio:         cfg.MediumRatio,
		HighTrustMethods:    cfg.HighTrustMethods,
		CategoryEvidenceMin: cfg.CategoryEvidenceMin,
	}
	if t.HighTotal <= 0 {
		t.HighTotal = 50
	}
	if t.MediumTotal <= 0 {
		t.MediumTotal = 20
	}
	if t.LowTotal <= 0 {
		t.LowTotal = 10
	}
	if t.HighRatio <= 0 {
		t.HighRatio = 0.8
	}
	if t.MediumRatio <= 0 {
		t.MediumRatio = 0.6
	}
	if t.HighTrustMethods == nil {
		t.HighTrustMethods = []model.Method{model.MethodJudgeMe, model.MethodYotpo}
	}
	if t.CategoryEvidenceMin <= 0 {
		t.CategoryEvidenceMin = 3
	}
	return t
}

// Expectations say which channels a run was expected to fill
type Expectations struct {
	StructuredAPI bool // API-class adapters were enabled
	Competitors   bool // Competitor URLs were given
	Reddit        bool // Keywords were given and Reddit is enabled
	YouTube       bool // Keywords were given and YouTube is enabled
}

// Input is everything the assessor looks at
type Input struct {
	Collections []*model.Collection
	Expected    Expectations
}

// Assessor builds quality reports. It never errors.
type Assessor struct {
	t Thresholds
}

// NewAssessor creates an assessor with the given thresholds
func NewAssessor(t Thresholds) *Assessor {
	return &Assessor{t: t}
}

// Thresholds returns the active thresholds
func (a *Assessor) Thresholds() Thresholds {
	return a.t
}

// MinimumWarning is the sample-size warning for totals below model.MinimumReviews
func MinimumWarning(total int) string {
	return fmt.Sprintf("WARNING: Sample size below recommended minimum (%d reviews). "+
		"Insights should be considered preliminary. Current: %d reviews.", model.MinimumReviews, total)
}

// LimitationWarning is the missing-channel warning
func LimitationWarning(channel string) string {
	return fmt.Sprintf("DATA LIMITATION: %s not available for analysis.", channel)
}

// InsufficientWarning is the per-category evidence warning
func InsufficientWarning(category string) string {
	return fmt.Sprintf("Insufficient data in collected reviews to determine %s.", category)
}

type tally struct {
	total, rated, dated, verifiable, verified, competitor int
	textRunes                                             int
	discovered                                            int
	tierLimit                                             bool

	customer        *model.Collection
	sitesAttempted  int
	sitesSucceeded  int
	competitorCount int
	apiRecords      int
	redditRecords   int
	youtubeRecords  int
}

func count(cols []*model.Collection) tally {
	var t tally
	for _, col := range cols {
		if col == nil {
			continue
		}
		sub := col.SubSource
		if sub.IsSite() {
			t.sitesAttempted++
			if col.Succeeded() {
				t.sitesSucceeded++
			}
			if col.MethodClass == model.ClassAPI {
				t.apiRecords += len(col.Records)
			}
			// Tier quotas are per store; social caps do not count
			t.discovered += col.Discovered
			t.tierLimit = t.tierLimit || col.TierLimitApplied
		}
		switch {
		case sub.Kind == model.KindCustomer:
			t.customer = col
		case sub.Kind == model.KindCompetitor:
			t.competitorCount++
			t.competitor += len(col.Records)
		case sub.Channel == model.MethodReddit:
			t.redditRecords += len(col.Records)
		case sub.Channel == model.MethodYouTube:
			t.youtubeRecords += len(col.Records)
		}

		for _, r := range col.Records {
			t.total++
			t.textRunes += utf8.RuneCountInString(r.Text)
			if r.HasRating() {
				t.rated++
			}
			if r.Date != "" {
				t.dated++
			}
			if r.Verifiable {
				t.verifiable++
				if r.Verified {
					t.verified++
				}
			}
		}
	}
	return t
}

// Assess builds the quality report for a run
func (a *Assessor) Assess(in Input) model.QualityReport {
	t := count(in.Collections)

	report := model.QualityReport{
		TotalReviews:              t.total,
		HasMinimumReviews:         t.total >= model.MinimumReviews,
		RatingsAvailable:          t.rated > 0,
		DatesAvailable:            t.dated > 0,
		TierLimitApplied:          t.tierLimit,
		AvailableReviewsEstimated: t.discovered,
		TargetsAttempted:          t.sitesAttempted,
		TargetsSucceeded:          t.sitesSucceeded,
		Warnings:                  []string{},
	}

	// 1. Verification over verifiable records only
	if t.verifiable > 0 {
		rate := float64(t.verified) / float64(t.verifiable)
		report.VerificationRate = &rate
	}

	if t.total > 0 {
		report.AverageReviewLength = float64(t.textRunes) / float64(t.total)
	}

	// 2. Success ratio over site targets
	if t.sitesAttempted > 0 {
		report.SuccessRatio = float64(t.sitesSucceeded) / float64(t.sitesAttempted)
	}

	// 3. Confidence
	single := t.competitorCount == 0
	var method model.Method
	var class model.AdapterClass
	if t.customer != nil {
		method, class = t.customer.Method, t.customer.MethodClass
	}
	report.ConfidenceLevel = a.Confidence(t.total, report.SuccessRatio, single, method, class)

	// 4. Warnings: minimum sample, missing channels, thin categories
	if !report.HasMinimumReviews {
		report.Warnings = append(report.Warnings, MinimumWarning(t.total))
	}

	customerRecords := 0
	if t.customer != nil {
		customerRecords = len(t.customer.Records)
	}
	channels := []struct {
		name     string
		expected bool
		records  int
	}{
		{ChannelCustomer, true, customerRecords},
		{ChannelStructuredAPI, in.Expected.StructuredAPI, t.apiRecords},
		{ChannelCompetitors, in.Expected.Competitors, t.competitor},
		{ChannelReddit, in.Expected.Reddit, t.redditRecords},
		{ChannelYouTube, in.Expected.YouTube, t.youtubeRecords},
	}
	for _, ch := range channels {
		if ch.expected && ch.records == 0 {
			report.MissingSources = append(report.MissingSources, ch.name)
			report.Warnings = append(report.Warnings, LimitationWarning(ch.name))
		}
	}

	categories := []struct {
		name     string
		expected bool
		support  int
	}{
		{"rating distribution", true, t.rated},
		{"review recency", true, t.dated},
		{"purchase verification", true, t.verifiable},
		{"competitor positioning", in.Expected.Competitors, t.competitor},
	}
	for _, c := range categories {
		if c.expected && c.support < a.t.CategoryEvidenceMin {
			report.Warnings = append(report.Warnings, InsufficientWarning(c.name))
		}
	}

	return report
}

// Confidence evaluates the cascade top-down; the first matching level wins
func (a *Assessor) Confidence(total int, ratio float64, single bool, method model.Method, class model.AdapterClass) model.ConfidenceLevel {
	switch {
	case total >= a.t.HighTotal && ratio >= a.t.HighRatio,
		single && total >= a.t.MediumTotal && slices.Contains(a.t.HighTrustMethods, method):
		return model.ConfidenceHigh
	case total >= a.t.MediumTotal && ratio >= a.t.MediumRatio,
		single && total >= a.t.MediumTotal && class == model.ClassBrowser:
		return model.ConfidenceMedium
	case total >= a.t.LowTotal:
		return model.ConfidenceLow
	default:
		return model.ConfidenceVeryLow
	}
}
