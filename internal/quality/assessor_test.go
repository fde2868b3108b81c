package quality

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/reviewharvest/internal/model"
)

func records(n int, mutate func(i int, r *model.RawRecord)) []model.RawRecord {
	out := make([]model.RawRecord, n)
	for i := range out {
		out[i] = model.RawRecord{Text: fmt.Sprintf("review number %d with enough text", i)}
		if mutate != nil {
			mutate(i, &out[i])
		}
	}
	return out
}

func customer(method model.Method, class model.AdapterClass, recs []model.RawRecord) *model.Collection {
	return &model.Collection{
		SubSource:   model.SubSource{Kind: model.KindCustomer, Name: "customer", URL: "https://shop.example.com"},
		Records:     recs,
		Method:      method,
		MethodClass: class,
		Discovered:  len(recs),
	}
}

func competitor(i int, recs []model.RawRecord) *model.Collection {
	c := &model.Collection{
		SubSource:  model.SubSource{Kind: model.KindCompetitor, Index: i, Name: fmt.Sprintf("competitor_%d", i)},
		Records:    recs,
		Discovered: len(recs),
	}
	if len(recs) > 0 {
		c.Method, c.MethodClass = model.MethodSelector, model.ClassDOM
	}
	return c
}

func rich(i int, r *model.RawRecord) {
	r.Rating = model.Rating(4)
	r.Date = "2024-01-02"
	r.Verifiable = true
	r.Verified = i%2 == 0
}

func TestConfidence_Cascade(t *testing.T) {
	a := NewAssessor(DefaultThresholds())

	tests := []struct {
		name   string
		total  int
		ratio  float64
		single bool
		method model.Method
		class  model.AdapterClass
		want   model.ConfidenceLevel
	}{
		{"volume and ratio", 50, 0.8, false, model.MethodSelector, model.ClassDOM, model.ConfidenceHigh},
		{"volume without ratio", 50, 0.5, false, model.MethodSelector, model.ClassDOM, model.ConfidenceLow},
		{"high trust single source", 20, 1, true, model.MethodJudgeMe, model.ClassAPI, model.ConfidenceHigh},
		{"high trust with competitors", 20, 0.5, false, model.MethodJudgeMe, model.ClassAPI, model.ConfidenceLow},
		{"medium ratio", 20, 0.6, false, model.MethodSelector, model.ClassDOM, model.ConfidenceMedium},
		{"browser single source", 20, 0, true, model.MethodBrowser, model.ClassBrowser, model.ConfidenceMedium},
		{"low", 10, 0, false, "", 0, model.ConfidenceLow},
		{"very low", 9, 1, true, model.MethodJudgeMe, model.ClassAPI, model.ConfidenceVeryLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Confidence(tt.total, tt.ratio, tt.single, tt.method, tt.class)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssess_MinimumWarningIffBelowTwenty(t *testing.T) {
	a := NewAssessor(DefaultThresholds())

	for _, n := range []int{0, 1, 19, 20, 21, 60} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			report := a.Assess(Input{Collections: []*model.Collection{
				customer(model.MethodSelector, model.ClassDOM, records(n, rich)),
			}})

			minimum := MinimumWarning(n)
			if n < model.MinimumReviews {
				require.NotEmpty(t, report.Warnings)
				assert.Equal(t, minimum, report.Warnings[0])
				assert.False(t, report.HasMinimumReviews)
			} else {
				assert.NotContains(t, report.Warnings, minimum)
				assert.True(t, report.HasMinimumReviews)
			}
			assert.Equal(t, n, report.TotalReviews)
		})
	}
}

func TestAssess_ConfidenceMonotonicInTotal(t *testing.T) {
	a := NewAssessor(DefaultThresholds())

	for _, method := range []model.Method{model.MethodJudgeMe, model.MethodSelector} {
		prev := -1
		for n := 0; n <= 80; n++ {
			report := a.Assess(Input{Collections: []*model.Collection{
				customer(method, model.ClassAPI, records(n, nil)),
				competitor(1, nil),
			}})
			rank := report.ConfidenceLevel.Rank()
			assert.GreaterOrEqual(t, rank, prev, "method %s total %d", method, n)
			prev = rank
		}
	}
}

func TestAssess_AllEmptyPremium(t *testing.T) {
	a := NewAssessor(DefaultThresholds())

	report := a.Assess(Input{
		Collections: []*model.Collection{
			customer("", 0, nil),
			competitor(1, nil),
			{SubSource: model.SubSource{Kind: model.KindSocial, Name: "reddit", Channel: model.MethodReddit}},
			{SubSource: model.SubSource{Kind: model.KindSocial, Name: "youtube", Channel: model.MethodYouTube}},
		},
		Expected: Expectations{StructuredAPI: true, Competitors: true, Reddit: true, YouTube: true},
	})

	assert.Equal(t, model.ConfidenceVeryLow, report.ConfidenceLevel)
	assert.Equal(t, 0, report.TotalReviews)
	assert.Nil(t, report.VerificationRate)
	assert.Equal(t, 2, report.TargetsAttempted)
	assert.Equal(t, 0, report.TargetsSucceeded)
	assert.Zero(t, report.SuccessRatio)

	assert.Equal(t, []string{
		ChannelCustomer, ChannelStructuredAPI, ChannelCompetitors, ChannelReddit, ChannelYouTube,
	}, report.MissingSources)

	want := []string{
		MinimumWarning(0),
		LimitationWarning(ChannelCustomer),
		LimitationWarning(ChannelStructuredAPI),
		LimitationWarning(ChannelCompetitors),
		LimitationWarning(ChannelReddit),
		LimitationWarning(ChannelYouTube),
		InsufficientWarning("rating distribution"),
		InsufficientWarning("review recency"),
		InsufficientWarning("purchase verification"),
		InsufficientWarning("competitor positioning"),
	}
	assert.Equal(t, want, report.Warnings)
	assert.True(t, strings.HasPrefix(report.Warnings[0], "WARNING: Sample size below recommended minimum (20 reviews)."))
	assert.True(t, strings.HasSuffix(report.Warnings[0], "Current: 0 reviews."))
}

func TestAssess_CappedSingleSource(t *testing.T) {
	col := customer(model.MethodSelector, model.ClassDOM, records(20, rich))
	col.Discovered = 35
	col.Quota = 20
	col.TierLimitApplied = true

	report := NewAssessor(DefaultThresholds()).Assess(Input{Collections: []*model.Collection{col}})

	assert.True(t, report.TierLimitApplied)
	assert.Equal(t, 35, report.AvailableReviewsEstimated)
	assert.Equal(t, 20, report.TotalReviews)
	assert.Equal(t, 1.0, report.SuccessRatio)
	assert.GreaterOrEqual(t, report.ConfidenceLevel.Rank(), model.ConfidenceMedium.Rank())
	assert.Empty(t, report.Warnings)
}

func TestAssess_SocialCapIsNotATierLimit(t *testing.T) {
	reddit := &model.Collection{
		SubSource:        model.SubSource{Kind: model.KindSocial, Name: "reddit", Channel: model.MethodReddit, Keywords: []string{"grounding"}},
		Records:          records(20, nil),
		Method:           model.MethodReddit,
		MethodClass:      model.ClassSocial,
		Discovered:       45,
		Quota:            20,
		TierLimitApplied: true,
	}
	cust := customer(model.MethodSelector, model.ClassDOM, records(15, rich))
	cust.Quota = 20

	report := NewAssessor(DefaultThresholds()).Assess(Input{
		Collections: []*model.Collection{cust, reddit},
		Expected:    Expectations{Reddit: true},
	})

	assert.Equal(t, 35, report.TotalReviews)
	assert.False(t, report.TierLimitApplied)
	assert.Equal(t, 15, report.AvailableReviewsEstimated)
	assert.Equal(t, 1, report.TargetsAttempted)
}

func TestAssess_HighTrustSingleSource(t *testing.T) {
	report := NewAssessor(DefaultThresholds()).Assess(Input{
		Collections: []*model.Collection{customer(model.MethodJudgeMe, model.ClassAPI, records(25, rich))},
		Expected:    Expectations{StructuredAPI: true},
	})

	assert.Equal(t, model.ConfidenceHigh, report.ConfidenceLevel)
	assert.Empty(t, report.MissingSources)
}

func TestAssess_VerificationRate(t *testing.T) {
	a := NewAssessor(DefaultThresholds())

	// Only verifiable records count toward the rate
	recs := records(6, func(i int, r *model.RawRecord) {
		if i < 4 {
			r.Verifiable = true
			r.Verified = i == 0
		}
	})
	report := a.Assess(Input{Collections: []*model.Collection{customer(model.MethodSelector, model.ClassDOM, recs)}})
	require.NotNil(t, report.VerificationRate)
	assert.InDelta(t, 0.25, *report.VerificationRate, 1e-9)

	report = a.Assess(Input{Collections: []*model.Collection{customer(model.MethodSelector, model.ClassDOM, records(6, nil))}})
	assert.Nil(t, report.VerificationRate)
	assert.Contains(t, report.Warnings, InsufficientWarning("purchase verification"))
}

func TestAssess_RatingZeroCountsAsRated(t *testing.T) {
	recs := records(3, func(_ int, r *model.RawRecord) { r.Rating = model.Rating(0) })
	report := NewAssessor(DefaultThresholds()).Assess(Input{
		Collections: []*model.Collection{customer(model.MethodSelector, model.ClassDOM, recs)},
	})

	assert.True(t, report.RatingsAvailable)
	assert.NotContains(t, report.Warnings, InsufficientWarning("rating distribution"))
	assert.False(t, report.DatesAvailable)
}

func TestAssess_CompetitorChannels(t *testing.T) {
	report := NewAssessor(DefaultThresholds()).Assess(Input{
		Collections: []*model.Collection{
			customer(model.MethodSelector, model.ClassDOM, records(22, rich)),
			competitor(1, records(8, rich)),
			competitor(2, nil),
		},
		Expected: Expectations{Competitors: true},
	})

	assert.Equal(t, 30, report.TotalReviews)
	assert.Equal(t, 3, report.TargetsAttempted)
	assert.Equal(t, 2, report.TargetsSucceeded)
	assert.InDelta(t, 2.0/3.0, report.SuccessRatio, 1e-9)
	assert.Equal(t, model.ConfidenceMedium, report.ConfidenceLevel)
	assert.Empty(t, report.MissingSources)
	assert.Empty(t, report.Warnings)
}

func TestThresholdsFromConfig_FillsZeroes(t *testing.T) {
	th := ThresholdsFromConfig(model.QualityConfig{HighTotal: 100})
	assert.Equal(t, 100, th.HighTotal)
	assert.Equal(t, 20, th.MediumTotal)
	assert.Equal(t, 0.8, th.HighRatio)
	assert.Equal(t, 3, th.CategoryEvidenceMin)
	assert.Equal(t, []model.Method{model.MethodJudgeMe, model.MethodYotpo}, th.HighTrustMethods)
}
