package foundation

import (
	"fmt"
	"unicode/utf8"

	"github.com/ppiankov/reviewharvest/internal/model"
)

// Review quality labels
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
)

const (
	phraseSampleSize = 10 // Reviews fed to the phrase extractors
	maxInsights      = 5
)

// competitorReviews groups one competitor's reviews under its number
type competitorReviews struct {
	number  int
	reviews []model.CanonicalReview
}

func (n *Normalizer) analyze(all, customer []model.CanonicalReview, competitors []competitorReviews) model.Analysis {
	var competitorAll []model.CanonicalReview
	for _, c := range competitors {
		competitorAll = append(competitorAll, c.reviews...)
	}

	a := model.Analysis{
		TotalReviews:        len(all),
		HasRatings:          hasRatings(all),
		HasDates:            hasDates(all),
		AverageReviewLength: averageLength(all),
		AverageRating:       averageRating(all),
		CustomerAvgRating:   averageRating(customer),
		CompetitorAvgRating: averageRating(competitorAll),
		ValuePropositions:   n.valueProps.Extract(texts(customer, phraseSampleSize)),
		Features:            n.features.Extract(texts(all, phraseSampleSize)),
		CompetitorInsights:  competitorInsights(competitors),
	}
	if len(all) > 0 {
		verified := 0
		for _, r := range all {
			if r.Verified {
				verified++
			}
		}
		a.VerifiedPurchaseRate = float64(verified) / float64(len(all))
	}
	a.ReviewQuality = reviewQuality(all)
	a.QualityScore = qualityScore(a)
	return a
}

func texts(reviews []model.CanonicalReview, limit int) []string {
	if len(reviews) > limit {
		reviews = reviews[:limit]
	}
	out := make([]string, len(reviews))
	for i, r := range reviews {
		out[i] = r.Text
	}
	return out
}

func hasRatings(reviews []model.CanonicalReview) bool {
	for _, r := range reviews {
		if r.Rating != nil {
			return true
		}
	}
	return false
}

func hasDates(reviews []model.CanonicalReview) bool {
	for _, r := range reviews {
		if r.Date != "" {
			return true
		}
	}
	return false
}

func hasReviewers(reviews []model.CanonicalReview) bool {
	for _, r := range reviews {
		if r.Author != "" {
			return true
		}
	}
	return false
}

func averageLength(reviews []model.CanonicalReview) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range reviews {
		total += utf8.RuneCountInString(r.Text)
	}
	return float64(total) / float64(len(reviews))
}

// averageRating is nil when no review carries a rating
func averageRating(reviews []model.CanonicalReview) *float64 {
	sum, n := 0.0, 0
	for _, r := range reviews {
		if r.Rating != nil {
			sum += *r.Rating
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

func competitorInsights(competitors []competitorReviews) []string {
	insights := []string{}
	for _, c := range competitors {
		if len(c.reviews) == 0 {
			continue
		}
		if avg := averageRating(c.reviews); avg != nil {
			insights = append(insights, fmt.Sprintf("Competitor %d: %d reviews, %.1f/5 avg rating", c.number, len(c.reviews), *avg))
		} else {
			insights = append(insights, fmt.Sprintf("Competitor %d: %d reviews", c.number, len(c.reviews)))
		}
		if len(insights) == maxInsights {
			break
		}
	}
	return insights
}

func reviewQuality(reviews []model.CanonicalReview) string {
	if len(reviews) == 0 {
		return QualityPoor
	}
	length := averageLength(reviews)
	ratings, reviewers := hasRatings(reviews), hasReviewers(reviews)

	switch {
	case length > 100 && ratings && reviewers:
		return QualityExcellent
	case length > 50 && (ratings || reviewers):
		return QualityGood
	case length > 30:
		return QualityFair
	default:
		return QualityPoor
	}
}

// qualityScore is a 0-100 completeness score over the analysis
func qualityScore(a model.Analysis) int {
	score := 0

	// 1. Review count (0-40 points)
	switch {
	case a.TotalReviews >= model.MinimumReviews:
		score += 40
	case a.TotalReviews >= 10:
		score += 25
	case a.TotalReviews > 0:
		score += 10
	}

	// 2. Ratings (20 points)
	if a.HasRatings {
		score += 20
	}

	// 3. Dates (15 points)
	if a.HasDates {
		score += 15
	}

	// 4. Review quality (0-25 points)
	switch a.ReviewQuality {
	case QualityExcellent:
		score += 25
	case QualityGood:
		score += 15
	case QualityFair:
		score += 10
	}

	return min(score, 100)
}
