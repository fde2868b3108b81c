package model

// ConfidenceLevel is the ordinal confidence bucket of a report
type ConfidenceLevel string

const (
	ConfidenceVeryLow ConfidenceLevel = "very_low"
	ConfidenceLow     ConfidenceLevel = "low"
	ConfidenceMedium  ConfidenceLevel = "medium"
	ConfidenceHigh    ConfidenceLevel = "high"
)

// Rank orders levels: very_low < low < medium < high
func (c ConfidenceLevel) Rank() int {
	switch c {
	case ConfidenceLow:
		return 1
	case ConfidenceMedium:
		return 2
	case ConfidenceHigh:
		return 3
	default:
		return 0
	}
}

// QualityReport summarizes the volume, coverage and trustworthiness of collected reviews
type QualityReport struct {
	TotalReviews              int             `json:"total_reviews"`
	HasMinimumReviews         bool            `json:"has_minimum_reviews"`
	RatingsAvailable          bool            `json:"ratings_available"`
	DatesAvailable            bool            `json:"dates_available"`
	VerificationRate          *float64        `json:"verification_rate"` // nil: no source exposes verification
	ConfidenceLevel           ConfidenceLevel `json:"confidence_level"`
	Warnings                  []string        `json:"warnings"`
	TierLimitApplied          bool            `json:"tier_limit_applied"`
	AvailableReviewsEstimated int             `json:"available_reviews_estimated"`

	SuccessRatio        float64  `json:"success_ratio"`
	TargetsAttempted    int      `json:"targets_attempted"`
	TargetsSucceeded    int      `json:"targets_succeeded"`
	MissingSources      []string `json:"missing_sources,omitempty"`
	AverageReviewLength float64  `json:"average_review_length"`
}
