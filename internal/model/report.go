package model

import "time"

// FoundationReport is the canonical report handed to the downstream prompting stage
type FoundationReport struct {
	SourceType     string   `json:"source_type"` // "customer_url" or "customer_and_competitors"
	SourceURL      string   `json:"source_url"`
	JobID          string   `json:"job_id"`
	Tier           Tier     `json:"tier"`
	TargetKeywords []string `json:"target_keywords"`

	Reviews               []CanonicalReview `json:"reviews"`
	TotalReviewCount      int               `json:"total_review_count"`
	CustomerReviewCount   int               `json:"customer_review_count"`
	CompetitorReviewCount int               `json:"competitor_review_count"`
	SocialReviewCount     int               `json:"social_review_count"`

	CompanyInfo    CompanyInfo      `json:"company_info"`
	CompetitorInfo []CompetitorInfo `json:"competitor_info"`
	Products       []ProductSummary `json:"products"`

	Analysis    Analysis       `json:"analysis"`
	DataQuality QualityReport  `json:"data_quality"`
	Metadata    ReportMetadata `json:"metadata"`

	Brief *Brief `json:"brief,omitempty"` // Optional LLM brief, never affects data_quality
}

// CompetitorInfo attributes a competitor sub-source
type CompetitorInfo struct {
	CompetitorNumber int    `json:"competitor_number"`
	ShopName         string `json:"shop_name"`
	URL              string `json:"url"`
	TotalReviews     int    `json:"total_reviews"`
	ScrapeMethod     Method `json:"scrape_method,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Analysis holds derived analytics over the merged review set
type Analysis struct {
	TotalReviews         int      `json:"total_reviews"`
	HasRatings           bool     `json:"has_ratings"`
	HasDates             bool     `json:"has_dates"`
	AverageReviewLength  float64  `json:"average_review_length"`
	ReviewQuality        string   `json:"review_quality"` // excellent, good, fair, poor
	AverageRating        *float64 `json:"average_rating"`
	CustomerAvgRating    *float64 `json:"customer_avg_rating"`
	CompetitorAvgRating  *float64 `json:"competitor_avg_rating"`
	VerifiedPurchaseRate float64  `json:"verified_purchase_rate"`
	ValuePropositions    []string `json:"value_propositions"`
	Features             []string `json:"features"`
	CompetitorInsights   []string `json:"competitor_insights"`
	QualityScore         int      `json:"quality_score"` // 0-100
}

// ReportMetadata carries provenance for the run
type ReportMetadata struct {
	JobID             string               `json:"job_id"`
	PipelineStage     string               `json:"pipeline_stage"`
	NextStage         string               `json:"next_stage"`
	StartedAt         time.Time            `json:"started_at"`
	CompletedAt       time.Time            `json:"completed_at"`
	ExtractionMethods map[string]Method    `json:"extraction_methods"` // Keyed by sub-source name
	Attempts          map[string][]Attempt `json:"attempts"`           // Keyed by sub-source name
	ProcessingNotes   []string             `json:"processing_notes"`
}

// Brief is an optional LLM-written summary of the foundation report
type Brief struct {
	Provider   string   `json:"provider"`
	Model      string   `json:"model"`
	Text       string   `json:"text"`
	CitedIDs   []string `json:"cited_ids,omitempty"`
	Warnings   []string `json:"warnings,omitempty"` // e.g. citations outside the allowlist
	TokensUsed int      `json:"tokens_used,omitempty"`
}
