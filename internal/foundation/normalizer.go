// Package foundation turns collected records into the canonical foundation
// report consumed by the downstream prompting stage.
package foundation

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/reviewharvest/internal/extract"
	"github.com/ppiankov/reviewharvest/internal/model"
)

// Pipeline stage names written to report metadata
const (
	StageSingleStore = "review_collection"
	StageMultiStore  = "multi_store_review_collection"
	NextStage        = "demographics_foundation"
)

// Source types
const (
	SourceCustomer               = "customer_url"
	SourceCustomerAndCompetitors = "customer_and_competitors"
)

// Input is everything Build needs for one report
type Input struct {
	Target      model.Target
	Collections []*model.Collection // Customer first, then competitors, then social
	Quality     model.QualityReport
	StartedAt   time.Time
	CompletedAt time.Time // Defaults to now
	Notes       []string  // Extra processing notes, appended last
}

// Normalizer builds foundation reports
type Normalizer struct {
	valueProps *extract.PhraseExtractor
	features   *extract.PhraseExtractor
	now        func() time.Time
}

// NewNormalizer creates a normalizer with the stock phrase extractors
func NewNormalizer() *Normalizer {
	return &Normalizer{
		valueProps: extract.NewValuePropositionExtractor(),
		features:   extract.NewFeatureExtractor(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Build assembles the foundation report. Reviews are merged customer first,
// then competitors in number order, then social channels.
func (n *Normalizer) Build(in Input) *model.FoundationReport {
	perSource := AssignIDs(in.Collections)

	var (
		all         []model.CanonicalReview
		customer    []model.CanonicalReview
		competitors []competitorReviews
		customerCol *model.Collection
		social      int
	)
	for i, col := range in.Collections {
		if col == nil {
			continue
		}
		reviews := perSource[i]
		all = append(all, reviews...)
		switch col.SubSource.Kind {
		case model.KindCustomer:
			customer = append(customer, reviews...)
			customerCol = col
		case model.KindCompetitor:
			competitors = append(competitors, competitorReviews{number: col.SubSource.Index, reviews: reviews})
		default:
			social += len(reviews)
		}
	}
	if all == nil {
		all = []model.CanonicalReview{}
	}

	completed := in.CompletedAt
	if completed.IsZero() {
		completed = n.now()
	}

	report := &model.FoundationReport{
		SourceType:            SourceCustomer,
		SourceURL:             in.Target.PrimaryURL,
		JobID:                 in.Target.JobID,
		Tier:                  in.Target.Tier,
		TargetKeywords:        in.Target.Keywords,
		Reviews:               all,
		TotalReviewCount:      len(all),
		CustomerReviewCount:   len(customer),
		CompetitorReviewCount: len(all) - len(customer) - social,
		SocialReviewCount:     social,
		CompanyInfo:           companyInfo(customerCol, in.Target.PrimaryURL),
		CompetitorInfo:        competitorInfo(in.Collections),
		Products:              []model.ProductSummary{},
		Analysis:              n.analyze(all, customer, competitors),
		DataQuality:           in.Quality,
		Metadata: model.ReportMetadata{
			JobID:             in.Target.JobID,
			PipelineStage:     StageSingleStore,
			NextStage:         NextStage,
			StartedAt:         in.StartedAt,
			CompletedAt:       completed,
			ExtractionMethods: map[string]model.Method{},
			Attempts:          map[string][]model.Attempt{},
		},
	}
	if report.TargetKeywords == nil {
		report.TargetKeywords = []string{}
	}
	if len(in.Target.CompetitorURLs) > 0 {
		report.SourceType = SourceCustomerAndCompetitors
		report.Metadata.PipelineStage = StageMultiStore
	}
	if customerCol != nil && customerCol.Profile != nil && len(customerCol.Profile.Products) > 0 {
		report.Products = customerCol.Profile.Products
	}

	for _, col := range in.Collections {
		if col == nil {
			continue
		}
		name := col.SubSource.Name
		if col.Method != "" {
			report.Metadata.ExtractionMethods[name] = col.Method
		}
		report.Metadata.Attempts[name] = col.Attempts
	}

	report.Metadata.ProcessingNotes = append(processingNotes(in.Collections, len(all)), in.Notes...)
	return report
}

func companyInfo(col *model.Collection, primaryURL string) model.CompanyInfo {
	if col != nil && col.Profile != nil && col.Profile.Company.Name != "" {
		return col.Profile.Company
	}
	info := model.CompanyInfo{Website: primaryURL}
	if col != nil {
		info.Name = displayName(shopName(col.SubSource))
	}
	if info.Name == "" {
		info.Name = "Unknown"
	}
	return info
}

func competitorInfo(cols []*model.Collection) []model.CompetitorInfo {
	info := []model.CompetitorInfo{}
	for _, col := range cols {
		if col == nil || col.SubSource.Kind != model.KindCompetitor {
			continue
		}
		info = append(info, model.CompetitorInfo{
			CompetitorNumber: col.SubSource.Index,
			ShopName:         shopName(col.SubSource),
			URL:              col.SubSource.URL,
			TotalReviews:     len(col.Records),
			ScrapeMethod:     col.Method,
			Error:            col.Err,
		})
	}
	return info
}

// processingNotes lists per-store yields, methods and attempt summaries
func processingNotes(cols []*model.Collection, total int) []string {
	var notes []string
	attempted, succeeded, competitors := 0, 0, 0

	for _, col := range cols {
		if col == nil {
			continue
		}
		sub := col.SubSource
		if sub.IsSite() {
			attempted++
			if col.Succeeded() {
				succeeded++
			}
		}

		switch sub.Kind {
		case model.KindCustomer:
			notes = append(notes, fmt.Sprintf("Customer store: %s (%d reviews)", shopName(sub), len(col.Records)))
			notes = append(notes, "Customer extraction method: "+methodLabel(col.Method))
		case model.KindCompetitor:
			competitors++
			notes = append(notes, fmt.Sprintf("Competitor %d: %s (%d reviews)", sub.Index, shopName(sub), len(col.Records)))
		default:
			notes = append(notes, fmt.Sprintf("Social channel %s: %d records", sub.Name, len(col.Records)))
		}

		if col.Err != "" {
			notes = append(notes, fmt.Sprintf("%s skipped: %s", sub.Name, col.Err))
		}
		if len(col.Attempts) > 0 {
			summaries := make([]string, len(col.Attempts))
			for i, a := range col.Attempts {
				summaries[i] = a.Summary()
			}
			notes = append(notes, fmt.Sprintf("%s attempts: %s", sub.Name, strings.Join(summaries, ", ")))
		}
		if col.TierLimitApplied {
			notes = append(notes, fmt.Sprintf("%s capped at %d of %d reviews by tier limit", sub.Name, col.Quota, col.Discovered))
		}
	}

	if competitors > 0 {
		notes = append(notes, fmt.Sprintf("Competitors analyzed: %d stores", competitors))
	}
	notes = append(notes, fmt.Sprintf("Total reviews collected: %d", total))
	notes = append(notes, fmt.Sprintf("Successful scrapes: %d/%d", succeeded, attempted))
	if total < model.MinimumReviews {
		notes = append(notes, "WARNING: Below minimum recommended review count for reliable analysis")
	}
	return notes
}

func methodLabel(m model.Method) string {
	if m == "" {
		return "none"
	}
	return string(m)
}
