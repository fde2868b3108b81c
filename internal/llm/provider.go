package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/reviewharvest/internal/extract"
	"github.com/ppiankov/reviewharvest/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize writes a brief of the report, citing only allowed review IDs
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for a brief
type SummarizeRequest struct {
	Report *model.FoundationReport

	// AllowedIDs is the allowlist of review IDs the brief may cite
	AllowedIDs []string

	// Prompt overrides the default digest prompt when set
	Prompt string

	Model     string
	MaxTokens int
}

// SummarizeResponse contains the raw provider output
type SummarizeResponse struct {
	Summary    string
	CitedIDs   []string // Every review ID found in Summary, allowed or not
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	Model       string
	APIKey      string // OpenAI only
	BaseURL     string // Ollama, or a custom OpenAI-compatible endpoint
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// DefaultConfig returns the disabled default
func DefaultConfig() Config {
	return Config{
		Provider:    "",
		Timeout:     60 * time.Second,
		Temperature: 0.2,
		MaxTokens:   800,
	}
}

const (
	systemPrompt  = "You are a research assistant writing a short brief over collected customer reviews. You cite reviews only by their IDs."
	promptReviews = 30  // Reviews quoted in the digest
	promptTextLen = 300 // Runes per quoted review
)

// BuildPrompt constructs the digest prompt for a foundation report
func BuildPrompt(report *model.FoundationReport, allowedIDs []string) string {
	var b strings.Builder
	q := report.DataQuality

	fmt.Fprintf(&b, `Write a brief (4-6 sentences) describing what customers say about %s.

RULES:
1. Cite reviews ONLY by ID in square brackets, e.g. [R001]. Allowed IDs: %s
2. Do not invent IDs, quotes, statistics or sources.
3. If the data is thin, say so. Confidence is %s.

Data:
- Reviews: %d total (%d customer, %d competitor, %d social)
`, report.CompanyInfo.Name, joinIDs(allowedIDs), q.ConfidenceLevel,
		report.TotalReviewCount, report.CustomerReviewCount, report.CompetitorReviewCount, report.SocialReviewCount)

	if avg := report.Analysis.AverageRating; avg != nil {
		fmt.Fprintf(&b, "- Average rating: %.1f/5\n", *avg)
	}
	for _, w := range q.Warnings {
		fmt.Fprintf(&b, "- Warning: %s\n", w)
	}
	for _, vp := range report.Analysis.ValuePropositions {
		fmt.Fprintf(&b, "- Value proposition: %s\n", vp)
	}
	for _, ci := range report.Analysis.CompetitorInsights {
		fmt.Fprintf(&b, "- %s\n", ci)
	}

	b.WriteString("\nReviews:\n")
	for i, r := range report.Reviews {
		if i >= promptReviews {
			fmt.Fprintf(&b, "... and %d more reviews\n", len(report.Reviews)-promptReviews)
			break
		}
		rating := "unrated"
		if r.Rating != nil {
			rating = fmt.Sprintf("%.1f/5", *r.Rating)
		}
		fmt.Fprintf(&b, "[%s] (%s) %s\n", r.ReviewID, rating, extract.Truncate(extract.Squash(r.Text), promptTextLen))
	}

	return b.String()
}

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	if len(ids) > 50 {
		return fmt.Sprintf("%s ... and %d more", strings.Join(ids[:50], ", "), len(ids)-50)
	}
	return strings.Join(ids, ", ")
}

// citationRe matches "[R001]" as a unit, or a bare ID such as C2-R014
var citationRe = regexp.MustCompile(`\[((?:C\d+-|RD-|YT-)?R\d{3,})\]|\b((?:C\d+-|RD-|YT-)?R\d{3,})\b`)

func citedID(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// extractIDs returns the distinct review IDs cited in text, in order
func extractIDs(text string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range citationRe.FindAllStringSubmatch(text, -1) {
		id := citedID(m)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
