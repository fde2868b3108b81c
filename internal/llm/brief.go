// Package llm writes the optional LLM brief over a foundation report. The
// brief runs after assessment and never changes data_quality.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/reviewharvest/internal/model"
)

// Briefer attaches LLM briefs to reports
type Briefer struct {
	provider Provider // nil when disabled
	config   Config
}

// NewBriefer creates a briefer for config. A config without a provider gives
// a disabled briefer, not an error.
func NewBriefer(config Config, client JSONPoster) (*Briefer, error) {
	provider, err := NewProvider(config, client)
	if err != nil {
		return nil, err
	}
	return &Briefer{provider: provider, config: config}, nil
}

// NewBrieferWithProvider wraps an existing provider
func NewBrieferWithProvider(provider Provider, config Config) *Briefer {
	return &Briefer{provider: provider, config: config}
}

// IsEnabled reports whether a provider is configured
func (b *Briefer) IsEnabled() bool {
	return b != nil && b.provider != nil
}

// ProviderName returns the configured provider name, "" when disabled
func (b *Briefer) ProviderName() string {
	if !b.IsEnabled() {
		return ""
	}
	return b.provider.Name()
}

// Brief writes a brief for report. Citations outside the report's review IDs
// are stripped from the text and listed in the brief's warnings. It returns
// nil, nil when disabled.
func (b *Briefer) Brief(ctx context.Context, report *model.FoundationReport) (*model.Brief, error) {
	if !b.IsEnabled() || report == nil {
		return nil, nil
	}

	brief := &model.Brief{Provider: b.provider.Name(), Model: b.config.Model}

	if !b.provider.IsAvailable(ctx) {
		brief.Warnings = append(brief.Warnings, fmt.Sprintf("LLM provider %s not available; brief skipped", b.provider.Name()))
		return brief, nil
	}

	allowed := make([]string, len(report.Reviews))
	for i, r := range report.Reviews {
		allowed[i] = r.ReviewID
	}

	resp, err := b.provider.Summarize(ctx, SummarizeRequest{
		Report:     report,
		AllowedIDs: allowed,
		Model:      b.config.Model,
		MaxTokens:  b.config.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	text, kept, stripped := StripCitations(resp.Summary, allowed)
	brief.Text = text
	brief.CitedIDs = kept
	brief.Model = resp.Model
	brief.TokensUsed = resp.TokensUsed
	for _, id := range stripped {
		brief.Warnings = append(brief.Warnings, fmt.Sprintf("Removed citation to unknown review %s", id))
	}
	return brief, nil
}

var (
	multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
	spacePunctRe = regexp.MustCompile(`[ \t]+([.,;:!?])`)
	emptyGroupRe = regexp.MustCompile(`[(\[]\s*[,;]?\s*[)\]]`)
	danglingRe   = regexp.MustCompile(`[,;]\s*([)\]])`)
)

// StripCitations removes review ID citations not in allowed. It returns the
// cleaned text, the distinct kept IDs and the distinct stripped IDs, each in
// order of first appearance.
func StripCitations(text string, allowed []string) (string, []string, []string) {
	var kept, stripped []string
	seenKept, seenStripped := map[string]bool{}, map[string]bool{}

	out := citationRe.ReplaceAllStringFunc(text, func(m string) string {
		id := citedID(citationRe.FindStringSubmatch(m))
		if contains(allowed, id) {
			if !seenKept[id] {
				seenKept[id] = true
				kept = append(kept, id)
			}
			return m
		}
		if !seenStripped[id] {
			seenStripped[id] = true
			stripped = append(stripped, id)
		}
		return ""
	})

	if len(stripped) > 0 {
		out = danglingRe.ReplaceAllString(out, "$1")
		out = emptyGroupRe.ReplaceAllString(out, "")
		out = multiSpaceRe.ReplaceAllString(out, " ")
		out = spacePunctRe.ReplaceAllString(out, "$1")
		out = strings.TrimSpace(out)
	}
	return out, kept, stripped
}
