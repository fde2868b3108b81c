package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PhraseExtractor pulls short keyword-bearing sentences out of review texts
type PhraseExtractor struct {
	keywords []string
	minLen   int // Exclusive lower bound, in runes
	maxLen   int // Exclusive upper bound, in runes
	limit    int
}

// NewValuePropositionExtractor matches praise sentences (20 < len < 150, at most 5)
func NewValuePropositionExtractor() *PhraseExtractor {
	return &PhraseExtractor{
		keywords: []string{"quality", "excellent", "amazing", "perfect", "best", "love", "recommend"},
		minLen:   20,
		maxLen:   150,
		limit:    5,
	}
}

// NewFeatureExtractor matches product-attribute sentences (15 < len < 100, at most 8)
func NewFeatureExtractor() *PhraseExtractor {
	return &PhraseExtractor{
		keywords: []string{"material", "quality", "design", "size", "color", "comfort", "easy", "soft", "durable"},
		minLen:   15,
		maxLen:   100,
		limit:    8,
	}
}

// Extract splits each text on '.', lower-cases and trims the pieces, and keeps
// those within the length bounds that contain a keyword. Results keep
// discovery order, are capitalized, and repeat no sentence.
func (e *PhraseExtractor) Extract(texts []string) []string {
	phrases := make([]string, 0, e.limit)
	seen := make(map[string]bool)

	for _, text := range texts {
		for _, sentence := range strings.Split(strings.ToLower(text), ".") {
			sentence = strings.TrimSpace(sentence)
			n := utf8.RuneCountInString(sentence)
			if n <= e.minLen || n >= e.maxLen || seen[sentence] {
				continue
			}
			if !e.matches(sentence) {
				continue
			}
			seen[sentence] = true
			phrases = append(phrases, capitalize(sentence))
			if len(phrases) >= e.limit {
				return phrases
			}
		}
	}
	return phrases
}

func (e *PhraseExtractor) matches(sentence string) bool {
	for _, kw := range e.keywords {
		if strings.Contains(sentence, kw) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
