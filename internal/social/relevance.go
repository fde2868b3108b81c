// Package social scores and filters keyword-driven discussion content
// (Reddit posts, YouTube comments) before it becomes review records.
package social

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// FuzzyWordThreshold is the Jaro-Winkler similarity at which two words are
// treated as the same keyword (plural and typo tolerant)
const FuzzyWordThreshold = 0.92

var experiencePhrases = []string{
	"i use", "i tried", "my experience", "i found", "works for me",
	"i recommend", "been using", "have used", "in my case",
}

// Relevance scores content against a keyword phrase in [0, 1].
// A literal phrase match scores 0.8; otherwise each keyword word that matches a
// content word contributes its share of 0.6. Length, questions and first-hand
// experience phrases add small boosts.
func Relevance(content, keyword string) float64 {
	content = strings.TrimSpace(content)
	keyword = strings.TrimSpace(keyword)
	if content == "" || keyword == "" {
		return 0
	}

	contentLower := strings.ToLower(content)
	keywordLower := strings.ToLower(keyword)

	var score float64
	if strings.Contains(contentLower, keywordLower) {
		score = 0.8
	} else {
		keywordWords := strings.Fields(keywordLower)
		contentWords := strings.Fields(contentLower)
		matches := 0
		for _, kw := range keywordWords {
			if containsWord(contentWords, kw) {
				matches++
			}
		}
		score = float64(matches) / float64(len(keywordWords)) * 0.6
	}

	n := len(content)
	switch {
	case n > 200:
		score += 0.15
	case n > 100:
		score += 0.10
	case n > 50:
		score += 0.05
	}

	if strings.Contains(content, "?") {
		score += 0.05
	}

	for _, phrase := range experiencePhrases {
		if strings.Contains(contentLower, phrase) {
			score += 0.10
			break
		}
	}

	if score > 1 {
		return 1
	}
	return score
}

func containsWord(words []string, want string) bool {
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'()[]")
		if w == want {
			return true
		}
		if len(w) > 3 && len(want) > 3 && matchr.JaroWinkler(w, want, false) >= FuzzyWordThreshold {
			return true
		}
	}
	return false
}
