package social

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// AnonymousUser replaces deleted, removed and bot authors
const AnonymousUser = "AnonymousUser"

const (
	minContentChars = 20
	minContentWords = 5
	minScore        = -5
)

var spamIndicators = []string{
	"[deleted]", "[removed]", "this post has been removed",
	"your submission has been removed", "click here", "check out my",
	"dm me", "pm me for", "follow me", "subscribe to my",
}

// IsQualityContent rejects short, spammy or heavily downvoted content
func IsQualityContent(text string, score int) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minContentChars {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, indicator := range spamIndicators {
		if strings.Contains(lower, indicator) {
			return false
		}
	}

	if len(strings.Fields(trimmed)) < minContentWords {
		return false
	}

	return score >= minScore
}

// Anonymize maps a username to a stable pseudonym (User_<8 hex chars>)
func Anonymize(username string) string {
	switch username {
	case "", "[deleted]", "[removed]", "AutoModerator":
		return AnonymousUser
	}
	sum := sha256.Sum256([]byte(username))
	return "User_" + hex.EncodeToString(sum[:])[:8]
}

var commentSpamIndicators = []string{
	"click here", "check out my", "subscribe to my", "follow me",
	"make money", "work from home", "free gift", "special offer",
	"www.", "http", ".com", "bit.ly",
}

// IsSpamComment flags promotional, link-bearing, repetitive or shouting comments
func IsSpamComment(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range commentSpamIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}

	words := strings.Fields(text)
	if len(words) > 5 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		if float64(len(unique)) < float64(len(words))*0.5 {
			return true
		}
	}

	if len(text) > 10 {
		upper := 0
		for _, r := range text {
			if unicode.IsUpper(r) {
				upper++
			}
		}
		if float64(upper)/float64(len(text)) > 0.7 {
			return true
		}
	}
	return false
}

// Rank orders relevant content by relevance (70%) and capped engagement (30%)
func Rank(relevance float64, engagement int) float64 {
	if engagement > 100 {
		engagement = 100
	}
	if engagement < 0 {
		engagement = 0
	}
	return relevance*0.7 + float64(engagement)/100*0.3
}
