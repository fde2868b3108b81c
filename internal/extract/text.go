// Package extract pulls reviews, products and company details out of HTML
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText returns the visible text of a selection with whitespace collapsed.
// Script, style and noscript descendants are skipped without mutating the document.
func CleanText(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.Find("script, style, noscript").Remove()
	return Squash(clone.Text())
}

// Squash collapses whitespace runs to one space and trims the ends
func Squash(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
