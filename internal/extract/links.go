package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var reviewLinkRes = []*regexp.Regexp{
	regexp.MustCompile(`reviews?`),
	regexp.MustCompile(`testimonials?`),
	regexp.MustCompile(`feedback`),
	regexp.MustCompile(`customers?`),
	regexp.MustCompile(`what.*say`),
	regexp.MustCompile(`success.*stories`),
	regexp.MustCompile(`case.*studies`),
}

// IsReviewLink reports whether a link's text or href suggests a review or testimonial page
func IsReviewLink(text, href string) bool {
	text = strings.ToLower(text)
	href = strings.ToLower(href)
	for _, re := range reviewLinkRes {
		if re.MatchString(text) || re.MatchString(href) {
			return true
		}
	}
	return false
}

// ReviewPageLinks returns up to max absolute URLs of same-host review-like pages
// linked from doc, in document order, excluding the page itself
func ReviewPageLinks(doc *goquery.Document, pageURL string, max int) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := map[string]bool{stripFragment(pageURL): true}

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return true
		}
		if !IsReviewLink(a.Text(), href) {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref)
		if resolved.Host != base.Host {
			return true
		}
		abs := stripFragment(resolved.String())
		if !seen[abs] {
			seen[abs] = true
			links = append(links, abs)
		}
		return len(links) < max
	})
	return links
}

func stripFragment(u string) string {
	if i := strings.Index(u, "#"); i >= 0 {
		return u[:i]
	}
	return u
}
