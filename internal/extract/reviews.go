package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/reviewharvest/internal/model"
	"go.uber.org/zap"
)

// MinReviewLength is the shortest text, in runes, accepted as a review
const MinReviewLength = 20

// maxPerPage bounds the records taken from one page by the selector cascade
const maxPerPage = 50

var reviewSelectors = []string{
	".review", ".testimonial", ".feedback", ".customer-review", ".user-review",
	".client-review", ".review-item", ".testimonial-item", ".feedback-item",
	`[class*="review"]`, `[class*="testimonial"]`, `[class*="feedback"]`,
	`[data-testid*="review"]`, `[data-testid*="testimonial"]`,
	".reviews-container .review", ".testimonials-section .testimonial",
	".customer-feedback .feedback", ".reviews-list .review-item",
	"blockquote", ".quote", ".customer-quote", ".client-quote",
}

// RenderedReviewSelectors target the review widgets of rendered storefronts
// (Judge.me, Yotpo, Shopify product reviews) before generic containers
var RenderedReviewSelectors = []string{
	"div.jdgm-rev", `div[class*='jdgm-rev__']`,
	"div.yotpo-review", `div[class*='yotpo-review']`, "div.y-review",
	"div.spr-review", `div[class*='shopify-product-reviews']`, `div[class*='product-review']`,
	`div[class*='review-item']`, `div[class*='review-content']`,
	`article[class*='review']`, "div[data-review]", `div[class*='testimonial']`,
}

var ratingSelectors = []string{
	".rating", ".stars", ".star-rating", `[class*="star"]`, `[class*="rating"]`,
	".review-rating", ".rating-stars", ".score", "[data-rating]", ".rating-value",
}

var nameSelectors = []string{
	".reviewer-name", ".customer-name", ".author", ".name",
	`[class*="name"]`, `[class*="author"]`, `[class*="reviewer"]`,
	".review-author", ".testimonial-author",
}

var dateSelectors = []string{
	".date", ".review-date", ".timestamp", `[class*="date"]`, "time", "[datetime]", ".posted-date",
}

var (
	ratingOutOfRe = regexp.MustCompile(`(\d+(?:\.\d+)?)[/\s]*(?:out of\s*)?(\d+)`)
	ratingStarsRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:stars?|★)`)
	starGlyphsRe  = regexp.MustCompile(`★+`)

	dateLikeRes = []*regexp.Regexp{
		regexp.MustCompile(`\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}`),
		regexp.MustCompile(`\d{4}[/\-]\d{1,2}[/\-]\d{1,2}`),
		regexp.MustCompile(`(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`),
		regexp.MustCompile(`(?i)\d{1,2}\s+(days?|weeks?|months?|years?)\s+ago`),
	}

	boilerplate = []string{
		"navigation", "menu", "footer", "header", "copyright",
		"privacy policy", "terms of service", "cookie policy",
		"subscribe", "newsletter", "follow us",
	}
)

// IsValidReviewText rejects short texts and short boilerplate (navigation,
// footer, newsletter prompts)
func IsValidReviewText(text string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < MinReviewLength {
		return false
	}
	if n >= 100 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range boilerplate {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

// SelectorReviews runs the review selector cascade over a page. The first
// selector that yields at least one valid review wins; later selectors are
// not tried.
func SelectorReviews(doc *goquery.Document, pageURL string) []model.RawRecord {
	return CascadeReviews(doc, pageURL, reviewSelectors, model.MethodSelector)
}

// CascadeReviews runs an arbitrary selector cascade, tagging records with method
func CascadeReviews(doc *goquery.Document, pageURL string, selectors []string, method model.Method) []model.RawRecord {
	for _, selector := range selectors {
		var records []model.RawRecord
		doc.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if rec, ok := reviewFromElement(el, pageURL, method); ok {
				records = append(records, rec)
			}
			return len(records) < maxPerPage
		})
		if len(records) > 0 {
			zap.L().Debug("review selector matched",
				zap.String("url", pageURL),
				zap.String("selector", selector),
				zap.Int("records", len(records)),
			)
			return records
		}
	}
	return nil
}

func reviewFromElement(el *goquery.Selection, pageURL string, method model.Method) (model.RawRecord, bool) {
	text := CleanText(el)
	if !IsValidReviewText(text) {
		return model.RawRecord{}, false
	}
	return model.RawRecord{
		Text:         text,
		Rating:       ElementRating(el),
		Author:       elementName(el),
		Date:         elementDate(el),
		SourceURL:    pageURL,
		OriginMethod: method,
	}, true
}

// ElementRating finds a rating inside a review element: "4.5/5", "4 out of 5",
// "4 stars", a run of ★ glyphs, or a data-rating/data-score attribute.
func ElementRating(el *goquery.Selection) *float64 {
	for _, selector := range ratingSelectors {
		r := el.Find(selector).First()
		if r.Length() == 0 {
			continue
		}
		if v := ParseRating(r.Text()); v != nil {
			return v
		}
		for _, attr := range []string{"data-rating", "data-score", "rating", "score"} {
			if val, ok := r.Attr(attr); ok {
				if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
					return &f
				}
			}
		}
	}
	return nil
}

// ParseRating extracts a numeric rating from free text, or nil
func ParseRating(text string) *float64 {
	text = strings.TrimSpace(text)
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return &f
	}
	if m := ratingOutOfRe.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &f
		}
	}
	if m := ratingStarsRe.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &f
		}
	}
	if m := starGlyphsRe.FindString(text); m != "" {
		f := float64(utf8.RuneCountInString(m))
		return &f
	}
	return nil
}

func elementName(el *goquery.Selection) string {
	for _, selector := range nameSelectors {
		n := el.Find(selector).First()
		if n.Length() == 0 {
			continue
		}
		name := Squash(n.Text())
		if name != "" && utf8.RuneCountInString(name) < 100 {
			return name
		}
	}
	return ""
}

func elementDate(el *goquery.Selection) string {
	for _, selector := range dateSelectors {
		d := el.Find(selector).First()
		if d.Length() == 0 {
			continue
		}
		if dt, ok := d.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			return strings.TrimSpace(dt)
		}
		if text := Squash(d.Text()); IsDateLike(text) {
			return text
		}
	}
	return ""
}

// IsDateLike reports whether text looks like a date ("03/14/2024", "Mar 3", "2 weeks ago")
func IsDateLike(text string) bool {
	for _, re := range dateLikeRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
