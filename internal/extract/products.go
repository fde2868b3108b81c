package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/reviewharvest/internal/model"
)

const maxProducts = 20

var productSelectors = []string{
	".product", ".product-item", ".service", ".offering",
	`[class*="product"]`, `[class*="service"]`, ".shop-item",
	".catalog-item", ".portfolio-item",
}

var aboutSelectors = []string{
	`[class*="about"]`, `[id*="about"]`,
	`[class*="company"]`, `[id*="company"]`,
	".mission", ".vision", ".story",
}

var priceRe = regexp.MustCompile(`[\$£€¥]|\d+(?:\.\d{2})?`)

// Products extracts product summaries with the product selector cascade,
// falling back to page headings when no selector matches
func Products(doc *goquery.Document) []model.ProductSummary {
	for _, selector := range productSelectors {
		var products []model.ProductSummary
		doc.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if p, ok := productFromElement(el); ok {
				products = append(products, p)
			}
			return len(products) < maxProducts
		})
		if len(products) > 0 {
			return products
		}
	}
	return headingProducts(doc)
}

func productFromElement(el *goquery.Selection) (model.ProductSummary, bool) {
	title := firstText(el, "h1", "h2", "h3", ".title", ".name", ".product-title", ".product-name")
	if title == "" {
		return model.ProductSummary{}, false
	}

	p := model.ProductSummary{
		Title:       title,
		Description: Truncate(firstText(el, ".description", ".product-description", "p", ".summary"), 500),
		Source:      "html",
	}
	for _, selector := range []string{".price", ".cost", `[class*="price"]`, ".amount"} {
		if text := Squash(el.Find(selector).First().Text()); text != "" && priceRe.MatchString(text) {
			p.Price = text
			break
		}
	}
	return p, true
}

func headingProducts(doc *goquery.Document) []model.ProductSummary {
	var products []model.ProductSummary
	doc.Find("h1, h2, h3").EachWithBreak(func(i int, h *goquery.Selection) bool {
		if i >= 10 {
			return false
		}
		title := Squash(h.Text())
		if n := utf8.RuneCountInString(title); n <= 5 || n >= 200 {
			return true
		}
		desc := ""
		if next := Squash(h.NextAllFiltered("p, div").First().Text()); utf8.RuneCountInString(next) > 20 {
			desc = Truncate(next, 500)
		}
		products = append(products, model.ProductSummary{Title: title, Description: desc, Source: "headings"})
		return true
	})
	return products
}

// CompanyInfo describes the business from the page title, meta description,
// an about section, or the first paragraph, in that order of preference
func CompanyInfo(doc *goquery.Document, pageURL string) model.CompanyInfo {
	info := model.CompanyInfo{
		Name:    Squash(doc.Find("title").First().Text()),
		Website: pageURL,
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		info.Description = strings.TrimSpace(desc)
	}

	for _, selector := range aboutSelectors {
		about := doc.Find(selector).First()
		if about.Length() == 0 {
			continue
		}
		if text := CleanText(about); len(text) > len(info.Description) {
			info.Description = Truncate(text, 1000)
		}
		break
	}

	if info.Description == "" {
		info.Description = Truncate(Squash(doc.Find("p").First().Text()), 500)
	}

	info.Platform = DetectPlatform(doc)
	return info
}

// DetectPlatform recognizes common storefront platforms from page markers
func DetectPlatform(doc *goquery.Document) string {
	html, _ := doc.Html()
	lower := strings.ToLower(html)
	switch {
	case strings.Contains(lower, "cdn.shopify.com") || strings.Contains(lower, "shopify.theme"):
		return "shopify"
	case strings.Contains(lower, "woocommerce"):
		return "woocommerce"
	case strings.Contains(lower, "bigcommerce"):
		return "bigcommerce"
	case strings.Contains(lower, "wix.com"):
		return "wix"
	case strings.Contains(lower, "squarespace"):
		return "squarespace"
	default:
		return ""
	}
}

func firstText(el *goquery.Selection, selectors ...string) string {
	for _, selector := range selectors {
		if text := Squash(el.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
