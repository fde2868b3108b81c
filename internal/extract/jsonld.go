package extract

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/titanous/json5"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// JSONLDReviews extracts schema.org Review objects from ld+json script blocks,
// wherever they appear in the graph (top level, @graph, Product.review).
// Blocks that strict JSON rejects are retried with the lenient JSON5 parser.
func JSONLDReviews(htmlContent, pageURL string) []model.RawRecord {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	var records []model.RawRecord
	for _, block := range ldJSONBlocks(doc) {
		data, ok := decodeLD(block)
		if !ok {
			zap.L().Debug("unparseable ld+json block", zap.String("url", pageURL))
			continue
		}
		walkLD(data, func(obj map[string]any) {
			if rec, ok := reviewFromLD(obj, pageURL); ok {
				records = append(records, rec)
			}
		})
	}
	return records
}

func ldJSONBlocks(doc *html.Node) []string {
	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			for _, attr := range n.Attr {
				if attr.Key == "type" && strings.EqualFold(strings.TrimSpace(attr.Val), "application/ld+json") {
					var buf strings.Builder
					for c := n.FirstChild; c != nil; c = c.NextSibling {
						if c.Type == html.TextNode {
							buf.WriteString(c.Data)
						}
					}
					if s := strings.TrimSpace(buf.String()); s != "" {
						blocks = append(blocks, s)
					}
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return blocks
}

func decodeLD(block string) (any, bool) {
	var data any
	if err := json.Unmarshal([]byte(block), &data); err == nil {
		return data, true
	}
	if err := json5.Unmarshal([]byte(block), &data); err == nil {
		return data, true
	}
	return nil, false
}

func walkLD(v any, visit func(map[string]any)) {
	switch t := v.(type) {
	case map[string]any:
		visit(t)
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkLD(t[k], visit)
		}
	case []any:
		for _, child := range t {
			walkLD(child, visit)
		}
	}
}

func isType(obj map[string]any, want string) bool {
	switch t := obj["@type"].(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

func reviewFromLD(obj map[string]any, pageURL string) (model.RawRecord, bool) {
	if !isType(obj, "Review") {
		return model.RawRecord{}, false
	}

	text := Squash(stringField(obj["reviewBody"]))
	if text == "" {
		text = Squash(stringField(obj["description"]))
	}
	if len([]rune(text)) < MinReviewLength {
		return model.RawRecord{}, false
	}

	rec := model.RawRecord{
		Text:         text,
		Date:         stringField(obj["datePublished"]),
		SourceURL:    pageURL,
		OriginMethod: model.MethodJSONLD,
	}

	if rating, ok := obj["reviewRating"].(map[string]any); ok {
		rec.Rating = ParseRating(stringField(rating["ratingValue"]))
	}

	switch a := obj["author"].(type) {
	case map[string]any:
		rec.Author = stringField(a["name"])
	case string:
		rec.Author = a
	}

	if name := stringField(obj["name"]); name != "" {
		rec.Extra = map[string]string{"title": name}
	}
	return rec, true
}

// stringField renders scalar JSON values as strings ("4", "4.5", "text")
func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
