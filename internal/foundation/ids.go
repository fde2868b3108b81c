package foundation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/ppiankov/reviewharvest/internal/model"
)

// IDPrefix returns the review ID prefix for a sub-source: "" for the
// customer, "C<i>-" for competitor i, "RD-" for Reddit and "YT-" for YouTube
func IDPrefix(sub model.SubSource) string {
	switch sub.Kind {
	case model.KindCompetitor:
		return fmt.Sprintf("C%d-", sub.Index)
	case model.KindSocial:
		switch sub.Channel {
		case model.MethodReddit:
			return "RD-"
		case model.MethodYouTube:
			return "YT-"
		default:
			return strings.ToUpper(sub.Name) + "-"
		}
	default:
		return ""
	}
}

// AssignIDs converts each collection's records into canonical reviews.
// Numbering restarts at R001 for every sub-source, so IDs are unique
// within a report as long as sub-sources are.
func AssignIDs(cols []*model.Collection) [][]model.CanonicalReview {
	out := make([][]model.CanonicalReview, len(cols))
	for i, col := range cols {
		if col == nil {
			continue
		}
		prefix := IDPrefix(col.SubSource)
		shop := shopName(col.SubSource)

		reviews := make([]model.CanonicalReview, 0, len(col.Records))
		for n, r := range col.Records {
			reviews = append(reviews, model.CanonicalReview{
				ReviewID:     fmt.Sprintf("%sR%03d", prefix, n+1),
				Title:        title(col.SubSource, r.Author),
				Text:         r.Text,
				Rating:       r.Rating,
				Author:       r.Author,
				Date:         r.Date,
				Verified:     r.Verified,
				Verifiable:   r.Verifiable,
				SourceURL:    r.SourceURL,
				OriginMethod: r.OriginMethod,
				Metadata:     metadata(col.SubSource, shop, r),
			})
		}
		out[i] = reviews
	}
	return out
}

func title(sub model.SubSource, author string) string {
	if author == "" {
		author = "Anonymous"
	}
	switch {
	case sub.Kind == model.KindCompetitor:
		return fmt.Sprintf("Competitor %d Review from %s", sub.Index, author)
	case sub.Channel == model.MethodReddit:
		return "Reddit Discussion from " + author
	case sub.Channel == model.MethodYouTube:
		return "YouTube Comment from " + author
	default:
		return "Customer Review from " + author
	}
}

func source(sub model.SubSource) string {
	switch sub.Kind {
	case model.KindCustomer:
		return "customer_site"
	case model.KindCompetitor:
		return "competitor_site"
	default:
		return sub.Name
	}
}

func metadata(sub model.SubSource, shop string, r model.RawRecord) map[string]any {
	m := map[string]any{
		"source":            source(sub),
		"sub_source":        sub.Name,
		"extraction_method": string(r.OriginMethod),
	}
	if shop != "" {
		m["shop_name"] = shop
	}
	if r.Author != "" {
		m["reviewer"] = r.Author
	}
	if sub.Kind == model.KindCompetitor {
		m["competitor_number"] = sub.Index
	}
	for k, v := range r.Extra {
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
	return m
}

// shopName is the storefront handle of a site sub-source, "" otherwise
func shopName(sub model.SubSource) string {
	if !sub.IsSite() || sub.URL == "" {
		return ""
	}
	u, err := url.Parse(sub.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	return model.ShopName(u)
}

// displayName turns "ground-luxe" into "Ground Luxe"
func displayName(shop string) string {
	words := strings.FieldsFunc(shop, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}
