package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/reviewharvest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestSelectorReviews_FirstMatchingSelectorWins(t *testing.T) {
	doc := parse(t, `
	<html><body>
		<div class="review">
			<span class="rating">4.5/5</span>
			<span class="reviewer-name">Dana K.</span>
			<time datetime="2024-03-14">March 14</time>
			<p>These sheets are incredibly soft and I sleep so much better now.</p>
		</div>
		<div class="review">
			<span class="stars">★★★★</span>
			<p>Good value overall, the stitching held up after many washes.</p>
		</div>
		<div class="review"><p>Too short</p></div>
		<blockquote>A quote that would match later in the cascade, long enough.</blockquote>
	</body></html>`)

	recs := SelectorReviews(doc, "https://shop.example.com/reviews")
	require.Len(t, recs, 2)

	first := recs[0]
	assert.Contains(t, first.Text, "incredibly soft")
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.5, *first.Rating)
	assert.Equal(t, "Dana K.", first.Author)
	assert.Equal(t, "2024-03-14", first.Date)
	assert.Equal(t, model.MethodSelector, first.OriginMethod)
	assert.False(t, first.Verifiable)

	require.NotNil(t, recs[1].Rating)
	assert.Equal(t, 4.0, *recs[1].Rating)
}

func TestSelectorReviews_FallsThroughToBlockquote(t *testing.T) {
	doc := parse(t, `<html><body>
		<blockquote>Working with this team transformed our onboarding process.</blockquote>
	</body></html>`)

	recs := SelectorReviews(doc, "https://agency.example.com")
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Rating)
}

func TestIsValidReviewText(t *testing.T) {
	assert.False(t, IsValidReviewText("short"))
	assert.False(t, IsValidReviewText("Subscribe to our newsletter for deals"))
	assert.True(t, IsValidReviewText("Arrived quickly and fits perfectly, very happy"))
	long := "Subscribe " + strings.Repeat("this product is great and I love it ", 4)
	assert.True(t, IsValidReviewText(long), "boilerplate words only reject short texts")
}

func TestParseRating(t *testing.T) {
	cases := map[string]*float64{
		"4.5/5":       model.Rating(4.5),
		"4 out of 5":  model.Rating(4),
		"5 stars":     model.Rating(5),
		"★★★":         model.Rating(3),
		"3":           model.Rating(3),
		"no rating":   nil,
		"Rated 4.8★":  model.Rating(4.8),
	}
	for in, want := range cases {
		got := ParseRating(in)
		if want == nil {
			assert.Nil(t, got, in)
			continue
		}
		require.NotNil(t, got, in)
		assert.Equal(t, *want, *got, in)
	}
}

func TestElementRating_DataAttribute(t *testing.T) {
	doc := parse(t, `<div class="review"><div data-rating="4"></div><p>text</p></div>`)
	r := ElementRating(doc.Find(".review"))
	require.NotNil(t, r)
	assert.Equal(t, 4.0, *r)
}

func TestIsDateLike(t *testing.T) {
	assert.True(t, IsDateLike("03/14/2024"))
	assert.True(t, IsDateLike("2024-03-14"))
	assert.True(t, IsDateLike("Posted Mar 3"))
	assert.True(t, IsDateLike("2 weeks ago"))
	assert.False(t, IsDateLike("Verified buyer"))
}

func TestJSONLDReviews(t *testing.T) {
	html := `<html><head>
	<script type="application/ld+json">
	{"@context":"https://schema.org","@type":"Product","name":"Grounding Sheet",
	 "review":[
	   {"@type":"Review","reviewBody":"Helped my sleep within a week, highly recommend it.",
	    "reviewRating":{"@type":"Rating","ratingValue":5},"author":{"@type":"Person","name":"Sam"},
	    "datePublished":"2024-01-02"},
	   {"@type":"Review","reviewBody":"Too short","reviewRating":{"ratingValue":"2"}}
	 ]}
	</script>
	<script type="application/ld+json">
	{'@type': 'Review', reviewBody: 'Lovely fabric, though it runs a little small.', author: 'Jo', reviewRating: {ratingValue: '4.5'},}
	</script>
	<script type="application/ld+json">{not json at all</script>
	</head><body></body></html>`

	recs := JSONLDReviews(html, "https://shop.example.com/products/sheet")
	require.Len(t, recs, 2)

	assert.Equal(t, "Helped my sleep within a week, highly recommend it.", recs[0].Text)
	require.NotNil(t, recs[0].Rating)
	assert.Equal(t, 5.0, *recs[0].Rating)
	assert.Equal(t, "Sam", recs[0].Author)
	assert.Equal(t, "2024-01-02", recs[0].Date)
	assert.Equal(t, model.MethodJSONLD, recs[0].OriginMethod)

	assert.Equal(t, "Jo", recs[1].Author)
	require.NotNil(t, recs[1].Rating)
	assert.Equal(t, 4.5, *recs[1].Rating)
}

func TestReviewPageLinks(t *testing.T) {
	doc := parse(t, `<html><body>
		<a href="/pages/reviews">Reviews</a>
		<a href="https://other.example.org/reviews">Elsewhere</a>
		<a href="/about">What our customers say</a>
		<a href="https://shop.example.com/pages/reviews#top">dup</a>
		<a href="/collections/all">Shop</a>
		<a href="#reviews">anchor</a>
		<a href="/pages/testimonials">Kind words</a>
		<a href="/case-studies">Case studies</a>
	</body></html>`)

	links := ReviewPageLinks(doc, "https://shop.example.com/", 3)
	assert.Equal(t, []string{
		"https://shop.example.com/pages/reviews",
		"https://shop.example.com/about",
		"https://shop.example.com/pages/testimonials",
	}, links)
}

func TestProductsAndCompanyInfo(t *testing.T) {
	doc := parse(t, `<html><head>
		<title>GroundLuxe | Organic Grounding Sheets</title>
		<meta name="description" content="Organic cotton grounding sheets.">
		<script src="https://cdn.shopify.com/s/files/theme.js"></script>
	</head><body>
		<section class="about-us">GroundLuxe makes certified organic grounding bedding with silver thread, designed for deep, restorative sleep.</section>
		<div class="product-card"><h3>Grounding Sheet</h3><span class="price">$149.00</span><p>Queen size fitted sheet.</p></div>
		<div class="product-card"><h3>Pillowcase</h3><p>Pair of cases.</p></div>
	</body></html>`)

	products := Products(doc)
	require.Len(t, products, 2)
	assert.Equal(t, "Grounding Sheet", products[0].Title)
	assert.Equal(t, "$149.00", products[0].Price)
	assert.Equal(t, "Queen size fitted sheet.", products[0].Description)
	assert.Equal(t, "", products[1].Price)

	info := CompanyInfo(doc, "https://groundluxe.com")
	assert.Equal(t, "GroundLuxe | Organic Grounding Sheets", info.Name)
	assert.Contains(t, info.Description, "certified organic grounding bedding")
	assert.Equal(t, "shopify", info.Platform)
	assert.Equal(t, "https://groundluxe.com", info.Website)
}

func TestPhraseExtractor_ValuePropositions(t *testing.T) {
	texts := []string{
		"Amazing quality sheets. I would recommend these to anyone. Ok.",
		"I would recommend these to anyone. The best purchase I made all year, truly.",
	}
	got := NewValuePropositionExtractor().Extract(texts)
	assert.Equal(t, []string{
		"Amazing quality sheets",
		"I would recommend these to anyone",
		"The best purchase i made all year, truly",
	}, got)
}

func TestPhraseExtractor_Limits(t *testing.T) {
	var texts []string
	for i := 0; i < 20; i++ {
		texts = append(texts, strings.Repeat("x", i)+" the material is soft and durable")
	}
	got := NewFeatureExtractor().Extract(texts)
	assert.Len(t, got, 8)
	for _, f := range got {
		n := len([]rune(f))
		assert.True(t, n > 15 && n < 100)
	}
}

func TestPhraseExtractor_LengthBoundsExclusive(t *testing.T) {
	// 20 runes exactly is rejected; 21 is accepted
	twenty := "i love it so much!!!"
	require.Len(t, []rune(twenty), 20)
	assert.Empty(t, NewValuePropositionExtractor().Extract([]string{twenty}))
	assert.Len(t, NewValuePropositionExtractor().Extract([]string{twenty + "!"}), 1)
}
