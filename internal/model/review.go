package model

// Method tags which adapter produced a record (e.g. "api:judge.me", "dom:selector")
type Method string

const (
	MethodJudgeMe  Method = "api:judge.me"
	MethodShopify  Method = "api:shopify"
	MethodYotpo    Method = "api:yotpo"
	MethodSelector Method = "dom:selector"
	MethodJSONLD   Method = "dom:jsonld"
	MethodBrowser  Method = "browser:rendered"
	MethodReddit   Method = "api:reddit"
	MethodYouTube  Method = "api:youtube"
)

// AdapterClass orders adapters for fallthrough. Lower classes are tried first.
type AdapterClass int

const (
	ClassAPI     AdapterClass = 1 // Structured review APIs
	ClassDOM     AdapterClass = 2 // Static HTML scraping
	ClassBrowser AdapterClass = 3 // Rendered-browser scraping
	ClassSocial  AdapterClass = 4 // Keyword-driven social channels
)

func (c AdapterClass) String() string {
	switch c {
	case ClassAPI:
		return "api"
	case ClassDOM:
		return "dom"
	case ClassBrowser:
		return "browser"
	case ClassSocial:
		return "social"
	default:
		return "unknown"
	}
}

// MarshalText renders the class by name in JSON and YAML output
func (c AdapterClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a class name written by MarshalText
func (c *AdapterClass) UnmarshalText(b []byte) error {
	switch string(b) {
	case "api":
		*c = ClassAPI
	case "dom":
		*c = ClassDOM
	case "browser":
		*c = ClassBrowser
	case "social":
		*c = ClassSocial
	default:
		*c = 0
	}
	return nil
}

// RawRecord is one unit of scraped content before normalization.
// Records are created by adapters and never mutated afterwards.
type RawRecord struct {
	Text         string            `json:"text"`             // Review, comment or post body (non-empty)
	Rating       *float64          `json:"rating,omitempty"` // Source scale, usually 1-5; nil when absent
	Author       string            `json:"author,omitempty"` // Display name, may be anonymized
	Date         string            `json:"date,omitempty"`   // Not guaranteed parseable
	Verified     bool              `json:"verified"`         // Verified purchase/author
	Verifiable   bool              `json:"verifiable"`       // Source exposes a verification concept
	SourceURL    string            `json:"source_url"`       // Page or API resource
	OriginMethod Method            `json:"origin_method"`    // Producing adapter
	Extra        map[string]string `json:"extra,omitempty"`  // Product title, subreddit, video title...
}

// HasRating reports whether the record carries a rating (zero counts)
func (r RawRecord) HasRating() bool {
	return r.Rating != nil
}

// CanonicalReview is a RawRecord after normalization, with a report-unique ID
type CanonicalReview struct {
	ReviewID     string         `json:"review_id"`
	Title        string         `json:"title"`
	Text         string         `json:"text"`
	Rating       *float64       `json:"rating,omitempty"`
	Author       string         `json:"author,omitempty"`
	Date         string         `json:"date,omitempty"`
	Verified     bool           `json:"verified"`
	Verifiable   bool           `json:"verifiable"`
	SourceURL    string         `json:"source_url"`
	OriginMethod Method         `json:"origin_method"`
	Metadata     map[string]any `json:"metadata"`
}

// Rating returns a pointer to v, for building records by hand
func Rating(v float64) *float64 {
	return &v
}
