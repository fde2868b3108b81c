package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

var (
	// ErrInvalidTarget marks a structurally invalid target URL or identifier
	ErrInvalidTarget = errors.New("invalid target")

	// ErrUnknownTier marks a tier name outside basic/premium/enterprise/pro
	ErrUnknownTier = errors.New("unknown tier")
)

// MinimumReviews is the statistical-reliability floor for downstream analysis.
// It does not depend on the tier.
const MinimumReviews = 20

// Tier is a named collection quota
type Tier string

const (
	TierBasic      Tier = "basic"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
	TierPro        Tier = "pro"
)

var tierLimits = map[Tier]int{
	TierBasic:      20,
	TierPremium:    200,
	TierEnterprise: 200,
	TierPro:        200,
}

// ParseTier parses a tier name case-insensitively
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tierLimits[t]; !ok {
		return "", eris.Wrapf(ErrUnknownTier, "tier %q (valid: basic, premium, enterprise, pro)", s)
	}
	return t, nil
}

// Limit returns the maximum review count per target site for the tier
func (t Tier) Limit() int {
	if limit, ok := tierLimits[t]; ok {
		return limit
	}
	return tierLimits[TierBasic]
}

// Target is the inbound descriptor for one collection run
type Target struct {
	JobID          string   `json:"job_id" yaml:"job_id"`
	PrimaryURL     string   `json:"primary_url" yaml:"primary_url"`
	CompetitorURLs []string `json:"competitor_urls,omitempty" yaml:"competitor_urls"`
	Tier           Tier     `json:"tier" yaml:"tier"`
	Keywords       []string `json:"keywords,omitempty" yaml:"keywords"`
}

// NewJobID returns a short random job identifier
func NewJobID() string {
	return "job_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// SubSourceKind distinguishes the customer, competitor and social sub-sources of a report
type SubSourceKind string

const (
	KindCustomer   SubSourceKind = "customer"
	KindCompetitor SubSourceKind = "competitor"
	KindSocial     SubSourceKind = "social"
)

// SubSource is one independently collected slice of a report
type SubSource struct {
	Kind     SubSourceKind `json:"kind"`
	Index    int           `json:"index"`              // Competitor number (1-based); 0 otherwise
	Name     string        `json:"name"`               // "customer", "competitor_2", "reddit"
	URL      string        `json:"url,omitempty"`      // Site targets only
	Keywords []string      `json:"keywords,omitempty"` // Social targets only
	Channel  Method        `json:"channel,omitempty"`  // Social targets: the single adapter method to run
}

// IsSite reports whether the sub-source is a customer or competitor website
func (s SubSource) IsSite() bool {
	return s.Kind == KindCustomer || s.Kind == KindCompetitor
}

// SubSources expands a target into its customer, competitor and social sub-sources
func (t Target) SubSources(socialChannels ...Method) []SubSource {
	subs := []SubSource{{Kind: KindCustomer, Name: "customer", URL: t.PrimaryURL}}
	for i, u := range t.CompetitorURLs {
		subs = append(subs, SubSource{
			Kind:  KindCompetitor,
			Index: i + 1,
			Name:  fmt.Sprintf("competitor_%d", i+1),
			URL:   u,
		})
	}
	if len(t.Keywords) > 0 {
		for _, ch := range socialChannels {
			subs = append(subs, SubSource{
				Kind:     KindSocial,
				Name:     socialName(ch),
				Keywords: t.Keywords,
				Channel:  ch,
			})
		}
	}
	return subs
}

func socialName(m Method) string {
	name := string(m)
	if i := strings.Index(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// ValidateURL checks that a site URL is absolute http(s) with a host
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, eris.Wrap(ErrInvalidTarget, "empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidTarget, "parse %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, eris.Wrapf(ErrInvalidTarget, "unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return nil, eris.Wrapf(ErrInvalidTarget, "missing host in %q", raw)
	}
	return u, nil
}

// ShopName derives the storefront handle from the host ("shop" for shop.example.com,
// "groundluxe" for www.groundluxe.com)
func ShopName(u *url.URL) string {
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return host
}
