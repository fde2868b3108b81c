package model

import "fmt"

// Outcome is the tagged result of a single adapter call
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeEmpty   Outcome = "empty"
	OutcomeError   Outcome = "error"
)

// Attempt records one adapter's run against a target, across all of its pages
type Attempt struct {
	Adapter string       `json:"adapter"`
	Method  Method       `json:"method"`
	Class   AdapterClass `json:"class"`
	Pages   int          `json:"pages"`            // Pages requested
	Records int          `json:"records"`          // Records returned (before dedup)
	Outcome Outcome      `json:"outcome"`
	Reason  string       `json:"reason,omitempty"` // Error or empty reason
}

// Summary renders the attempt the way processing notes list it ("judge.me - success")
func (a Attempt) Summary() string {
	status := "failed"
	if a.Outcome == OutcomeSuccess {
		status = "success"
	}
	return fmt.Sprintf("%s - %s", a.Adapter, status)
}

// Collection is the capped, deduplicated output of the Tiered Collector for one sub-source
type Collection struct {
	SubSource        SubSource    `json:"sub_source"`
	Records          []RawRecord  `json:"records"`
	Method           Method       `json:"method,omitempty"`       // Winning adapter's method; empty when nothing yielded
	MethodClass      AdapterClass `json:"method_class,omitempty"` // Winning adapter's class
	Attempts         []Attempt    `json:"attempts"`
	Discovered       int          `json:"discovered"` // Unique records seen before capping
	Quota            int          `json:"quota"`
	TierLimitApplied bool         `json:"tier_limit_applied"`
	Profile          *SiteProfile `json:"profile,omitempty"`
	Err              string       `json:"error,omitempty"` // Input error; the target was not attempted
}

// Succeeded reports whether the sub-source yielded at least one record
func (c *Collection) Succeeded() bool {
	return c != nil && len(c.Records) > 0
}

// SiteProfile is the pass-through company and catalog information for a site target
type SiteProfile struct {
	Company  CompanyInfo      `json:"company"`
	Products []ProductSummary `json:"products,omitempty"`
}

// CompanyInfo describes the business behind a site
type CompanyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Website     string `json:"website"`
	Platform    string `json:"platform,omitempty"`
}

// ProductSummary is a pass-through product record
type ProductSummary struct {
	Title       string `json:"title"`
	Price       string `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
}
