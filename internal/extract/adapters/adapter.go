package adapters

import (
	"context"
	"sort"

	"github.com/ppiankov/reviewharvest/internal/model"
)

// Adapter fetches one page of records from a single source
type Adapter interface {
	// Name returns the adapter name used in attempts and processing notes
	Name() string

	// Method returns the origin tag stamped on produced records
	Method() model.Method

	// Class returns the fallthrough class (API before DOM before browser)
	Class() model.AdapterClass

	// Supports reports whether the adapter can serve the sub-source
	Supports(sub model.SubSource) bool

	// Fetch returns one page. Errors are reported through the Result, never panics.
	Fetch(ctx context.Context, req Request) Result
}

// Request describes one page request
type Request struct {
	URL            string   // Site targets
	Keywords       []string // Social targets
	Page           int      // 1-based
	Cursor         string   // Opaque continuation token from the previous page
	QuotaRemaining int      // Records still wanted for this sub-source
}

// Result is the tagged outcome of one Fetch
type Result struct {
	Records  []model.RawRecord
	Outcome  model.Outcome
	Reason   string
	PageSize int    // Full page size; 0 means the adapter is single-shot
	Fetched  int    // Items the source returned before filtering; 0 means len(Records)
	Cursor   string // Passed back on the next Request
	Done     bool   // No further pages exist
}

// Success builds a success result, or an empty one when records is empty
func Success(records []model.RawRecord, pageSize int) Result {
	if len(records) == 0 {
		return Empty("no records")
	}
	return Result{Records: records, Outcome: model.OutcomeSuccess, PageSize: pageSize}
}

// Short reports whether the source returned less than a full page. Filtered
// items still count, so a dropped blank review does not end pagination.
func (r Result) Short() bool {
	n := r.Fetched
	if n == 0 {
		n = len(r.Records)
	}
	return n < r.PageSize
}

// Empty builds an empty result
func Empty(reason string) Result {
	return Result{Outcome: model.OutcomeEmpty, Reason: reason, Done: true}
}

// Failure builds an error result
func Failure(err error) Result {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return Result{Outcome: model.OutcomeError, Reason: reason, Done: true}
}

// Registry holds the enabled adapters
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates a registry with the given adapters
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds an adapter. Registration order breaks ties within a class.
func (r *Registry) Register(adapter Adapter) {
	if adapter == nil {
		return
	}
	r.adapters = append(r.adapters, adapter)
}

// For returns the adapters supporting sub, ordered by class
func (r *Registry) For(sub model.SubSource) []Adapter {
	var matched []Adapter
	for _, a := range r.adapters {
		if a.Supports(sub) {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Class() < matched[j].Class()
	})
	return matched
}

// Has reports whether an adapter with the given method is registered
func (r *Registry) Has(method model.Method) bool {
	for _, a := range r.adapters {
		if a.Method() == method {
			return true
		}
	}
	return false
}

// HasClass reports whether any adapter of the class is registered
func (r *Registry) HasClass(class model.AdapterClass) bool {
	for _, a := range r.adapters {
		if a.Class() == class {
			return true
		}
	}
	return false
}

// Adapters returns all registered adapters in registration order
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// siteOnly is embedded by adapters that serve customer and competitor sites
type siteOnly struct{}

func (siteOnly) Supports(sub model.SubSource) bool { return sub.IsSite() }
