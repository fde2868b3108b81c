package collect

import (
	"fmt"
	"strings"

	"github.com/ppiankov/reviewharvest/internal/dedup"
	"github.com/ppiankov/reviewharvest/internal/model"
)

// Context owns the per-target collection state: the deduplicator, the
// accumulated records, the attempts and the discovered count. It is created
// per sub-source and must not be shared between goroutines.
type Context struct {
	sub      model.SubSource
	quota    int
	seen     *dedup.Deduplicator
	records  []model.RawRecord
	attempts []model.Attempt
}

// NewContext creates a collection context. A negative quota is a programming error.
func NewContext(sub model.SubSource, quota int) *Context {
	if quota < 0 {
		panic(fmt.Sprintf("collect: negative quota %d", quota))
	}
	return &Context{sub: sub, quota: quota, seen: dedup.New()}
}

// Add appends the records not seen before, stamping a missing origin method,
// and returns how many were new
func (c *Context) Add(records []model.RawRecord, method model.Method) int {
	added := 0
	for _, rec := range records {
		if strings.TrimSpace(rec.Text) == "" {
			continue
		}
		if !c.seen.Add(rec.Text) {
			continue
		}
		if rec.OriginMethod == "" {
			rec.OriginMethod = method
		}
		c.records = append(c.records, rec)
		added++
	}
	return added
}

// Record appends an attempt
func (c *Context) Record(a model.Attempt) {
	c.attempts = append(c.attempts, a)
}

// Discovered returns the number of unique records seen so far, before capping
func (c *Context) Discovered() int {
	return len(c.records)
}

// Remaining returns how many records are still wanted
func (c *Context) Remaining() int {
	if r := c.quota - len(c.records); r > 0 {
		return r
	}
	return 0
}

// Full reports whether the quota has been reached
func (c *Context) Full() bool {
	return len(c.records) >= c.quota
}

// Finalize caps the records to the quota and builds the collection
func (c *Context) Finalize(winner model.Method, class model.AdapterClass) *model.Collection {
	discovered := len(c.records)
	records := c.records
	if len(records) > c.quota {
		records = records[:c.quota]
	}

	attempts := c.attempts
	if attempts == nil {
		attempts = []model.Attempt{}
	}

	return &model.Collection{
		SubSource:        c.sub,
		Records:          records,
		Method:           winner,
		MethodClass:      class,
		Attempts:         attempts,
		Discovered:       discovered,
		Quota:            c.quota,
		TierLimitApplied: discovered > c.quota,
	}
}
