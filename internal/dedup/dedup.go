// Package dedup removes repeated review texts within one target
package dedup

import (
	"strings"

	"github.com/ppiankov/reviewharvest/internal/model"
)

// KeyRunes is the prefix length, in runes, that identifies a review
const KeyRunes = 100

// Key normalizes text to its dedup key: lower-cased, whitespace runs collapsed
// to one space, ends trimmed, truncated to KeyRunes runes.
func Key(text string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	runes := []rune(norm)
	if len(runes) > KeyRunes {
		runes = runes[:KeyRunes]
	}
	return string(runes)
}

// Deduplicator tracks the keys seen so far for one target.
// Not safe for concurrent use; each target owns its own.
type Deduplicator struct {
	seen map[string]struct{}
}

// New creates an empty Deduplicator
func New() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Add reports whether text is new. Blank text is never new.
func (d *Deduplicator) Add(text string) bool {
	k := Key(text)
	if k == "" {
		return false
	}
	if _, ok := d.seen[k]; ok {
		return false
	}
	d.seen[k] = struct{}{}
	return true
}

// Len returns the number of unique keys seen
func (d *Deduplicator) Len() int {
	return len(d.seen)
}

// Records returns the first occurrence of each distinct record, in input order
func Records(records []model.RawRecord) []model.RawRecord {
	d := New()
	out := make([]model.RawRecord, 0, len(records))
	for _, r := range records {
		if d.Add(r.Text) {
			out = append(out, r)
		}
	}
	return out
}
