package social

import (
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrQuotaExhausted is returned when a call would exceed the daily unit budget
var ErrQuotaExhausted = errors.New("api quota exhausted")

// QuotaLedger tracks daily API unit spend (YouTube Data API costs). It is safe
// for concurrent use and resets when the UTC day changes.
type QuotaLedger struct {
	mu    sync.Mutex
	limit int
	used  int
	day   string
	now   func() time.Time
}

// NewQuotaLedger creates a ledger with the given daily limit
func NewQuotaLedger(limit int) *QuotaLedger {
	return &QuotaLedger{limit: limit, now: time.Now}
}

// Spend reserves cost units, refusing the call when the remaining budget is insufficient
func (q *QuotaLedger) Spend(cost int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	if q.used+cost > q.limit {
		return eris.Wrapf(ErrQuotaExhausted, "need %d units, %d of %d remaining", cost, q.limit-q.used, q.limit)
	}
	q.used += cost
	return nil
}

// Remaining returns the units left today
func (q *QuotaLedger) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	return q.limit - q.used
}

func (q *QuotaLedger) rollover() {
	day := q.now().UTC().Format("2006-01-02")
	if day != q.day {
		q.day = day
		q.used = 0
	}
}
