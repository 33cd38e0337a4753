package delivery

import (
	"sync"
	"time"
)

// Budget enforces a rolling-window cap on social posts. Only successful
// sends consume budget; failed attempts do not.
type Budget struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	sent   []time.Time
}

func NewBudget(limit int, window time.Duration) *Budget {
	return &Budget{limit: limit, window: window}
}

// Allow reports whether another send fits inside the window right now. It
// does not consume budget.
func (b *Budget) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(now)
	return len(b.sent) < b.limit
}

// Record consumes one unit of budget after a successful send.
func (b *Budget) Record(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(now)
	b.sent = append(b.sent, now)
}

// Remaining returns how many sends are left in the current window.
func (b *Budget) Remaining(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(now)
	return b.limit - len(b.sent)
}

func (b *Budget) prune(now time.Time) {
	cutoff := now.Add(-b.window)
	kept := b.sent[:0]
	for _, t := range b.sent {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.sent = kept
}
