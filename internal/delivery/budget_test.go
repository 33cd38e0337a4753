package delivery

import (
	"testing"
	"time"
)

func TestBudget_RollingWindow(t *testing.T) {
	budget := NewBudget(2, time.Hour)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	if !budget.Allow(now) {
		t.Fatalf("fresh budget must allow")
	}
	budget.Record(now)
	budget.Record(now.Add(10 * time.Minute))

	if budget.Allow(now.Add(20 * time.Minute)) {
		t.Fatalf("budget of 2 must be exhausted after 2 sends")
	}

	// The first send ages out of the window; one slot opens.
	later := now.Add(61 * time.Minute)
	if !budget.Allow(later) {
		t.Fatalf("expected slot after first send aged out")
	}
	if got := budget.Remaining(later); got != 1 {
		t.Fatalf("expected 1 remaining, got %d", got)
	}
}

func TestBudget_AllowDoesNotConsume(t *testing.T) {
	budget := NewBudget(1, time.Hour)
	now := time.Now()
	for i := 0; i < 5; i++ {
		if !budget.Allow(now) {
			t.Fatalf("Allow must not consume budget (iteration %d)", i)
		}
	}
	budget.Record(now)
	if budget.Allow(now) {
		t.Fatalf("budget must be exhausted after Record")
	}
}
