package delivery

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestBackoffDelay_MonotoneAndCapped(t *testing.T) {
	base := 3 * time.Minute
	cap := time.Hour

	prev := time.Duration(0)
	for attempt := 1; attempt <= 20; attempt++ {
		delay := backoffDelay(attempt, base, cap)
		if delay < prev {
			t.Fatalf("delay decreased at attempt %d: %v < %v", attempt, delay, prev)
		}
		if delay > cap {
			t.Fatalf("delay exceeds cap at attempt %d: %v", attempt, delay)
		}
		prev = delay
	}

	if got := backoffDelay(1, base, cap); got != base {
		t.Fatalf("first attempt should wait base, got %v", got)
	}
	if got := backoffDelay(2, base, cap); got != 2*base {
		t.Fatalf("second attempt should wait 2x base, got %v", got)
	}
	if got := backoffDelay(100, base, cap); got != cap {
		t.Fatalf("large attempt should hit cap, got %v", got)
	}
}

func TestBackoffDelay_ClampsAttempt(t *testing.T) {
	base := time.Minute
	if got := backoffDelay(0, base, time.Hour); got != base {
		t.Fatalf("attempt 0 should behave as attempt 1, got %v", got)
	}
	if got := backoffDelay(-3, base, time.Hour); got != base {
		t.Fatalf("negative attempt should behave as attempt 1, got %v", got)
	}
}

func TestWorkerOptions_LeaseCoversBatch(t *testing.T) {
	opts := WorkerOptions{BatchSize: 20, DispatchTimeout: 30 * time.Second, Lease: 2 * time.Minute}
	opts.applyDefaults()
	if floor := 20 * 30 * time.Second; opts.Lease < floor {
		t.Fatalf("lease %v cannot cover a %v batch worst case", opts.Lease, floor)
	}

	generous := WorkerOptions{BatchSize: 2, DispatchTimeout: time.Second, Lease: time.Hour}
	generous.applyDefaults()
	if generous.Lease != time.Hour {
		t.Fatalf("an explicit lease above the floor must be kept, got %v", generous.Lease)
	}
}

func TestDecide_Success(t *testing.T) {
	opts := WorkerOptions{}
	opts.applyDefaults()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	dec := decide(nil, 2, now, opts)
	if dec.outcome != outcomeSent {
		t.Fatalf("nil error must be sent, got %v", dec.outcome)
	}
	if dec.attempts != 2 {
		t.Fatalf("success must not consume an attempt, got %d", dec.attempts)
	}
}

func TestDecide_RateLimitDefersWithoutAttempt(t *testing.T) {
	opts := WorkerOptions{}
	opts.applyDefaults()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	dec := decide(fmt.Errorf("post: %w", ErrRateLimited), 3, now, opts)
	if dec.outcome != outcomeDeferred {
		t.Fatalf("rate limit must defer, got %v", dec.outcome)
	}
	if dec.attempts != 3 {
		t.Fatalf("deferral must not consume an attempt, got %d", dec.attempts)
	}
	if !dec.next.Equal(now.Add(opts.DeferDelay)) {
		t.Fatalf("deferral must push out by DeferDelay, got %v", dec.next)
	}
}

func TestDecide_PermanentErrorFailsImmediately(t *testing.T) {
	opts := WorkerOptions{}
	opts.applyDefaults()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	dec := decide(ErrBadSecret, 0, now, opts)
	if dec.outcome != outcomeFailed {
		t.Fatalf("secret mismatch must fail terminally, got %v", dec.outcome)
	}
	if dec.attempts != 1 {
		t.Fatalf("terminal failure still records the attempt, got %d", dec.attempts)
	}
}

func TestDecide_FailingDeliveryStopsAtAttemptCap(t *testing.T) {
	opts := WorkerOptions{}
	opts.applyDefaults()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	transient := errors.New("revalidate: status 502")

	attempts := 0
	for round := 1; round < opts.MaxAttempts; round++ {
		dec := decide(transient, attempts, now, opts)
		if dec.outcome != outcomeRescheduled {
			t.Fatalf("attempt %d must reschedule, got %v", round, dec.outcome)
		}
		if dec.attempts != attempts+1 {
			t.Fatalf("attempt %d recorded %d attempts", round, dec.attempts)
		}
		want := now.Add(backoffDelay(dec.attempts, opts.BackoffBase, opts.BackoffCap))
		if !dec.next.Equal(want) {
			t.Fatalf("attempt %d next = %v, want %v", round, dec.next, want)
		}
		attempts = dec.attempts
	}

	dec := decide(transient, attempts, now, opts)
	if dec.outcome != outcomeFailed {
		t.Fatalf("delivery must fail terminally at the cap, got %v", dec.outcome)
	}
	if dec.attempts != opts.MaxAttempts {
		t.Fatalf("terminal failure at %d attempts, want exactly %d", dec.attempts, opts.MaxAttempts)
	}
}

func TestIsPermanent(t *testing.T) {
	if !isPermanent(ErrBadSecret) {
		t.Fatalf("bad secret must be permanent")
	}
	if !isPermanent(ErrUnauthorized) {
		t.Fatalf("rejected token must be permanent")
	}
	if !isPermanent(fmt.Errorf("dispatch: %w", ErrBadSecret)) {
		t.Fatalf("wrapped permanent errors must stay permanent")
	}
	if !isPermanent(permanentError{errors.New("broken payload")}) {
		t.Fatalf("payload errors must be permanent")
	}
	if isPermanent(errors.New("connection refused")) {
		t.Fatalf("network errors must be retryable")
	}
	if isPermanent(ErrRateLimited) {
		t.Fatalf("rate limiting must not be permanent")
	}
}
