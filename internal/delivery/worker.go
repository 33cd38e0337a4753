package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/usfinancemoves/finwire/internal/db"
	"github.com/usfinancemoves/finwire/internal/globaltime"
)

// WorkerOptions tune the delivery sweep.
type WorkerOptions struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	BatchSize   int
	// DispatchTimeout bounds a single channel call; the channel clients
	// enforce it through their HTTP client timeouts.
	DispatchTimeout time.Duration
	// Lease is how long a claimed row stays invisible to overlapping
	// sweeps. A batch is dispatched sequentially, so the lease must cover
	// BatchSize sequential calls; applyDefaults raises it to that floor.
	Lease time.Duration
	// DeferDelay is how far out a rate-deferred delivery is pushed.
	DeferDelay time.Duration
}

func (o *WorkerOptions) applyDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 3 * time.Minute
	}
	if o.BackoffCap < o.BackoffBase {
		o.BackoffCap = time.Hour
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.DispatchTimeout <= 0 {
		o.DispatchTimeout = 30 * time.Second
	}
	if o.DeferDelay <= 0 {
		o.DeferDelay = 10 * time.Minute
	}
	if floor := time.Duration(o.BatchSize)*o.DispatchTimeout + time.Minute; o.Lease < floor {
		o.Lease = floor
	}
}

// Worker drains the delivery queue. Each sweep claims a batch of due rows
// and dispatches them to their channel clients.
type Worker struct {
	pool   *db.Pool
	logger zerolog.Logger
	web    *Revalidator
	social *Poster
	budget *Budget
	opts   WorkerOptions
}

func NewWorker(pool *db.Pool, logger zerolog.Logger, web *Revalidator, social *Poster, budget *Budget, opts WorkerOptions) *Worker {
	opts.applyDefaults()
	return &Worker{
		pool:   pool,
		logger: logger,
		web:    web,
		social: social,
		budget: budget,
		opts:   opts,
	}
}

// SweepResult counts what one sweep did with the claimed batch.
type SweepResult struct {
	Claimed     int
	Sent        int
	Rescheduled int
	Failed      int
	Deferred    int
}

// Sweep claims due deliveries and dispatches each one, recording the outcome
// per row. Errors on individual rows never abort the batch.
func (w *Worker) Sweep(ctx context.Context) (SweepResult, error) {
	now := globaltime.Now()
	claimed, err := w.pool.ClaimDueDeliveries(ctx, now, w.opts.Lease, w.opts.BatchSize)
	if err != nil {
		return SweepResult{}, fmt.Errorf("claim due deliveries: %w", err)
	}

	result := SweepResult{Claimed: len(claimed)}
	for _, d := range claimed {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		switch w.dispatch(ctx, &d) {
		case outcomeSent:
			result.Sent++
		case outcomeRescheduled:
			result.Rescheduled++
		case outcomeFailed:
			result.Failed++
		case outcomeDeferred:
			result.Deferred++
		}
	}
	return result, nil
}

// Run sweeps on the interval until the context is cancelled.
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := w.Sweep(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			w.logger.Error().Err(err).Msg("delivery sweep failed")
		} else if result.Claimed > 0 {
			w.logger.Info().
				Int("claimed", result.Claimed).
				Int("sent", result.Sent).
				Int("rescheduled", result.Rescheduled).
				Int("failed", result.Failed).
				Int("deferred", result.Deferred).
				Msg("delivery sweep complete")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeRescheduled
	outcomeFailed
	outcomeDeferred
)

// decision is the queue transition decide picked for one dispatched row.
type decision struct {
	outcome  outcome
	attempts int
	next     time.Time
}

// decide maps a dispatch result onto the row's queue transition: success,
// deferral without consuming an attempt, reschedule with backoff, or terminal
// failure. A row failing every attempt reaches outcomeFailed at exactly
// MaxAttempts; once failed it is never claimed again.
func decide(err error, priorAttempts int, now time.Time, opts WorkerOptions) decision {
	if err == nil {
		return decision{outcome: outcomeSent, attempts: priorAttempts}
	}
	if errors.Is(err, ErrRateLimited) {
		return decision{outcome: outcomeDeferred, attempts: priorAttempts, next: now.Add(opts.DeferDelay)}
	}
	attempts := priorAttempts + 1
	if isPermanent(err) || attempts >= opts.MaxAttempts {
		return decision{outcome: outcomeFailed, attempts: attempts}
	}
	next := now.Add(backoffDelay(attempts, opts.BackoffBase, opts.BackoffCap))
	return decision{outcome: outcomeRescheduled, attempts: attempts, next: next}
}

func (w *Worker) dispatch(ctx context.Context, d *db.Delivery) outcome {
	now := globaltime.Now()

	if d.Channel == db.ChannelSocial && w.budget != nil && !w.budget.Allow(now) {
		// Budget exhaustion is not a failure of this delivery, so no
		// attempt is consumed.
		if err := w.pool.DeferDelivery(ctx, d.DeliveryID, now.Add(w.opts.DeferDelay)); err != nil {
			w.logger.Error().Err(err).Int64("delivery_id", d.DeliveryID).Msg("defer delivery")
		}
		return outcomeDeferred
	}

	err := w.send(ctx, d)
	dec := decide(err, d.Attempts, now, w.opts)
	switch dec.outcome {
	case outcomeSent:
		if markErr := w.pool.MarkDeliverySent(ctx, d.DeliveryID); markErr != nil {
			w.logger.Error().Err(markErr).Int64("delivery_id", d.DeliveryID).Msg("mark delivery sent")
		}
	case outcomeDeferred:
		if deferErr := w.pool.DeferDelivery(ctx, d.DeliveryID, dec.next); deferErr != nil {
			w.logger.Error().Err(deferErr).Int64("delivery_id", d.DeliveryID).Msg("defer delivery")
		}
	case outcomeFailed:
		w.logger.Warn().Err(err).
			Int64("delivery_id", d.DeliveryID).
			Str("channel", d.Channel).
			Int("attempts", dec.attempts).
			Msg("delivery failed permanently")
		if markErr := w.pool.MarkDeliveryFailed(ctx, d.DeliveryID, dec.attempts, err.Error()); markErr != nil {
			w.logger.Error().Err(markErr).Int64("delivery_id", d.DeliveryID).Msg("mark delivery failed")
		}
	case outcomeRescheduled:
		if reschedErr := w.pool.RescheduleDelivery(ctx, d.DeliveryID, dec.attempts, err.Error(), dec.next); reschedErr != nil {
			w.logger.Error().Err(reschedErr).Int64("delivery_id", d.DeliveryID).Msg("reschedule delivery")
		}
	}
	return dec.outcome
}

func (w *Worker) send(ctx context.Context, d *db.Delivery) error {
	switch d.Channel {
	case db.ChannelWeb:
		if w.web == nil {
			return errors.New("web channel not configured")
		}
		var payload WebPayload
		if err := json.Unmarshal(d.Payload, &payload); err != nil {
			return permanentError{fmt.Errorf("decode web payload: %w", err)}
		}
		_, err := w.web.Revalidate(ctx, payload.Paths)
		return err
	case db.ChannelSocial:
		if w.social == nil {
			return errors.New("social channel not configured")
		}
		var payload SocialPayload
		if err := json.Unmarshal(d.Payload, &payload); err != nil {
			return permanentError{fmt.Errorf("decode social payload: %w", err)}
		}
		id, err := w.social.Post(ctx, payload.Text)
		if err != nil {
			return err
		}
		if w.budget != nil {
			w.budget.Record(globaltime.Now())
		}
		w.logger.Info().Int64("delivery_id", d.DeliveryID).Str("platform_id", id).Msg("social post published")
		return nil
	default:
		return permanentError{fmt.Errorf("unknown channel %q", d.Channel)}
	}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// isPermanent marks errors retries cannot fix: rejected credentials and
// malformed stored payloads.
func isPermanent(err error) bool {
	if errors.Is(err, ErrBadSecret) || errors.Is(err, ErrUnauthorized) {
		return true
	}
	var perm permanentError
	return errors.As(err, &perm)
}

// backoffDelay doubles from base per attempt and never exceeds cap. attempt
// is 1-based.
func backoffDelay(attempt int, base, cap time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cap || delay < 0 {
			return cap
		}
	}
	if delay > cap {
		return cap
	}
	return delay
}
