package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const deliveryColumns = `
	d.delivery_id,
	d.delivery_uuid::text,
	d.post_id,
	d.channel,
	d.payload,
	d.status,
	d.attempts,
	d.last_error,
	d.next_attempt_at,
	d.created_at,
	d.updated_at
`

func scanDelivery(rows *Rows) (Delivery, error) {
	var row Delivery
	var payload []byte
	err := rows.Scan(
		&row.DeliveryID,
		&row.DeliveryUUID,
		&row.PostID,
		&row.Channel,
		&payload,
		&row.Status,
		&row.Attempts,
		&row.LastError,
		&row.NextAttemptAt,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return Delivery{}, err
	}
	row.Payload = payload
	return row, nil
}

// EnqueueDelivery inserts one fan-out row for a (post, channel) pair. The
// unique constraint makes re-enqueueing a no-op, reported as inserted=false.
// It takes a Querier so fan-out can share the transaction that inserted the
// post.
func EnqueueDelivery(ctx context.Context, q Querier, postID int64, channel string, payload json.RawMessage, status string) (bool, error) {
	if status != DeliveryStatusQueued && status != DeliveryStatusHeld {
		return false, fmt.Errorf("invalid enqueue status %q", status)
	}
	if len(payload) == 0 {
		return false, fmt.Errorf("payload is required")
	}

	const stmt = `
INSERT INTO news.deliveries (
	post_id,
	channel,
	payload,
	status,
	attempts,
	next_attempt_at,
	created_at,
	updated_at
)
VALUES ($1, $2, $3::jsonb, $4, 0, now(), now(), now())
ON CONFLICT (post_id, channel) DO NOTHING
`

	tag, err := q.Exec(ctx, stmt, postID, channel, string(payload), status)
	if err != nil {
		return false, fmt.Errorf("enqueue delivery post=%d channel=%s: %w", postID, channel, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClaimDueDeliveries atomically claims queued rows whose retry time has
// passed by pushing next_attempt_at forward by the lease. An overlapping
// sweep cannot pick up a claimed row again until its lease expires, so a
// slow external call never gets double-processed.
func (p *Pool) ClaimDueDeliveries(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]Delivery, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	if lease <= 0 {
		lease = 5 * time.Minute
	}

	q := `
UPDATE news.deliveries d
SET next_attempt_at = $2, updated_at = $1
WHERE d.delivery_id IN (
	SELECT delivery_id
	FROM news.deliveries
	WHERE status = 'queued'
	  AND next_attempt_at <= $1
	ORDER BY next_attempt_at, delivery_id
	LIMIT $3
	FOR UPDATE SKIP LOCKED
)
RETURNING ` + deliveryColumns

	rows, err := p.Query(ctx, q, now.UTC(), now.UTC().Add(lease), limit)
	if err != nil {
		return nil, fmt.Errorf("claim due deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := make([]Delivery, 0, limit)
	for rows.Next() {
		row, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claimed delivery: %w", err)
		}
		deliveries = append(deliveries, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claimed deliveries: %w", err)
	}
	return deliveries, nil
}

// MarkDeliverySent records terminal success.
func (p *Pool) MarkDeliverySent(ctx context.Context, deliveryID int64) error {
	const q = `
UPDATE news.deliveries
SET status = 'sent', last_error = NULL, updated_at = now()
WHERE delivery_id = $1
`
	if _, err := p.Exec(ctx, q, deliveryID); err != nil {
		return fmt.Errorf("mark delivery sent: %w", err)
	}
	return nil
}

// RescheduleDelivery records a failed attempt and re-queues the row for the
// next backoff slot.
func (p *Pool) RescheduleDelivery(ctx context.Context, deliveryID int64, attempts int, lastError string, nextAttemptAt time.Time) error {
	const q = `
UPDATE news.deliveries
SET status = 'queued',
	attempts = $2,
	last_error = $3,
	next_attempt_at = $4,
	updated_at = now()
WHERE delivery_id = $1
`
	if _, err := p.Exec(ctx, q, deliveryID, attempts, truncateError(lastError), nextAttemptAt.UTC()); err != nil {
		return fmt.Errorf("reschedule delivery: %w", err)
	}
	return nil
}

// MarkDeliveryFailed records terminal failure after the attempt cap, or an
// immediately-fatal error such as a secret mismatch.
func (p *Pool) MarkDeliveryFailed(ctx context.Context, deliveryID int64, attempts int, lastError string) error {
	const q = `
UPDATE news.deliveries
SET status = 'failed',
	attempts = $2,
	last_error = $3,
	updated_at = now()
WHERE delivery_id = $1
`
	if _, err := p.Exec(ctx, q, deliveryID, attempts, truncateError(lastError)); err != nil {
		return fmt.Errorf("mark delivery failed: %w", err)
	}
	return nil
}

// DeferDelivery returns a claimed row to the queue without counting an
// attempt; used when a channel's rate budget is exhausted.
func (p *Pool) DeferDelivery(ctx context.Context, deliveryID int64, nextAttemptAt time.Time) error {
	const q = `
UPDATE news.deliveries
SET status = 'queued', next_attempt_at = $2, updated_at = now()
WHERE delivery_id = $1
`
	if _, err := p.Exec(ctx, q, deliveryID, nextAttemptAt.UTC()); err != nil {
		return fmt.Errorf("defer delivery: %w", err)
	}
	return nil
}

// ReleaseHeldDeliveries requeues one channel's deliveries that were parked
// while the channel was disabled. Returns the number released.
func (p *Pool) ReleaseHeldDeliveries(ctx context.Context, channel string, now time.Time) (int64, error) {
	if channel != ChannelWeb && channel != ChannelSocial {
		return 0, fmt.Errorf("invalid channel %q", channel)
	}

	const q = `
UPDATE news.deliveries
SET status = 'queued',
	next_attempt_at = $1,
	updated_at = $1
WHERE status = 'held'
  AND channel = $2
`

	tag, err := p.Exec(ctx, q, now.UTC(), channel)
	if err != nil {
		return 0, fmt.Errorf("release held deliveries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListDeliveriesByStatus is used by the deliveries CLI command for operator
// queue inspection.
func (p *Pool) ListDeliveriesByStatus(ctx context.Context, status string, limit int) ([]Delivery, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	q := `
SELECT ` + deliveryColumns + `
FROM news.deliveries d
WHERE ($1 = '' OR d.status = $1)
ORDER BY d.created_at DESC, d.delivery_id DESC
LIMIT $2
`

	rows, err := p.Query(ctx, q, status, limit)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := make([]Delivery, 0, limit)
	for rows.Next() {
		row, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery row: %w", err)
		}
		deliveries = append(deliveries, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery rows: %w", err)
	}
	return deliveries, nil
}

const maxStoredErrorLength = 4000

func truncateError(msg string) string {
	if len(msg) > maxStoredErrorLength {
		return msg[:maxStoredErrorLength]
	}
	return msg
}
