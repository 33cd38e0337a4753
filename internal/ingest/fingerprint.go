package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/usfinancemoves/finwire/internal/db"
)

// Fingerprint derives the dedup hash for an article. The source URL and the
// title are lower-cased and whitespace-collapsed before hashing, so cosmetic
// retitles and tracking whitespace do not defeat deduplication.
func Fingerprint(sourceURL, title string) string {
	normalized := normalizeForHash(sourceURL) + normalizeForHash(title)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func normalizeForHash(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Deduplicator answers whether a fingerprint has been seen before. The check
// is read-only; the authoritative guard is the unique constraint hit by the
// insert itself.
type Deduplicator struct {
	pool *db.Pool
}

func NewDeduplicator(pool *db.Pool) *Deduplicator {
	return &Deduplicator{pool: pool}
}

// Seen reports whether a post with the given fingerprint already exists.
func (d *Deduplicator) Seen(ctx context.Context, fingerprint string) (bool, error) {
	exists, err := d.pool.FingerprintExists(ctx, fingerprint)
	if err != nil {
		return false, fmt.Errorf("check fingerprint: %w", err)
	}
	return exists, nil
}
