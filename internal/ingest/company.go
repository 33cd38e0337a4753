package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/usfinancemoves/finwire/internal/db"
	"github.com/usfinancemoves/finwire/internal/globaltime"
)

// MaterialChange decides whether a candidate about an already-covered company
// still deserves a new post. Implementations look at candidate fields only;
// the guard has already established that recent coverage exists.
type MaterialChange interface {
	IsMateriallyNew(candidate Candidate) bool
}

// FilingChange treats a candidate as materially new when it references a
// regulatory filing identifier. Each filing accession is a distinct event even
// when the company was covered yesterday.
type FilingChange struct{}

func (FilingChange) IsMateriallyNew(candidate Candidate) bool {
	return candidate.FilingID != ""
}

// RepetitionGuard suppresses repeat coverage of the same company inside a
// rolling lookback window.
type RepetitionGuard struct {
	pool     *db.Pool
	lookback time.Duration
	change   MaterialChange
}

func NewRepetitionGuard(pool *db.Pool, lookback time.Duration, change MaterialChange) *RepetitionGuard {
	if change == nil {
		change = FilingChange{}
	}
	return &RepetitionGuard{pool: pool, lookback: lookback, change: change}
}

// ShouldSkip reports whether the candidate duplicates recent coverage of its
// company. Candidates without a company name always pass.
func (g *RepetitionGuard) ShouldSkip(ctx context.Context, candidate Candidate) (bool, error) {
	if candidate.CompanyName == "" || g.lookback <= 0 {
		return false, nil
	}
	since := globaltime.Now().Add(-g.lookback)
	covered, err := g.pool.HasRecentCompanyCoverage(ctx, candidate.CompanyName, since)
	if err != nil {
		return false, fmt.Errorf("check company coverage: %w", err)
	}
	if !covered {
		return false, nil
	}
	return !g.change.IsMateriallyNew(candidate), nil
}
