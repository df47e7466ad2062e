package snapshot

import (
	"context"
	"time"

	"cpstock/internal/domain/key"
)

// Repository defines operations for the CP snapshot working table.
//
// Writes are set-based where the semantics allow it (clear, replace); the
// per-row updates issued after an in-memory phase are batched inside the
// phase transaction by the implementation.
type Repository interface {
	// ReplaceForDate fully replaces the rows for jobDate (delete-then-insert,
	// never merge). Returns the number of rows created.
	ReplaceForDate(ctx context.Context, jobDate time.Time, rows []Row) (int, error)

	// ClearDailyArea resets every daily column to zero and the flag to
	// pending for all rows of jobDate. Returns the number of rows cleared.
	ClearDailyArea(ctx context.Context, jobDate time.Time) (int, error)

	// ListByDate returns all rows for jobDate.
	ListByDate(ctx context.Context, jobDate time.Time) ([]Row, error)

	// ListRange returns all rows with job date in [from, to], used by the
	// monthly roll-up recompute.
	ListRange(ctx context.Context, from, to time.Time) ([]Row, error)

	// UpdateRows writes back mutated rows, matched by (key, job date).
	UpdateRows(ctx context.Context, rows []Row) (int, error)

	// DeleteRow removes one row (orphan correction).
	DeleteRow(ctx context.Context, jobDate time.Time, k key.Key) error

	// DeleteBefore drops stale snapshots older than the cutoff date.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)

	// CountByDate returns the number of rows for jobDate.
	CountByDate(ctx context.Context, jobDate time.Time) (int, error)
}
