package snapshot

import (
	"context"
	"fmt"
	"time"

	"cpstock/internal/domain/key"
	"cpstock/pkg/logger"
)

// Monthly recomputes the month-to-date cumulative columns. This is a full
// re-derivation over the month range, not an incremental add, so re-running
// for the same job date is always safe.
type Monthly struct {
	repo Repository
}

// NewMonthly creates the monthly roll-up.
func NewMonthly(repo Repository) *Monthly {
	return &Monthly{repo: repo}
}

// UpdateMonthlyTotals accumulates, for each key, the daily columns of every
// snapshot row with a job date in [monthStart, jobDate] into the jobDate
// rows' month-to-date columns.
func (m *Monthly) UpdateMonthlyTotals(ctx context.Context, monthStart, jobDate time.Time) (int, error) {
	if jobDate.Before(monthStart) {
		return 0, fmt.Errorf("job date %s precedes month start %s",
			jobDate.Format("2006-01-02"), monthStart.Format("2006-01-02"))
	}

	rows, err := m.repo.ListByDate(ctx, jobDate)
	if err != nil {
		return 0, fmt.Errorf("list snapshot rows: %w", err)
	}

	rangeRows, err := m.repo.ListRange(ctx, monthStart, jobDate)
	if err != nil {
		return 0, fmt.Errorf("list month range rows: %w", err)
	}

	totals := make(map[key.Key]Movements, len(rows))
	for _, r := range rangeRows {
		sum := totals[r.Key]
		sum.Accumulate(r.Daily)
		totals[r.Key] = sum
	}

	for i := range rows {
		rows[i].Monthly = totals[rows[i].Key]
	}

	count, err := m.repo.UpdateRows(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("update snapshot rows: %w", err)
	}

	logger.Info(ctx, "monthly totals recomputed",
		"rows", count,
		"month_start", monthStart.Format("2006-01-02"),
	)
	return count, nil
}
