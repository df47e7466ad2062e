package snapshot

import (
	"context"
	"fmt"
	"time"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
	"cpstock/internal/domain/master"
	"cpstock/pkg/logger"
)

// Lifecycle owns snapshot creation, daily-area clearing and cleanup of stale
// snapshots. Per-row state machine:
//
//	Uninitialized -> (bulk create from master) -> Pending('9')
//	  -> (aggregation passes) -> Processed('0')
type Lifecycle struct {
	repo    Repository
	masters master.InventoryRepository
}

// NewLifecycle creates the snapshot lifecycle manager.
func NewLifecycle(repo Repository, masters master.InventoryRepository) *Lifecycle {
	return &Lifecycle{repo: repo, masters: masters}
}

// CreateFromInventoryMaster builds the snapshot for jobDate as a copy of the
// permanent inventory master, fully replacing any existing rows for that date.
// Previous-day carry-forward comes from the prior day's snapshot when one
// exists, otherwise from the stock carried on the master.
func (l *Lifecycle) CreateFromInventoryMaster(ctx context.Context, jobDate time.Time) (int, error) {
	items, err := l.masters.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list inventory master: %w", err)
	}

	previous, err := l.repo.ListByDate(ctx, jobDate.AddDate(0, 0, -1))
	if err != nil {
		return 0, fmt.Errorf("list previous day snapshot: %w", err)
	}
	carry := make(map[key.Key]Row, len(previous))
	for _, p := range previous {
		carry[p.Key] = p
	}

	rows := make([]Row, 0, len(items))
	for _, item := range items {
		row := Row{
			Key:               item.Key,
			JobDate:           jobDate,
			ProductName:       item.ProductName,
			CategoryCode:      item.CategoryCode,
			UnitCode:          item.UnitCode,
			StandardPrice:     item.StandardPrice,
			PreviousQuantity:  item.StockQuantity,
			PreviousAmount:    item.StockAmount,
			PreviousUnitPrice: item.StockUnitPrice,
			DailyFlag:         FlagPending,
			StockAmount:       types.Zero(),
			StockUnitPrice:    types.Zero(),
			LastReceiptDate:   item.LastReceiptDate,
		}
		if prev, ok := carry[item.Key]; ok {
			row.PreviousQuantity = prev.StockQuantity
			row.PreviousAmount = prev.StockAmount
			row.PreviousUnitPrice = prev.StockUnitPrice
			row.LastReceiptDate = prev.LastReceiptDate
		}
		rows = append(rows, row)
	}

	count, err := l.repo.ReplaceForDate(ctx, jobDate, rows)
	if err != nil {
		return 0, fmt.Errorf("replace snapshot rows: %w", err)
	}

	logger.Info(ctx, "snapshot created from inventory master",
		"rows", count,
		"carried_forward", len(previous),
	)
	return count, nil
}

// ClearDailyArea resets the daily movement columns and flags for jobDate.
// This is the only legal way to make the snapshot re-runnable.
func (l *Lifecycle) ClearDailyArea(ctx context.Context, jobDate time.Time) (int, error) {
	count, err := l.repo.ClearDailyArea(ctx, jobDate)
	if err != nil {
		return 0, fmt.Errorf("clear daily area: %w", err)
	}

	logger.Info(ctx, "daily area cleared", "rows", count)
	return count, nil
}

// PurgeStale drops snapshots older than keepDays before jobDate. The snapshot
// is a working table, not a store of truth, so old dates carry no value.
func (l *Lifecycle) PurgeStale(ctx context.Context, jobDate time.Time, keepDays int) (int, error) {
	cutoff := jobDate.AddDate(0, 0, -keepDays)
	count, err := l.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge stale snapshots: %w", err)
	}

	if count > 0 {
		logger.Info(ctx, "stale snapshots purged", "rows", count, "cutoff", cutoff.Format("2006-01-02"))
	}
	return count, nil
}
