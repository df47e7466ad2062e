package snapshot

import (
	"context"
	"fmt"
	"time"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
	"cpstock/internal/domain/voucher"
	"cpstock/pkg/logger"
)

// target names a daily column pair a movement folds into.
type target int

const (
	targetSales target = iota
	targetSalesReturn
	targetSalesDiscount // adjusts sales amount only
	targetPurchase
	targetPurchaseReturn
	targetPurchaseDiscount // adjusts purchase amount only
	targetAdjustment
	targetTransfer
)

// movement is one voucher line reduced to its aggregation effect.
type movement struct {
	key      key.Key
	target   target
	quantity types.Quantity
	amount   types.Money
}

// descriptor parameterizes one aggregation pass: a name for logs and a
// loader that reduces that voucher class to movements, reporting how many
// lines it rejected.
type descriptor struct {
	name string
	load func(ctx context.Context, jobDate time.Time) (movements []movement, rejected int, err error)
}

// Aggregator folds voucher-level movements into the snapshot's daily columns.
// The three voucher classes share one aggregation pass, differing only in
// their movement descriptor.
type Aggregator struct {
	repo        Repository
	sales       voucher.SalesRepository
	purchases   voucher.PurchaseRepository
	adjustments voucher.AdjustmentRepository
}

// NewAggregator creates the voucher aggregator.
func NewAggregator(
	repo Repository,
	sales voucher.SalesRepository,
	purchases voucher.PurchaseRepository,
	adjustments voucher.AdjustmentRepository,
) *Aggregator {
	return &Aggregator{
		repo:        repo,
		sales:       sales,
		purchases:   purchases,
		adjustments: adjustments,
	}
}

// AggregateSales folds the day's sales voucher lines into the snapshot.
// Returns the number of snapshot rows updated.
func (a *Aggregator) AggregateSales(ctx context.Context, jobDate time.Time) (int, error) {
	return a.aggregate(ctx, jobDate, descriptor{
		name: "sales",
		load: a.loadSales,
	})
}

// AggregatePurchases folds the day's purchase voucher lines into the snapshot.
func (a *Aggregator) AggregatePurchases(ctx context.Context, jobDate time.Time) (int, error) {
	return a.aggregate(ctx, jobDate, descriptor{
		name: "purchases",
		load: a.loadPurchases,
	})
}

// AggregateAdjustments folds the day's inventory adjustment lines into the
// snapshot, routing transfers (category 4) to the transfer columns and every
// other category to the generic adjustment columns.
func (a *Aggregator) AggregateAdjustments(ctx context.Context, jobDate time.Time) (int, error) {
	return a.aggregate(ctx, jobDate, descriptor{
		name: "adjustments",
		load: a.loadAdjustments,
	})
}

// aggregate is the shared pass: group movements by identity key, apply them
// to existing snapshot rows and mark touched rows as processed. A movement
// whose key has no snapshot row is skipped and counted, never fatal.
func (a *Aggregator) aggregate(ctx context.Context, jobDate time.Time, d descriptor) (int, error) {
	rows, err := a.repo.ListByDate(ctx, jobDate)
	if err != nil {
		return 0, fmt.Errorf("list snapshot rows: %w", err)
	}

	index := make(map[key.Key]int, len(rows))
	for i := range rows {
		index[rows[i].Key] = i
	}

	movements, rejected, err := d.load(ctx, jobDate)
	if err != nil {
		return 0, fmt.Errorf("load %s vouchers: %w", d.name, err)
	}

	touched := make(map[key.Key]struct{})
	skipped := 0
	for _, m := range movements {
		i, ok := index[m.key]
		if !ok {
			skipped++
			logger.Warn(ctx, "voucher line references key absent from snapshot",
				"voucher_class", d.name,
				"key", m.key.String(),
			)
			continue
		}
		apply(&rows[i], m)
		touched[m.key] = struct{}{}
	}

	updated := make([]Row, 0, len(touched))
	for i := range rows {
		if _, ok := touched[rows[i].Key]; ok {
			updated = append(updated, rows[i])
		}
	}

	if len(updated) > 0 {
		if _, err := a.repo.UpdateRows(ctx, updated); err != nil {
			return 0, fmt.Errorf("update snapshot rows: %w", err)
		}
	}

	logger.Info(ctx, "voucher aggregation completed",
		"voucher_class", d.name,
		"movements", len(movements),
		"rows_updated", len(updated),
		"rejected", rejected,
		"skipped", skipped,
	)
	return len(updated), nil
}

// apply folds one movement into a row's daily columns and advances the daily
// flag to processed.
func apply(r *Row, m movement) {
	switch m.target {
	case targetSales:
		r.Daily.SalesQuantity += m.quantity
		r.Daily.SalesAmount = r.Daily.SalesAmount.Add(m.amount)
	case targetSalesReturn:
		r.Daily.SalesReturnQuantity += m.quantity
		r.Daily.SalesReturnAmount = r.Daily.SalesReturnAmount.Add(m.amount)
	case targetSalesDiscount:
		r.Daily.SalesAmount = r.Daily.SalesAmount.Add(m.amount)
	case targetPurchase:
		r.Daily.PurchaseQuantity += m.quantity
		r.Daily.PurchaseAmount = r.Daily.PurchaseAmount.Add(m.amount)
	case targetPurchaseReturn:
		r.Daily.PurchaseReturnQuantity += m.quantity
		r.Daily.PurchaseReturnAmount = r.Daily.PurchaseReturnAmount.Add(m.amount)
	case targetPurchaseDiscount:
		r.Daily.PurchaseAmount = r.Daily.PurchaseAmount.Add(m.amount)
	case targetAdjustment:
		r.Daily.AdjustmentQuantity += m.quantity
		r.Daily.AdjustmentAmount = r.Daily.AdjustmentAmount.Add(m.amount)
	case targetTransfer:
		r.Daily.TransferQuantity += m.quantity
		r.Daily.TransferAmount = r.Daily.TransferAmount.Add(m.amount)
	}
	r.DailyFlag = FlagProcessed
}

func (a *Aggregator) loadSales(ctx context.Context, jobDate time.Time) ([]movement, int, error) {
	lines, err := a.sales.ListByJobDate(ctx, jobDate)
	if err != nil {
		return nil, 0, err
	}

	movements := make([]movement, 0, len(lines))
	rejected := 0
	for _, l := range lines {
		m := movement{key: l.Key, quantity: l.Quantity, amount: l.Amount}
		switch l.DetailType {
		case voucher.DetailProduct:
			m.target = targetSales
		case voucher.DetailReturn:
			m.target = targetSalesReturn
		case voucher.DetailDiscount:
			m.target = targetSalesDiscount
		default:
			rejected++
			continue
		}
		movements = append(movements, m)
	}
	return movements, rejected, nil
}

func (a *Aggregator) loadPurchases(ctx context.Context, jobDate time.Time) ([]movement, int, error) {
	lines, err := a.purchases.ListByJobDate(ctx, jobDate)
	if err != nil {
		return nil, 0, err
	}

	movements := make([]movement, 0, len(lines))
	rejected := 0
	for _, l := range lines {
		m := movement{key: l.Key, quantity: l.Quantity, amount: l.Amount}
		switch l.DetailType {
		case voucher.DetailProduct:
			m.target = targetPurchase
		case voucher.DetailReturn:
			m.target = targetPurchaseReturn
		case voucher.DetailDiscount:
			m.target = targetPurchaseDiscount
		default:
			rejected++
			continue
		}
		movements = append(movements, m)
	}
	return movements, rejected, nil
}

func (a *Aggregator) loadAdjustments(ctx context.Context, jobDate time.Time) ([]movement, int, error) {
	lines, err := a.adjustments.ListByJobDate(ctx, jobDate)
	if err != nil {
		return nil, 0, err
	}

	movements := make([]movement, 0, len(lines))
	rejected := 0
	for _, l := range lines {
		if !l.HasValidUnitCode() {
			rejected++
			continue
		}
		m := movement{key: l.Key, quantity: l.Quantity, amount: l.Amount}
		if l.Category.RouteBucket() == voucher.BucketTransfer {
			m.target = targetTransfer
		} else {
			m.target = targetAdjustment
		}
		movements = append(movements, m)
	}
	return movements, rejected, nil
}
