package snapshot

import (
	"context"
	"fmt"
	"time"

	"cpstock/internal/core/types"
	"cpstock/pkg/logger"
)

// Costing derives daily stock quantity, moving-average unit cost and stock
// amount from the previous-day carry-forward plus the day's movements.
//
// The engine never substitutes a sales unit price for computed cost; that
// anomaly is exactly what the validator's price-equality rule detects.
type Costing struct {
	repo Repository
}

// NewCosting creates the costing engine.
func NewCosting(repo Repository) *Costing {
	return &Costing{repo: repo}
}

// deriveStockQuantity applies the fixed sign convention:
// previous + purchases - purchase returns + adjustments - sales + sales returns.
func deriveStockQuantity(r Row) types.Quantity {
	return r.PreviousQuantity +
		r.Daily.PurchaseQuantity - r.Daily.PurchaseReturnQuantity +
		r.Daily.AdjustmentQuantity -
		r.Daily.SalesQuantity + r.Daily.SalesReturnQuantity
}

// deriveUnitCost computes the moving-average unit cost:
//
//	(previousAmount + purchaseAmount - purchaseReturnAmount)
//	/ (previousQty + purchaseQty - purchaseReturnQty)
//
// rounded half away from zero at 4 decimal places. A zero denominator yields
// cost 0 rather than a division fault.
func deriveUnitCost(r Row) types.Money {
	denominator := r.PreviousQuantity + r.Daily.PurchaseQuantity - r.Daily.PurchaseReturnQuantity
	if denominator == 0 {
		return types.Zero()
	}
	numerator := r.PreviousAmount.Add(r.Daily.PurchaseAmount).Sub(r.Daily.PurchaseReturnAmount)
	return types.Round4(numerator.Div(denominator.Decimal()))
}

// ComputeDailyStockRow returns r with the daily stock quantity derived.
func ComputeDailyStockRow(r Row) Row {
	r.StockQuantity = deriveStockQuantity(r)
	return r
}

// ComputeUnitCostRow returns r with the moving-average unit cost and the
// daily stock amount derived. Amount is round4(quantity x unit cost).
func ComputeUnitCostRow(r Row) Row {
	r.StockUnitPrice = deriveUnitCost(r)
	r.StockAmount = types.Round4(r.StockQuantity.Decimal().Mul(r.StockUnitPrice))
	return r
}

// ComputeDailyStock derives the stock quantity for every row of jobDate.
func (c *Costing) ComputeDailyStock(ctx context.Context, jobDate time.Time) (int, error) {
	return c.recompute(ctx, jobDate, "daily stock", ComputeDailyStockRow)
}

// ComputeUnitCost derives the moving-average unit cost and stock amount for
// every row of jobDate.
func (c *Costing) ComputeUnitCost(ctx context.Context, jobDate time.Time) (int, error) {
	return c.recompute(ctx, jobDate, "unit cost", ComputeUnitCostRow)
}

func (c *Costing) recompute(ctx context.Context, jobDate time.Time, what string, fn func(Row) Row) (int, error) {
	rows, err := c.repo.ListByDate(ctx, jobDate)
	if err != nil {
		return 0, fmt.Errorf("list snapshot rows: %w", err)
	}

	for i := range rows {
		rows[i] = fn(rows[i])
	}

	count, err := c.repo.UpdateRows(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("update snapshot rows: %w", err)
	}

	logger.Info(ctx, "costing computed", "derivation", what, "rows", count)
	return count, nil
}
