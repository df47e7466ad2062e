// Package snapshot provides the CP (current-period) inventory snapshot: a
// disposable per-job-date working table materialized from the permanent
// inventory master, populated by voucher aggregation, costed with a moving
// average, and enriched with profit and month-to-date figures.
package snapshot

import (
	"time"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
)

// Flag is the two-state per-row daily flag.
type Flag byte

const (
	// FlagPending marks a row that has been cleared but not yet touched by an
	// aggregation pass.
	FlagPending Flag = '9'
	// FlagProcessed marks a row that received at least one movement this run.
	FlagProcessed Flag = '0'
)

// Movements holds one parallel set of per-movement-type quantity and amount
// columns. The same shape serves both the daily columns and the month-to-date
// cumulative columns.
type Movements struct {
	SalesQuantity          types.Quantity
	SalesAmount            types.Money
	SalesReturnQuantity    types.Quantity
	SalesReturnAmount      types.Money
	PurchaseQuantity       types.Quantity
	PurchaseAmount         types.Money
	PurchaseReturnQuantity types.Quantity
	PurchaseReturnAmount   types.Money
	AdjustmentQuantity     types.Quantity
	AdjustmentAmount       types.Money
	ProcessingQuantity     types.Quantity
	ProcessingAmount       types.Money
	TransferQuantity       types.Quantity
	TransferAmount         types.Money
	ReceiptQuantity        types.Quantity
	ReceiptAmount          types.Money
	ShipmentQuantity       types.Quantity
	ShipmentAmount         types.Money

	GrossProfit     types.Money
	WalkingAmount   types.Money
	IncentiveAmount types.Money
}

// Accumulate adds every column of other into m.
func (m *Movements) Accumulate(other Movements) {
	m.SalesQuantity += other.SalesQuantity
	m.SalesAmount = m.SalesAmount.Add(other.SalesAmount)
	m.SalesReturnQuantity += other.SalesReturnQuantity
	m.SalesReturnAmount = m.SalesReturnAmount.Add(other.SalesReturnAmount)
	m.PurchaseQuantity += other.PurchaseQuantity
	m.PurchaseAmount = m.PurchaseAmount.Add(other.PurchaseAmount)
	m.PurchaseReturnQuantity += other.PurchaseReturnQuantity
	m.PurchaseReturnAmount = m.PurchaseReturnAmount.Add(other.PurchaseReturnAmount)
	m.AdjustmentQuantity += other.AdjustmentQuantity
	m.AdjustmentAmount = m.AdjustmentAmount.Add(other.AdjustmentAmount)
	m.ProcessingQuantity += other.ProcessingQuantity
	m.ProcessingAmount = m.ProcessingAmount.Add(other.ProcessingAmount)
	m.TransferQuantity += other.TransferQuantity
	m.TransferAmount = m.TransferAmount.Add(other.TransferAmount)
	m.ReceiptQuantity += other.ReceiptQuantity
	m.ReceiptAmount = m.ReceiptAmount.Add(other.ReceiptAmount)
	m.ShipmentQuantity += other.ShipmentQuantity
	m.ShipmentAmount = m.ShipmentAmount.Add(other.ShipmentAmount)
	m.GrossProfit = m.GrossProfit.Add(other.GrossProfit)
	m.WalkingAmount = m.WalkingAmount.Add(other.WalkingAmount)
	m.IncentiveAmount = m.IncentiveAmount.Add(other.IncentiveAmount)
}

// HasMovement reports whether any movement or amount column is nonzero.
func (m Movements) HasMovement() bool {
	if m.SalesQuantity != 0 || m.SalesReturnQuantity != 0 ||
		m.PurchaseQuantity != 0 || m.PurchaseReturnQuantity != 0 ||
		m.AdjustmentQuantity != 0 || m.ProcessingQuantity != 0 ||
		m.TransferQuantity != 0 || m.ReceiptQuantity != 0 || m.ShipmentQuantity != 0 {
		return true
	}
	return !m.SalesAmount.IsZero() || !m.SalesReturnAmount.IsZero() ||
		!m.PurchaseAmount.IsZero() || !m.PurchaseReturnAmount.IsZero() ||
		!m.AdjustmentAmount.IsZero() || !m.ProcessingAmount.IsZero() ||
		!m.TransferAmount.IsZero() || !m.ReceiptAmount.IsZero() || !m.ShipmentAmount.IsZero()
}

// Row is one CP snapshot row per (identity key, job date).
//
// The snapshot is a transient working table: rows are created in bulk from
// the inventory master, mutated in place by every phase for one job date, and
// fully replaced at the next rebuild.
type Row struct {
	Key     key.Key
	JobDate time.Time

	ProductName   string
	CategoryCode  string
	UnitCode      string
	StandardPrice types.Money

	// Previous-day carry-forward.
	PreviousQuantity  types.Quantity
	PreviousAmount    types.Money
	PreviousUnitPrice types.Money

	DailyFlag Flag

	Daily Movements

	// Derived by the costing engine.
	StockQuantity  types.Quantity
	StockAmount    types.Money
	StockUnitPrice types.Money

	Monthly Movements

	// Last receipt date, carried for stagnation reporting.
	LastReceiptDate *time.Time
}

// NetGrossProfit is the economically meaningful margin: gross profit net of
// the walking discount.
func (r Row) NetGrossProfit() types.Money {
	return r.Daily.GrossProfit.Sub(r.Daily.WalkingAmount)
}

// GrossMarginRate returns the daily gross margin as a percentage rounded to
// 2 decimal places, and false when there are no sales to rate.
func (r Row) GrossMarginRate() (types.Money, bool) {
	if r.Daily.SalesAmount.IsZero() {
		return types.Zero(), false
	}
	rate := r.Daily.GrossProfit.Div(r.Daily.SalesAmount).Mul(types.NewMoney(100))
	return types.Round2(rate), true
}

// ClearDaily zeroes every daily movement and derived column and resets the
// flag to pending. This is the only legal way to make a row re-aggregatable.
func (r *Row) ClearDaily() {
	r.Daily = Movements{}
	r.StockQuantity = 0
	r.StockAmount = types.Zero()
	r.StockUnitPrice = types.Zero()
	r.DailyFlag = FlagPending
}
