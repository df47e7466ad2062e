// Package snapshot_repo provides the PostgreSQL implementation of the CP
// snapshot working table.
package snapshot_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
	"cpstock/internal/domain/snapshot"
	"cpstock/internal/infrastructure/storage/postgres"
)

const snapshotTable = "cp_inventory_snapshot"

// Compile-time check.
var _ snapshot.Repository = (*SnapshotRepo)(nil)

// SnapshotRepo implements snapshot.Repository on PostgreSQL. Set-based
// operations (replace, clear, purge) run as single statements; per-row
// write-backs are batched in one round-trip inside the phase transaction.
type SnapshotRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewSnapshotRepo creates the snapshot repository.
func NewSnapshotRepo(txm *postgres.TxManager) *SnapshotRepo {
	return &SnapshotRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// dbRow is the flat table shape. Quantities are scaled BIGINTs (4 implied
// decimals), money columns are NUMERIC.
type dbRow struct {
	ProductCode      string `db:"product_code"`
	GradeCode        string `db:"grade_code"`
	ClassCode        string `db:"class_code"`
	ShippingMarkCode string `db:"shipping_mark_code"`
	ShippingMarkName string `db:"shipping_mark_name"`

	JobDate time.Time `db:"job_date"`

	ProductName   string      `db:"product_name"`
	CategoryCode  string      `db:"category_code"`
	UnitCode      string      `db:"unit_code"`
	StandardPrice types.Money `db:"standard_price"`

	PreviousQuantity  int64       `db:"previous_quantity"`
	PreviousAmount    types.Money `db:"previous_amount"`
	PreviousUnitPrice types.Money `db:"previous_unit_price"`

	DailyFlag string `db:"daily_flag"`

	DailySalesQuantity          int64       `db:"daily_sales_quantity"`
	DailySalesAmount            types.Money `db:"daily_sales_amount"`
	DailySalesReturnQuantity    int64       `db:"daily_sales_return_quantity"`
	DailySalesReturnAmount      types.Money `db:"daily_sales_return_amount"`
	DailyPurchaseQuantity       int64       `db:"daily_purchase_quantity"`
	DailyPurchaseAmount         types.Money `db:"daily_purchase_amount"`
	DailyPurchaseReturnQuantity int64       `db:"daily_purchase_return_quantity"`
	DailyPurchaseReturnAmount   types.Money `db:"daily_purchase_return_amount"`
	DailyAdjustmentQuantity     int64       `db:"daily_adjustment_quantity"`
	DailyAdjustmentAmount       types.Money `db:"daily_adjustment_amount"`
	DailyProcessingQuantity     int64       `db:"daily_processing_quantity"`
	DailyProcessingAmount       types.Money `db:"daily_processing_amount"`
	DailyTransferQuantity       int64       `db:"daily_transfer_quantity"`
	DailyTransferAmount         types.Money `db:"daily_transfer_amount"`
	DailyReceiptQuantity        int64       `db:"daily_receipt_quantity"`
	DailyReceiptAmount          types.Money `db:"daily_receipt_amount"`
	DailyShipmentQuantity       int64       `db:"daily_shipment_quantity"`
	DailyShipmentAmount         types.Money `db:"daily_shipment_amount"`
	DailyGrossProfit            types.Money `db:"daily_gross_profit"`
	DailyWalkingAmount          types.Money `db:"daily_walking_amount"`
	DailyIncentiveAmount        types.Money `db:"daily_incentive_amount"`

	StockQuantity  int64       `db:"stock_quantity"`
	StockAmount    types.Money `db:"stock_amount"`
	StockUnitPrice types.Money `db:"stock_unit_price"`

	MonthlySalesQuantity          int64       `db:"monthly_sales_quantity"`
	MonthlySalesAmount            types.Money `db:"monthly_sales_amount"`
	MonthlySalesReturnQuantity    int64       `db:"monthly_sales_return_quantity"`
	MonthlySalesReturnAmount      types.Money `db:"monthly_sales_return_amount"`
	MonthlyPurchaseQuantity       int64       `db:"monthly_purchase_quantity"`
	MonthlyPurchaseAmount         types.Money `db:"monthly_purchase_amount"`
	MonthlyPurchaseReturnQuantity int64       `db:"monthly_purchase_return_quantity"`
	MonthlyPurchaseReturnAmount   types.Money `db:"monthly_purchase_return_amount"`
	MonthlyAdjustmentQuantity     int64       `db:"monthly_adjustment_quantity"`
	MonthlyAdjustmentAmount       types.Money `db:"monthly_adjustment_amount"`
	MonthlyProcessingQuantity     int64       `db:"monthly_processing_quantity"`
	MonthlyProcessingAmount       types.Money `db:"monthly_processing_amount"`
	MonthlyTransferQuantity       int64       `db:"monthly_transfer_quantity"`
	MonthlyTransferAmount         types.Money `db:"monthly_transfer_amount"`
	MonthlyReceiptQuantity        int64       `db:"monthly_receipt_quantity"`
	MonthlyReceiptAmount          types.Money `db:"monthly_receipt_amount"`
	MonthlyShipmentQuantity       int64       `db:"monthly_shipment_quantity"`
	MonthlyShipmentAmount         types.Money `db:"monthly_shipment_amount"`
	MonthlyGrossProfit            types.Money `db:"monthly_gross_profit"`
	MonthlyWalkingAmount          types.Money `db:"monthly_walking_amount"`
	MonthlyIncentiveAmount        types.Money `db:"monthly_incentive_amount"`

	LastReceiptDate *time.Time `db:"last_receipt_date"`
}

var snapshotColumns = []string{
	"product_code", "grade_code", "class_code", "shipping_mark_code", "shipping_mark_name",
	"job_date",
	"product_name", "category_code", "unit_code", "standard_price",
	"previous_quantity", "previous_amount", "previous_unit_price",
	"daily_flag",
	"daily_sales_quantity", "daily_sales_amount",
	"daily_sales_return_quantity", "daily_sales_return_amount",
	"daily_purchase_quantity", "daily_purchase_amount",
	"daily_purchase_return_quantity", "daily_purchase_return_amount",
	"daily_adjustment_quantity", "daily_adjustment_amount",
	"daily_processing_quantity", "daily_processing_amount",
	"daily_transfer_quantity", "daily_transfer_amount",
	"daily_receipt_quantity", "daily_receipt_amount",
	"daily_shipment_quantity", "daily_shipment_amount",
	"daily_gross_profit", "daily_walking_amount", "daily_incentive_amount",
	"stock_quantity", "stock_amount", "stock_unit_price",
	"monthly_sales_quantity", "monthly_sales_amount",
	"monthly_sales_return_quantity", "monthly_sales_return_amount",
	"monthly_purchase_quantity", "monthly_purchase_amount",
	"monthly_purchase_return_quantity", "monthly_purchase_return_amount",
	"monthly_adjustment_quantity", "monthly_adjustment_amount",
	"monthly_processing_quantity", "monthly_processing_amount",
	"monthly_transfer_quantity", "monthly_transfer_amount",
	"monthly_receipt_quantity", "monthly_receipt_amount",
	"monthly_shipment_quantity", "monthly_shipment_amount",
	"monthly_gross_profit", "monthly_walking_amount", "monthly_incentive_amount",
	"last_receipt_date",
}

func toDB(r snapshot.Row) dbRow {
	return dbRow{
		ProductCode:      r.Key.ProductCode(),
		GradeCode:        r.Key.GradeCode(),
		ClassCode:        r.Key.ClassCode(),
		ShippingMarkCode: r.Key.ShippingMarkCode(),
		ShippingMarkName: r.Key.ShippingMarkName(),

		JobDate: r.JobDate,

		ProductName:   r.ProductName,
		CategoryCode:  r.CategoryCode,
		UnitCode:      r.UnitCode,
		StandardPrice: r.StandardPrice,

		PreviousQuantity:  r.PreviousQuantity.Int64Scaled(),
		PreviousAmount:    r.PreviousAmount,
		PreviousUnitPrice: r.PreviousUnitPrice,

		DailyFlag: string(rune(r.DailyFlag)),

		DailySalesQuantity:          r.Daily.SalesQuantity.Int64Scaled(),
		DailySalesAmount:            r.Daily.SalesAmount,
		DailySalesReturnQuantity:    r.Daily.SalesReturnQuantity.Int64Scaled(),
		DailySalesReturnAmount:      r.Daily.SalesReturnAmount,
		DailyPurchaseQuantity:       r.Daily.PurchaseQuantity.Int64Scaled(),
		DailyPurchaseAmount:         r.Daily.PurchaseAmount,
		DailyPurchaseReturnQuantity: r.Daily.PurchaseReturnQuantity.Int64Scaled(),
		DailyPurchaseReturnAmount:   r.Daily.PurchaseReturnAmount,
		DailyAdjustmentQuantity:     r.Daily.AdjustmentQuantity.Int64Scaled(),
		DailyAdjustmentAmount:       r.Daily.AdjustmentAmount,
		DailyProcessingQuantity:     r.Daily.ProcessingQuantity.Int64Scaled(),
		DailyProcessingAmount:       r.Daily.ProcessingAmount,
		DailyTransferQuantity:       r.Daily.TransferQuantity.Int64Scaled(),
		DailyTransferAmount:         r.Daily.TransferAmount,
		DailyReceiptQuantity:        r.Daily.ReceiptQuantity.Int64Scaled(),
		DailyReceiptAmount:          r.Daily.ReceiptAmount,
		DailyShipmentQuantity:       r.Daily.ShipmentQuantity.Int64Scaled(),
		DailyShipmentAmount:         r.Daily.ShipmentAmount,
		DailyGrossProfit:            r.Daily.GrossProfit,
		DailyWalkingAmount:          r.Daily.WalkingAmount,
		DailyIncentiveAmount:        r.Daily.IncentiveAmount,

		StockQuantity:  r.StockQuantity.Int64Scaled(),
		StockAmount:    r.StockAmount,
		StockUnitPrice: r.StockUnitPrice,

		MonthlySalesQuantity:          r.Monthly.SalesQuantity.Int64Scaled(),
		MonthlySalesAmount:            r.Monthly.SalesAmount,
		MonthlySalesReturnQuantity:    r.Monthly.SalesReturnQuantity.Int64Scaled(),
		MonthlySalesReturnAmount:      r.Monthly.SalesReturnAmount,
		MonthlyPurchaseQuantity:       r.Monthly.PurchaseQuantity.Int64Scaled(),
		MonthlyPurchaseAmount:         r.Monthly.PurchaseAmount,
		MonthlyPurchaseReturnQuantity: r.Monthly.PurchaseReturnQuantity.Int64Scaled(),
		MonthlyPurchaseReturnAmount:   r.Monthly.PurchaseReturnAmount,
		MonthlyAdjustmentQuantity:     r.Monthly.AdjustmentQuantity.Int64Scaled(),
		MonthlyAdjustmentAmount:       r.Monthly.AdjustmentAmount,
		MonthlyProcessingQuantity:     r.Monthly.ProcessingQuantity.Int64Scaled(),
		MonthlyProcessingAmount:       r.Monthly.ProcessingAmount,
		MonthlyTransferQuantity:       r.Monthly.TransferQuantity.Int64Scaled(),
		MonthlyTransferAmount:         r.Monthly.TransferAmount,
		MonthlyReceiptQuantity:        r.Monthly.ReceiptQuantity.Int64Scaled(),
		MonthlyReceiptAmount:          r.Monthly.ReceiptAmount,
		MonthlyShipmentQuantity:       r.Monthly.ShipmentQuantity.Int64Scaled(),
		MonthlyShipmentAmount:         r.Monthly.ShipmentAmount,
		MonthlyGrossProfit:            r.Monthly.GrossProfit,
		MonthlyWalkingAmount:          r.Monthly.WalkingAmount,
		MonthlyIncentiveAmount:        r.Monthly.IncentiveAmount,

		LastReceiptDate: r.LastReceiptDate,
	}
}

func toDomain(d dbRow) snapshot.Row {
	flag := snapshot.FlagPending
	if d.DailyFlag == string(rune(snapshot.FlagProcessed)) {
		flag = snapshot.FlagProcessed
	}
	return snapshot.Row{
		Key: key.New(d.ProductCode, d.GradeCode, d.ClassCode, d.ShippingMarkCode, d.ShippingMarkName),

		JobDate: d.JobDate,

		ProductName:   d.ProductName,
		CategoryCode:  d.CategoryCode,
		UnitCode:      d.UnitCode,
		StandardPrice: d.StandardPrice,

		PreviousQuantity:  types.NewQuantityFromInt64Scaled(d.PreviousQuantity),
		PreviousAmount:    d.PreviousAmount,
		PreviousUnitPrice: d.PreviousUnitPrice,

		DailyFlag: flag,

		Daily: snapshot.Movements{
			SalesQuantity:          types.NewQuantityFromInt64Scaled(d.DailySalesQuantity),
			SalesAmount:            d.DailySalesAmount,
			SalesReturnQuantity:    types.NewQuantityFromInt64Scaled(d.DailySalesReturnQuantity),
			SalesReturnAmount:      d.DailySalesReturnAmount,
			PurchaseQuantity:       types.NewQuantityFromInt64Scaled(d.DailyPurchaseQuantity),
			PurchaseAmount:         d.DailyPurchaseAmount,
			PurchaseReturnQuantity: types.NewQuantityFromInt64Scaled(d.DailyPurchaseReturnQuantity),
			PurchaseReturnAmount:   d.DailyPurchaseReturnAmount,
			AdjustmentQuantity:     types.NewQuantityFromInt64Scaled(d.DailyAdjustmentQuantity),
			AdjustmentAmount:       d.DailyAdjustmentAmount,
			ProcessingQuantity:     types.NewQuantityFromInt64Scaled(d.DailyProcessingQuantity),
			ProcessingAmount:       d.DailyProcessingAmount,
			TransferQuantity:       types.NewQuantityFromInt64Scaled(d.DailyTransferQuantity),
			TransferAmount:         d.DailyTransferAmount,
			ReceiptQuantity:        types.NewQuantityFromInt64Scaled(d.DailyReceiptQuantity),
			ReceiptAmount:          d.DailyReceiptAmount,
			ShipmentQuantity:       types.NewQuantityFromInt64Scaled(d.DailyShipmentQuantity),
			ShipmentAmount:         d.DailyShipmentAmount,
			GrossProfit:            d.DailyGrossProfit,
			WalkingAmount:          d.DailyWalkingAmount,
			IncentiveAmount:        d.DailyIncentiveAmount,
		},

		StockQuantity:  types.NewQuantityFromInt64Scaled(d.StockQuantity),
		StockAmount:    d.StockAmount,
		StockUnitPrice: d.StockUnitPrice,

		Monthly: snapshot.Movements{
			SalesQuantity:          types.NewQuantityFromInt64Scaled(d.MonthlySalesQuantity),
			SalesAmount:            d.MonthlySalesAmount,
			SalesReturnQuantity:    types.NewQuantityFromInt64Scaled(d.MonthlySalesReturnQuantity),
			SalesReturnAmount:      d.MonthlySalesReturnAmount,
			PurchaseQuantity:       types.NewQuantityFromInt64Scaled(d.MonthlyPurchaseQuantity),
			PurchaseAmount:         d.MonthlyPurchaseAmount,
			PurchaseReturnQuantity: types.NewQuantityFromInt64Scaled(d.MonthlyPurchaseReturnQuantity),
			PurchaseReturnAmount:   d.MonthlyPurchaseReturnAmount,
			AdjustmentQuantity:     types.NewQuantityFromInt64Scaled(d.MonthlyAdjustmentQuantity),
			AdjustmentAmount:       d.MonthlyAdjustmentAmount,
			ProcessingQuantity:     types.NewQuantityFromInt64Scaled(d.MonthlyProcessingQuantity),
			ProcessingAmount:       d.MonthlyProcessingAmount,
			TransferQuantity:       types.NewQuantityFromInt64Scaled(d.MonthlyTransferQuantity),
			TransferAmount:         d.MonthlyTransferAmount,
			ReceiptQuantity:        types.NewQuantityFromInt64Scaled(d.MonthlyReceiptQuantity),
			ReceiptAmount:          d.MonthlyReceiptAmount,
			ShipmentQuantity:       types.NewQuantityFromInt64Scaled(d.MonthlyShipmentQuantity),
			ShipmentAmount:         d.MonthlyShipmentAmount,
			GrossProfit:            d.MonthlyGrossProfit,
			WalkingAmount:          d.MonthlyWalkingAmount,
			IncentiveAmount:        d.MonthlyIncentiveAmount,
		},

		LastReceiptDate: d.LastReceiptDate,
	}
}

// copyValues flattens a dbRow in snapshotColumns order for COPY.
func copyValues(d dbRow) []any {
	return []any{
		d.ProductCode, d.GradeCode, d.ClassCode, d.ShippingMarkCode, d.ShippingMarkName,
		d.JobDate,
		d.ProductName, d.CategoryCode, d.UnitCode, d.StandardPrice,
		d.PreviousQuantity, d.PreviousAmount, d.PreviousUnitPrice,
		d.DailyFlag,
		d.DailySalesQuantity, d.DailySalesAmount,
		d.DailySalesReturnQuantity, d.DailySalesReturnAmount,
		d.DailyPurchaseQuantity, d.DailyPurchaseAmount,
		d.DailyPurchaseReturnQuantity, d.DailyPurchaseReturnAmount,
		d.DailyAdjustmentQuantity, d.DailyAdjustmentAmount,
		d.DailyProcessingQuantity, d.DailyProcessingAmount,
		d.DailyTransferQuantity, d.DailyTransferAmount,
		d.DailyReceiptQuantity, d.DailyReceiptAmount,
		d.DailyShipmentQuantity, d.DailyShipmentAmount,
		d.DailyGrossProfit, d.DailyWalkingAmount, d.DailyIncentiveAmount,
		d.StockQuantity, d.StockAmount, d.StockUnitPrice,
		d.MonthlySalesQuantity, d.MonthlySalesAmount,
		d.MonthlySalesReturnQuantity, d.MonthlySalesReturnAmount,
		d.MonthlyPurchaseQuantity, d.MonthlyPurchaseAmount,
		d.MonthlyPurchaseReturnQuantity, d.MonthlyPurchaseReturnAmount,
		d.MonthlyAdjustmentQuantity, d.MonthlyAdjustmentAmount,
		d.MonthlyProcessingQuantity, d.MonthlyProcessingAmount,
		d.MonthlyTransferQuantity, d.MonthlyTransferAmount,
		d.MonthlyReceiptQuantity, d.MonthlyReceiptAmount,
		d.MonthlyShipmentQuantity, d.MonthlyShipmentAmount,
		d.MonthlyGrossProfit, d.MonthlyWalkingAmount, d.MonthlyIncentiveAmount,
		d.LastReceiptDate,
	}
}

// keyPredicate matches one row by identity key and job date.
func keyPredicate(jobDate time.Time, k key.Key) squirrel.Eq {
	return squirrel.Eq{
		"job_date":           jobDate,
		"product_code":       k.ProductCode(),
		"grade_code":         k.GradeCode(),
		"class_code":         k.ClassCode(),
		"shipping_mark_code": k.ShippingMarkCode(),
		"shipping_mark_name": k.ShippingMarkName(),
	}
}

// ReplaceForDate deletes any rows of jobDate and bulk inserts the new set
// via COPY. Must run inside a phase transaction so the delete and insert
// are atomic.
func (r *SnapshotRepo) ReplaceForDate(ctx context.Context, jobDate time.Time, rows []snapshot.Row) (int, error) {
	sql, args, err := r.builder.Delete(snapshotTable).
		Where(squirrel.Eq{"job_date": jobDate}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return 0, fmt.Errorf("delete snapshot rows: %w", err)
	}

	if len(rows) == 0 {
		return 0, nil
	}

	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, copyValues(toDB(row)))
	}

	inserter := postgres.NewBatchInserter(r.txm)
	inserted, err := inserter.CopyFromSlice(ctx, snapshotTable, snapshotColumns, values)
	if err != nil {
		return 0, fmt.Errorf("copy snapshot rows: %w", err)
	}
	return int(inserted), nil
}

// ClearDailyArea zeroes the daily and derived columns and resets the flag in
// one set-based statement.
func (r *SnapshotRepo) ClearDailyArea(ctx context.Context, jobDate time.Time) (int, error) {
	zero := map[string]any{"daily_flag": string(rune(snapshot.FlagPending))}
	for _, col := range snapshotColumns {
		switch {
		case strings.HasPrefix(col, "daily_") && col != "daily_flag":
			zero[col] = 0
		case col == "stock_quantity" || col == "stock_amount" || col == "stock_unit_price":
			zero[col] = 0
		}
	}

	sql, args, err := r.builder.Update(snapshotTable).
		SetMap(zero).
		Where(squirrel.Eq{"job_date": jobDate}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build clear: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("clear daily area: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListByDate returns all rows for jobDate.
func (r *SnapshotRepo) ListByDate(ctx context.Context, jobDate time.Time) ([]snapshot.Row, error) {
	sql, args, err := r.builder.Select(snapshotColumns...).
		From(snapshotTable).
		Where(squirrel.Eq{"job_date": jobDate}).
		OrderBy("product_code", "grade_code", "class_code", "shipping_mark_code", "shipping_mark_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return r.queryRows(ctx, sql, args)
}

// ListRange returns all rows with job date in [from, to].
func (r *SnapshotRepo) ListRange(ctx context.Context, from, to time.Time) ([]snapshot.Row, error) {
	sql, args, err := r.builder.Select(snapshotColumns...).
		From(snapshotTable).
		Where(squirrel.GtOrEq{"job_date": from}).
		Where(squirrel.LtOrEq{"job_date": to}).
		OrderBy("job_date").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return r.queryRows(ctx, sql, args)
}

func (r *SnapshotRepo) queryRows(ctx context.Context, sql string, args []any) ([]snapshot.Row, error) {
	var dbRows []dbRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &dbRows, sql, args...); err != nil {
		return nil, fmt.Errorf("select snapshot rows: %w", err)
	}
	rows := make([]snapshot.Row, 0, len(dbRows))
	for _, d := range dbRows {
		rows = append(rows, toDomain(d))
	}
	return rows, nil
}

// UpdateRows writes back mutated rows as one batch inside the phase
// transaction.
func (r *SnapshotRepo) UpdateRows(ctx context.Context, rows []snapshot.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	queries := make([]postgres.BatchQuery, 0, len(rows))
	for _, row := range rows {
		d := toDB(row)
		sql, args, err := r.builder.Update(snapshotTable).
			SetMap(updateMap(d)).
			Where(keyPredicate(row.JobDate, row.Key)).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build update: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}

	executor := postgres.NewBatchExecutor(r.txm)
	if err := executor.ExecuteBatch(ctx, queries); err != nil {
		return 0, fmt.Errorf("update snapshot rows: %w", err)
	}
	return len(rows), nil
}

// updateMap lists the mutable columns. Identity and descriptive columns are
// fixed at creation and never updated in place.
func updateMap(d dbRow) map[string]any {
	return map[string]any{
		"previous_quantity":   d.PreviousQuantity,
		"previous_amount":     d.PreviousAmount,
		"previous_unit_price": d.PreviousUnitPrice,

		"daily_flag": d.DailyFlag,

		"daily_sales_quantity":           d.DailySalesQuantity,
		"daily_sales_amount":             d.DailySalesAmount,
		"daily_sales_return_quantity":    d.DailySalesReturnQuantity,
		"daily_sales_return_amount":      d.DailySalesReturnAmount,
		"daily_purchase_quantity":        d.DailyPurchaseQuantity,
		"daily_purchase_amount":          d.DailyPurchaseAmount,
		"daily_purchase_return_quantity": d.DailyPurchaseReturnQuantity,
		"daily_purchase_return_amount":   d.DailyPurchaseReturnAmount,
		"daily_adjustment_quantity":      d.DailyAdjustmentQuantity,
		"daily_adjustment_amount":        d.DailyAdjustmentAmount,
		"daily_processing_quantity":      d.DailyProcessingQuantity,
		"daily_processing_amount":        d.DailyProcessingAmount,
		"daily_transfer_quantity":        d.DailyTransferQuantity,
		"daily_transfer_amount":          d.DailyTransferAmount,
		"daily_receipt_quantity":         d.DailyReceiptQuantity,
		"daily_receipt_amount":           d.DailyReceiptAmount,
		"daily_shipment_quantity":        d.DailyShipmentQuantity,
		"daily_shipment_amount":          d.DailyShipmentAmount,
		"daily_gross_profit":             d.DailyGrossProfit,
		"daily_walking_amount":           d.DailyWalkingAmount,
		"daily_incentive_amount":         d.DailyIncentiveAmount,

		"stock_quantity":   d.StockQuantity,
		"stock_amount":     d.StockAmount,
		"stock_unit_price": d.StockUnitPrice,

		"monthly_sales_quantity":           d.MonthlySalesQuantity,
		"monthly_sales_amount":             d.MonthlySalesAmount,
		"monthly_sales_return_quantity":    d.MonthlySalesReturnQuantity,
		"monthly_sales_return_amount":      d.MonthlySalesReturnAmount,
		"monthly_purchase_quantity":        d.MonthlyPurchaseQuantity,
		"monthly_purchase_amount":          d.MonthlyPurchaseAmount,
		"monthly_purchase_return_quantity": d.MonthlyPurchaseReturnQuantity,
		"monthly_purchase_return_amount":   d.MonthlyPurchaseReturnAmount,
		"monthly_adjustment_quantity":      d.MonthlyAdjustmentQuantity,
		"monthly_adjustment_amount":        d.MonthlyAdjustmentAmount,
		"monthly_processing_quantity":      d.MonthlyProcessingQuantity,
		"monthly_processing_amount":        d.MonthlyProcessingAmount,
		"monthly_transfer_quantity":        d.MonthlyTransferQuantity,
		"monthly_transfer_amount":          d.MonthlyTransferAmount,
		"monthly_receipt_quantity":         d.MonthlyReceiptQuantity,
		"monthly_receipt_amount":           d.MonthlyReceiptAmount,
		"monthly_shipment_quantity":        d.MonthlyShipmentQuantity,
		"monthly_shipment_amount":          d.MonthlyShipmentAmount,
		"monthly_gross_profit":             d.MonthlyGrossProfit,
		"monthly_walking_amount":           d.MonthlyWalkingAmount,
		"monthly_incentive_amount":         d.MonthlyIncentiveAmount,

		"last_receipt_date": d.LastReceiptDate,
	}
}

// DeleteRow removes one row (orphan correction).
func (r *SnapshotRepo) DeleteRow(ctx context.Context, jobDate time.Time, k key.Key) error {
	sql, args, err := r.builder.Delete(snapshotTable).
		Where(keyPredicate(jobDate, k)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete snapshot row: %w", err)
	}
	return nil
}

// DeleteBefore drops stale snapshots older than the cutoff date.
func (r *SnapshotRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	sql, args, err := r.builder.Delete(snapshotTable).
		Where(squirrel.Lt{"job_date": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete stale snapshots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CountByDate returns the number of rows for jobDate.
func (r *SnapshotRepo) CountByDate(ctx context.Context, jobDate time.Time) (int, error) {
	sql, args, err := r.builder.Select("COUNT(*)").
		From(snapshotTable).
		Where(squirrel.Eq{"job_date": jobDate}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var count int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count snapshot rows: %w", err)
	}
	return count, nil
}
