// Package voucher_repo provides PostgreSQL implementations of the read-only
// voucher line repositories. Voucher tables are imported upstream; the
// engine only reads them, scoped by job date.
package voucher_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
	"cpstock/internal/domain/voucher"
	"cpstock/internal/infrastructure/storage/postgres"
)

const (
	salesTable      = "sales_vouchers"
	purchaseTable   = "purchase_vouchers"
	adjustmentTable = "adjustment_vouchers"
)

var (
	_ voucher.SalesRepository      = (*SalesRepo)(nil)
	_ voucher.PurchaseRepository   = (*PurchaseRepo)(nil)
	_ voucher.AdjustmentRepository = (*AdjustmentRepo)(nil)
)

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// SalesRepo reads imported sales voucher lines.
type SalesRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewSalesRepo creates the sales voucher repository.
func NewSalesRepo(txm *postgres.TxManager) *SalesRepo {
	return &SalesRepo{txm: txm, builder: newBuilder()}
}

type salesRow struct {
	ProductCode      string      `db:"product_code"`
	GradeCode        string      `db:"grade_code"`
	ClassCode        string      `db:"class_code"`
	ShippingMarkCode string      `db:"shipping_mark_code"`
	ShippingMarkName string      `db:"shipping_mark_name"`
	JobDate          time.Time   `db:"job_date"`
	VoucherNo        string      `db:"voucher_no"`
	LineNo           int         `db:"line_no"`
	DetailType       int         `db:"detail_type"`
	Quantity         int64       `db:"quantity"`
	UnitPrice        types.Money `db:"unit_price"`
	Amount           types.Money `db:"amount"`
	CustomerCode     string      `db:"customer_code"`
	CustomerName     string      `db:"customer_name"`
}

// ListByJobDate returns the day's sales lines in voucher order.
func (r *SalesRepo) ListByJobDate(ctx context.Context, jobDate time.Time) ([]voucher.SalesLine, error) {
	sql, args, err := r.builder.Select(
		"product_code", "grade_code", "class_code", "shipping_mark_code", "shipping_mark_name",
		"job_date", "voucher_no", "line_no", "detail_type",
		"quantity", "unit_price", "amount", "customer_code", "customer_name",
	).
		From(salesTable).
		Where(squirrel.Eq{"job_date": jobDate}).
		OrderBy("voucher_no", "line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []salesRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales vouchers: %w", err)
	}

	lines := make([]voucher.SalesLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, voucher.SalesLine{
			Key:          key.New(row.ProductCode, row.GradeCode, row.ClassCode, row.ShippingMarkCode, row.ShippingMarkName),
			JobDate:      row.JobDate,
			VoucherNo:    row.VoucherNo,
			LineNo:       row.LineNo,
			DetailType:   voucher.DetailType(row.DetailType),
			Quantity:     types.NewQuantityFromInt64Scaled(row.Quantity),
			UnitPrice:    row.UnitPrice,
			Amount:       row.Amount,
			CustomerCode: row.CustomerCode,
			CustomerName: row.CustomerName,
		})
	}
	return lines, nil
}

// PurchaseRepo reads imported purchase voucher lines.
type PurchaseRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewPurchaseRepo creates the purchase voucher repository.
func NewPurchaseRepo(txm *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{txm: txm, builder: newBuilder()}
}

type purchaseRow struct {
	ProductCode      string      `db:"product_code"`
	GradeCode        string      `db:"grade_code"`
	ClassCode        string      `db:"class_code"`
	ShippingMarkCode string      `db:"shipping_mark_code"`
	ShippingMarkName string      `db:"shipping_mark_name"`
	JobDate          time.Time   `db:"job_date"`
	VoucherNo        string      `db:"voucher_no"`
	LineNo           int         `db:"line_no"`
	DetailType       int         `db:"detail_type"`
	Quantity         int64       `db:"quantity"`
	UnitPrice        types.Money `db:"unit_price"`
	Amount           types.Money `db:"amount"`
	SupplierCode     string      `db:"supplier_code"`
	SupplierName     string      `db:"supplier_name"`
}

// ListByJobDate returns the day's purchase lines in voucher order.
func (r *PurchaseRepo) ListByJobDate(ctx context.Context, jobDate time.Time) ([]voucher.PurchaseLine, error) {
	sql, args, err := r.builder.Select(
		"product_code", "grade_code", "class_code", "shipping_mark_code", "shipping_mark_name",
		"job_date", "voucher_no", "line_no", "detail_type",
		"quantity", "unit_price", "amount", "supplier_code", "supplier_name",
	).
		From(purchaseTable).
		Where(squirrel.Eq{"job_date": jobDate}).
		OrderBy("voucher_no", "line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []purchaseRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select purchase vouchers: %w", err)
	}

	lines := make([]voucher.PurchaseLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, voucher.PurchaseLine{
			Key:          key.New(row.ProductCode, row.GradeCode, row.ClassCode, row.ShippingMarkCode, row.ShippingMarkName),
			JobDate:      row.JobDate,
			VoucherNo:    row.VoucherNo,
			LineNo:       row.LineNo,
			DetailType:   voucher.DetailType(row.DetailType),
			Quantity:     types.NewQuantityFromInt64Scaled(row.Quantity),
			UnitPrice:    row.UnitPrice,
			Amount:       row.Amount,
			SupplierCode: row.SupplierCode,
			SupplierName: row.SupplierName,
		})
	}
	return lines, nil
}

// AdjustmentRepo reads imported inventory adjustment voucher lines.
type AdjustmentRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewAdjustmentRepo creates the adjustment voucher repository.
func NewAdjustmentRepo(txm *postgres.TxManager) *AdjustmentRepo {
	return &AdjustmentRepo{txm: txm, builder: newBuilder()}
}

type adjustmentRow struct {
	ProductCode      string      `db:"product_code"`
	GradeCode        string      `db:"grade_code"`
	ClassCode        string      `db:"class_code"`
	ShippingMarkCode string      `db:"shipping_mark_code"`
	ShippingMarkName string      `db:"shipping_mark_name"`
	JobDate          time.Time   `db:"job_date"`
	VoucherNo        string      `db:"voucher_no"`
	LineNo           int         `db:"line_no"`
	Category         int         `db:"category"`
	UnitCode         string      `db:"unit_code"`
	Quantity         int64       `db:"quantity"`
	UnitPrice        types.Money `db:"unit_price"`
	Amount           types.Money `db:"amount"`
}

// ListByJobDate returns the day's adjustment lines in voucher order.
func (r *AdjustmentRepo) ListByJobDate(ctx context.Context, jobDate time.Time) ([]voucher.AdjustmentLine, error) {
	sql, args, err := r.builder.Select(
		"product_code", "grade_code", "class_code", "shipping_mark_code", "shipping_mark_name",
		"job_date", "voucher_no", "line_no", "category",
		"unit_code", "quantity", "unit_price", "amount",
	).
		From(adjustmentTable).
		Where(squirrel.Eq{"job_date": jobDate}).
		OrderBy("voucher_no", "line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []adjustmentRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select adjustment vouchers: %w", err)
	}

	lines := make([]voucher.AdjustmentLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, voucher.AdjustmentLine{
			Key:       key.New(row.ProductCode, row.GradeCode, row.ClassCode, row.ShippingMarkCode, row.ShippingMarkName),
			JobDate:   row.JobDate,
			VoucherNo: row.VoucherNo,
			LineNo:    row.LineNo,
			Category:  voucher.AdjustmentCategory(row.Category),
			UnitCode:  row.UnitCode,
			Quantity:  types.NewQuantityFromInt64Scaled(row.Quantity),
			UnitPrice: row.UnitPrice,
			Amount:    row.Amount,
		})
	}
	return lines, nil
}
