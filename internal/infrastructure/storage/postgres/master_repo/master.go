// Package master_repo provides PostgreSQL implementations of the read-only
// master repositories.
package master_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
	"cpstock/internal/domain/master"
	"cpstock/internal/infrastructure/storage/postgres"
)

const (
	inventoryTable = "inventory_master"
	customerTable  = "customer_master"
	supplierTable  = "supplier_master"
)

var (
	_ master.InventoryRepository = (*InventoryRepo)(nil)
	_ master.CustomerRepository  = (*CustomerRepo)(nil)
	_ master.SupplierRepository  = (*SupplierRepo)(nil)
)

// InventoryRepo reads the permanent inventory master.
type InventoryRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewInventoryRepo creates the inventory master repository.
func NewInventoryRepo(txm *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

type inventoryRow struct {
	ProductCode      string      `db:"product_code"`
	GradeCode        string      `db:"grade_code"`
	ClassCode        string      `db:"class_code"`
	ShippingMarkCode string      `db:"shipping_mark_code"`
	ShippingMarkName string      `db:"shipping_mark_name"`
	ProductName      string      `db:"product_name"`
	CategoryCode     string      `db:"category_code"`
	UnitCode         string      `db:"unit_code"`
	StandardPrice    types.Money `db:"standard_price"`
	StockQuantity    int64       `db:"stock_quantity"`
	StockAmount      types.Money `db:"stock_amount"`
	StockUnitPrice   types.Money `db:"stock_unit_price"`
	LastReceiptDate  *time.Time  `db:"last_receipt_date"`
}

// ListAll returns every master row for snapshot bootstrap.
func (r *InventoryRepo) ListAll(ctx context.Context) ([]master.InventoryItem, error) {
	sql, args, err := r.builder.Select(
		"product_code", "grade_code", "class_code", "shipping_mark_code", "shipping_mark_name",
		"product_name", "category_code", "unit_code", "standard_price",
		"stock_quantity", "stock_amount", "stock_unit_price", "last_receipt_date",
	).
		From(inventoryTable).
		OrderBy("product_code", "grade_code", "class_code", "shipping_mark_code", "shipping_mark_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []inventoryRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select inventory master: %w", err)
	}

	items := make([]master.InventoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, master.InventoryItem{
			Key:             key.New(row.ProductCode, row.GradeCode, row.ClassCode, row.ShippingMarkCode, row.ShippingMarkName),
			ProductName:     row.ProductName,
			CategoryCode:    row.CategoryCode,
			UnitCode:        row.UnitCode,
			StandardPrice:   row.StandardPrice,
			StockQuantity:   types.NewQuantityFromInt64Scaled(row.StockQuantity),
			StockAmount:     row.StockAmount,
			StockUnitPrice:  row.StockUnitPrice,
			LastReceiptDate: row.LastReceiptDate,
		})
	}
	return items, nil
}

// CustomerRepo reads the customer master.
type CustomerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCustomerRepo creates the customer master repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

type customerRow struct {
	Code        string      `db:"code"`
	Name        string      `db:"name"`
	WalkingRate types.Money `db:"walking_rate"`
}

// ListAll returns all customers.
func (r *CustomerRepo) ListAll(ctx context.Context) ([]master.Customer, error) {
	sql, args, err := r.builder.Select("code", "name", "walking_rate").
		From(customerTable).
		OrderBy("code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []customerRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select customer master: %w", err)
	}

	customers := make([]master.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, master.Customer{
			Code:        row.Code,
			Name:        row.Name,
			WalkingRate: row.WalkingRate,
		})
	}
	return customers, nil
}

// SupplierRepo reads the supplier master.
type SupplierRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewSupplierRepo creates the supplier master repository.
func NewSupplierRepo(txm *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

type supplierRow struct {
	Code              string      `db:"code"`
	Name              string      `db:"name"`
	IncentiveEligible bool        `db:"incentive_eligible"`
	IncentiveRate     types.Money `db:"incentive_rate"`
}

// ListAll returns all suppliers.
func (r *SupplierRepo) ListAll(ctx context.Context) ([]master.Supplier, error) {
	sql, args, err := r.builder.Select("code", "name", "incentive_eligible", "incentive_rate").
		From(supplierTable).
		OrderBy("code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []supplierRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select supplier master: %w", err)
	}

	suppliers := make([]master.Supplier, 0, len(rows))
	for _, row := range rows {
		suppliers = append(suppliers, master.Supplier{
			Code:              row.Code,
			Name:              row.Name,
			IncentiveEligible: row.IncentiveEligible,
			IncentiveRate:     row.IncentiveRate,
		})
	}
	return suppliers, nil
}
