// Package voucher provides the imported voucher line models (sales, purchase,
// inventory adjustment). Lines are immutable once imported; the engine only
// reads them, scoped by job date.
package voucher

import (
	"time"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
)

// DetailType classifies a sales or purchase line.
type DetailType int

const (
	DetailProduct  DetailType = 1
	DetailReturn   DetailType = 2
	DetailDiscount DetailType = 3
)

// IsDefined reports whether the detail type is one of the known variants.
func (d DetailType) IsDefined() bool {
	switch d {
	case DetailProduct, DetailReturn, DetailDiscount:
		return true
	}
	return false
}

// SalesLine is one line of an imported sales voucher.
// Voucher number + line number form the composite natural key.
type SalesLine struct {
	Key          key.Key
	JobDate      time.Time
	VoucherNo    string
	LineNo       int
	DetailType   DetailType
	Quantity     types.Quantity
	UnitPrice    types.Money
	Amount       types.Money
	CustomerCode string
	CustomerName string
}

// IsExcluded reports whether the line is removed from unmatch and ledger
// reporting. Excluded lines still participate in snapshot aggregation.
func (l SalesLine) IsExcluded() bool { return Excluded(l.Key) }

// PurchaseLine is one line of an imported purchase voucher.
type PurchaseLine struct {
	Key          key.Key
	JobDate      time.Time
	VoucherNo    string
	LineNo       int
	DetailType   DetailType
	Quantity     types.Quantity
	UnitPrice    types.Money
	Amount       types.Money
	SupplierCode string
	SupplierName string
}

// IsExcluded reports whether the line is removed from unmatch and ledger
// reporting. Excluded lines still participate in snapshot aggregation.
func (l PurchaseLine) IsExcluded() bool { return Excluded(l.Key) }

// AdjustmentLine is one line of an imported inventory adjustment voucher.
// Category routes the line into the transfer or adjustment bucket; UnitCode
// must be inside the valid set or the line is rejected.
type AdjustmentLine struct {
	Key       key.Key
	JobDate   time.Time
	VoucherNo string
	LineNo    int
	Category  AdjustmentCategory
	UnitCode  string
	Quantity  types.Quantity
	UnitPrice types.Money
	Amount    types.Money
}

// IsExcluded reports whether the line is removed from unmatch and ledger
// reporting. Excluded lines still participate in snapshot aggregation.
func (l AdjustmentLine) IsExcluded() bool { return Excluded(l.Key) }

// HasValidUnitCode reports whether the unit code is inside the fixed valid
// set {01..06}. Lines outside the set are skipped and counted as rejected.
func (l AdjustmentLine) HasValidUnitCode() bool {
	switch l.UnitCode {
	case "01", "02", "03", "04", "05", "06":
		return true
	}
	return false
}
