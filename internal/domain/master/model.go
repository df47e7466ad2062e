// Package master provides read-only models of the permanent master stores.
// The engine never mutates master data; it reads the inventory master for
// snapshot bootstrap and the counterparty masters for incentive eligibility
// and walking-discount rates.
package master

import (
	"time"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
)

// InventoryItem is one row of the permanent inventory master.
type InventoryItem struct {
	Key key.Key

	ProductName   string
	CategoryCode  string
	UnitCode      string
	StandardPrice types.Money

	// Current stock carried on the master; becomes the previous-day
	// carry-forward of a freshly built snapshot when no prior-day snapshot
	// exists.
	StockQuantity   types.Quantity
	StockAmount     types.Money
	StockUnitPrice  types.Money
	LastReceiptDate *time.Time
}

// Customer is one row of the customer master. WalkingRate is the
// customer-specific discount rate applied to sales amounts.
type Customer struct {
	Code        string
	Name        string
	WalkingRate types.Money
}

// Supplier is one row of the supplier master. IncentiveEligible is a fixed
// categorical attribute, not derived. A zero IncentiveRate on an eligible
// supplier falls back to the default rate.
type Supplier struct {
	Code              string
	Name              string
	IncentiveEligible bool
	IncentiveRate     types.Money
}
