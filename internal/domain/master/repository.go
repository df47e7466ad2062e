package master

import (
	"context"
)

// InventoryRepository reads the permanent inventory master.
type InventoryRepository interface {
	// ListAll returns every master row for snapshot bootstrap.
	ListAll(ctx context.Context) ([]InventoryItem, error)
}

// CustomerRepository reads the customer master.
type CustomerRepository interface {
	ListAll(ctx context.Context) ([]Customer, error)
}

// SupplierRepository reads the supplier master.
type SupplierRepository interface {
	ListAll(ctx context.Context) ([]Supplier, error)
}
