package voucher

import (
	"context"
	"time"
)

// SalesRepository reads imported sales voucher lines.
type SalesRepository interface {
	ListByJobDate(ctx context.Context, jobDate time.Time) ([]SalesLine, error)
}

// PurchaseRepository reads imported purchase voucher lines.
type PurchaseRepository interface {
	ListByJobDate(ctx context.Context, jobDate time.Time) ([]PurchaseLine, error)
}

// AdjustmentRepository reads imported inventory adjustment voucher lines.
type AdjustmentRepository interface {
	ListByJobDate(ctx context.Context, jobDate time.Time) ([]AdjustmentLine, error)
}
