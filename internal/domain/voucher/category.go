package voucher

// AdjustmentCategory is the classification code carried on adjustment lines.
// The enumeration is closed: adding a category is a compile-time-checked
// change with an explicit default arm for undefined codes.
type AdjustmentCategory int

const (
	CategoryStocktaking   AdjustmentCategory = 0
	CategoryProcessing    AdjustmentCategory = 1
	CategoryUnclassified2 AdjustmentCategory = 2 // meaning unconfirmed upstream
	CategoryUnclassified3 AdjustmentCategory = 3 // meaning unconfirmed upstream
	CategoryTransfer      AdjustmentCategory = 4
	CategoryUnclassified5 AdjustmentCategory = 5 // meaning unconfirmed upstream
	CategoryMiscellaneous AdjustmentCategory = 6
)

// Bucket is the aggregation target of an adjustment line.
type Bucket int

const (
	// BucketAdjustment collects the generic inventory adjustment columns.
	BucketAdjustment Bucket = iota
	// BucketTransfer collects the transfer columns.
	BucketTransfer
)

// IsDefined reports whether the category is one of the known codes.
// Undefined codes still aggregate (into the adjustment bucket); they never
// fail the batch.
func (c AdjustmentCategory) IsDefined() bool {
	return c >= CategoryStocktaking && c <= CategoryMiscellaneous
}

// IsUnclassified reports whether the category is carried as an explicit
// "unclassified" variant: the code exists in the extracts but its business
// meaning is unconfirmed.
func (c AdjustmentCategory) IsUnclassified() bool {
	switch c {
	case CategoryUnclassified2, CategoryUnclassified3, CategoryUnclassified5:
		return true
	}
	return false
}

// RouteBucket resolves the aggregation bucket: transfers go to the transfer
// columns, every other defined code and any undefined code defaults to the
// generic adjustment columns.
func (c AdjustmentCategory) RouteBucket() Bucket {
	if c == CategoryTransfer {
		return BucketTransfer
	}
	return BucketAdjustment
}
