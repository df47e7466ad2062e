package voucher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cpstock/internal/domain/key"
)

func TestAdjustmentCategory_RouteBucket(t *testing.T) {
	tests := []struct {
		name     string
		category AdjustmentCategory
		want     Bucket
	}{
		{"stocktaking routes to adjustment", CategoryStocktaking, BucketAdjustment},
		{"processing routes to adjustment", CategoryProcessing, BucketAdjustment},
		{"unclassified 2 routes to adjustment", CategoryUnclassified2, BucketAdjustment},
		{"unclassified 3 routes to adjustment", CategoryUnclassified3, BucketAdjustment},
		{"transfer routes to transfer", CategoryTransfer, BucketTransfer},
		{"unclassified 5 routes to adjustment", CategoryUnclassified5, BucketAdjustment},
		{"miscellaneous routes to adjustment", CategoryMiscellaneous, BucketAdjustment},
		{"undefined code defaults to adjustment", AdjustmentCategory(9), BucketAdjustment},
		{"negative code defaults to adjustment", AdjustmentCategory(-1), BucketAdjustment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.RouteBucket())
		})
	}
}

func TestAdjustmentCategory_IsDefined(t *testing.T) {
	for c := CategoryStocktaking; c <= CategoryMiscellaneous; c++ {
		assert.True(t, c.IsDefined(), "category %d", c)
	}
	assert.False(t, AdjustmentCategory(7).IsDefined())
	assert.False(t, AdjustmentCategory(-1).IsDefined())
}

func TestAdjustmentCategory_IsUnclassified(t *testing.T) {
	assert.True(t, CategoryUnclassified2.IsUnclassified())
	assert.True(t, CategoryUnclassified3.IsUnclassified())
	assert.True(t, CategoryUnclassified5.IsUnclassified())
	assert.False(t, CategoryTransfer.IsUnclassified())
	assert.False(t, CategoryStocktaking.IsUnclassified())
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		name string
		k    key.Key
		want bool
	}{
		{"EXIT mark name prefix", key.New("1", "1", "1", "0001", "EXIT0001"), true},
		{"blocked mark code", key.New("1", "1", "1", "9900", "mark"), true},
		{"blocked mark code 9990", key.New("1", "1", "1", "9990", "mark"), true},
		{"regular line", key.New("1", "1", "1", "0001", "mark"), false},
		{"EXIT not at prefix", key.New("1", "1", "1", "0001", "xEXIT"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Excluded(tt.k))
		})
	}
}

func TestAdjustmentLine_HasValidUnitCode(t *testing.T) {
	valid := []string{"01", "02", "03", "04", "05", "06"}
	for _, code := range valid {
		assert.True(t, AdjustmentLine{UnitCode: code}.HasValidUnitCode(), "unit code %s", code)
	}
	for _, code := range []string{"00", "07", "", "1", "ZZ"} {
		assert.False(t, AdjustmentLine{UnitCode: code}.HasValidUnitCode(), "unit code %q", code)
	}
}
