package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/master"
	"cpstock/internal/domain/voucher"
)

func TestLineGrossProfit(t *testing.T) {
	// Sales at 15.00 against moving-average cost 10.6667 for 30 units.
	got := LineGrossProfit(types.NewMoney(15), types.MustMoney("10.6667"), types.NewQuantityFromFloat64(30))
	assert.True(t, got.Equal(types.NewMoney(130)), "got %s", got)
}

func TestLineGrossProfit_ZeroQuantity(t *testing.T) {
	got := LineGrossProfit(types.NewMoney(15), types.Zero(), 0)
	assert.True(t, got.IsZero())

	// Zero cost with zero quantity must not produce anything but zero.
	got = LineGrossProfit(types.Zero(), types.Zero(), 0)
	assert.True(t, got.IsZero())
}

func TestComputeGrossProfit_RollsUpProfitWalkingAndIncentive(t *testing.T) {
	repo := newMemRepo()
	r := pendingRow(apple, jobDate)
	r.StockUnitPrice = types.MustMoney("10.6667")
	repo.put(r)

	sales := &fakeSales{lines: []voucher.SalesLine{
		{Key: apple, JobDate: jobDate, DetailType: voucher.DetailProduct,
			Quantity: types.NewQuantityFromFloat64(30), UnitPrice: types.NewMoney(15),
			Amount: types.NewMoney(450), CustomerCode: "C001"},
		// Return lines carry no gross profit of their own.
		{Key: apple, JobDate: jobDate, DetailType: voucher.DetailReturn,
			Quantity: types.NewQuantityFromFloat64(5), UnitPrice: types.NewMoney(15),
			Amount: types.NewMoney(75), CustomerCode: "C001"},
	}}
	purchases := &fakePurchases{lines: []voucher.PurchaseLine{
		{Key: apple, JobDate: jobDate, DetailType: voucher.DetailProduct,
			Quantity: types.NewQuantityFromFloat64(50), Amount: types.NewMoney(600),
			SupplierCode: "S001"},
		{Key: apple, JobDate: jobDate, DetailType: voucher.DetailProduct,
			Quantity: types.NewQuantityFromFloat64(10), Amount: types.NewMoney(120),
			SupplierCode: "S002"},
	}}
	customers := &fakeCustomers{customers: []master.Customer{
		{Code: "C001", Name: "Central Market", WalkingRate: types.MustMoney("0.02")},
	}}
	suppliers := &fakeSuppliers{suppliers: []master.Supplier{
		// Eligible with no explicit rate: default 1% applies.
		{Code: "S001", Name: "North Farm", IncentiveEligible: true},
		{Code: "S002", Name: "South Farm", IncentiveEligible: false},
	}}

	p := NewProfit(repo, sales, purchases, customers, suppliers)
	count, err := p.ComputeGrossProfit(context.Background(), jobDate)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	row := repo.get(jobDate, apple)
	assert.True(t, row.Daily.GrossProfit.Equal(types.NewMoney(130)), "got %s", row.Daily.GrossProfit)
	// Walking: 2% of the 450.00 product line.
	assert.True(t, row.Daily.WalkingAmount.Equal(types.NewMoney(9)), "got %s", row.Daily.WalkingAmount)
	// Incentive: default 1% of 600.00 from the eligible supplier only.
	assert.True(t, row.Daily.IncentiveAmount.Equal(types.NewMoney(6)), "got %s", row.Daily.IncentiveAmount)
	// Net margin is gross profit less the walking discount.
	assert.True(t, row.NetGrossProfit().Equal(types.NewMoney(121)))
}

func TestComputeGrossProfit_SupplierRateOverride(t *testing.T) {
	repo := newMemRepo()
	r := pendingRow(apple, jobDate)
	repo.put(r)

	purchases := &fakePurchases{lines: []voucher.PurchaseLine{
		{Key: apple, JobDate: jobDate, DetailType: voucher.DetailProduct,
			Amount: types.NewMoney(1000), SupplierCode: "S001"},
	}}
	suppliers := &fakeSuppliers{suppliers: []master.Supplier{
		{Code: "S001", IncentiveEligible: true, IncentiveRate: types.MustMoney("0.025")},
	}}

	p := NewProfit(repo, &fakeSales{}, purchases, &fakeCustomers{}, suppliers)
	_, err := p.ComputeGrossProfit(context.Background(), jobDate)
	require.NoError(t, err)

	row := repo.get(jobDate, apple)
	assert.True(t, row.Daily.IncentiveAmount.Equal(types.NewMoney(25)), "got %s", row.Daily.IncentiveAmount)
}

func TestGrossMarginRate(t *testing.T) {
	r := Row{}
	r.Daily.SalesAmount = types.NewMoney(450)
	r.Daily.GrossProfit = types.NewMoney(130)

	rate, ok := r.GrossMarginRate()
	require.True(t, ok)
	assert.True(t, rate.Equal(types.MustMoney("28.89")), "got %s", rate)

	r.Daily.SalesAmount = types.Zero()
	_, ok = r.GrossMarginRate()
	assert.False(t, ok)
}
