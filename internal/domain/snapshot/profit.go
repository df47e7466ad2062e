package snapshot

import (
	"context"
	"fmt"
	"time"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
	"cpstock/internal/domain/master"
	"cpstock/internal/domain/voucher"
	"cpstock/pkg/logger"
)

// DefaultIncentiveRate applies to incentive-eligible suppliers whose master
// row carries no explicit rate.
var DefaultIncentiveRate = types.MustMoney("0.01")

// Profit computes per-line gross profit on sales, customer-specific walking
// discounts, and supplier incentives, and rolls them into the snapshot.
type Profit struct {
	repo      Repository
	sales     voucher.SalesRepository
	purchases voucher.PurchaseRepository
	customers master.CustomerRepository
	suppliers master.SupplierRepository
}

// NewProfit creates the profit and incentive calculator.
func NewProfit(
	repo Repository,
	sales voucher.SalesRepository,
	purchases voucher.PurchaseRepository,
	customers master.CustomerRepository,
	suppliers master.SupplierRepository,
) *Profit {
	return &Profit{
		repo:      repo,
		sales:     sales,
		purchases: purchases,
		customers: customers,
		suppliers: suppliers,
	}
}

// LineGrossProfit computes gross profit for one sales line against the
// inventory unit price at time of sale. A zero quantity always yields zero;
// no division is involved, so there is nothing to propagate.
func LineGrossProfit(salesUnitPrice, inventoryUnitPrice types.Money, quantity types.Quantity) types.Money {
	if quantity == 0 {
		return types.Zero()
	}
	return types.Round2(salesUnitPrice.Sub(inventoryUnitPrice).Mul(quantity.Decimal()))
}

// ComputeGrossProfit derives daily gross profit, walking amount and incentive
// for every row of jobDate. Runs after costing: the inventory unit price at
// time of sale is the row's computed moving-average unit cost.
func (p *Profit) ComputeGrossProfit(ctx context.Context, jobDate time.Time) (int, error) {
	rows, err := p.repo.ListByDate(ctx, jobDate)
	if err != nil {
		return 0, fmt.Errorf("list snapshot rows: %w", err)
	}
	index := make(map[key.Key]int, len(rows))
	for i := range rows {
		index[rows[i].Key] = i
		rows[i].Daily.GrossProfit = types.Zero()
		rows[i].Daily.WalkingAmount = types.Zero()
		rows[i].Daily.IncentiveAmount = types.Zero()
	}

	walkingRates, err := p.walkingRates(ctx)
	if err != nil {
		return 0, err
	}
	incentiveRates, err := p.incentiveRates(ctx)
	if err != nil {
		return 0, err
	}

	salesLines, err := p.sales.ListByJobDate(ctx, jobDate)
	if err != nil {
		return 0, fmt.Errorf("list sales vouchers: %w", err)
	}
	for _, l := range salesLines {
		i, ok := index[l.Key]
		if !ok || l.DetailType != voucher.DetailProduct {
			continue
		}
		row := &rows[i]
		row.Daily.GrossProfit = row.Daily.GrossProfit.Add(
			LineGrossProfit(l.UnitPrice, row.StockUnitPrice, l.Quantity))
		if rate, ok := walkingRates[l.CustomerCode]; ok && !rate.IsZero() {
			row.Daily.WalkingAmount = row.Daily.WalkingAmount.Add(types.Round2(l.Amount.Mul(rate)))
		}
	}

	purchaseLines, err := p.purchases.ListByJobDate(ctx, jobDate)
	if err != nil {
		return 0, fmt.Errorf("list purchase vouchers: %w", err)
	}
	for _, l := range purchaseLines {
		i, ok := index[l.Key]
		if !ok || l.DetailType != voucher.DetailProduct {
			continue
		}
		rate, eligible := incentiveRates[l.SupplierCode]
		if !eligible {
			continue
		}
		rows[i].Daily.IncentiveAmount = rows[i].Daily.IncentiveAmount.Add(types.Round2(l.Amount.Mul(rate)))
	}

	count, err := p.repo.UpdateRows(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("update snapshot rows: %w", err)
	}

	logger.Info(ctx, "gross profit computed",
		"rows", count,
		"sales_lines", len(salesLines),
		"purchase_lines", len(purchaseLines),
	)
	return count, nil
}

// walkingRates indexes customer discount rates by customer code.
func (p *Profit) walkingRates(ctx context.Context) (map[string]types.Money, error) {
	customers, err := p.customers.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customer master: %w", err)
	}
	rates := make(map[string]types.Money, len(customers))
	for _, c := range customers {
		rates[c.Code] = c.WalkingRate
	}
	return rates, nil
}

// incentiveRates indexes incentive rates by supplier code; only eligible
// suppliers appear, with the default rate filled in where the master carries
// none.
func (p *Profit) incentiveRates(ctx context.Context) (map[string]types.Money, error) {
	suppliers, err := p.suppliers.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list supplier master: %w", err)
	}
	rates := make(map[string]types.Money, len(suppliers))
	for _, s := range suppliers {
		if !s.IncentiveEligible {
			continue
		}
		rate := s.IncentiveRate
		if rate.IsZero() {
			rate = DefaultIncentiveRate
		}
		rates[s.Code] = rate
	}
	return rates, nil
}
