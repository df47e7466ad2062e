package validation

import (
	"context"
	"fmt"
	"time"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
	"cpstock/internal/domain/snapshot"
	"cpstock/internal/domain/voucher"
	"cpstock/pkg/logger"
)

// epsilon is the tolerance for amount and unit-price comparisons. Stored
// amounts are rounded at 4 decimal places; anything beyond a currency cent
// is a real inconsistency, not rounding noise.
var epsilon = types.MustMoney("0.01")

// Margin-rate bands. A negative margin or one above the upper bound is an
// error; the band between warn and upper is a warning.
var (
	marginWarnRate  = types.NewMoney(50)
	marginUpperRate = types.NewMoney(80)
)

// Validator evaluates the seven consistency rule families over a completed
// snapshot. Detection never mutates; repairs belong to the Corrector.
type Validator struct {
	repo        snapshot.Repository
	sales       voucher.SalesRepository
	purchases   voucher.PurchaseRepository
	adjustments voucher.AdjustmentRepository
}

// NewValidator creates the snapshot validator.
func NewValidator(
	repo snapshot.Repository,
	sales voucher.SalesRepository,
	purchases voucher.PurchaseRepository,
	adjustments voucher.AdjustmentRepository,
) *Validator {
	return &Validator{
		repo:        repo,
		sales:       sales,
		purchases:   purchases,
		adjustments: adjustments,
	}
}

// Validate runs every rule family over the snapshot of jobDate. A non-empty
// departmentFilter restricts validation to rows of that category code.
func (v *Validator) Validate(ctx context.Context, jobDate time.Time, departmentFilter string) (Result, error) {
	result := Result{JobDate: jobDate}

	rows, err := v.repo.ListByDate(ctx, jobDate)
	if err != nil {
		return result, fmt.Errorf("list snapshot rows: %w", err)
	}
	if departmentFilter != "" {
		filtered := rows[:0]
		for _, r := range rows {
			if r.CategoryCode == departmentFilter {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	result.TotalRecords = len(rows)

	previous, err := v.repo.ListByDate(ctx, jobDate.AddDate(0, 0, -1))
	if err != nil {
		return result, fmt.Errorf("list previous day rows: %w", err)
	}
	priorByKey := make(map[key.Key]snapshot.Row, len(previous))
	for _, p := range previous {
		priorByKey[p.Key] = p
	}

	salesByKey, voucherKeys, err := v.loadVoucherIndex(ctx, jobDate)
	if err != nil {
		return result, err
	}

	for _, r := range rows {
		v.checkPriceEquality(&result, r, salesByKey[r.Key])
		v.checkAmountQuantity(&result, r)
		v.checkZeroConsistency(&result, r)
		v.checkOrphan(&result, r, voucherKeys)
		v.checkNegativeStock(&result, r)
		v.checkMarginRate(&result, r)
		v.checkContinuity(&result, r, priorByKey)
	}

	logger.Info(ctx, "snapshot validated",
		"records", result.TotalRecords,
		"errors", result.ErrorCount,
		"warnings", result.WarningCount,
	)
	return result, nil
}

// loadVoucherIndex returns the day's product sales lines grouped by key and
// the set of keys that have any voucher line at all (for the orphan rule).
func (v *Validator) loadVoucherIndex(ctx context.Context, jobDate time.Time) (map[key.Key][]voucher.SalesLine, map[key.Key]struct{}, error) {
	keys := make(map[key.Key]struct{})

	salesLines, err := v.sales.ListByJobDate(ctx, jobDate)
	if err != nil {
		return nil, nil, fmt.Errorf("list sales vouchers: %w", err)
	}
	salesByKey := make(map[key.Key][]voucher.SalesLine)
	for _, l := range salesLines {
		keys[l.Key] = struct{}{}
		if l.DetailType == voucher.DetailProduct {
			salesByKey[l.Key] = append(salesByKey[l.Key], l)
		}
	}

	purchaseLines, err := v.purchases.ListByJobDate(ctx, jobDate)
	if err != nil {
		return nil, nil, fmt.Errorf("list purchase vouchers: %w", err)
	}
	for _, l := range purchaseLines {
		keys[l.Key] = struct{}{}
	}

	adjustmentLines, err := v.adjustments.ListByJobDate(ctx, jobDate)
	if err != nil {
		return nil, nil, fmt.Errorf("list adjustment vouchers: %w", err)
	}
	for _, l := range adjustmentLines {
		keys[l.Key] = struct{}{}
	}

	return salesByKey, keys, nil
}

// checkPriceEquality flags rows whose computed unit price equals a sales
// unit price for the same key: the signature of sales price leaking into
// cost instead of the moving average.
func (v *Validator) checkPriceEquality(result *Result, r snapshot.Row, lines []voucher.SalesLine) {
	if r.StockUnitPrice.IsZero() {
		return
	}
	for _, l := range lines {
		if l.UnitPrice.IsZero() || l.Quantity == 0 {
			continue
		}
		if r.StockUnitPrice.Sub(l.UnitPrice).Abs().LessThan(epsilon) {
			result.add(Issue{
				Rule:        RulePriceEquality,
				Severity:    SeverityError,
				Key:         r.Key,
				Actual:      money(r.StockUnitPrice),
				Description: "daily unit price equals a sales unit price; cost was not derived from the moving average",
			})
			return
		}
	}
}

func (v *Validator) checkAmountQuantity(result *Result, r snapshot.Row) {
	if r.StockQuantity == 0 {
		return
	}
	expected := types.Round4(r.StockQuantity.Decimal().Mul(r.StockUnitPrice))
	diff := r.StockAmount.Sub(expected).Abs()
	if diff.GreaterThan(epsilon) {
		result.add(Issue{
			Rule:        RuleAmountMismatch,
			Severity:    SeverityError,
			Key:         r.Key,
			Expected:    money(expected),
			Actual:      money(r.StockAmount),
			Difference:  money(diff),
			Description: "daily stock amount does not equal quantity x unit price",
		})
	}
}

func (v *Validator) checkZeroConsistency(result *Result, r snapshot.Row) {
	zeroQty := r.StockQuantity == 0
	zeroAmount := r.StockAmount.IsZero()
	if zeroQty == zeroAmount {
		return
	}
	result.add(Issue{
		Rule:        RuleZeroConsistency,
		Severity:    SeverityError,
		Key:         r.Key,
		Actual:      money(r.StockAmount),
		Description: "one of quantity and amount is zero while the other is not",
	})
}

func (v *Validator) checkOrphan(result *Result, r snapshot.Row, voucherKeys map[key.Key]struct{}) {
	if !r.Daily.HasMovement() {
		return
	}
	if _, ok := voucherKeys[r.Key]; ok {
		return
	}
	result.add(Issue{
		Rule:        RuleOrphanRow,
		Severity:    SeverityError,
		Key:         r.Key,
		Description: "row carries movement totals but no voucher lines exist for the key and date",
	})
}

// checkNegativeStock records negative stock as a warning. The quantity sign
// can be legitimate in this domain, so the rule never blocks reporting and
// is never auto-corrected.
func (v *Validator) checkNegativeStock(result *Result, r snapshot.Row) {
	if r.StockQuantity >= 0 {
		return
	}
	result.add(Issue{
		Rule:        RuleNegativeStock,
		Severity:    SeverityWarning,
		Key:         r.Key,
		Actual:      money(r.StockQuantity.Decimal()),
		Description: "daily stock quantity is negative",
	})
}

func (v *Validator) checkMarginRate(result *Result, r snapshot.Row) {
	rate, ok := r.GrossMarginRate()
	if !ok {
		return
	}
	switch {
	case rate.IsNegative() || rate.GreaterThan(marginUpperRate):
		result.add(Issue{
			Rule:        RuleMarginRate,
			Severity:    SeverityError,
			Key:         r.Key,
			Actual:      money(rate),
			Description: "gross margin rate outside the plausible band",
		})
	case rate.GreaterThan(marginWarnRate):
		result.add(Issue{
			Rule:        RuleMarginRate,
			Severity:    SeverityWarning,
			Key:         r.Key,
			Actual:      money(rate),
			Description: "gross margin rate unusually high",
		})
	}
}

func (v *Validator) checkContinuity(result *Result, r snapshot.Row, priorByKey map[key.Key]snapshot.Row) {
	prior, ok := priorByKey[r.Key]
	if !ok {
		return
	}
	if r.PreviousQuantity == prior.StockQuantity &&
		r.PreviousAmount.Sub(prior.StockAmount).Abs().LessThanOrEqual(epsilon) &&
		r.PreviousUnitPrice.Sub(prior.StockUnitPrice).Abs().LessThanOrEqual(epsilon) {
		return
	}
	result.add(Issue{
		Rule:        RuleContinuity,
		Severity:    SeverityError,
		Key:         r.Key,
		Expected:    money(prior.StockAmount),
		Actual:      money(r.PreviousAmount),
		Description: "previous-day carry-forward does not match the prior day's daily stock",
	})
}
