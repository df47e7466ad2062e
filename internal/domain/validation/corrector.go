package validation

import (
	"context"
	"fmt"
	"time"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
	"cpstock/internal/domain/snapshot"
	"cpstock/pkg/logger"
)

// Corrector deterministically repairs correctable validation issues.
// Negative-stock and margin-rate issues are deliberately left alone: silently
// rewriting them would mask real business exceptions.
type Corrector struct {
	repo snapshot.Repository
}

// NewCorrector creates the snapshot corrector.
func NewCorrector(repo snapshot.Repository) *Corrector {
	return &Corrector{repo: repo}
}

// ApplyCorrections repairs the issues of one validation run. Corrections are
// grouped by identity key and written back as batched updates; orphan rows
// are deleted. Returns the number of corrections applied.
func (c *Corrector) ApplyCorrections(ctx context.Context, jobDate time.Time, result Result) (int, error) {
	rows, err := c.repo.ListByDate(ctx, jobDate)
	if err != nil {
		return 0, fmt.Errorf("list snapshot rows: %w", err)
	}
	index := make(map[key.Key]int, len(rows))
	for i := range rows {
		index[rows[i].Key] = i
	}

	previous, err := c.repo.ListByDate(ctx, jobDate.AddDate(0, 0, -1))
	if err != nil {
		return 0, fmt.Errorf("list previous day rows: %w", err)
	}
	priorByKey := make(map[key.Key]snapshot.Row, len(previous))
	for _, p := range previous {
		priorByKey[p.Key] = p
	}

	corrected := 0
	touched := make(map[key.Key]struct{})
	deleted := make(map[key.Key]struct{})

	for _, issue := range result.Issues {
		i, ok := index[issue.Key]
		if !ok {
			continue
		}
		if _, gone := deleted[issue.Key]; gone {
			continue
		}
		row := &rows[i]

		switch issue.Rule {
		case RulePriceEquality:
			// Previous-day unit price wins when available; otherwise fall
			// back to the moving-average formula.
			if !row.PreviousUnitPrice.IsZero() {
				row.StockUnitPrice = row.PreviousUnitPrice
				row.StockAmount = types.Round4(row.StockQuantity.Decimal().Mul(row.StockUnitPrice))
			} else {
				*row = snapshot.ComputeUnitCostRow(*row)
			}
			touched[issue.Key] = struct{}{}
			corrected++

		case RuleAmountMismatch, RuleZeroConsistency:
			row.StockAmount = types.Round4(row.StockQuantity.Decimal().Mul(row.StockUnitPrice))
			touched[issue.Key] = struct{}{}
			corrected++

		case RuleOrphanRow:
			if err := c.repo.DeleteRow(ctx, jobDate, issue.Key); err != nil {
				return corrected, fmt.Errorf("delete orphan row: %w", err)
			}
			deleted[issue.Key] = struct{}{}
			delete(touched, issue.Key)
			corrected++

		case RuleContinuity:
			prior, ok := priorByKey[issue.Key]
			if !ok {
				continue
			}
			row.PreviousQuantity = prior.StockQuantity
			row.PreviousAmount = prior.StockAmount
			row.PreviousUnitPrice = prior.StockUnitPrice
			touched[issue.Key] = struct{}{}
			corrected++

		case RuleNegativeStock, RuleMarginRate:
			// Flagged only, by explicit business decision.
		}
	}

	updated := make([]snapshot.Row, 0, len(touched))
	for i := range rows {
		if _, gone := deleted[rows[i].Key]; gone {
			continue
		}
		if _, ok := touched[rows[i].Key]; ok {
			updated = append(updated, rows[i])
		}
	}
	if len(updated) > 0 {
		if _, err := c.repo.UpdateRows(ctx, updated); err != nil {
			return corrected, fmt.Errorf("update corrected rows: %w", err)
		}
	}

	logger.Info(ctx, "corrections applied",
		"corrected", corrected,
		"rows_updated", len(updated),
		"rows_deleted", len(deleted),
	)
	return corrected, nil
}
