// Package pipeline orchestrates the daily batch run: snapshot lifecycle,
// voucher aggregation, costing, profit roll-up, monthly totals and
// validation, each phase inside its own transaction.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"cpstock/internal/core/apperror"
	"cpstock/internal/core/batchctx"
	"cpstock/internal/core/tx"
	"cpstock/internal/domain/master"
	"cpstock/internal/domain/snapshot"
	"cpstock/internal/domain/validation"
	"cpstock/internal/domain/voucher"
	"cpstock/pkg/logger"
)

// Phase names, in canonical run order. They appear in logs, spans and
// phase-order errors.
const (
	PhaseCreateSnapshot       = "create_snapshot"
	PhaseClearDaily           = "clear_daily_area"
	PhaseAggregateSales       = "aggregate_sales"
	PhaseAggregatePurchases   = "aggregate_purchases"
	PhaseAggregateAdjustments = "aggregate_adjustments"
	PhaseComputeDailyStock    = "compute_daily_stock"
	PhaseComputeUnitCost      = "compute_unit_cost"
	PhaseComputeGrossProfit   = "compute_gross_profit"
	PhaseUpdateMonthly        = "update_monthly_totals"
	PhaseValidate             = "validate"
	PhaseApplyCorrections     = "apply_corrections"
)

const dateFormat = "2006-01-02"

// ledger tracks which phases have completed per job date, in memory for the
// lifetime of the engine. Aggregation phases consult it to refuse a re-run
// that would double-count, and derived phases consult it to refuse running
// before their inputs exist.
type ledger struct {
	mu      sync.Mutex
	done    map[string]map[string]bool
	results map[string]validation.Result
}

func newLedger() *ledger {
	return &ledger{
		done:    make(map[string]map[string]bool),
		results: make(map[string]validation.Result),
	}
}

func (l *ledger) reset(date string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.done[date] = make(map[string]bool)
	delete(l.results, date)
}

func (l *ledger) mark(date, phase string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done[date] == nil {
		l.done[date] = make(map[string]bool)
	}
	l.done[date][phase] = true
}

func (l *ledger) completed(date, phase string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done[date][phase]
}

func (l *ledger) setResult(date string, r validation.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results[date] = r
}

func (l *ledger) result(date string) (validation.Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.results[date]
	return r, ok
}

// Engine is the orchestration surface of the batch pipeline. Every phase
// method runs its work inside one transaction via the tx.Manager; a failure
// rolls back that phase only.
type Engine struct {
	txm    tx.Manager
	repo   snapshot.Repository
	ledger *ledger
	tracer trace.Tracer

	lifecycle  *snapshot.Lifecycle
	aggregator *snapshot.Aggregator
	costing    *snapshot.Costing
	profit     *snapshot.Profit
	monthly    *snapshot.Monthly
	validator  *validation.Validator
	corrector  *validation.Corrector
}

// NewEngine wires the pipeline from its repositories.
func NewEngine(
	txm tx.Manager,
	repo snapshot.Repository,
	inventory master.InventoryRepository,
	customers master.CustomerRepository,
	suppliers master.SupplierRepository,
	sales voucher.SalesRepository,
	purchases voucher.PurchaseRepository,
	adjustments voucher.AdjustmentRepository,
) *Engine {
	return &Engine{
		txm:        txm,
		repo:       repo,
		ledger:     newLedger(),
		tracer:     otel.Tracer("cpstock/pipeline"),
		lifecycle:  snapshot.NewLifecycle(repo, inventory),
		aggregator: snapshot.NewAggregator(repo, sales, purchases, adjustments),
		costing:    snapshot.NewCosting(repo),
		profit:     snapshot.NewProfit(repo, sales, purchases, customers, suppliers),
		monthly:    snapshot.NewMonthly(repo),
		validator:  validation.NewValidator(repo, sales, purchases, adjustments),
		corrector:  validation.NewCorrector(repo),
	}
}

// runPhase executes fn in one transaction under the phase's span and
// log scope, and records completion in the ledger.
func (e *Engine) runPhase(ctx context.Context, jobDate time.Time, phase string, fn func(ctx context.Context) error) error {
	ctx = batchctx.WithPhase(ctx, phase)
	ctx, span := e.tracer.Start(ctx, "pipeline."+phase)
	defer span.End()

	start := time.Now()
	if err := e.txm.RunInTransaction(ctx, fn); err != nil {
		span.RecordError(err)
		logger.Error(ctx, "phase failed", "error", err)
		if apperror.IsAppError(err) {
			return err
		}
		return apperror.NewDatabase(jobDate.Format(dateFormat), phase, err)
	}
	e.ledger.mark(jobDate.Format(dateFormat), phase)
	logger.Info(ctx, "phase completed", "elapsed", time.Since(start).String())
	return nil
}

// requireCompleted returns a phase-order error unless every named
// prerequisite has completed for the job date.
func (e *Engine) requireCompleted(jobDate time.Time, phase string, requires ...string) error {
	date := jobDate.Format(dateFormat)
	for _, req := range requires {
		if !e.ledger.completed(date, req) {
			return apperror.NewPhaseOrder(date, phase, req)
		}
	}
	return nil
}

// CreateSnapshot builds the day's snapshot rows from the inventory master,
// carrying forward the previous day's closing position. Any earlier rows for
// the date are replaced and the phase ledger restarts for the date.
func (e *Engine) CreateSnapshot(ctx context.Context, jobDate time.Time) (int, error) {
	var created int
	err := e.runPhase(ctx, jobDate, PhaseCreateSnapshot, func(ctx context.Context) error {
		var err error
		created, err = e.lifecycle.CreateFromInventoryMaster(ctx, jobDate)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.ledger.reset(jobDate.Format(dateFormat))
	e.ledger.mark(jobDate.Format(dateFormat), PhaseCreateSnapshot)
	return created, nil
}

// ClearDailyArea zeroes the daily columns and resets every row's flag to
// pending, making the date safe to re-aggregate.
func (e *Engine) ClearDailyArea(ctx context.Context, jobDate time.Time) (int, error) {
	var cleared int
	err := e.runPhase(ctx, jobDate, PhaseClearDaily, func(ctx context.Context) error {
		var err error
		cleared, err = e.lifecycle.ClearDailyArea(ctx, jobDate)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.ledger.reset(jobDate.Format(dateFormat))
	e.ledger.mark(jobDate.Format(dateFormat), PhaseClearDaily)
	return cleared, nil
}

// guardAggregation refuses an aggregation phase unless the snapshot exists
// and that phase has not already folded its vouchers into the daily columns.
func (e *Engine) guardAggregation(jobDate time.Time, phase string) error {
	date := jobDate.Format(dateFormat)
	if !e.ledger.completed(date, PhaseCreateSnapshot) && !e.ledger.completed(date, PhaseClearDaily) {
		return apperror.NewPhaseOrder(date, phase, PhaseCreateSnapshot)
	}
	if e.ledger.completed(date, phase) {
		return apperror.NewSnapshotNotCleared(date, phase)
	}
	return nil
}

// AggregateSales folds the day's sales voucher lines into the snapshot.
func (e *Engine) AggregateSales(ctx context.Context, jobDate time.Time) (int, error) {
	if err := e.guardAggregation(jobDate, PhaseAggregateSales); err != nil {
		return 0, err
	}
	var updated int
	err := e.runPhase(ctx, jobDate, PhaseAggregateSales, func(ctx context.Context) error {
		var err error
		updated, err = e.aggregator.AggregateSales(ctx, jobDate)
		return err
	})
	return updated, err
}

// AggregatePurchases folds the day's purchase voucher lines into the snapshot.
func (e *Engine) AggregatePurchases(ctx context.Context, jobDate time.Time) (int, error) {
	if err := e.guardAggregation(jobDate, PhaseAggregatePurchases); err != nil {
		return 0, err
	}
	var updated int
	err := e.runPhase(ctx, jobDate, PhaseAggregatePurchases, func(ctx context.Context) error {
		var err error
		updated, err = e.aggregator.AggregatePurchases(ctx, jobDate)
		return err
	})
	return updated, err
}

// AggregateAdjustments folds the day's adjustment voucher lines into the
// snapshot, routed by adjustment category.
func (e *Engine) AggregateAdjustments(ctx context.Context, jobDate time.Time) (int, error) {
	if err := e.guardAggregation(jobDate, PhaseAggregateAdjustments); err != nil {
		return 0, err
	}
	var updated int
	err := e.runPhase(ctx, jobDate, PhaseAggregateAdjustments, func(ctx context.Context) error {
		var err error
		updated, err = e.aggregator.AggregateAdjustments(ctx, jobDate)
		return err
	})
	return updated, err
}

// ComputeDailyStock derives the day's closing stock quantity for every row.
// Requires all three aggregation phases.
func (e *Engine) ComputeDailyStock(ctx context.Context, jobDate time.Time) (int, error) {
	if err := e.requireCompleted(jobDate, PhaseComputeDailyStock,
		PhaseAggregateSales, PhaseAggregatePurchases, PhaseAggregateAdjustments); err != nil {
		return 0, err
	}
	var updated int
	err := e.runPhase(ctx, jobDate, PhaseComputeDailyStock, func(ctx context.Context) error {
		var err error
		updated, err = e.costing.ComputeDailyStock(ctx, jobDate)
		return err
	})
	return updated, err
}

// ComputeUnitCost derives the moving-average unit cost and stock amount.
func (e *Engine) ComputeUnitCost(ctx context.Context, jobDate time.Time) (int, error) {
	if err := e.requireCompleted(jobDate, PhaseComputeUnitCost, PhaseComputeDailyStock); err != nil {
		return 0, err
	}
	var updated int
	err := e.runPhase(ctx, jobDate, PhaseComputeUnitCost, func(ctx context.Context) error {
		var err error
		updated, err = e.costing.ComputeUnitCost(ctx, jobDate)
		return err
	})
	return updated, err
}

// ComputeGrossProfit derives gross profit, walking discount and supplier
// incentive amounts. Runs after costing so the moving-average cost is final.
func (e *Engine) ComputeGrossProfit(ctx context.Context, jobDate time.Time) (int, error) {
	if err := e.requireCompleted(jobDate, PhaseComputeGrossProfit, PhaseComputeUnitCost); err != nil {
		return 0, err
	}
	var updated int
	err := e.runPhase(ctx, jobDate, PhaseComputeGrossProfit, func(ctx context.Context) error {
		var err error
		updated, err = e.profit.ComputeGrossProfit(ctx, jobDate)
		return err
	})
	return updated, err
}

// UpdateMonthlyTotals recomputes month-to-date totals from the daily columns
// of monthStart through jobDate.
func (e *Engine) UpdateMonthlyTotals(ctx context.Context, monthStart, jobDate time.Time) (int, error) {
	if err := e.requireCompleted(jobDate, PhaseUpdateMonthly, PhaseComputeGrossProfit); err != nil {
		return 0, err
	}
	var updated int
	err := e.runPhase(ctx, jobDate, PhaseUpdateMonthly, func(ctx context.Context) error {
		var err error
		updated, err = e.monthly.UpdateMonthlyTotals(ctx, monthStart, jobDate)
		return err
	})
	return updated, err
}

// Validate runs the rule families over the completed snapshot. An empty
// departmentFilter validates all category codes and records the result for
// the report gate; a filtered run only inspects its subset and leaves the
// gate untouched, since a clean department says nothing about the rest of
// the snapshot.
func (e *Engine) Validate(ctx context.Context, jobDate time.Time, departmentFilter string) (validation.Result, error) {
	if err := e.requireCompleted(jobDate, PhaseValidate, PhaseComputeGrossProfit); err != nil {
		return validation.Result{}, err
	}
	var result validation.Result
	err := e.runPhase(ctx, jobDate, PhaseValidate, func(ctx context.Context) error {
		var err error
		result, err = e.validator.Validate(ctx, jobDate, departmentFilter)
		return err
	})
	if err != nil {
		return validation.Result{}, err
	}
	if departmentFilter == "" {
		e.ledger.setResult(jobDate.Format(dateFormat), result)
	}
	return result, nil
}

// ApplyCorrections repairs the correctable issues of the last validation run
// and re-validates, so the report gate reflects the corrected state.
func (e *Engine) ApplyCorrections(ctx context.Context, jobDate time.Time) (int, validation.Result, error) {
	date := jobDate.Format(dateFormat)
	last, ok := e.ledger.result(date)
	if !ok {
		return 0, validation.Result{}, apperror.NewPhaseOrder(date, PhaseApplyCorrections, PhaseValidate)
	}

	var corrected int
	err := e.runPhase(ctx, jobDate, PhaseApplyCorrections, func(ctx context.Context) error {
		var err error
		corrected, err = e.corrector.ApplyCorrections(ctx, jobDate, last)
		return err
	})
	if err != nil {
		return 0, validation.Result{}, err
	}

	result, err := e.Validate(ctx, jobDate, "")
	if err != nil {
		return corrected, validation.Result{}, err
	}
	return corrected, result, nil
}

// GetSnapshot returns the snapshot rows of jobDate for reporting. Reads are
// refused until a validation run for the date has recorded zero errors.
// A process that did not run the batch itself (the report server) validates
// on first read and caches the result.
func (e *Engine) GetSnapshot(ctx context.Context, jobDate time.Time) ([]snapshot.Row, error) {
	date := jobDate.Format(dateFormat)
	result, ok := e.ledger.result(date)
	if !ok {
		n, err := e.repo.CountByDate(ctx, jobDate)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, apperror.NewNotFound("snapshot", date)
		}
		result, err = e.validator.Validate(ctx, jobDate, "")
		if err != nil {
			return nil, err
		}
		e.ledger.setResult(date, result)
	}
	if result.Blocked() {
		return nil, apperror.NewValidationBlocked(date, result.ErrorCount, result.ErrorsByRule())
	}

	rows, err := e.repo.ListByDate(ctx, jobDate)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NewNotFound("snapshot", date)
	}
	return rows, nil
}

// GetValidation returns the recorded validation result for jobDate.
func (e *Engine) GetValidation(jobDate time.Time) (validation.Result, error) {
	date := jobDate.Format(dateFormat)
	result, ok := e.ledger.result(date)
	if !ok {
		return validation.Result{}, apperror.NewNotFound("validation result", date)
	}
	return result, nil
}

// PurgeStale deletes snapshot rows older than keepDays before jobDate.
func (e *Engine) PurgeStale(ctx context.Context, jobDate time.Time, keepDays int) (int, error) {
	var deleted int
	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = e.lifecycle.PurgeStale(ctx, jobDate, keepDays)
		return err
	})
	return deleted, err
}

// RunDaily executes the full pipeline for one job date. When validation
// leaves Error-severity issues it applies corrections once and re-validates;
// a snapshot that still fails afterwards is left blocked and the gate error
// is returned alongside the final result.
func (e *Engine) RunDaily(ctx context.Context, monthStart, jobDate time.Time) (validation.Result, error) {
	if batchctx.GetRun(ctx) == nil {
		ctx = batchctx.WithRun(ctx, batchctx.NewRunContext(jobDate))
	}
	logger.Info(ctx, "pipeline run started")

	if _, err := e.CreateSnapshot(ctx, jobDate); err != nil {
		return validation.Result{}, err
	}
	if _, err := e.AggregateSales(ctx, jobDate); err != nil {
		return validation.Result{}, err
	}
	if _, err := e.AggregatePurchases(ctx, jobDate); err != nil {
		return validation.Result{}, err
	}
	if _, err := e.AggregateAdjustments(ctx, jobDate); err != nil {
		return validation.Result{}, err
	}
	if _, err := e.ComputeDailyStock(ctx, jobDate); err != nil {
		return validation.Result{}, err
	}
	if _, err := e.ComputeUnitCost(ctx, jobDate); err != nil {
		return validation.Result{}, err
	}
	if _, err := e.ComputeGrossProfit(ctx, jobDate); err != nil {
		return validation.Result{}, err
	}
	if _, err := e.UpdateMonthlyTotals(ctx, monthStart, jobDate); err != nil {
		return validation.Result{}, err
	}

	result, err := e.Validate(ctx, jobDate, "")
	if err != nil {
		return validation.Result{}, err
	}
	if result.Blocked() {
		logger.Warn(ctx, "validation found errors, applying corrections",
			"errors", result.ErrorCount,
		)
		if _, result, err = e.ApplyCorrections(ctx, jobDate); err != nil {
			return validation.Result{}, err
		}
	}
	if result.Blocked() {
		date := jobDate.Format(dateFormat)
		return result, apperror.NewValidationBlocked(date, result.ErrorCount, result.ErrorsByRule())
	}

	logger.Info(ctx, "pipeline run completed",
		"records", result.TotalRecords,
		"warnings", result.WarningCount,
	)
	return result, nil
}
