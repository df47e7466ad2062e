package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpstock/internal/core/apperror"
	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
	"cpstock/internal/domain/master"
	"cpstock/internal/domain/snapshot"
	"cpstock/internal/domain/voucher"
)

var (
	monthStart = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	jobDate    = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	apple      = key.New("00001", "001", "001", "0001", "APPLE")
)

// passthroughTx executes the phase body directly. The engine's transaction
// semantics belong to the postgres tx manager; here each phase just runs.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// failingTx simulates a transaction that cannot commit.
type failingTx struct{ err error }

func (f failingTx) RunInTransaction(context.Context, func(ctx context.Context) error) error {
	return f.err
}

type memRepo struct {
	rows map[string]map[key.Key]snapshot.Row
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]map[key.Key]snapshot.Row)}
}

func dk(t time.Time) string { return t.Format("2006-01-02") }

func (m *memRepo) put(r snapshot.Row) {
	byKey, ok := m.rows[dk(r.JobDate)]
	if !ok {
		byKey = make(map[key.Key]snapshot.Row)
		m.rows[dk(r.JobDate)] = byKey
	}
	byKey[r.Key] = r
}

func (m *memRepo) get(d time.Time, k key.Key) snapshot.Row { return m.rows[dk(d)][k] }

func (m *memRepo) ReplaceForDate(_ context.Context, d time.Time, rows []snapshot.Row) (int, error) {
	m.rows[dk(d)] = make(map[key.Key]snapshot.Row)
	for _, r := range rows {
		m.rows[dk(d)][r.Key] = r
	}
	return len(rows), nil
}

func (m *memRepo) ClearDailyArea(_ context.Context, d time.Time) (int, error) {
	byKey := m.rows[dk(d)]
	for k, r := range byKey {
		r.ClearDaily()
		byKey[k] = r
	}
	return len(byKey), nil
}

func (m *memRepo) ListByDate(_ context.Context, d time.Time) ([]snapshot.Row, error) {
	var out []snapshot.Row
	for _, r := range m.rows[dk(d)] {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRepo) ListRange(_ context.Context, from, to time.Time) ([]snapshot.Row, error) {
	var out []snapshot.Row
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		rows, _ := m.ListByDate(context.Background(), d)
		out = append(out, rows...)
	}
	return out, nil
}

func (m *memRepo) UpdateRows(_ context.Context, rows []snapshot.Row) (int, error) {
	for _, r := range rows {
		if byKey, ok := m.rows[dk(r.JobDate)]; ok {
			byKey[r.Key] = r
		}
	}
	return len(rows), nil
}

func (m *memRepo) DeleteRow(_ context.Context, d time.Time, k key.Key) error {
	delete(m.rows[dk(d)], k)
	return nil
}

func (m *memRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	deleted := 0
	for date, byKey := range m.rows {
		d, _ := time.Parse("2006-01-02", date)
		if d.Before(cutoff) {
			deleted += len(byKey)
			delete(m.rows, date)
		}
	}
	return deleted, nil
}

func (m *memRepo) CountByDate(_ context.Context, d time.Time) (int, error) {
	return len(m.rows[dk(d)]), nil
}

type fakeInventory struct{ items []master.InventoryItem }

func (f *fakeInventory) ListAll(context.Context) ([]master.InventoryItem, error) {
	return f.items, nil
}

type fakeCustomers struct{ customers []master.Customer }

func (f *fakeCustomers) ListAll(context.Context) ([]master.Customer, error) {
	return f.customers, nil
}

type fakeSuppliers struct{ suppliers []master.Supplier }

func (f *fakeSuppliers) ListAll(context.Context) ([]master.Supplier, error) {
	return f.suppliers, nil
}

type fakeSales struct{ lines []voucher.SalesLine }

func (f *fakeSales) ListByJobDate(_ context.Context, d time.Time) ([]voucher.SalesLine, error) {
	var out []voucher.SalesLine
	for _, l := range f.lines {
		if l.JobDate.Equal(d) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakePurchases struct{ lines []voucher.PurchaseLine }

func (f *fakePurchases) ListByJobDate(_ context.Context, d time.Time) ([]voucher.PurchaseLine, error) {
	var out []voucher.PurchaseLine
	for _, l := range f.lines {
		if l.JobDate.Equal(d) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeAdjustments struct{ lines []voucher.AdjustmentLine }

func (f *fakeAdjustments) ListByJobDate(_ context.Context, d time.Time) ([]voucher.AdjustmentLine, error) {
	var out []voucher.AdjustmentLine
	for _, l := range f.lines {
		if l.JobDate.Equal(d) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fixture struct {
	repo        *memRepo
	inventory   *fakeInventory
	customers   *fakeCustomers
	suppliers   *fakeSuppliers
	sales       *fakeSales
	purchases   *fakePurchases
	adjustments *fakeAdjustments
}

// newFixture seeds one item: opening stock 100 units at cost 10, a sale of
// 30 units at 15, a purchase of 50 units for 600.
func newFixture() *fixture {
	return &fixture{
		repo: newMemRepo(),
		inventory: &fakeInventory{items: []master.InventoryItem{{
			Key:            apple,
			ProductName:    "Apple",
			CategoryCode:   "100",
			UnitCode:       "01",
			StandardPrice:  types.NewMoney(15),
			StockQuantity:  types.NewQuantityFromFloat64(100),
			StockAmount:    types.NewMoney(1000),
			StockUnitPrice: types.NewMoney(10),
		}}},
		customers: &fakeCustomers{customers: []master.Customer{{
			Code: "C001", Name: "North Store", WalkingRate: types.MustMoney("0.02"),
		}}},
		suppliers: &fakeSuppliers{suppliers: []master.Supplier{{
			Code: "S001", Name: "Orchard Co", IncentiveEligible: true,
		}}},
		sales: &fakeSales{lines: []voucher.SalesLine{{
			Key: apple, JobDate: jobDate, VoucherNo: "S-1", LineNo: 1,
			DetailType: voucher.DetailProduct,
			Quantity:   types.NewQuantityFromFloat64(30),
			UnitPrice:  types.NewMoney(15),
			Amount:     types.NewMoney(450),
			CustomerCode: "C001",
		}}},
		purchases: &fakePurchases{lines: []voucher.PurchaseLine{{
			Key: apple, JobDate: jobDate, VoucherNo: "P-1", LineNo: 1,
			DetailType: voucher.DetailProduct,
			Quantity:   types.NewQuantityFromFloat64(50),
			UnitPrice:  types.NewMoney(12),
			Amount:     types.NewMoney(600),
			SupplierCode: "S001",
		}}},
		adjustments: &fakeAdjustments{},
	}
}

func (f *fixture) engine() *Engine {
	return NewEngine(passthroughTx{}, f.repo,
		f.inventory, f.customers, f.suppliers,
		f.sales, f.purchases, f.adjustments)
}

func TestEngine_RunDaily(t *testing.T) {
	f := newFixture()
	e := f.engine()
	ctx := context.Background()

	result, err := e.RunDaily(ctx, monthStart, jobDate)
	require.NoError(t, err)
	assert.False(t, result.Blocked())
	assert.Equal(t, 1, result.TotalRecords)
	assert.Equal(t, 0, result.ErrorCount)

	rows, err := e.GetSnapshot(ctx, jobDate)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, snapshot.FlagProcessed, row.DailyFlag)
	assert.Equal(t, types.NewQuantityFromFloat64(120), row.StockQuantity)
	assert.True(t, row.StockUnitPrice.Equal(types.MustMoney("10.6667")), "unit price %s", row.StockUnitPrice)
	assert.True(t, row.StockAmount.Equal(types.MustMoney("1280.004")), "stock amount %s", row.StockAmount)
	assert.True(t, row.Daily.GrossProfit.Equal(types.NewMoney(130)), "gross profit %s", row.Daily.GrossProfit)
	assert.True(t, row.Daily.WalkingAmount.Equal(types.NewMoney(9)), "walking %s", row.Daily.WalkingAmount)
	assert.True(t, row.Daily.IncentiveAmount.Equal(types.NewMoney(6)), "incentive %s", row.Daily.IncentiveAmount)
	assert.Equal(t, types.NewQuantityFromFloat64(30), row.Monthly.SalesQuantity)
}

func TestEngine_ReaggregationRequiresClear(t *testing.T) {
	f := newFixture()
	e := f.engine()
	ctx := context.Background()

	_, err := e.CreateSnapshot(ctx, jobDate)
	require.NoError(t, err)
	_, err = e.AggregateSales(ctx, jobDate)
	require.NoError(t, err)

	_, err = e.AggregateSales(ctx, jobDate)
	require.Error(t, err)
	assert.True(t, apperror.IsStateMisuse(err))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSnapshotNotCleared, appErr.Code)

	// The refused call must not have touched the daily columns.
	assert.Equal(t, types.NewQuantityFromFloat64(30), f.repo.get(jobDate, apple).Daily.SalesQuantity)

	_, err = e.ClearDailyArea(ctx, jobDate)
	require.NoError(t, err)
	_, err = e.AggregateSales(ctx, jobDate)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(30), f.repo.get(jobDate, apple).Daily.SalesQuantity)
}

func TestEngine_PhaseOrder(t *testing.T) {
	f := newFixture()
	e := f.engine()
	ctx := context.Background()

	_, err := e.AggregateSales(ctx, jobDate)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePhaseOrder, appErr.Code)

	_, err = e.CreateSnapshot(ctx, jobDate)
	require.NoError(t, err)

	_, err = e.ComputeDailyStock(ctx, jobDate)
	require.Error(t, err)
	assert.True(t, apperror.IsStateMisuse(err))

	_, err = e.Validate(ctx, jobDate, "")
	require.Error(t, err)
	assert.True(t, apperror.IsStateMisuse(err))
}

func TestEngine_ReportGate(t *testing.T) {
	f := newFixture()
	e := f.engine()
	ctx := context.Background()

	// Nothing has been built for the date yet.
	_, err := e.GetSnapshot(ctx, jobDate)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	_, err = e.RunDaily(ctx, monthStart, jobDate)
	require.NoError(t, err)
	_, err = e.GetSnapshot(ctx, jobDate)
	require.NoError(t, err)

	// Corrupt the stored amount and re-validate: the gate must close again.
	row := f.repo.get(jobDate, apple)
	row.StockAmount = types.NewMoney(999)
	f.repo.put(row)

	result, err := e.Validate(ctx, jobDate, "")
	require.NoError(t, err)
	assert.True(t, result.Blocked())

	_, err = e.GetSnapshot(ctx, jobDate)
	require.Error(t, err)
	assert.True(t, apperror.IsValidationBlocked(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, 1, appErr.Details["error_count"])

	// Corrections reopen the gate.
	corrected, result, err := e.ApplyCorrections(ctx, jobDate)
	require.NoError(t, err)
	assert.Equal(t, 1, corrected)
	assert.False(t, result.Blocked())

	rows, err := e.GetSnapshot(ctx, jobDate)
	require.NoError(t, err)
	assert.True(t, rows[0].StockAmount.Equal(types.MustMoney("1280.004")))

	// A fresh engine over the same store (the report server case) validates
	// lazily on first read.
	reader := f.engine()
	rows, err = reader.GetSnapshot(ctx, jobDate)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestEngine_PhaseFailureCarriesContext(t *testing.T) {
	f := newFixture()
	cause := errors.New("connection reset by peer")
	e := NewEngine(failingTx{err: cause}, f.repo,
		f.inventory, f.customers, f.suppliers,
		f.sales, f.purchases, f.adjustments)

	_, err := e.CreateSnapshot(context.Background(), jobDate)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDatabase, appErr.Code)
	assert.Equal(t, "2026-08-28", appErr.Details["job_date"])
	assert.Equal(t, PhaseCreateSnapshot, appErr.Details["phase"])
	assert.ErrorIs(t, err, cause)
}

func TestEngine_ReportGateSurvivesFilteredValidate(t *testing.T) {
	f := newFixture()
	e := f.engine()
	ctx := context.Background()

	_, err := e.RunDaily(ctx, monthStart, jobDate)
	require.NoError(t, err)

	row := f.repo.get(jobDate, apple)
	row.StockAmount = types.NewMoney(999)
	f.repo.put(row)

	result, err := e.Validate(ctx, jobDate, "")
	require.NoError(t, err)
	require.True(t, result.Blocked())

	// A filtered run over a department with no rows is clean, but it must
	// not stand in for the full-snapshot result the gate relies on.
	filtered, err := e.Validate(ctx, jobDate, "999")
	require.NoError(t, err)
	assert.False(t, filtered.Blocked())
	assert.Zero(t, filtered.TotalRecords)

	_, err = e.GetSnapshot(ctx, jobDate)
	require.Error(t, err)
	assert.True(t, apperror.IsValidationBlocked(err))

	recorded, err := e.GetValidation(jobDate)
	require.NoError(t, err)
	assert.True(t, recorded.Blocked())
}

func TestEngine_GetValidation(t *testing.T) {
	f := newFixture()
	e := f.engine()
	ctx := context.Background()

	_, err := e.GetValidation(jobDate)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	_, err = e.RunDaily(ctx, monthStart, jobDate)
	require.NoError(t, err)

	result, err := e.GetValidation(jobDate)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalRecords)
}

func TestEngine_PurgeStale(t *testing.T) {
	f := newFixture()
	stale := snapshot.Row{Key: apple, JobDate: jobDate.AddDate(0, 0, -40)}
	f.repo.put(stale)
	e := f.engine()

	deleted, err := e.PurgeStale(context.Background(), jobDate, 31)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}
