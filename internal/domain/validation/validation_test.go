package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/key"
	"cpstock/internal/domain/snapshot"
	"cpstock/internal/domain/voucher"
)

var (
	jobDate = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	apple   = key.New("00001", "001", "001", "0001", "APPLE")
)

// memRepo is a minimal in-memory snapshot.Repository for validator tests.
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

func (m *memRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) { return 0, nil }

func (m *memRepo) CountByDate(_ context.Context, d time.Time) (int, error) {
	return len(m.rows[dk(d)]), nil
}

type fakeSales struct{ lines []voucher.SalesLine }

func (f *fakeSales) ListByJobDate(context.Context, time.Time) ([]voucher.SalesLine, error) {
	return f.lines, nil
}

type fakePurchases struct{ lines []voucher.PurchaseLine }

func (f *fakePurchases) ListByJobDate(context.Context, time.Time) ([]voucher.PurchaseLine, error) {
	return f.lines, nil
}

type fakeAdjustments struct{ lines []voucher.AdjustmentLine }

func (f *fakeAdjustments) ListByJobDate(context.Context, time.Time) ([]voucher.AdjustmentLine, error) {
	return f.lines, nil
}

func newValidator(repo *memRepo, sales *fakeSales, purchases *fakePurchases, adjustments *fakeAdjustments) *Validator {
	if sales == nil {
		sales = &fakeSales{}
	}
	if purchases == nil {
		purchases = &fakePurchases{}
	}
	if adjustments == nil {
		adjustments = &fakeAdjustments{}
	}
	return NewValidator(repo, sales, purchases, adjustments)
}

func salesLineFor(k key.Key) voucher.SalesLine {
	return voucher.SalesLine{
		Key: k, JobDate: jobDate, DetailType: voucher.DetailProduct,
		Quantity: types.NewQuantityFromFloat64(1), UnitPrice: types.NewMoney(1),
		Amount: types.NewMoney(1),
	}
}

func baseRow() snapshot.Row {
	r := snapshot.Row{
		Key:               apple,
		JobDate:           jobDate,
		DailyFlag:         snapshot.FlagProcessed,
		PreviousAmount:    types.Zero(),
		PreviousUnitPrice: types.Zero(),
		StockAmount:       types.Zero(),
		StockUnitPrice:    types.Zero(),
	}
	return r
}

func TestValidate_AmountQuantityMismatchAndCorrection(t *testing.T) {
	repo := newMemRepo()
	r := baseRow()
	r.StockQuantity = types.NewQuantityFromFloat64(10)
	r.StockUnitPrice = types.NewMoney(5)
	r.StockAmount = types.NewMoney(40) // mismatch: should be 50
	r.Daily.SalesQuantity = types.NewQuantityFromFloat64(10)
	repo.put(r)

	sales := &fakeSales{lines: []voucher.SalesLine{salesLineFor(apple)}}
	v := newValidator(repo, sales, nil, nil)
	ctx := context.Background()

	result, err := v.Validate(ctx, jobDate, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, RuleAmountMismatch, result.Issues[0].Rule)
	assert.True(t, result.Issues[0].Expected.Equal(types.NewMoney(50)))

	corrected, err := NewCorrector(repo).ApplyCorrections(ctx, jobDate, result)
	require.NoError(t, err)
	assert.Equal(t, 1, corrected)
	assert.True(t, repo.get(jobDate, apple).StockAmount.Equal(types.NewMoney(50)))

	// The corrected row must disappear from subsequent validation results
	// for that rule family.
	result, err = v.Validate(ctx, jobDate, "")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ErrorCount)
}

func TestValidate_ZeroConsistency(t *testing.T) {
	repo := newMemRepo()
	r := baseRow()
	r.StockQuantity = 0
	r.StockAmount = types.NewMoney(100)
	r.Daily.SalesQuantity = types.NewQuantityFromFloat64(1)
	repo.put(r)

	sales := &fakeSales{lines: []voucher.SalesLine{salesLineFor(apple)}}
	v := newValidator(repo, sales, nil, nil)
	ctx := context.Background()

	result, err := v.Validate(ctx, jobDate, "")
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, RuleZeroConsistency, result.Issues[0].Rule)

	_, err = NewCorrector(repo).ApplyCorrections(ctx, jobDate, result)
	require.NoError(t, err)
	assert.True(t, repo.get(jobDate, apple).StockAmount.IsZero())
}

func TestValidate_PriceEqualityCorrection(t *testing.T) {
	repo := newMemRepo()
	r := baseRow()
	r.StockQuantity = types.NewQuantityFromFloat64(10)
	r.StockUnitPrice = types.NewMoney(15) // equals the sales price below
	r.StockAmount = types.NewMoney(150)
	r.PreviousUnitPrice = types.NewMoney(12)
	r.Daily.SalesQuantity = types.NewQuantityFromFloat64(10)
	repo.put(r)

	line := salesLineFor(apple)
	line.UnitPrice = types.NewMoney(15)
	line.Quantity = types.NewQuantityFromFloat64(10)
	sales := &fakeSales{lines: []voucher.SalesLine{line}}

	v := newValidator(repo, sales, nil, nil)
	ctx := context.Background()

	result, err := v.Validate(ctx, jobDate, "")
	require.NoError(t, err)
	found := false
	for _, issue := range result.Issues {
		if issue.Rule == RulePriceEquality {
			found = true
		}
	}
	require.True(t, found)

	_, err = NewCorrector(repo).ApplyCorrections(ctx, jobDate, result)
	require.NoError(t, err)

	got := repo.get(jobDate, apple)
	assert.True(t, got.StockUnitPrice.Equal(types.NewMoney(12)), "got %s", got.StockUnitPrice)
	assert.True(t, got.StockAmount.Equal(types.NewMoney(120)))
}

func TestValidate_OrphanRowDeleted(t *testing.T) {
	repo := newMemRepo()
	r := baseRow()
	r.Daily.SalesQuantity = types.NewQuantityFromFloat64(10)
	r.Daily.SalesAmount = types.NewMoney(100)
	repo.put(r)

	// No voucher lines at all: the movement totals have no source.
	v := newValidator(repo, nil, nil, nil)
	ctx := context.Background()

	result, err := v.Validate(ctx, jobDate, "")
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, RuleOrphanRow, result.Issues[0].Rule)

	corrected, err := NewCorrector(repo).ApplyCorrections(ctx, jobDate, result)
	require.NoError(t, err)
	assert.Equal(t, 1, corrected)

	n, _ := repo.CountByDate(ctx, jobDate)
	assert.Equal(t, 0, n)
}

func TestValidate_NegativeStockFlaggedOnly(t *testing.T) {
	repo := newMemRepo()
	r := baseRow()
	r.StockQuantity = types.NewQuantityFromFloat64(-5)
	r.StockUnitPrice = types.NewMoney(10)
	r.StockAmount = types.NewMoney(-50)
	repo.put(r)

	v := newValidator(repo, nil, nil, nil)
	ctx := context.Background()

	result, err := v.Validate(ctx, jobDate, "")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Equal(t, 1, result.WarningCount)
	assert.Equal(t, RuleNegativeStock, result.Issues[0].Rule)

	// Never auto-corrected.
	_, err = NewCorrector(repo).ApplyCorrections(ctx, jobDate, result)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(-5), repo.get(jobDate, apple).StockQuantity)
}

func TestValidate_MarginRateBands(t *testing.T) {
	tests := []struct {
		name         string
		sales        float64
		profit       float64
		wantSeverity Severity
		wantIssues   int
	}{
		{"normal margin", 450, 130, "", 0},
		{"negative margin is an error", 450, -10, SeverityError, 1},
		{"warning band", 100, 60, SeverityWarning, 1},
		{"above upper band is an error", 100, 90, SeverityError, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			r := baseRow()
			r.Daily.SalesQuantity = types.NewQuantityFromFloat64(1)
			r.Daily.SalesAmount = types.NewMoney(tt.sales)
			r.Daily.GrossProfit = types.NewMoney(tt.profit)
			repo.put(r)

			sales := &fakeSales{lines: []voucher.SalesLine{salesLineFor(apple)}}
			v := newValidator(repo, sales, nil, nil)

			result, err := v.Validate(context.Background(), jobDate, "")
			require.NoError(t, err)

			var got []Issue
			for _, issue := range result.Issues {
				if issue.Rule == RuleMarginRate {
					got = append(got, issue)
				}
			}
			require.Len(t, got, tt.wantIssues)
			if tt.wantIssues > 0 {
				assert.Equal(t, tt.wantSeverity, got[0].Severity)
			}
		})
	}
}

func TestValidate_ContinuityBreakRepaired(t *testing.T) {
	repo := newMemRepo()

	prior := baseRow()
	prior.JobDate = jobDate.AddDate(0, 0, -1)
	prior.StockQuantity = types.NewQuantityFromFloat64(120)
	prior.StockAmount = types.MustMoney("1280.004")
	prior.StockUnitPrice = types.MustMoney("10.6667")
	repo.put(prior)

	r := baseRow()
	r.PreviousQuantity = types.NewQuantityFromFloat64(100) // break: prior closed at 120
	r.PreviousAmount = types.NewMoney(1000)
	r.PreviousUnitPrice = types.NewMoney(10)
	r.Daily.SalesQuantity = types.NewQuantityFromFloat64(1)
	repo.put(r)

	sales := &fakeSales{lines: []voucher.SalesLine{salesLineFor(apple)}}
	v := newValidator(repo, sales, nil, nil)
	ctx := context.Background()

	result, err := v.Validate(ctx, jobDate, "")
	require.NoError(t, err)
	var continuity []Issue
	for _, issue := range result.Issues {
		if issue.Rule == RuleContinuity {
			continuity = append(continuity, issue)
		}
	}
	require.Len(t, continuity, 1)

	_, err = NewCorrector(repo).ApplyCorrections(ctx, jobDate, result)
	require.NoError(t, err)

	got := repo.get(jobDate, apple)
	assert.Equal(t, types.NewQuantityFromFloat64(120), got.PreviousQuantity)
	assert.True(t, got.PreviousAmount.Equal(types.MustMoney("1280.004")))
	assert.True(t, got.PreviousUnitPrice.Equal(types.MustMoney("10.6667")))
}

func TestValidate_DepartmentFilter(t *testing.T) {
	repo := newMemRepo()
	r := baseRow()
	r.CategoryCode = "100"
	r.StockQuantity = types.NewQuantityFromFloat64(-5)
	r.StockAmount = types.NewMoney(-50)
	r.StockUnitPrice = types.NewMoney(10)
	repo.put(r)

	v := newValidator(repo, nil, nil, nil)

	result, err := v.Validate(context.Background(), jobDate, "200")
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalRecords)
	assert.Empty(t, result.Issues)

	result, err = v.Validate(context.Background(), jobDate, "100")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalRecords)
}
