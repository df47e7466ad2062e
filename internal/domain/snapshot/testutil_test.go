package snapshot

import (
	"context"
	"time"

	"cpstock/internal/domain/key"
	"cpstock/internal/domain/master"
	"cpstock/internal/domain/voucher"
)

// memRepo is an in-memory snapshot Repository for tests.
type memRepo struct {
	rows map[string]map[key.Key]Row // date -> key -> row
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]map[key.Key]Row)}
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

func (m *memRepo) ReplaceForDate(_ context.Context, jobDate time.Time, rows []Row) (int, error) {
	byKey := make(map[key.Key]Row, len(rows))
	for _, r := range rows {
		byKey[r.Key] = r
	}
	m.rows[dateKey(jobDate)] = byKey
	return len(rows), nil
}

func (m *memRepo) ClearDailyArea(_ context.Context, jobDate time.Time) (int, error) {
	byKey := m.rows[dateKey(jobDate)]
	for k, r := range byKey {
		r.ClearDaily()
		byKey[k] = r
	}
	return len(byKey), nil
}

func (m *memRepo) ListByDate(_ context.Context, jobDate time.Time) ([]Row, error) {
	byKey := m.rows[dateKey(jobDate)]
	out := make([]Row, 0, len(byKey))
	for _, r := range byKey {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRepo) ListRange(_ context.Context, from, to time.Time) ([]Row, error) {
	var out []Row
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		rows, _ := m.ListByDate(context.Background(), d)
		out = append(out, rows...)
	}
	return out, nil
}

func (m *memRepo) UpdateRows(_ context.Context, rows []Row) (int, error) {
	for _, r := range rows {
		byKey, ok := m.rows[dateKey(r.JobDate)]
		if !ok {
			continue
		}
		byKey[r.Key] = r
	}
	return len(rows), nil
}

func (m *memRepo) DeleteRow(_ context.Context, jobDate time.Time, k key.Key) error {
	delete(m.rows[dateKey(jobDate)], k)
	return nil
}

func (m *memRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	deleted := 0
	for d, byKey := range m.rows {
		day, _ := time.Parse("2006-01-02", d)
		if day.Before(cutoff) {
			deleted += len(byKey)
			delete(m.rows, d)
		}
	}
	return deleted, nil
}

func (m *memRepo) CountByDate(_ context.Context, jobDate time.Time) (int, error) {
	return len(m.rows[dateKey(jobDate)]), nil
}

func (m *memRepo) get(jobDate time.Time, k key.Key) Row {
	return m.rows[dateKey(jobDate)][k]
}

func (m *memRepo) put(r Row) {
	byKey, ok := m.rows[dateKey(r.JobDate)]
	if !ok {
		byKey = make(map[key.Key]Row)
		m.rows[dateKey(r.JobDate)] = byKey
	}
	byKey[r.Key] = r
}

// Voucher store fakes.

type fakeSales struct{ lines []voucher.SalesLine }

func (f *fakeSales) ListByJobDate(_ context.Context, jobDate time.Time) ([]voucher.SalesLine, error) {
	var out []voucher.SalesLine
	for _, l := range f.lines {
		if l.JobDate.Equal(jobDate) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakePurchases struct{ lines []voucher.PurchaseLine }

func (f *fakePurchases) ListByJobDate(_ context.Context, jobDate time.Time) ([]voucher.PurchaseLine, error) {
	var out []voucher.PurchaseLine
	for _, l := range f.lines {
		if l.JobDate.Equal(jobDate) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeAdjustments struct{ lines []voucher.AdjustmentLine }

func (f *fakeAdjustments) ListByJobDate(_ context.Context, jobDate time.Time) ([]voucher.AdjustmentLine, error) {
	var out []voucher.AdjustmentLine
	for _, l := range f.lines {
		if l.JobDate.Equal(jobDate) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Master store fakes.

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
