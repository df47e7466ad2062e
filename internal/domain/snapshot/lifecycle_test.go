package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/master"
)

func TestCreateFromInventoryMaster_CarriesForwardPreviousDay(t *testing.T) {
	repo := newMemRepo()

	// Prior-day snapshot exists for apple: its daily stock becomes the new
	// previous-day carry-forward.
	prior := pendingRow(apple, jobDate.AddDate(0, 0, -1))
	prior.StockQuantity = types.NewQuantityFromFloat64(120)
	prior.StockAmount = types.MustMoney("1280.004")
	prior.StockUnitPrice = types.MustMoney("10.6667")
	repo.put(prior)

	masters := &fakeInventory{items: []master.InventoryItem{
		{Key: apple, ProductName: "Apple", UnitCode: "01",
			StockQuantity:  types.NewQuantityFromFloat64(999),
			StockAmount:    types.NewMoney(9990),
			StockUnitPrice: types.NewMoney(10)},
		{Key: orange, ProductName: "Orange", UnitCode: "01",
			StockQuantity:  types.NewQuantityFromFloat64(40),
			StockAmount:    types.NewMoney(200),
			StockUnitPrice: types.NewMoney(5)},
	}}

	lc := NewLifecycle(repo, masters)
	count, err := lc.CreateFromInventoryMaster(context.Background(), jobDate)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	appleRow := repo.get(jobDate, apple)
	assert.Equal(t, types.NewQuantityFromFloat64(120), appleRow.PreviousQuantity)
	assert.True(t, appleRow.PreviousUnitPrice.Equal(types.MustMoney("10.6667")))
	assert.Equal(t, FlagPending, appleRow.DailyFlag)

	// No prior-day row for orange: master stock is the carry-forward.
	orangeRow := repo.get(jobDate, orange)
	assert.Equal(t, types.NewQuantityFromFloat64(40), orangeRow.PreviousQuantity)
	assert.True(t, orangeRow.PreviousUnitPrice.Equal(types.NewMoney(5)))
}

func TestCreateFromInventoryMaster_ReplacesExistingRows(t *testing.T) {
	repo := newMemRepo()

	stale := pendingRow(orange, jobDate)
	stale.Daily.SalesQuantity = types.NewQuantityFromFloat64(77)
	repo.put(stale)

	masters := &fakeInventory{items: []master.InventoryItem{
		{Key: apple, ProductName: "Apple"},
	}}

	lc := NewLifecycle(repo, masters)
	_, err := lc.CreateFromInventoryMaster(context.Background(), jobDate)
	require.NoError(t, err)

	// Delete-then-insert: the stale orange row is gone, only apple remains.
	n, err := repo.CountByDate(context.Background(), jobDate)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, repo.get(jobDate, orange).Key.IsZero())
}

func TestPurgeStale(t *testing.T) {
	repo := newMemRepo()
	repo.put(pendingRow(apple, jobDate.AddDate(0, 0, -40)))
	repo.put(pendingRow(apple, jobDate))

	lc := NewLifecycle(repo, &fakeInventory{})
	count, err := lc.PurgeStale(context.Background(), jobDate, 31)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	n, _ := repo.CountByDate(context.Background(), jobDate)
	assert.Equal(t, 1, n)

	old := time.Date(2026, 7, 19, 0, 0, 0, 0, time.UTC)
	n, _ = repo.CountByDate(context.Background(), old)
	assert.Equal(t, 0, n)
}
