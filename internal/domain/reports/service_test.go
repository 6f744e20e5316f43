package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/ledger"
)

type fakeRepo struct {
	closing  []DataPoint
	opening  types.Quantity
	values   []ValuePoint
	summary  []ChangeSummary
	turnover []TurnoverRow
	dead     []DeadStockRow
	forecast []ForecastRow
	top      []TopStockItem
}

func (f *fakeRepo) DailyClosingTotals(ctx context.Context, r ledger.DateRange) ([]DataPoint, error) {
	return f.closing, nil
}

func (f *fakeRepo) OpeningTotal(ctx context.Context, before time.Time) (types.Quantity, error) {
	return f.opening, nil
}

func (f *fakeRepo) DailyValueChanges(ctx context.Context, r ledger.DateRange) ([]ValuePoint, error) {
	return f.values, nil
}

func (f *fakeRepo) ChangeSummary(ctx context.Context, r ledger.DateRange) ([]ChangeSummary, error) {
	return f.summary, nil
}

func (f *fakeRepo) TurnoverRows(ctx context.Context, r ledger.DateRange, filter domain.ListFilter) ([]TurnoverRow, int64, error) {
	return f.turnover, int64(len(f.turnover)), nil
}

func (f *fakeRepo) DeadStockRows(ctx context.Context, r ledger.DateRange, filter domain.ListFilter) ([]DeadStockRow, int64, error) {
	return f.dead, int64(len(f.dead)), nil
}

func (f *fakeRepo) ForecastRows(ctx context.Context, r ledger.DateRange, filter domain.ListFilter) ([]ForecastRow, int64, error) {
	return f.forecast, int64(len(f.forecast)), nil
}

func (f *fakeRepo) TopStock(ctx context.Context, sortBy TopStockSort, limit int) ([]TopStockItem, error) {
	return f.top, nil
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

func TestInventoryDatasetForwardFills(t *testing.T) {
	repo := &fakeRepo{
		opening: qty(40),
		closing: []DataPoint{
			{Date: day("2026-03-02"), Quantity: qty(50)},
			{Date: day("2026-03-04"), Quantity: qty(70)},
		},
	}
	svc := NewService(repo)

	dataset, err := svc.InventoryDataset(context.Background(), ledger.DateRange{
		From: day("2026-03-01"),
		To:   day("2026-03-05"),
	})
	require.NoError(t, err)
	require.Len(t, dataset, 5)

	// Opening before any activity, then each day carries the last known
	// closing value forward.
	want := []float64{40, 50, 50, 70, 70}
	for i, w := range want {
		assert.Equal(t, qty(w), dataset[i].Quantity, "day %d", i)
	}
	assert.Equal(t, day("2026-03-01"), dataset[0].Date)
	assert.Equal(t, day("2026-03-05"), dataset[4].Date)
}

func TestValueDatasetZeroFillsQuietDays(t *testing.T) {
	repo := &fakeRepo{
		values: []ValuePoint{
			{Date: day("2026-03-02"), Value: types.MustMoney("120.50")},
		},
	}
	svc := NewService(repo)

	dataset, err := svc.ValueDataset(context.Background(), ledger.DateRange{
		From: day("2026-03-01"),
		To:   day("2026-03-03"),
	})
	require.NoError(t, err)
	require.Len(t, dataset, 3)

	assert.True(t, dataset[0].Value.IsZero())
	assert.True(t, dataset[1].Value.Equal(types.MustMoney("120.50")))
	assert.True(t, dataset[2].Value.IsZero(), "flow series is not forward-filled")
}

func TestDatasetRejectsInvertedRange(t *testing.T) {
	svc := NewService(&fakeRepo{})

	_, err := svc.InventoryDataset(context.Background(), ledger.DateRange{
		From: day("2026-03-05"),
		To:   day("2026-03-01"),
	})
	assert.Error(t, err)
}

func TestTurnoverRatio(t *testing.T) {
	repo := &fakeRepo{
		turnover: []TurnoverRow{
			{ProductID: id.New(), ProductName: "Widget", BeginningInventory: qty(100), EndingInventory: qty(50), TotalSupply: qty(150)},
			{ProductID: id.New(), ProductName: "Gadget", BeginningInventory: qty(0), EndingInventory: qty(0), TotalSupply: qty(10)},
		},
	}
	svc := NewService(repo)

	result, err := svc.Turnover(context.Background(), ledger.DateRange{}, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	// 150 / avg(100, 50) = 2
	assert.True(t, result.Items[0].Ratio.Equal(decimal.NewFromInt(2)), "got %s", result.Items[0].Ratio)
	// Zero average inventory never divides.
	assert.True(t, result.Items[1].Ratio.IsZero())
}

func TestDeadStockRatio(t *testing.T) {
	moved := day("2026-02-10")
	repo := &fakeRepo{
		dead: []DeadStockRow{
			{ProductID: id.New(), ProductName: "Widget", CurrentInventory: qty(80), InitialInventory: qty(100), CurrentValue: types.MustMoney("160"), LastMovementAt: &moved},
			{ProductID: id.New(), ProductName: "Gadget", CurrentInventory: qty(5), InitialInventory: qty(0)},
		},
	}
	svc := NewService(repo)

	result, err := svc.DeadStock(context.Background(), ledger.DateRange{}, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	assert.True(t, result.Items[0].DeadStockRatio.Equal(decimal.NewFromInt(80)), "80%% of initial stock remains")
	assert.Equal(t, &moved, result.Items[0].LastMovementAt)
	assert.True(t, result.Items[1].DeadStockRatio.IsZero())
}

func TestOutOfStockForecast(t *testing.T) {
	restock := day("2026-01-10")
	repo := &fakeRepo{
		forecast: []ForecastRow{
			// Turnover 2 -> 365/2 = 182.5 -> 183 days of inventory.
			{ProductID: id.New(), ProductName: "Widget", BeginningInventory: qty(100), EndingInventory: qty(50), TotalSupply: qty(150), LastRestockAt: &restock},
			// No supply: turnover 0, no prediction.
			{ProductID: id.New(), ProductName: "Gadget", BeginningInventory: qty(10), EndingInventory: qty(10), TotalSupply: qty(0), LastRestockAt: &restock},
			// Never restocked: days known, date unknown.
			{ProductID: id.New(), ProductName: "Gizmo", BeginningInventory: qty(100), EndingInventory: qty(50), TotalSupply: qty(150)},
		},
	}
	svc := NewService(repo)

	result, err := svc.OutOfStockForecast(context.Background(), ledger.DateRange{}, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)

	widget := result.Items[0]
	assert.Equal(t, 183, widget.AverageDays)
	require.NotNil(t, widget.OutOfStockAt)
	assert.Equal(t, restock.AddDate(0, 0, 183), *widget.OutOfStockAt)

	gadget := result.Items[1]
	assert.Equal(t, 0, gadget.AverageDays)
	assert.Nil(t, gadget.OutOfStockAt)

	gizmo := result.Items[2]
	assert.Equal(t, 183, gizmo.AverageDays)
	assert.Nil(t, gizmo.OutOfStockAt)
}

func TestTopStockRejectsUnknownSort(t *testing.T) {
	svc := NewService(&fakeRepo{})

	_, err := svc.TopStock(context.Background(), TopStockSort("weight"), 10)
	assert.Error(t, err)
}
