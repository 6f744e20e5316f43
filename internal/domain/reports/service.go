package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain"
	"stockbook/internal/domain/ledger"
)

// daysPerYear is the annualization constant for the out-of-stock forecast.
const daysPerYear = 365

// defaultRangeDays bounds report queries when the caller supplies no range.
const defaultRangeDays = 30

// Service derives the report projections. Ratio math lives here, in one
// place; repositories only fetch raw rows.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// normalizeRange applies the default window and validates ordering.
func normalizeRange(r ledger.DateRange) (ledger.DateRange, error) {
	if r.From.IsZero() && r.To.IsZero() {
		return ledger.LastNDays(defaultRangeDays), nil
	}
	if r.To.IsZero() {
		r.To = time.Now().UTC()
	}
	if r.From.After(r.To) {
		return r, apperror.NewValidation("date range start is after end").
			WithDetail("from", r.From).
			WithDetail("to", r.To)
	}
	return r, nil
}

func normalizeFilter(filter domain.ListFilter) domain.ListFilter {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return filter
}

// InventoryDataset returns one point per day in the range: the total
// inventory at the end of the day. Days without ledger activity carry
// the last known value forward; days before the first entry carry the
// opening total.
func (s *Service) InventoryDataset(ctx context.Context, r ledger.DateRange) ([]DataPoint, error) {
	r, err := normalizeRange(r)
	if err != nil {
		return nil, err
	}

	points, err := s.repo.DailyClosingTotals(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("daily closing totals: %w", err)
	}

	opening, err := s.repo.OpeningTotal(ctx, r.From)
	if err != nil {
		return nil, fmt.Errorf("opening total: %w", err)
	}

	byDay := make(map[string]DataPoint, len(points))
	for _, p := range points {
		byDay[dayKey(p.Date)] = p
	}

	var dataset []DataPoint
	last := opening
	for day := truncateDay(r.From); !day.After(r.To); day = day.AddDate(0, 0, 1) {
		if p, ok := byDay[dayKey(day)]; ok {
			last = p.Quantity
		}
		dataset = append(dataset, DataPoint{Date: day, Quantity: last})
	}
	return dataset, nil
}

// ValueDataset returns one point per day in the range: the total value
// of IMPORT and RETURN movements that day. Days without such movements
// are zero, not forward-filled; this series is a flow, not a level.
func (s *Service) ValueDataset(ctx context.Context, r ledger.DateRange) ([]ValuePoint, error) {
	r, err := normalizeRange(r)
	if err != nil {
		return nil, err
	}

	points, err := s.repo.DailyValueChanges(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("daily value changes: %w", err)
	}

	byDay := make(map[string]ValuePoint, len(points))
	for _, p := range points {
		byDay[dayKey(p.Date)] = p
	}

	var dataset []ValuePoint
	for day := truncateDay(r.From); !day.After(r.To); day = day.AddDate(0, 0, 1) {
		value := decimal.Zero
		if p, ok := byDay[dayKey(day)]; ok {
			value = p.Value
		}
		dataset = append(dataset, ValuePoint{Date: day, Value: value})
	}
	return dataset, nil
}

// ChangeSummary returns per-change-type totals for the range.
func (s *Service) ChangeSummary(ctx context.Context, r ledger.DateRange) ([]ChangeSummary, error) {
	r, err := normalizeRange(r)
	if err != nil {
		return nil, err
	}
	return s.repo.ChangeSummary(ctx, r)
}

// Turnover computes each product's inventory turnover ratio for the
// range: totalSupply / avg(beginning, ending), 0 when the average is 0.
func (s *Service) Turnover(ctx context.Context, r ledger.DateRange, filter domain.ListFilter) (domain.ListResult[TurnoverItem], error) {
	r, err := normalizeRange(r)
	if err != nil {
		return domain.ListResult[TurnoverItem]{}, err
	}
	filter = normalizeFilter(filter)

	rows, total, err := s.repo.TurnoverRows(ctx, r, filter)
	if err != nil {
		return domain.ListResult[TurnoverItem]{}, fmt.Errorf("turnover rows: %w", err)
	}

	items := make([]TurnoverItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, TurnoverItem{
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			Ratio:       turnoverRatio(row.BeginningInventory.Decimal(), row.EndingInventory.Decimal(), row.TotalSupply.Decimal()),
		})
	}

	return domain.ListResult[TurnoverItem]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// DeadStock reports products still carrying most of their range-initial
// inventory. The ratio is current/initial as a percentage, 0 when the
// initial inventory was 0.
func (s *Service) DeadStock(ctx context.Context, r ledger.DateRange, filter domain.ListFilter) (domain.ListResult[DeadStockItem], error) {
	r, err := normalizeRange(r)
	if err != nil {
		return domain.ListResult[DeadStockItem]{}, err
	}
	filter = normalizeFilter(filter)

	rows, total, err := s.repo.DeadStockRows(ctx, r, filter)
	if err != nil {
		return domain.ListResult[DeadStockItem]{}, fmt.Errorf("dead stock rows: %w", err)
	}

	items := make([]DeadStockItem, 0, len(rows))
	for _, row := range rows {
		ratio := decimal.Zero
		if row.InitialInventory.IsPositive() {
			ratio = row.CurrentInventory.Decimal().
				Div(row.InitialInventory.Decimal()).
				Mul(decimal.NewFromInt(100)).
				Round(2)
		}
		items = append(items, DeadStockItem{
			ProductID:        row.ProductID,
			ProductName:      row.ProductName,
			CurrentInventory: row.CurrentInventory,
			CurrentValue:     row.CurrentValue,
			DeadStockRatio:   ratio,
			LastMovementAt:   row.LastMovementAt,
		})
	}

	return domain.ListResult[DeadStockItem]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// OutOfStockForecast predicts, per product, the date stock runs out:
// average days of inventory (365 / turnover) added to the last restock
// date. Products with zero turnover or no restock get no date.
func (s *Service) OutOfStockForecast(ctx context.Context, r ledger.DateRange, filter domain.ListFilter) (domain.ListResult[ForecastItem], error) {
	r, err := normalizeRange(r)
	if err != nil {
		return domain.ListResult[ForecastItem]{}, err
	}
	filter = normalizeFilter(filter)

	rows, total, err := s.repo.ForecastRows(ctx, r, filter)
	if err != nil {
		return domain.ListResult[ForecastItem]{}, fmt.Errorf("forecast rows: %w", err)
	}

	items := make([]ForecastItem, 0, len(rows))
	for _, row := range rows {
		item := ForecastItem{
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
		}

		ratio := turnoverRatio(row.BeginningInventory.Decimal(), row.EndingInventory.Decimal(), row.TotalSupply.Decimal())
		if ratio.IsPositive() {
			days := decimal.NewFromInt(daysPerYear).Div(ratio).Round(0)
			item.AverageDays = int(days.IntPart())
		}

		if item.AverageDays > 0 && row.LastRestockAt != nil {
			at := truncateDay(*row.LastRestockAt).AddDate(0, 0, item.AverageDays)
			item.OutOfStockAt = &at
		}

		items = append(items, item)
	}

	return domain.ListResult[ForecastItem]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// TopStock returns the highest-stock products ranked by quantity or value.
func (s *Service) TopStock(ctx context.Context, sortBy TopStockSort, limit int) ([]TopStockItem, error) {
	if sortBy == "" {
		sortBy = TopStockByQuantity
	}
	if sortBy != TopStockByQuantity && sortBy != TopStockByValue {
		return nil, apperror.NewValidation("unknown top stock sort").
			WithDetail("sortBy", string(sortBy))
	}
	if limit <= 0 {
		limit = 10
	}
	return s.repo.TopStock(ctx, sortBy, limit)
}

// turnoverRatio is totalSupply / avg(beginning, ending), rounded to 2
// places, 0 when the average inventory is not positive.
func turnoverRatio(beginning, ending, totalSupply decimal.Decimal) decimal.Decimal {
	avg := beginning.Add(ending).Div(decimal.NewFromInt(2))
	if !avg.IsPositive() {
		return decimal.Zero
	}
	return totalSupply.Div(avg).Round(2)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
