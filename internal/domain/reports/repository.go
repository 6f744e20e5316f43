package reports

import (
	"context"
	"time"

	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/ledger"
)

// Repository supplies the raw datasets the report service derives its
// projections from. All queries are read-only.
type Repository interface {
	// DailyClosingTotals returns, per day with ledger activity in the
	// range, the total inventory after the day's last entry. Days without
	// activity are absent; the service forward-fills them.
	DailyClosingTotals(ctx context.Context, r ledger.DateRange) ([]DataPoint, error)

	// OpeningTotal returns the total inventory just before the given
	// instant, falling back to the current product totals when the ledger
	// has no entry that old.
	OpeningTotal(ctx context.Context, before time.Time) (types.Quantity, error)

	// DailyValueChanges returns Σ(delta × cost) per day for IMPORT and
	// RETURN entries. Days without such entries are absent.
	DailyValueChanges(ctx context.Context, r ledger.DateRange) ([]ValuePoint, error)

	// ChangeSummary aggregates entries in the range per change type.
	ChangeSummary(ctx context.Context, r ledger.DateRange) ([]ChangeSummary, error)

	// TurnoverRows returns boundary inventories and total supply per
	// product, ordered by product name.
	TurnoverRows(ctx context.Context, r ledger.DateRange, filter domain.ListFilter) ([]TurnoverRow, int64, error)

	// DeadStockRows returns current and range-initial inventory per
	// in-stock product, ordered by current inventory descending.
	DeadStockRows(ctx context.Context, r ledger.DateRange, filter domain.ListFilter) ([]DeadStockRow, int64, error)

	// ForecastRows returns turnover inputs plus the last restock date per
	// product, ordered by product name.
	ForecastRows(ctx context.Context, r ledger.DateRange, filter domain.ListFilter) ([]ForecastRow, int64, error)

	// TopStock returns the highest-stock products, in-stock only.
	TopStock(ctx context.Context, sortBy TopStockSort, limit int) ([]TopStockItem, error)
}
