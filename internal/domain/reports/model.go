// Package reports provides read-only analytical projections over the
// inventory ledger and product store: time series, turnover, dead stock
// and out-of-stock forecasts. No operation here has side effects.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/ledger"
)

// DataPoint is one day of the inventory quantity time series.
type DataPoint struct {
	Date     time.Time      `json:"date"`
	Quantity types.Quantity `json:"quantity"`
}

// ValuePoint is one day of the inventory value-change time series:
// Σ(delta × cost at the time of the entry) over IMPORT and RETURN entries.
type ValuePoint struct {
	Date  time.Time   `json:"date"`
	Value types.Money `json:"value"`
}

// ChangeSummary aggregates ledger activity for one change type.
type ChangeSummary struct {
	ChangeType  ledger.ChangeType `db:"change_type" json:"changeType"`
	TotalChange types.Quantity    `db:"total_change" json:"totalChange"`
	EntryCount  int64             `db:"entry_count" json:"entryCount"`
}

// TurnoverRow is the raw per-product input for the turnover ratio:
// inventory at the range boundaries plus total supply within it.
type TurnoverRow struct {
	ProductID          id.ID          `db:"product_id"`
	ProductName        string         `db:"product_name"`
	BeginningInventory types.Quantity `db:"beginning_inventory"`
	EndingInventory    types.Quantity `db:"ending_inventory"`
	TotalSupply        types.Quantity `db:"total_supply"`
}

// TurnoverItem is one product's computed turnover ratio,
// totalSupply / avg(beginning, ending), rounded to 2 places.
type TurnoverItem struct {
	ProductID   id.ID           `json:"productId"`
	ProductName string          `json:"productName"`
	Ratio       decimal.Decimal `json:"ratio"`
}

// DeadStockRow is the raw per-product input for the dead stock report.
type DeadStockRow struct {
	ProductID        id.ID          `db:"product_id"`
	ProductName      string         `db:"product_name"`
	CurrentInventory types.Quantity `db:"current_inventory"`
	CurrentValue     types.Money    `db:"current_value"`
	InitialInventory types.Quantity `db:"initial_inventory"`
	LastMovementAt   *time.Time     `db:"last_movement_at"`
}

// DeadStockItem reports how much of a product's initial inventory is
// still sitting on the shelf, as a percentage.
type DeadStockItem struct {
	ProductID        id.ID           `json:"productId"`
	ProductName      string          `json:"productName"`
	CurrentInventory types.Quantity  `json:"currentInventory"`
	CurrentValue     types.Money     `json:"currentValue"`
	DeadStockRatio   decimal.Decimal `json:"deadStockRatio"`
	LastMovementAt   *time.Time      `json:"lastMovementAt,omitempty"`
}

// ForecastRow is the raw per-product input for the out-of-stock forecast.
type ForecastRow struct {
	ProductID          id.ID          `db:"product_id"`
	ProductName        string         `db:"product_name"`
	BeginningInventory types.Quantity `db:"beginning_inventory"`
	EndingInventory    types.Quantity `db:"ending_inventory"`
	TotalSupply        types.Quantity `db:"total_supply"`
	LastRestockAt      *time.Time     `db:"last_restock_at"`
}

// ForecastItem predicts when a product runs out: average days of
// inventory (365 / turnover) projected forward from the last restock.
// OutOfStockAt is nil when turnover is zero or the product was never
// restocked; zero AverageDays means "unknown".
type ForecastItem struct {
	ProductID    id.ID      `json:"productId"`
	ProductName  string     `json:"productName"`
	AverageDays  int        `json:"averageDaysInventory"`
	OutOfStockAt *time.Time `json:"outOfStockAt,omitempty"`
}

// TopStockSort selects the ranking dimension for top stock items.
type TopStockSort string

const (
	TopStockByQuantity TopStockSort = "quantity"
	TopStockByValue    TopStockSort = "value"
)

// TopStockItem is one row of the highest-stock ranking.
type TopStockItem struct {
	ProductID   id.ID          `db:"product_id" json:"productId"`
	ProductName string         `db:"product_name" json:"productName"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	Value       types.Money    `db:"value" json:"value"`
}
