// Package report_repo provides the PostgreSQL implementation of the
// report dataset queries. All queries are read-only and may run on a
// read-only transaction.
package report_repo

import (
	"context"
	"fmt"

	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/domain/reports"
	"stockbook/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository over the inventory ledger
// and the product projection.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// Ensure compile-time interface compliance.
var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

func (r *ReportRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// DailyClosingTotals computes the total inventory after each day's last
// entry. The opening baseline is derived by unwinding ledger deltas from
// the current product totals, so the series stays consistent with the
// product projection even when the ledger predates the range.
func (r *ReportRepo) DailyClosingTotals(ctx context.Context, dr ledger.DateRange) ([]reports.DataPoint, error) {
	query := `
		WITH daily AS (
			SELECT date_trunc('day', created_at) AS day,
			       SUM(quantity_delta) AS day_delta
			FROM inventory_ledger
			WHERE created_at >= $1 AND created_at <= $2
			GROUP BY 1
		),
		base AS (
			SELECT COALESCE((SELECT SUM(quantity) FROM products), 0)
			     - COALESCE((SELECT SUM(quantity_delta) FROM inventory_ledger WHERE created_at >= $1), 0) AS opening
		)
		SELECT d.day AS date,
		       base.opening + SUM(d.day_delta) OVER (ORDER BY d.day) AS quantity
		FROM daily d, base
		ORDER BY d.day
	`

	var points []reports.DataPoint
	if err := pgxscan.Select(ctx, r.querier(ctx), &points, query, dr.From, dr.To); err != nil {
		return nil, fmt.Errorf("daily closing totals: %w", err)
	}

	return points, nil
}

// OpeningTotal returns the total inventory just before the instant.
// Current product totals minus all deltas recorded at or after it; with
// an empty ledger this degrades to the current totals.
func (r *ReportRepo) OpeningTotal(ctx context.Context, before time.Time) (types.Quantity, error) {
	query := `
		SELECT COALESCE((SELECT SUM(quantity) FROM products), 0)
		     - COALESCE((SELECT SUM(quantity_delta) FROM inventory_ledger WHERE created_at >= $1), 0)
	`

	var total types.Quantity
	if err := r.querier(ctx).QueryRow(ctx, query, before).Scan(&total); err != nil {
		return 0, fmt.Errorf("opening total: %w", err)
	}

	return total, nil
}

// DailyValueChanges sums delta × cost per day over IMPORT and RETURN
// entries. Deltas are stored as scaled integers, hence the division.
func (r *ReportRepo) DailyValueChanges(ctx context.Context, dr ledger.DateRange) ([]reports.ValuePoint, error) {
	query := `
		SELECT date_trunc('day', created_at) AS date,
		       SUM((quantity_delta::numeric / 10000) * new_cost) AS value
		FROM inventory_ledger
		WHERE change_type IN ('IMPORT', 'RETURN')
		  AND created_at >= $1 AND created_at <= $2
		GROUP BY 1
		ORDER BY 1
	`

	var points []reports.ValuePoint
	if err := pgxscan.Select(ctx, r.querier(ctx), &points, query, dr.From, dr.To); err != nil {
		return nil, fmt.Errorf("daily value changes: %w", err)
	}

	return points, nil
}

// ChangeSummary aggregates entries in the range per change type.
func (r *ReportRepo) ChangeSummary(ctx context.Context, dr ledger.DateRange) ([]reports.ChangeSummary, error) {
	query := `
		SELECT change_type,
		       COALESCE(SUM(quantity_delta), 0) AS total_change,
		       COUNT(*) AS entry_count
		FROM inventory_ledger
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY change_type
		ORDER BY change_type
	`

	var summaries []reports.ChangeSummary
	if err := pgxscan.Select(ctx, r.querier(ctx), &summaries, query, dr.From, dr.To); err != nil {
		return nil, fmt.Errorf("change summary: %w", err)
	}

	return summaries, nil
}

// productPredicate renders the optional search filter shared by the
// per-product report queries. Args start at the given index.
func productPredicate(filter domain.ListFilter, argIndex int) (string, []any) {
	if filter.Search == "" {
		return "", nil
	}
	clause := fmt.Sprintf(" AND (p.name ILIKE $%d OR p.sku ILIKE $%d)", argIndex, argIndex)
	return clause, []any{"%" + filter.Search + "%"}
}

func pageSuffix(filter domain.ListFilter) string {
	suffix := ""
	if filter.Limit > 0 {
		suffix += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		suffix += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}
	return suffix
}

func (r *ReportRepo) countProducts(ctx context.Context, extraWhere string, extraArgs []any) (int64, error) {
	query := "SELECT COUNT(*) FROM products p WHERE p.deletion_mark = false" + extraWhere

	var total int64
	if err := r.querier(ctx).QueryRow(ctx, query, extraArgs...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// TurnoverRows reconstructs inventory at the range boundaries per product
// by unwinding ledger deltas from the current quantity, and sums positive
// import deltas within the range as the supply.
func (r *ReportRepo) TurnoverRows(ctx context.Context, dr ledger.DateRange, filter domain.ListFilter) ([]reports.TurnoverRow, int64, error) {
	where, extraArgs := productPredicate(filter, 3)

	total, err := r.countProducts(ctx, where, extraArgs)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT p.id AS product_id,
		       p.name AS product_name,
		       p.quantity - COALESCE(SUM(l.quantity_delta) FILTER (WHERE l.created_at >= $1), 0) AS beginning_inventory,
		       p.quantity - COALESCE(SUM(l.quantity_delta) FILTER (WHERE l.created_at > $2), 0) AS ending_inventory,
		       COALESCE(SUM(l.quantity_delta) FILTER (
		           WHERE l.change_type = 'IMPORT'
		             AND l.quantity_delta > 0
		             AND l.created_at >= $1 AND l.created_at <= $2), 0) AS total_supply
		FROM products p
		LEFT JOIN inventory_ledger l ON l.product_id = p.id
		WHERE p.deletion_mark = false` + where + `
		GROUP BY p.id, p.name
		ORDER BY p.name` + pageSuffix(filter)

	args := append([]any{dr.From, dr.To}, extraArgs...)

	var rows []reports.TurnoverRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("turnover rows: %w", err)
	}

	return rows, total, nil
}

// DeadStockRows returns current and range-initial inventory for in-stock
// products, largest stock first.
func (r *ReportRepo) DeadStockRows(ctx context.Context, dr ledger.DateRange, filter domain.ListFilter) ([]reports.DeadStockRow, int64, error) {
	where, extraArgs := productPredicate(filter, 2)

	total, err := r.countProducts(ctx, " AND p.quantity > 0"+where, extraArgs)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT p.id AS product_id,
		       p.name AS product_name,
		       p.quantity AS current_inventory,
		       (p.quantity::numeric / 10000) * p.cost_price AS current_value,
		       p.quantity - COALESCE(SUM(l.quantity_delta) FILTER (WHERE l.created_at >= $1), 0) AS initial_inventory,
		       MAX(l.created_at) AS last_movement_at
		FROM products p
		LEFT JOIN inventory_ledger l ON l.product_id = p.id
		WHERE p.deletion_mark = false AND p.quantity > 0` + where + `
		GROUP BY p.id, p.name, p.quantity, p.cost_price
		ORDER BY p.quantity DESC, p.name` + pageSuffix(filter)

	args := append([]any{dr.From}, extraArgs...)

	var rows []reports.DeadStockRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("dead stock rows: %w", err)
	}

	return rows, total, nil
}

// ForecastRows returns the turnover inputs plus the last restock date.
func (r *ReportRepo) ForecastRows(ctx context.Context, dr ledger.DateRange, filter domain.ListFilter) ([]reports.ForecastRow, int64, error) {
	where, extraArgs := productPredicate(filter, 3)

	total, err := r.countProducts(ctx, where, extraArgs)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT p.id AS product_id,
		       p.name AS product_name,
		       p.quantity - COALESCE(SUM(l.quantity_delta) FILTER (WHERE l.created_at >= $1), 0) AS beginning_inventory,
		       p.quantity - COALESCE(SUM(l.quantity_delta) FILTER (WHERE l.created_at > $2), 0) AS ending_inventory,
		       COALESCE(SUM(l.quantity_delta) FILTER (
		           WHERE l.change_type = 'IMPORT'
		             AND l.quantity_delta > 0
		             AND l.created_at >= $1 AND l.created_at <= $2), 0) AS total_supply,
		       p.last_restock_at
		FROM products p
		LEFT JOIN inventory_ledger l ON l.product_id = p.id
		WHERE p.deletion_mark = false` + where + `
		GROUP BY p.id, p.name, p.last_restock_at
		ORDER BY p.name` + pageSuffix(filter)

	args := append([]any{dr.From, dr.To}, extraArgs...)

	var rows []reports.ForecastRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("forecast rows: %w", err)
	}

	return rows, total, nil
}

// TopStock returns the highest-stock products, in-stock only.
func (r *ReportRepo) TopStock(ctx context.Context, sortBy reports.TopStockSort, limit int) ([]reports.TopStockItem, error) {
	var orderBy string
	switch sortBy {
	case reports.TopStockByQuantity:
		orderBy = "p.quantity DESC"
	case reports.TopStockByValue:
		orderBy = "(p.quantity::numeric / 10000) * p.cost_price DESC"
	default:
		return nil, apperror.NewValidation("unknown top stock sort").WithDetail("sortBy", string(sortBy))
	}

	query := `
		SELECT p.id AS product_id,
		       p.name AS product_name,
		       p.quantity,
		       (p.quantity::numeric / 10000) * p.cost_price AS value
		FROM products p
		WHERE p.deletion_mark = false AND p.quantity > 0
		ORDER BY ` + orderBy + `, p.name
		LIMIT $1
	`

	var items []reports.TopStockItem
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query, limit); err != nil {
		return nil, fmt.Errorf("top stock: %w", err)
	}

	return items, nil
}
