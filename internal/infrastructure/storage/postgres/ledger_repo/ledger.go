// Package ledger_repo provides the PostgreSQL implementation of the
// append-only inventory ledger.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/infrastructure/storage/postgres"
)

const ledgerTable = "inventory_ledger"

// ledgerColumns is the COPY column order for AppendBatch. Must match
// entryRow below.
var ledgerColumns = []string{
	"id", "product_id", "change_type",
	"previous_quantity", "quantity_delta", "new_quantity",
	"previous_cost", "cost_delta", "new_cost",
	"reference_type", "reference_id",
	"actor", "note", "created_at",
}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
}

// Ensure compile-time interface compliance.
var _ ledger.Repository = (*LedgerRepo)(nil)

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		inserter:  postgres.NewBatchInserter(txManager),
	}
}

func (r *LedgerRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *LedgerRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func entryRow(e ledger.Entry) []any {
	return []any{
		e.ID, e.ProductID, e.ChangeType,
		e.PreviousQuantity, e.QuantityDelta, e.NewQuantity,
		e.PreviousCost, e.CostDelta, e.NewCost,
		e.ReferenceType, e.ReferenceID,
		e.Actor, e.Note, e.CreatedAt,
	}
}

// Append writes a single entry.
func (r *LedgerRepo) Append(ctx context.Context, entry ledger.Entry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry: %w", err)
	}

	q := r.builder().
		Insert(ledgerTable).
		Columns(ledgerColumns...).
		Values(entryRow(entry)...)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	return nil
}

// AppendBatch writes entries via the COPY protocol. Requires a transaction
// in the context; the reconciliation engine always provides one.
func (r *LedgerRepo) AppendBatch(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(entries))
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("invalid ledger entry %d: %w", i, err)
		}
		rows = append(rows, entryRow(e))
	}

	copied, err := r.inserter.CopyFromSlice(ctx, ledgerTable, ledgerColumns, rows)
	if err != nil {
		return fmt.Errorf("append ledger batch: %w", err)
	}
	if copied != int64(len(rows)) {
		return fmt.Errorf("append ledger batch: copied %d of %d rows", copied, len(rows))
	}

	return nil
}

// ListByProduct returns entries for a product within the range, oldest first.
func (r *LedgerRepo) ListByProduct(ctx context.Context, productID id.ID, dr ledger.DateRange) ([]ledger.Entry, error) {
	q := r.builder().
		Select(ledgerColumns...).
		From(ledgerTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("created_at ASC", "id ASC")

	if !dr.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"created_at": dr.From})
	}
	if !dr.To.IsZero() {
		q = q.Where(squirrel.LtOrEq{"created_at": dr.To})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	if err := pgxscan.Select(ctx, r.querier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}

	return entries, nil
}

// SummaryByChangeType aggregates entries in the range per change type.
func (r *LedgerRepo) SummaryByChangeType(ctx context.Context, dr ledger.DateRange) ([]ledger.Summary, error) {
	q := r.builder().
		Select(
			"change_type",
			"COUNT(*) AS entry_count",
			"COALESCE(SUM(CASE WHEN quantity_delta > 0 THEN quantity_delta ELSE 0 END), 0) AS total_in",
			"COALESCE(SUM(CASE WHEN quantity_delta < 0 THEN -quantity_delta ELSE 0 END), 0) AS total_out",
			"COALESCE(SUM(quantity_delta), 0) AS net_quantity",
		).
		From(ledgerTable).
		GroupBy("change_type").
		OrderBy("change_type")

	if !dr.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"created_at": dr.From})
	}
	if !dr.To.IsZero() {
		q = q.Where(squirrel.LtOrEq{"created_at": dr.To})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var summaries []ledger.Summary
	if err := pgxscan.Select(ctx, r.querier(ctx), &summaries, sql, args...); err != nil {
		return nil, fmt.Errorf("summarize ledger: %w", err)
	}

	return summaries, nil
}

// ExistsForProduct reports whether any entry references the product.
func (r *LedgerRepo) ExistsForProduct(ctx context.Context, productID id.ID) (bool, error) {
	var exists bool
	err := r.querier(ctx).QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM "+ledgerTable+" WHERE product_id = $1)",
		productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ledger for product: %w", err)
	}
	return exists, nil
}

// ExistsForReference reports whether any entry references the document.
func (r *LedgerRepo) ExistsForReference(ctx context.Context, refType ledger.ReferenceType, refID id.ID) (bool, error) {
	var exists bool
	err := r.querier(ctx).QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM "+ledgerTable+" WHERE reference_type = $1 AND reference_id = $2)",
		refType, refID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ledger for reference: %w", err)
	}
	return exists, nil
}
