package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/documents/checkreceipt"
	"stockbook/internal/infrastructure/storage/postgres"
)

const (
	checkReceiptsTable     = "doc_check_receipts"
	checkReceiptLinesTable = "doc_check_receipt_lines"
)

// CheckReceiptRepo implements checkreceipt.Repository.
type CheckReceiptRepo struct {
	*BaseDocumentRepo[*checkreceipt.CheckReceipt]
}

// Ensure compile-time interface compliance.
var _ checkreceipt.Repository = (*CheckReceiptRepo)(nil)

// NewCheckReceiptRepo creates a new check receipt repository.
func NewCheckReceiptRepo(txManager *postgres.TxManager) *CheckReceiptRepo {
	return &CheckReceiptRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			checkReceiptsTable,
			postgres.ExtractDBColumns[checkreceipt.CheckReceipt](),
			func() *checkreceipt.CheckReceipt { return &checkreceipt.CheckReceipt{} },
		),
	}
}

// GetLines retrieves counted lines for a check receipt.
func (r *CheckReceiptRepo) GetLines(ctx context.Context, docID id.ID) ([]checkreceipt.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "system_quantity", "counted_quantity", "unit_cost").
		From(checkReceiptLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []checkreceipt.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves counted lines for a check receipt (delete existing + insert new).
func (r *CheckReceiptRepo) SaveLines(ctx context.Context, docID id.ID, lines []checkreceipt.Line) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + checkReceiptLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(checkReceiptLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "system_quantity", "counted_quantity", "unit_cost")

	for _, line := range lines {
		q = q.Values(line.LineID, docID, line.LineNo, line.ProductID, line.SystemQuantity, line.CountedQuantity, line.UnitCost)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// AggregatesFor computes per-document aggregates as sums over the lines
// table. Value math divides the scaled quantity back to units.
func (r *CheckReceiptRepo) AggregatesFor(ctx context.Context, docIDs []id.ID) (map[id.ID]checkreceipt.Aggregates, error) {
	result := make(map[id.ID]checkreceipt.Aggregates, len(docIDs))
	if len(docIDs) == 0 {
		return result, nil
	}

	q := r.Builder().
		Select(
			"document_id",
			"COALESCE(SUM(system_quantity), 0) AS system_inventory",
			"COALESCE(SUM(counted_quantity), 0) AS actual_inventory",
			"COALESCE(SUM(counted_quantity - system_quantity), 0) AS total_difference",
			"COALESCE(SUM(((counted_quantity - system_quantity)::numeric / 10000) * unit_cost), 0) AS total_value_difference",
		).
		From(checkReceiptLinesTable).
		Where(squirrel.Eq{"document_id": docIDs}).
		GroupBy("document_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []struct {
		DocumentID           id.ID          `db:"document_id"`
		SystemInventory      types.Quantity `db:"system_inventory"`
		ActualInventory      types.Quantity `db:"actual_inventory"`
		TotalDifference      types.Quantity `db:"total_difference"`
		TotalValueDifference types.Money    `db:"total_value_difference"`
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("aggregate lines: %w", err)
	}

	for _, row := range rows {
		result[row.DocumentID] = checkreceipt.Aggregates{
			SystemInventory:      row.SystemInventory,
			ActualInventory:      row.ActualInventory,
			TotalDifference:      row.TotalDifference,
			TotalValueDifference: row.TotalValueDifference,
		}
	}
	return result, nil
}

// List retrieves check receipts with filtering.
func (r *CheckReceiptRepo) List(ctx context.Context, filter checkreceipt.ListFilter) (domain.ListResult[*checkreceipt.CheckReceipt], error) {
	return r.list(ctx, filter.ListFilter, func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.Status != nil {
			q = q.Where(squirrel.Eq{"status": *filter.Status})
		}
		if filter.Applied != nil {
			if *filter.Applied {
				q = q.Where("applied_at IS NOT NULL")
			} else {
				q = q.Where("applied_at IS NULL")
			}
		}
		if filter.DateFrom != nil {
			q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
		}
		if filter.DateTo != nil {
			q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
		}
		return q
	})
}
