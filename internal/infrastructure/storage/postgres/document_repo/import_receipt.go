package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/id"
	"stockbook/internal/domain"
	"stockbook/internal/domain/documents/importreceipt"
	"stockbook/internal/infrastructure/storage/postgres"
)

const (
	importReceiptsTable     = "doc_import_receipts"
	importReceiptLinesTable = "doc_import_receipt_lines"
)

// ImportReceiptRepo implements importreceipt.Repository.
type ImportReceiptRepo struct {
	*BaseDocumentRepo[*importreceipt.ImportReceipt]
}

// Ensure compile-time interface compliance.
var _ importreceipt.Repository = (*ImportReceiptRepo)(nil)

// NewImportReceiptRepo creates a new import receipt repository.
func NewImportReceiptRepo(txManager *postgres.TxManager) *ImportReceiptRepo {
	return &ImportReceiptRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			importReceiptsTable,
			postgres.ExtractDBColumns[importreceipt.ImportReceipt](),
			func() *importreceipt.ImportReceipt { return &importreceipt.ImportReceipt{} },
		),
	}
}

// GetLines retrieves lines for an import receipt.
func (r *ImportReceiptRepo) GetLines(ctx context.Context, docID id.ID) ([]importreceipt.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "quantity", "unit_cost").
		From(importReceiptLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []importreceipt.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves lines for an import receipt (delete existing + insert new).
func (r *ImportReceiptRepo) SaveLines(ctx context.Context, docID id.ID, lines []importreceipt.Line) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + importReceiptLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(importReceiptLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "quantity", "unit_cost")

	for _, line := range lines {
		q = q.Values(line.LineID, docID, line.LineNo, line.ProductID, line.Quantity, line.UnitCost)
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

// List retrieves import receipts with filtering.
func (r *ImportReceiptRepo) List(ctx context.Context, filter importreceipt.ListFilter) (domain.ListResult[*importreceipt.ImportReceipt], error) {
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
