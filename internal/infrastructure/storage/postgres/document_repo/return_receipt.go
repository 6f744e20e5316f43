package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/id"
	"stockbook/internal/domain"
	"stockbook/internal/domain/documents/returnreceipt"
	"stockbook/internal/infrastructure/storage/postgres"
)

const (
	returnReceiptsTable     = "doc_return_receipts"
	returnReceiptLinesTable = "doc_return_receipt_lines"
)

// ReturnReceiptRepo implements returnreceipt.Repository.
type ReturnReceiptRepo struct {
	*BaseDocumentRepo[*returnreceipt.ReturnReceipt]
}

// Ensure compile-time interface compliance.
var _ returnreceipt.Repository = (*ReturnReceiptRepo)(nil)

// NewReturnReceiptRepo creates a new return receipt repository.
func NewReturnReceiptRepo(txManager *postgres.TxManager) *ReturnReceiptRepo {
	return &ReturnReceiptRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			returnReceiptsTable,
			postgres.ExtractDBColumns[returnreceipt.ReturnReceipt](),
			func() *returnreceipt.ReturnReceipt { return &returnreceipt.ReturnReceipt{} },
		),
	}
}

// GetLines retrieves lines for a return receipt.
func (r *ReturnReceiptRepo) GetLines(ctx context.Context, docID id.ID) ([]returnreceipt.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "quantity", "unit_cost").
		From(returnReceiptLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []returnreceipt.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves lines for a return receipt (delete existing + insert new).
func (r *ReturnReceiptRepo) SaveLines(ctx context.Context, docID id.ID, lines []returnreceipt.Line) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + returnReceiptLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(returnReceiptLinesTable).
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

// List retrieves return receipts with filtering.
func (r *ReturnReceiptRepo) List(ctx context.Context, filter returnreceipt.ListFilter) (domain.ListResult[*returnreceipt.ReturnReceipt], error) {
	return r.list(ctx, filter.ListFilter, func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.Status != nil {
			q = q.Where(squirrel.Eq{"status": *filter.Status})
		}
		if filter.ReturnType != nil {
			q = q.Where(squirrel.Eq{"return_type": *filter.ReturnType})
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
