package checkreceipt

import (
	"context"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/domain"
)

// Repository defines operations for check receipt documents.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *CheckReceipt) error
	GetByID(ctx context.Context, docID id.ID) (*CheckReceipt, error)
	GetByNumber(ctx context.Context, number string) (*CheckReceipt, error)
	Update(ctx context.Context, doc *CheckReceipt) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// AggregatesFor computes per-document aggregates as SQL sums over the
	// lines table. Documents without lines get zero aggregates.
	AggregatesFor(ctx context.Context, docIDs []id.ID) (map[id.ID]Aggregates, error)

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*CheckReceipt], error)

	// GetForUpdate loads the document under a row lock (FOR UPDATE).
	GetForUpdate(ctx context.Context, docID id.ID) (*CheckReceipt, error)
}

// ListFilter for filtering check receipts.
type ListFilter struct {
	domain.ListFilter

	// Document-specific filters
	Status   *Status
	Applied  *bool
	DateFrom *time.Time
	DateTo   *time.Time
}
