package importreceipt

import (
	"context"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/domain"
)

// Repository defines operations for import receipt documents.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *ImportReceipt) error
	GetByID(ctx context.Context, docID id.ID) (*ImportReceipt, error)
	GetByNumber(ctx context.Context, number string) (*ImportReceipt, error)
	Update(ctx context.Context, doc *ImportReceipt) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*ImportReceipt], error)

	// GetForUpdate loads the document under a row lock (FOR UPDATE).
	// The idempotency check must read applied_at through this path, inside
	// the same transaction as the mutation it guards.
	GetForUpdate(ctx context.Context, docID id.ID) (*ImportReceipt, error)
}

// ListFilter for filtering import receipts.
type ListFilter struct {
	domain.ListFilter

	// Document-specific filters
	Status   *Status
	Applied  *bool
	DateFrom *time.Time
	DateTo   *time.Time
}
