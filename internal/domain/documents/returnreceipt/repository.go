package returnreceipt

import (
	"context"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/domain"
)

// Repository defines operations for return receipt documents.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *ReturnReceipt) error
	GetByID(ctx context.Context, docID id.ID) (*ReturnReceipt, error)
	GetByNumber(ctx context.Context, number string) (*ReturnReceipt, error)
	Update(ctx context.Context, doc *ReturnReceipt) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*ReturnReceipt], error)

	// GetForUpdate loads the document under a row lock (FOR UPDATE).
	GetForUpdate(ctx context.Context, docID id.ID) (*ReturnReceipt, error)
}

// ListFilter for filtering return receipts.
type ListFilter struct {
	domain.ListFilter

	// Document-specific filters
	Status     *Status
	ReturnType *ReturnType
	Applied    *bool
	DateFrom   *time.Time
	DateTo     *time.Time
}
