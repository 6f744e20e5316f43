package ledger

import (
	"context"
	"time"

	"stockbook/internal/core/id"
)

// DateRange bounds a ledger query. Zero values mean unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// LastNDays returns a range covering the last n days up to now.
func LastNDays(n int) DateRange {
	now := time.Now().UTC()
	return DateRange{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// Repository defines ledger persistence. The write path is append-only:
// there is no update or delete operation.
type Repository interface {
	// Append writes a single entry. Must run inside the same transaction
	// as the product update it records.
	Append(ctx context.Context, entry Entry) error

	// AppendBatch writes many entries via the COPY protocol. Same
	// transactional requirement as Append.
	AppendBatch(ctx context.Context, entries []Entry) error

	// ListByProduct returns entries for a product within the range,
	// ordered by creation time ascending.
	ListByProduct(ctx context.Context, productID id.ID, r DateRange) ([]Entry, error)

	// SummaryByChangeType aggregates entries in the range per change type.
	SummaryByChangeType(ctx context.Context, r DateRange) ([]Summary, error)

	// ExistsForProduct reports whether any entry references the product.
	ExistsForProduct(ctx context.Context, productID id.ID) (bool, error)

	// ExistsForReference reports whether any entry references the document.
	ExistsForReference(ctx context.Context, refType ReferenceType, refID id.ID) (bool, error)
}
