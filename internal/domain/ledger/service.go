package ledger

import (
	"context"

	"stockbook/internal/core/id"
)

// Service exposes read-only ledger projections. Writes happen only through
// the reconciliation engine, which talks to the Repository directly.
type Service struct {
	repo Repository
}

// NewService creates a new ledger query service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ByProduct returns the ledger history for one product.
func (s *Service) ByProduct(ctx context.Context, productID id.ID, r DateRange) ([]Entry, error) {
	return s.repo.ListByProduct(ctx, productID, r)
}

// SummaryByChangeType aggregates ledger activity per change type.
func (s *Service) SummaryByChangeType(ctx context.Context, r DateRange) ([]Summary, error) {
	return s.repo.SummaryByChangeType(ctx, r)
}
