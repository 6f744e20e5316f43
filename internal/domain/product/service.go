package product

import (
	"context"
	"fmt"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain"
	"stockbook/pkg/logger"
)

// LedgerProbe lets the product service refuse deletion of products that
// still have ledger history. Implemented by the ledger repository.
type LedgerProbe interface {
	ExistsForProduct(ctx context.Context, productID id.ID) (bool, error)
}

// Service provides business operations for products.
type Service struct {
	repo        Repository
	ledgerProbe LedgerProbe
	txManager   tx.Manager
	hooks       *domain.HookRegistry[*Product]
}

// NewService creates a new product service.
func NewService(repo Repository, ledgerProbe LedgerProbe, txManager tx.Manager) *Service {
	return &Service{
		repo:        repo,
		ledgerProbe: ledgerProbe,
		txManager:   txManager,
		hooks:       domain.NewHookRegistry[*Product](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Product] {
	return s.hooks
}

// Create creates a new product with zero stock.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if err := s.hooks.RunBeforeCreate(ctx, p); err != nil {
		return err
	}

	if existing, err := s.repo.GetBySKU(ctx, p.SKU); err == nil && existing != nil {
		return apperror.NewConflict("product with this sku already exists").
			WithDetail("sku", p.SKU)
	} else if err != nil && !apperror.IsNotFound(err) {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, p); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "product created", "id", p.ID, "sku", p.SKU)
	return nil
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetBySKU retrieves a product by its SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.GetBySKU(ctx, sku)
}

// Update modifies catalog fields (name, unit, prices). Quantity changes
// are rejected here: stock moves only through the reconciliation engine.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if err := s.hooks.RunBeforeUpdate(ctx, p); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if current.Quantity != p.Quantity {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"quantity cannot be edited directly; use inventory operations",
		).WithDetail("product_id", p.ID.String())
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, p); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}

	return nil
}

// Delete soft-deletes a product. Products referenced by ledger entries
// cannot be deleted: history wins over cleanup.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	if err := s.hooks.RunBeforeDelete(ctx, p); err != nil {
		return err
	}

	referenced, err := s.ledgerProbe.ExistsForProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("check ledger references: %w", err)
	}
	if referenced {
		return apperror.NewConflict("product has inventory history and cannot be deleted").
			WithDetail("product_id", productID.String())
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SetDeletionMark(ctx, productID, true)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterDelete(ctx, p); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "error", err)
	}

	return nil
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter)
}
