package checkreceipt

import (
	"context"
	"fmt"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/numerator"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain"
	"stockbook/internal/domain/ledger"
	"stockbook/pkg/logger"
)

// Service provides CRUD and non-balancing status transitions for check
// receipts. The balance operation is owned by the reconciliation engine.
type Service struct {
	repo       Repository
	ledgerRepo ledger.Repository
	numerator  numerator.Generator
	txManager  tx.Manager
	activity   domain.ActivityRecorder
	hooks      *domain.HookRegistry[*CheckReceipt]
}

// NewService creates a new check receipt service. activity may be nil.
func NewService(
	repo Repository,
	ledgerRepo ledger.Repository,
	numerator numerator.Generator,
	txManager tx.Manager,
	activity domain.ActivityRecorder,
) *Service {
	return &Service{
		repo:       repo,
		ledgerRepo: ledgerRepo,
		numerator:  numerator,
		txManager:  txManager,
		activity:   activity,
		hooks:      domain.NewHookRegistry[*CheckReceipt](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*CheckReceipt] {
	return s.hooks
}

// Create creates a new check receipt document.
func (s *Service) Create(ctx context.Context, doc *CheckReceipt) error {
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	if doc.Status == "" {
		doc.Status = StatusPending
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "check receipt created",
		"id", doc.ID,
		"number", doc.Number)

	return nil
}

// GetByID retrieves a check receipt with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*CheckReceipt, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// GetWithAggregates retrieves a check receipt plus its derived reporting
// aggregates (system vs counted inventory, value difference).
func (s *Service) GetWithAggregates(ctx context.Context, docID id.ID) (*CheckReceipt, Aggregates, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, Aggregates{}, err
	}
	return doc, ComputeAggregates(doc.Lines), nil
}

// Update rewrites header fields and counted lines. Balanced checks are
// frozen. Each changed non-status field gets its own activity row.
func (s *Service) Update(ctx context.Context, doc *CheckReceipt) error {
	if err := s.hooks.RunBeforeUpdate(ctx, doc); err != nil {
		return err
	}

	if err := doc.CanModify(); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	stored, err := s.GetByID(ctx, doc.ID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordFieldChanges(ctx, stored, doc)
	return nil
}

// Delete removes a check unless ledger entries reference it.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if err := s.hooks.RunBeforeDelete(ctx, doc); err != nil {
		return err
	}

	referenced, err := s.ledgerRepo.ExistsForReference(ctx, ledger.ReferenceCheckReceipt, docID)
	if err != nil {
		return fmt.Errorf("check ledger references: %w", err)
	}
	if referenced {
		return apperror.NewConflict("check has ledger entries and cannot be deleted").
			WithDetail("document_id", docID.String())
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, docID)
	})
}

// Transition performs a non-balancing status change (pending -> processing,
// processing -> balancing_required). The edge into balanced is rejected:
// it belongs to the reconciliation engine's balance operation.
func (s *Service) Transition(ctx context.Context, docID id.ID, to Status, actor string) (*CheckReceipt, error) {
	if to == StatusBalanced {
		return nil, apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"balancing mutates stock; use the balance operation",
		).WithDetail("document_id", docID.String())
	}

	var doc *CheckReceipt
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if err := doc.Transition(to, actor); err != nil {
			return err
		}

		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "check receipt transitioned",
		"id", docID,
		"to", to,
		"actor", actor)

	return doc, nil
}

// List retrieves check receipts with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*CheckReceipt], error) {
	return s.repo.List(ctx, filter)
}

// ListWithAggregates retrieves check receipts plus per-document aggregates
// summed in the database. Checks without lines get zero aggregates.
func (s *Service) ListWithAggregates(ctx context.Context, filter ListFilter) (domain.ListResult[*CheckReceipt], map[id.ID]Aggregates, error) {
	result, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[*CheckReceipt]{}, nil, err
	}

	docIDs := make([]id.ID, 0, len(result.Items))
	for _, doc := range result.Items {
		docIDs = append(docIDs, doc.ID)
	}

	aggregates, err := s.repo.AggregatesFor(ctx, docIDs)
	if err != nil {
		return domain.ListResult[*CheckReceipt]{}, nil, fmt.Errorf("aggregate checks: %w", err)
	}

	return result, aggregates, nil
}
