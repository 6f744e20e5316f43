package importreceipt

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

// Service provides CRUD and non-applying status transitions for import
// receipts. The stock-mutating transition into completed is owned by the
// reconciliation engine, not this service.
type Service struct {
	repo       Repository
	ledgerRepo ledger.Repository
	numerator  numerator.Generator
	txManager  tx.Manager
	activity   domain.ActivityRecorder
	hooks      *domain.HookRegistry[*ImportReceipt]
}

// NewService creates a new import receipt service. activity may be nil.
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
		hooks:      domain.NewHookRegistry[*ImportReceipt](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*ImportReceipt] {
	return s.hooks
}

// Create creates a new import receipt document.
func (s *Service) Create(ctx context.Context, doc *ImportReceipt) error {
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	if doc.Status == "" {
		doc.Status = StatusDraft
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	// Generate number if empty
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

	logger.Info(ctx, "import receipt created",
		"id", doc.ID,
		"number", doc.Number)

	return nil
}

// GetByID retrieves an import receipt with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*ImportReceipt, error) {
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

// GetByNumber retrieves an import receipt by its caller-visible number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*ImportReceipt, error) {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// Update rewrites header fields and line items. Applied documents are
// frozen: their effect is already in the ledger. Each changed non-status
// field gets its own activity row.
func (s *Service) Update(ctx context.Context, doc *ImportReceipt) error {
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

// Delete removes a receipt. Refused when ledger entries reference it:
// audit history outlives the document's usefulness.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if err := s.hooks.RunBeforeDelete(ctx, doc); err != nil {
		return err
	}

	referenced, err := s.ledgerRepo.ExistsForReference(ctx, ledger.ReferenceImportReceipt, docID)
	if err != nil {
		return fmt.Errorf("check ledger references: %w", err)
	}
	if referenced {
		return apperror.NewConflict("receipt has ledger entries and cannot be deleted").
			WithDetail("document_id", docID.String())
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, docID)
	})
}

// Transition performs a non-applying status change (draft -> processing,
// -> cancelled, variance markers). The edge into completed is rejected
// here: it belongs to the reconciliation engine's apply operation.
func (s *Service) Transition(ctx context.Context, docID id.ID, to Status, actor string) (*ImportReceipt, error) {
	if to == StatusCompleted {
		return nil, apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"completion applies stock; use the apply operation",
		).WithDetail("document_id", docID.String())
	}

	var doc *ImportReceipt
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

	logger.Info(ctx, "import receipt transitioned",
		"id", docID,
		"to", to,
		"actor", actor)

	return doc, nil
}

// List retrieves import receipts with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ImportReceipt], error) {
	return s.repo.List(ctx, filter)
}
