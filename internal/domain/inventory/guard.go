package inventory

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/documents/checkreceipt"
	"stockbook/internal/domain/documents/importreceipt"
	"stockbook/internal/domain/documents/returnreceipt"
)

// appliedDocument is the slice of a receipt the idempotency guard needs.
type appliedDocument interface {
	GetID() id.ID
	IsApplied() bool
}

// ensureNotApplied is the idempotency guard: a document whose applied
// marker is set must never mutate stock again. Callers must hold the
// document's row lock (GetForUpdate) in the same transaction as the
// mutation, otherwise two appliers can both observe "not yet applied".
func ensureNotApplied(doc appliedDocument) error {
	if doc.IsApplied() {
		return apperror.NewAlreadyApplied(doc.GetID().String())
	}
	return nil
}

// CanApply reports whether the document could be applied right now: not
// yet applied and in a status with an edge into its terminal success
// state. Advisory only; the authoritative check runs under the row lock
// inside the apply transaction.
func (e *Engine) CanApply(ctx context.Context, docType string, docID id.ID) (bool, error) {
	switch docType {
	case importreceipt.DocumentType:
		doc, err := e.imports.GetByID(ctx, docID)
		if err != nil {
			return false, err
		}
		return !doc.IsApplied() && doc.CanTransition(importreceipt.StatusCompleted) == nil, nil

	case returnreceipt.DocumentType:
		doc, err := e.returns.GetByID(ctx, docID)
		if err != nil {
			return false, err
		}
		return !doc.IsApplied() && doc.CanTransition(returnreceipt.StatusCompleted) == nil, nil

	case checkreceipt.DocumentType:
		doc, err := e.checks.GetByID(ctx, docID)
		if err != nil {
			return false, err
		}
		return !doc.IsApplied() && doc.CanTransition(checkreceipt.StatusBalanced) == nil, nil
	}

	return false, apperror.NewValidation("unknown document type").
		WithDetail("document_type", docType)
}
