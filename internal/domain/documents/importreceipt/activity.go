package importreceipt

import (
	"context"

	"stockbook/pkg/logger"
)

// fieldChange is one non-status field difference between the stored and
// incoming versions of a receipt.
type fieldChange struct {
	Field string
	From  any
	To    any
}

// fieldChanges diffs the updatable non-status fields. Status changes go
// through Transition and the change log, not through update activity.
// Totals are derived from lines and get no row of their own.
func fieldChanges(old, updated *ImportReceipt) []fieldChange {
	var changes []fieldChange
	if old.SupplierName != updated.SupplierName {
		changes = append(changes, fieldChange{"supplier_name", old.SupplierName, updated.SupplierName})
	}
	if !old.Date.Equal(updated.Date) {
		changes = append(changes, fieldChange{"date", old.Date, updated.Date})
	}
	if old.Note != updated.Note {
		changes = append(changes, fieldChange{"note", old.Note, updated.Note})
	}
	if !linesEqual(old.Lines, updated.Lines) {
		changes = append(changes, fieldChange{"lines", old.Lines, updated.Lines})
	}
	return changes
}

// linesEqual compares line content. Line IDs are regenerated on every
// rewrite and carry no meaning for the diff.
func linesEqual(a, b []Line) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ProductID != b[i].ProductID ||
			a[i].Quantity != b[i].Quantity ||
			!a[i].UnitCost.Equal(b[i].UnitCost) {
			return false
		}
	}
	return true
}

// recordFieldChanges writes one activity row per changed field. Failures
// are logged, never propagated: the update has already committed.
func (s *Service) recordFieldChanges(ctx context.Context, old, updated *ImportReceipt) {
	if s.activity == nil {
		return
	}
	for _, ch := range fieldChanges(old, updated) {
		err := s.activity.RecordAction(ctx, DocumentType, updated.ID, "update", map[string]any{
			"field": ch.Field,
			"from":  ch.From,
			"to":    ch.To,
		})
		if err != nil {
			logger.Warn(ctx, "record activity failed",
				"id", updated.ID,
				"field", ch.Field,
				"error", err)
		}
	}
}
