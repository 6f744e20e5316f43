package entity

import (
	"context"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
)

// Document is the base type for warehouse receipts (import, return, check).
// Concrete receipt types embed it and add their own status and line items.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+year)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// AppliedAt is set exactly once, when the document's stock effect is
	// committed to the ledger. A non-nil value is permanent: the marker
	// never resets, even if the document is later cancelled.
	AppliedAt *time.Time `db:"applied_at" json:"appliedAt,omitempty"`

	// AppliedBy records the actor that triggered the application
	AppliedBy string `db:"applied_by" json:"appliedBy,omitempty"`

	// ChangeLog is the append-only status history (JSONB)
	ChangeLog ChangeLog `db:"change_log" json:"changeLog,omitempty"`

	// Note is an optional user comment
	Note string `db:"note" json:"note,omitempty"`
}

// NewDocument creates a new Document with generated ID and current business date.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}

// IsApplied reports whether the document's stock effect has been committed.
func (d *Document) IsApplied() bool {
	return d.AppliedAt != nil
}

// MarkApplied sets the applied marker. Returns AlreadyApplied if the
// marker is already set: application happens at most once per document.
func (d *Document) MarkApplied(actor string, at time.Time) error {
	if d.AppliedAt != nil {
		return apperror.NewAlreadyApplied(d.ID.String())
	}
	at = at.UTC()
	d.AppliedAt = &at
	d.AppliedBy = actor
	d.Touch()
	return nil
}

// CanModify checks if document content (header, line items) can be changed.
// Applied documents are frozen: their effect is already in the ledger.
func (d *Document) CanModify() error {
	if d.IsApplied() {
		return apperror.NewAlreadyApplied(d.ID.String())
	}
	return nil
}

// RecordTransition appends a status change to the change log and touches
// the document. Callers validate the edge against their transition table
// before calling.
func (d *Document) RecordTransition(from, to, actor string) {
	d.ChangeLog = d.ChangeLog.Append(StatusChange{
		From:  from,
		To:    to,
		Actor: actor,
		At:    time.Now().UTC(),
	})
	d.Touch()
}

// Transitions is a status transition table: for each source status, the
// set of statuses reachable from it. Absent edges are invalid.
type Transitions map[string][]string

// Allowed reports whether the edge from -> to exists in the table.
func (t Transitions) Allowed(from, to string) bool {
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}
