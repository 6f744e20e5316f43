// Package importreceipt provides the import receipt document (stock in
// from a supplier).
package importreceipt

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/entity"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// Status is the import receipt lifecycle state.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusProcessing    Status = "processing"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
	StatusShortReceived Status = "short_received"
	StatusOverReceived  Status = "over_received"
)

// allowedTransitions is the full state machine. Absent edges are invalid;
// completed, cancelled, short_received and over_received are terminal.
var allowedTransitions = entity.Transitions{
	string(StatusDraft): {
		string(StatusProcessing),
		string(StatusCancelled),
	},
	string(StatusProcessing): {
		string(StatusCompleted),
		string(StatusShortReceived),
		string(StatusOverReceived),
		string(StatusCancelled),
	},
}

// DocumentType is the reference tag used by ledger entries and activity rows.
const DocumentType = "import_receipt"

// ImportReceipt records incoming goods from a supplier.
// Only a transition into completed applies stock; short_received and
// over_received are terminal variance markers.
type ImportReceipt struct {
	entity.Document

	// SupplierName is free-form: supplier management is out of scope
	SupplierName string `db:"supplier_name" json:"supplierName"`

	Status Status `db:"status" json:"status"`

	// Totals (calculated from lines)
	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   types.Money    `db:"total_amount" json:"totalAmount"`

	// Table part: received goods
	Lines []Line `db:"-" json:"lines"`
}

// Line represents one received product.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	UnitCost types.Money    `db:"unit_cost" json:"unitCost"`
}

// New creates a new import receipt in draft.
func New(supplierName string) *ImportReceipt {
	return &ImportReceipt{
		Document:     entity.NewDocument(),
		SupplierName: supplierName,
		Status:       StatusDraft,
		Lines:        make([]Line, 0),
	}
}

// AddLine adds a line and recalculates totals.
func (r *ImportReceipt) AddLine(productID id.ID, quantity types.Quantity, unitCost types.Money) {
	r.Lines = append(r.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(r.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitCost:  unitCost,
	})
	r.recalculateTotals()
}

// recalculateTotals updates document totals from lines.
func (r *ImportReceipt) recalculateTotals() {
	r.TotalQuantity = 0
	r.TotalAmount = types.Zero()

	for _, line := range r.Lines {
		r.TotalQuantity = r.TotalQuantity.Add(line.Quantity)
		r.TotalAmount = r.TotalAmount.Add(line.Quantity.MulMoney(line.UnitCost))
	}
}

// Validate implements entity.Validatable.
func (r *ImportReceipt) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}

	if len(r.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range r.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// CanTransition checks the status edge against the transition table.
func (r *ImportReceipt) CanTransition(to Status) error {
	if !allowedTransitions.Allowed(string(r.Status), string(to)) {
		return apperror.NewInvalidTransition(DocumentType, string(r.Status), string(to))
	}
	return nil
}

// Transition moves the receipt to a new status, appending a change log
// entry. The edge must be in the transition table.
func (r *ImportReceipt) Transition(to Status, actor string) error {
	if err := r.CanTransition(to); err != nil {
		return err
	}
	from := r.Status
	r.Status = to
	r.RecordTransition(string(from), string(to), actor)
	return nil
}

// CanComplete reports whether the receipt can reach completed from its
// current status. Drafts qualify: completing one walks it through
// processing first.
func (r *ImportReceipt) CanComplete() error {
	if r.Status == StatusDraft {
		return nil
	}
	return r.CanTransition(StatusCompleted)
}

// Complete moves the receipt into completed. A draft passes through
// processing on the way, so the change log keeps both hops.
func (r *ImportReceipt) Complete(actor string) error {
	if r.Status == StatusDraft {
		if err := r.Transition(StatusProcessing, actor); err != nil {
			return err
		}
	}
	return r.Transition(StatusCompleted, actor)
}

// IsTerminal reports whether the current status has no outgoing edges.
func (r *ImportReceipt) IsTerminal() bool {
	return len(allowedTransitions[string(r.Status)]) == 0
}
