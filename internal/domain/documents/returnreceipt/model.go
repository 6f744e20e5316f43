// Package returnreceipt provides the return receipt document. Customer
// returns bring stock back in; supplier returns send stock out.
package returnreceipt

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/entity"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// Status is the return receipt lifecycle state.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var allowedTransitions = entity.Transitions{
	string(StatusDraft): {
		string(StatusProcessing),
		string(StatusCancelled),
	},
	string(StatusProcessing): {
		string(StatusCompleted),
		string(StatusCancelled),
	},
}

// DocumentType is the reference tag used by ledger entries and activity rows.
const DocumentType = "return_receipt"

// ReturnType distinguishes who is returning goods.
type ReturnType string

const (
	ReturnTypeCustomer ReturnType = "CUSTOMER"
	ReturnTypeSupplier ReturnType = "SUPPLIER"
)

// deltaSigns is the single place where the direction of a return is
// decided: customer returns increase stock, supplier returns decrease it.
var deltaSigns = map[ReturnType]int64{
	ReturnTypeCustomer: +1,
	ReturnTypeSupplier: -1,
}

// DeltaSign returns the stock delta sign for the return type, or an error
// for unknown types (never defaults silently).
func DeltaSign(t ReturnType) (int64, error) {
	sign, ok := deltaSigns[t]
	if !ok {
		return 0, apperror.NewValidation("unknown return type").
			WithDetail("return_type", string(t))
	}
	return sign, nil
}

// ReturnReceipt records goods returned by a customer or to a supplier.
type ReturnReceipt struct {
	entity.Document

	// CounterpartyName is free-form: party management is out of scope
	CounterpartyName string `db:"counterparty_name" json:"counterpartyName"`

	ReturnType ReturnType `db:"return_type" json:"returnType"`

	Status Status `db:"status" json:"status"`

	// Totals (calculated from lines)
	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   types.Money    `db:"total_amount" json:"totalAmount"`

	// Table part: returned goods
	Lines []Line `db:"-" json:"lines"`
}

// Line represents one returned product.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	UnitCost types.Money    `db:"unit_cost" json:"unitCost"`
}

// New creates a new return receipt in draft.
func New(counterpartyName string, returnType ReturnType) *ReturnReceipt {
	return &ReturnReceipt{
		Document:         entity.NewDocument(),
		CounterpartyName: counterpartyName,
		ReturnType:       returnType,
		Status:           StatusDraft,
		Lines:            make([]Line, 0),
	}
}

// AddLine adds a line and recalculates totals.
func (r *ReturnReceipt) AddLine(productID id.ID, quantity types.Quantity, unitCost types.Money) {
	r.Lines = append(r.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(r.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitCost:  unitCost,
	})
	r.recalculateTotals()
}

func (r *ReturnReceipt) recalculateTotals() {
	r.TotalQuantity = 0
	r.TotalAmount = types.Zero()

	for _, line := range r.Lines {
		r.TotalQuantity = r.TotalQuantity.Add(line.Quantity)
		r.TotalAmount = r.TotalAmount.Add(line.Quantity.MulMoney(line.UnitCost))
	}
}

// Validate implements entity.Validatable.
func (r *ReturnReceipt) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}

	if _, err := DeltaSign(r.ReturnType); err != nil {
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
	}

	return nil
}

// CanTransition checks the status edge against the transition table.
func (r *ReturnReceipt) CanTransition(to Status) error {
	if !allowedTransitions.Allowed(string(r.Status), string(to)) {
		return apperror.NewInvalidTransition(DocumentType, string(r.Status), string(to))
	}
	return nil
}

// Transition moves the receipt to a new status, appending a change log entry.
func (r *ReturnReceipt) Transition(to Status, actor string) error {
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
func (r *ReturnReceipt) CanComplete() error {
	if r.Status == StatusDraft {
		return nil
	}
	return r.CanTransition(StatusCompleted)
}

// Complete moves the receipt into completed. A draft passes through
// processing on the way, so the change log keeps both hops.
func (r *ReturnReceipt) Complete(actor string) error {
	if r.Status == StatusDraft {
		if err := r.Transition(StatusProcessing, actor); err != nil {
			return err
		}
	}
	return r.Transition(StatusCompleted, actor)
}
