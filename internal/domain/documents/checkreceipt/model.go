// Package checkreceipt provides the check receipt document: a periodic
// physical count reconciled against system stock.
package checkreceipt

import (
	"context"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/entity"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// Status is the check receipt lifecycle state.
type Status string

const (
	StatusPending           Status = "pending"
	StatusProcessing        Status = "processing"
	StatusBalancingRequired Status = "balancing_required"
	StatusBalanced          Status = "balanced"
)

// allowedTransitions: a check only mutates stock through the terminal
// balance operation, never by a plain status edit.
var allowedTransitions = entity.Transitions{
	string(StatusPending): {
		string(StatusProcessing),
	},
	string(StatusProcessing): {
		string(StatusBalancingRequired),
	},
	string(StatusBalancingRequired): {
		string(StatusBalanced),
	},
}

// DocumentType is the reference tag used by ledger entries and activity rows.
const DocumentType = "check_receipt"

// CheckReceipt records a physical count of stock.
type CheckReceipt struct {
	entity.Document

	Status Status `db:"status" json:"status"`

	// Table part: counted products
	Lines []Line `db:"-" json:"lines"`
}

// Line pairs the system-believed quantity with the physically counted one.
// SystemQuantity is a snapshot taken when the count is recorded; the
// balance operation re-reads the live value under lock.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	SystemQuantity  types.Quantity `db:"system_quantity" json:"systemQuantity"`
	CountedQuantity types.Quantity `db:"counted_quantity" json:"countedQuantity"`

	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
}

// Difference returns counted minus system quantity.
func (l Line) Difference() types.Quantity {
	return l.CountedQuantity.Sub(l.SystemQuantity)
}

// Aggregates are derived reporting values for a check. Computed on read,
// never persisted.
type Aggregates struct {
	SystemInventory      types.Quantity `json:"systemInventory"`
	ActualInventory      types.Quantity `json:"actualInventory"`
	TotalDifference      types.Quantity `json:"totalDifference"`
	TotalValueDifference types.Money    `json:"totalValueDifference"`
}

// ComputeAggregates derives the reporting aggregates from lines.
func ComputeAggregates(lines []Line) Aggregates {
	agg := Aggregates{TotalValueDifference: types.Zero()}
	for _, l := range lines {
		diff := l.Difference()
		agg.SystemInventory = agg.SystemInventory.Add(l.SystemQuantity)
		agg.ActualInventory = agg.ActualInventory.Add(l.CountedQuantity)
		agg.TotalDifference = agg.TotalDifference.Add(diff)
		agg.TotalValueDifference = agg.TotalValueDifference.Add(diff.MulMoney(l.UnitCost))
	}
	return agg
}

// New creates a new check receipt in pending.
func New() *CheckReceipt {
	return &CheckReceipt{
		Document: entity.NewDocument(),
		Status:   StatusPending,
		Lines:    make([]Line, 0),
	}
}

// AddLine records one counted product.
func (c *CheckReceipt) AddLine(productID id.ID, systemQty, countedQty types.Quantity, unitCost types.Money) {
	c.Lines = append(c.Lines, Line{
		LineID:          id.New(),
		LineNo:          len(c.Lines) + 1,
		ProductID:       productID,
		SystemQuantity:  systemQty,
		CountedQuantity: countedQty,
		UnitCost:        unitCost,
	})
}

// Validate implements entity.Validatable.
func (c *CheckReceipt) Validate(ctx context.Context) error {
	if err := c.Document.Validate(ctx); err != nil {
		return err
	}

	if len(c.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range c.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.CountedQuantity.IsNegative() {
			return apperror.NewValidation("counted quantity cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// CanTransition checks the status edge against the transition table.
func (c *CheckReceipt) CanTransition(to Status) error {
	if !allowedTransitions.Allowed(string(c.Status), string(to)) {
		return apperror.NewInvalidTransition(DocumentType, string(c.Status), string(to))
	}
	return nil
}

// Transition moves the check to a new status, appending a change log entry.
func (c *CheckReceipt) Transition(to Status, actor string) error {
	if err := c.CanTransition(to); err != nil {
		return err
	}
	from := c.Status
	c.Status = to
	c.RecordTransition(string(from), string(to), actor)
	return nil
}
