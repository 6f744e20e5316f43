// Package ledger provides the inventory ledger: an append-only log of
// every stock change. The ledger is the source of truth for stock history;
// the product table is a projection of it.
package ledger

import (
	"fmt"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// ChangeType explains why a stock change occurred.
type ChangeType string

const (
	ChangeTypeImport ChangeType = "IMPORT"
	ChangeTypeReturn ChangeType = "RETURN"
	ChangeTypeCheck  ChangeType = "CHECK"
	ChangeTypeManual ChangeType = "MANUAL"
	ChangeTypeSale   ChangeType = "SALE"
	ChangeTypeSystem ChangeType = "SYSTEM"
)

// Valid reports whether t is a known change type.
func (t ChangeType) Valid() bool {
	switch t {
	case ChangeTypeImport, ChangeTypeReturn, ChangeTypeCheck,
		ChangeTypeManual, ChangeTypeSale, ChangeTypeSystem:
		return true
	}
	return false
}

// ReferenceType names the kind of document a ledger entry points back to.
type ReferenceType string

const (
	ReferenceImportReceipt ReferenceType = "import_receipt"
	ReferenceReturnReceipt ReferenceType = "return_receipt"
	ReferenceCheckReceipt  ReferenceType = "check_receipt"
	ReferenceManual        ReferenceType = "manual"
)

// Entry is one immutable ledger row. Written exclusively inside a
// transaction together with the corresponding product update.
type Entry struct {
	ID        id.ID      `db:"id" json:"id"`
	ProductID id.ID      `db:"product_id" json:"productId"`

	ChangeType ChangeType `db:"change_type" json:"changeType"`

	// Quantity chain: NewQuantity = PreviousQuantity + QuantityDelta, exact.
	PreviousQuantity types.Quantity `db:"previous_quantity" json:"previousQuantity"`
	QuantityDelta    types.Quantity `db:"quantity_delta" json:"quantityDelta"`
	NewQuantity      types.Quantity `db:"new_quantity" json:"newQuantity"`

	// Cost chain, same shape.
	PreviousCost types.Money `db:"previous_cost" json:"previousCost"`
	CostDelta    types.Money `db:"cost_delta" json:"costDelta"`
	NewCost      types.Money `db:"new_cost" json:"newCost"`

	// Reference back to the causing document, nullable for manual changes.
	ReferenceType *ReferenceType `db:"reference_type" json:"referenceType,omitempty"`
	ReferenceID   *id.ID         `db:"reference_id" json:"referenceId,omitempty"`

	Actor     string    `db:"actor" json:"actor"`
	Note      string    `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewEntry builds a ledger entry with generated ID and timestamp. The new
// quantity is computed, never passed in, so the arithmetic invariant holds
// by construction.
func NewEntry(productID id.ID, changeType ChangeType, prevQty, delta types.Quantity, prevCost, newCost types.Money, actor string) Entry {
	return Entry{
		ID:               id.New(),
		ProductID:        productID,
		ChangeType:       changeType,
		PreviousQuantity: prevQty,
		QuantityDelta:    delta,
		NewQuantity:      prevQty.Add(delta),
		PreviousCost:     prevCost,
		CostDelta:        newCost.Sub(prevCost),
		NewCost:          newCost,
		Actor:            actor,
		CreatedAt:        time.Now().UTC(),
	}
}

// WithReference attaches the causing document.
func (e Entry) WithReference(refType ReferenceType, refID id.ID) Entry {
	e.ReferenceType = &refType
	e.ReferenceID = &refID
	return e
}

// Validate checks the entry's internal arithmetic.
func (e Entry) Validate() error {
	if !e.ChangeType.Valid() {
		return fmt.Errorf("unknown change type %q", e.ChangeType)
	}
	if e.NewQuantity != e.PreviousQuantity.Add(e.QuantityDelta) {
		return fmt.Errorf("quantity chain broken: %s + %s != %s",
			e.PreviousQuantity, e.QuantityDelta, e.NewQuantity)
	}
	if !e.NewCost.Equal(e.PreviousCost.Add(e.CostDelta)) {
		return fmt.Errorf("cost chain broken: %s + %s != %s",
			e.PreviousCost, e.CostDelta, e.NewCost)
	}
	return nil
}

// ValidateChain verifies append-only consistency for entries of a single
// product in creation order: each entry's previous quantity must equal the
// prior entry's new quantity.
func ValidateChain(entries []Entry) error {
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if i == 0 {
			continue
		}
		prev := entries[i-1]
		if e.ProductID != prev.ProductID {
			return fmt.Errorf("entry %d: chain spans multiple products", i)
		}
		if e.PreviousQuantity != prev.NewQuantity {
			return fmt.Errorf("entry %d: previous quantity %s disagrees with prior new quantity %s",
				i, e.PreviousQuantity, prev.NewQuantity)
		}
	}
	return nil
}

// Summary aggregates ledger activity for one change type.
type Summary struct {
	ChangeType    ChangeType     `db:"change_type" json:"changeType"`
	EntryCount    int64          `db:"entry_count" json:"entryCount"`
	TotalIn       types.Quantity `db:"total_in" json:"totalIn"`
	TotalOut      types.Quantity `db:"total_out" json:"totalOut"`
	NetQuantity   types.Quantity `db:"net_quantity" json:"netQuantity"`
}
