// Package inventory provides the reconciliation engine: the only code
// path allowed to mutate product stock. Every mutation pairs an atomic
// product update with an append-only ledger entry inside one transaction.
package inventory

import (
	"context"
	"fmt"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/documents/checkreceipt"
	"stockbook/internal/domain/documents/importreceipt"
	"stockbook/internal/domain/documents/returnreceipt"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/domain/product"
	"stockbook/pkg/logger"
)

// ActivityRecorder persists an audit trail row for an applied document.
// Failures are logged, never propagated: the stock mutation has already
// committed its business effect inside the same transaction.
type ActivityRecorder interface {
	RecordAction(ctx context.Context, entityType string, entityID id.ID, action string, details map[string]any) error
}

// Config tunes engine behavior.
type Config struct {
	// AllowNegativeStock permits stock-decreasing applications to drive
	// quantity below zero. Off by default: shortages are rejected with
	// INSUFFICIENT_STOCK before anything is written.
	AllowNegativeStock bool
}

// Engine coordinates document application: lock the document, check the
// applied marker, lock the products, write ledger entries and product
// updates, flip the status. All inside a single transaction, so a failure
// at any step leaves no trace.
type Engine struct {
	products   product.Repository
	ledgerRepo ledger.Repository
	imports    importreceipt.Repository
	returns    returnreceipt.Repository
	checks     checkreceipt.Repository
	txManager  tx.Manager
	activity   ActivityRecorder
	config     Config
}

// NewEngine creates the reconciliation engine. activity may be nil.
func NewEngine(
	products product.Repository,
	ledgerRepo ledger.Repository,
	imports importreceipt.Repository,
	returns returnreceipt.Repository,
	checks checkreceipt.Repository,
	txManager tx.Manager,
	activity ActivityRecorder,
	config Config,
) *Engine {
	return &Engine{
		products:   products,
		ledgerRepo: ledgerRepo,
		imports:    imports,
		returns:    returns,
		checks:     checks,
		txManager:  txManager,
		activity:   activity,
		config:     config,
	}
}

// stockChange is one aggregated per-product mutation. Cost nil leaves the
// cost price unchanged.
type stockChange struct {
	ProductID id.ID
	Delta     types.Quantity
	Cost      *types.Money
}

// ApplyImportReceipt commits an import receipt's stock effect: for each
// distinct product one IMPORT ledger entry and one quantity increment.
// Transitions the receipt into completed (a draft walks through
// processing on the way) and sets the applied marker.
func (e *Engine) ApplyImportReceipt(ctx context.Context, docID id.ID, actor string) (*importreceipt.ImportReceipt, []ledger.Entry, error) {
	var (
		doc     *importreceipt.ImportReceipt
		entries []ledger.Entry
	)

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = e.imports.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if err := ensureNotApplied(doc); err != nil {
			return err
		}
		if err := doc.CanComplete(); err != nil {
			return err
		}

		lines, err := e.imports.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		// One change per distinct product, in first-appearance order.
		// Import lines carry the new cost price; the last priced line wins.
		changes := make([]stockChange, 0, len(lines))
		index := make(map[id.ID]int, len(lines))
		for _, line := range lines {
			i, seen := index[line.ProductID]
			if !seen {
				index[line.ProductID] = len(changes)
				changes = append(changes, stockChange{ProductID: line.ProductID})
				i = len(changes) - 1
			}
			changes[i].Delta = changes[i].Delta.Add(line.Quantity)
			if line.UnitCost.IsPositive() {
				cost := line.UnitCost
				changes[i].Cost = &cost
			}
		}

		ref := ledger.ReferenceImportReceipt
		entries, err = e.applyStockChanges(ctx, docID, ledger.ChangeTypeImport, &ref, changes, actor, true)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := doc.MarkApplied(actor, now); err != nil {
			return err
		}
		if err := doc.Complete(actor); err != nil {
			return err
		}
		if err := e.imports.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	e.recordActivity(ctx, importreceipt.DocumentType, docID, "apply", map[string]any{
		"entries": len(entries),
		"actor":   actor,
	})

	logger.Info(ctx, "import receipt applied",
		"id", docID,
		"number", doc.Number,
		"entries", len(entries),
		"actor", actor)

	return doc, entries, nil
}

// ApplyReturnReceipt commits a return receipt's stock effect. The delta
// direction comes from the return type: customer returns increase stock,
// supplier returns decrease it. Cost price is never touched by returns.
func (e *Engine) ApplyReturnReceipt(ctx context.Context, docID id.ID, actor string) (*returnreceipt.ReturnReceipt, []ledger.Entry, error) {
	var (
		doc     *returnreceipt.ReturnReceipt
		entries []ledger.Entry
	)

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = e.returns.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if err := ensureNotApplied(doc); err != nil {
			return err
		}
		if err := doc.CanComplete(); err != nil {
			return err
		}

		sign, err := returnreceipt.DeltaSign(doc.ReturnType)
		if err != nil {
			return err
		}

		lines, err := e.returns.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		changes := make([]stockChange, 0, len(lines))
		index := make(map[id.ID]int, len(lines))
		for _, line := range lines {
			i, seen := index[line.ProductID]
			if !seen {
				index[line.ProductID] = len(changes)
				changes = append(changes, stockChange{ProductID: line.ProductID})
				i = len(changes) - 1
			}
			changes[i].Delta = changes[i].Delta.Add(types.Quantity(sign * int64(line.Quantity)))
		}

		ref := ledger.ReferenceReturnReceipt
		entries, err = e.applyStockChanges(ctx, docID, ledger.ChangeTypeReturn, &ref, changes, actor, sign > 0)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := doc.MarkApplied(actor, now); err != nil {
			return err
		}
		if err := doc.Complete(actor); err != nil {
			return err
		}
		if err := e.returns.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	e.recordActivity(ctx, returnreceipt.DocumentType, docID, "apply", map[string]any{
		"entries":     len(entries),
		"return_type": string(doc.ReturnType),
		"actor":       actor,
	})

	logger.Info(ctx, "return receipt applied",
		"id", docID,
		"number", doc.Number,
		"return_type", doc.ReturnType,
		"entries", len(entries),
		"actor", actor)

	return doc, entries, nil
}

// CountedLine overrides the counted quantity for one product when
// balancing a check.
type CountedLine struct {
	ProductID       id.ID          `json:"productId"`
	CountedQuantity types.Quantity `json:"countedQuantity"`
}

// BalanceCheckReceipt reconciles a physical count against system stock.
// For each line the difference is counted minus the live system quantity,
// re-read under the product's row lock. Lines with zero difference write
// no ledger entry; all others write one CHECK entry, and the product
// quantity is set to exactly the counted value, which is ground truth.
// The receipt transitions into balanced either way.
func (e *Engine) BalanceCheckReceipt(ctx context.Context, docID id.ID, actor string, counted []CountedLine) (*checkreceipt.CheckReceipt, []ledger.Entry, error) {
	var (
		doc     *checkreceipt.CheckReceipt
		entries []ledger.Entry
	)

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = e.checks.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if err := ensureNotApplied(doc); err != nil {
			return err
		}
		if err := doc.CanTransition(checkreceipt.StatusBalanced); err != nil {
			return err
		}

		lines, err := e.checks.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = mergeCountedLines(lines, counted)

		ids := make([]id.ID, 0, len(doc.Lines))
		for _, line := range doc.Lines {
			ids = append(ids, line.ProductID)
		}
		locked, err := e.products.GetManyForUpdate(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		entries = entries[:0]
		for i := range doc.Lines {
			line := &doc.Lines[i]

			p, ok := locked[line.ProductID]
			if !ok {
				return apperror.NewPartialLineItemFailure(docID.String(), line.ProductID.String())
			}

			// Snapshot the live value the count was reconciled against.
			line.SystemQuantity = p.Quantity
			if line.UnitCost.IsZero() {
				line.UnitCost = p.CostPrice
			}

			diff := line.CountedQuantity.Sub(p.Quantity)
			if diff.IsZero() {
				continue
			}

			entry := ledger.NewEntry(p.ID, ledger.ChangeTypeCheck,
				p.Quantity, diff, p.CostPrice, p.CostPrice, actor).
				WithReference(ledger.ReferenceCheckReceipt, docID)
			entries = append(entries, entry)

			if _, err := e.products.SetQuantity(ctx, p.ID, line.CountedQuantity); err != nil {
				return fmt.Errorf("set quantity: %w", err)
			}
		}

		if len(entries) > 0 {
			if err := e.ledgerRepo.AppendBatch(ctx, entries); err != nil {
				return fmt.Errorf("append ledger entries: %w", err)
			}
		}

		now := time.Now().UTC()
		if err := doc.MarkApplied(actor, now); err != nil {
			return err
		}
		if err := doc.Transition(checkreceipt.StatusBalanced, actor); err != nil {
			return err
		}
		if err := e.checks.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := e.checks.SaveLines(ctx, docID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	agg := checkreceipt.ComputeAggregates(doc.Lines)
	e.recordActivity(ctx, checkreceipt.DocumentType, docID, "balance", map[string]any{
		"entries":          len(entries),
		"total_difference": agg.TotalDifference.String(),
		"actor":            actor,
	})

	logger.Info(ctx, "check receipt balanced",
		"id", docID,
		"number", doc.Number,
		"entries", len(entries),
		"total_difference", agg.TotalDifference,
		"actor", actor)

	return doc, entries, nil
}

// AdjustManually writes a single MANUAL ledger entry and quantity change
// outside any document, for corrections that have no paper trail.
func (e *Engine) AdjustManually(ctx context.Context, productID id.ID, delta types.Quantity, note, actor string) (ledger.Entry, error) {
	if delta.IsZero() {
		return ledger.Entry{}, apperror.NewValidation("delta cannot be zero").
			WithDetail("field", "delta")
	}

	var entry ledger.Entry
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := e.products.GetManyForUpdate(ctx, []id.ID{productID})
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}
		p, ok := locked[productID]
		if !ok {
			return apperror.NewNotFound("product", productID.String())
		}

		newQty := p.Quantity.Add(delta)
		if newQty.IsNegative() && !e.config.AllowNegativeStock {
			return apperror.NewInsufficientStock(productID.String(),
				delta.Abs().Float64(), p.Quantity.Float64())
		}

		entry = ledger.NewEntry(p.ID, ledger.ChangeTypeManual,
			p.Quantity, delta, p.CostPrice, p.CostPrice, actor)
		entry.Note = note

		var restockAt *time.Time
		if delta.IsPositive() {
			now := time.Now().UTC()
			restockAt = &now
		}
		if _, err := e.products.AdjustQuantity(ctx, p.ID, delta, nil, restockAt); err != nil {
			return fmt.Errorf("adjust quantity: %w", err)
		}

		return e.ledgerRepo.Append(ctx, entry)
	})
	if err != nil {
		return ledger.Entry{}, err
	}

	e.recordActivity(ctx, "product", productID, "apply", map[string]any{
		"delta": delta.String(),
		"note":  note,
		"actor": actor,
	})

	logger.Info(ctx, "manual adjustment applied",
		"product_id", productID,
		"delta", delta,
		"actor", actor)

	return entry, nil
}

// applyStockChanges locks the touched products, verifies every change
// references a known product (all-or-nothing), writes one ledger entry
// per product and increments quantities in the database.
func (e *Engine) applyStockChanges(
	ctx context.Context,
	docID id.ID,
	changeType ledger.ChangeType,
	refType *ledger.ReferenceType,
	changes []stockChange,
	actor string,
	restock bool,
) ([]ledger.Entry, error) {
	ids := make([]id.ID, 0, len(changes))
	for _, ch := range changes {
		ids = append(ids, ch.ProductID)
	}

	locked, err := e.products.GetManyForUpdate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	// Fail before writing anything if any product is unknown.
	for _, ch := range changes {
		if _, ok := locked[ch.ProductID]; !ok {
			return nil, apperror.NewPartialLineItemFailure(docID.String(), ch.ProductID.String())
		}
	}

	entries := make([]ledger.Entry, 0, len(changes))
	for _, ch := range changes {
		p := locked[ch.ProductID]

		newQty := p.Quantity.Add(ch.Delta)
		if newQty.IsNegative() && !e.config.AllowNegativeStock {
			return nil, apperror.NewInsufficientStock(p.ID.String(),
				ch.Delta.Abs().Float64(), p.Quantity.Float64())
		}

		newCost := p.CostPrice
		if ch.Cost != nil {
			newCost = *ch.Cost
		}

		entry := ledger.NewEntry(p.ID, changeType, p.Quantity, ch.Delta, p.CostPrice, newCost, actor)
		if refType != nil {
			entry = entry.WithReference(*refType, docID)
		}
		entries = append(entries, entry)

		var restockAt *time.Time
		if restock && ch.Delta.IsPositive() {
			now := time.Now().UTC()
			restockAt = &now
		}
		got, err := e.products.AdjustQuantity(ctx, p.ID, ch.Delta, ch.Cost, restockAt)
		if err != nil {
			return nil, fmt.Errorf("adjust quantity: %w", err)
		}
		// Row lock guarantees the in-database increment agrees with the
		// entry's computed chain.
		if got != entry.NewQuantity {
			return nil, apperror.NewInternal(fmt.Errorf(
				"quantity drift for product %s: ledger %s, database %s",
				p.ID, entry.NewQuantity, got))
		}
	}

	if err := e.ledgerRepo.AppendBatch(ctx, entries); err != nil {
		return nil, fmt.Errorf("append ledger entries: %w", err)
	}
	return entries, nil
}

// mergeCountedLines overlays caller-supplied counts onto stored lines.
// Counts for products the check did not originally list become new lines,
// preserving caller order. The stored slice may be repository-owned, so
// the overlay happens on a copy; the input is never written to.
func mergeCountedLines(lines []checkreceipt.Line, counted []CountedLine) []checkreceipt.Line {
	merged := make([]checkreceipt.Line, len(lines), len(lines)+len(counted))
	copy(merged, lines)

	index := make(map[id.ID]int, len(merged))
	for i, line := range merged {
		index[line.ProductID] = i
	}

	for _, c := range counted {
		if i, ok := index[c.ProductID]; ok {
			merged[i].CountedQuantity = c.CountedQuantity
			continue
		}
		index[c.ProductID] = len(merged)
		merged = append(merged, checkreceipt.Line{
			LineID:          id.New(),
			LineNo:          len(merged) + 1,
			ProductID:       c.ProductID,
			CountedQuantity: c.CountedQuantity,
		})
	}
	return merged
}

func (e *Engine) recordActivity(ctx context.Context, entityType string, entityID id.ID, action string, details map[string]any) {
	if e.activity == nil {
		return
	}
	if err := e.activity.RecordAction(ctx, entityType, entityID, action, details); err != nil {
		logger.Warn(ctx, "record activity failed",
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err)
	}
}
