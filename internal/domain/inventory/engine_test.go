package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/documents/checkreceipt"
	"stockbook/internal/domain/documents/importreceipt"
	"stockbook/internal/domain/documents/returnreceipt"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/domain/product"
)

// --- In-memory fakes ---

type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProducts struct {
	byID map[id.ID]*product.Product
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{byID: make(map[id.ID]*product.Product)}
}

func (f *fakeProducts) Create(ctx context.Context, p *product.Product) error {
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProducts) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := f.byID[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}

func (f *fakeProducts) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	for _, p := range f.byID {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (f *fakeProducts) Update(ctx context.Context, p *product.Product) error { return nil }

func (f *fakeProducts) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	return nil
}

func (f *fakeProducts) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

func (f *fakeProducts) Exists(ctx context.Context, productID id.ID) (bool, error) {
	_, ok := f.byID[productID]
	return ok, nil
}

func (f *fakeProducts) GetManyForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	out := make(map[id.ID]*product.Product, len(ids))
	for _, pid := range ids {
		if p, ok := f.byID[pid]; ok {
			out[pid] = p
		}
	}
	return out, nil
}

func (f *fakeProducts) AdjustQuantity(ctx context.Context, productID id.ID, delta types.Quantity, cost *types.Money, restockAt *time.Time) (types.Quantity, error) {
	p, ok := f.byID[productID]
	if !ok {
		return 0, apperror.NewNotFound("product", productID.String())
	}
	p.Quantity = p.Quantity.Add(delta)
	if cost != nil {
		p.CostPrice = *cost
	}
	if restockAt != nil {
		p.LastRestockAt = restockAt
	}
	return p.Quantity, nil
}

func (f *fakeProducts) SetQuantity(ctx context.Context, productID id.ID, quantity types.Quantity) (types.Quantity, error) {
	p, ok := f.byID[productID]
	if !ok {
		return 0, apperror.NewNotFound("product", productID.String())
	}
	old := p.Quantity
	p.Quantity = quantity
	return old, nil
}

type fakeLedger struct {
	entries []ledger.Entry
}

func (f *fakeLedger) Append(ctx context.Context, entry ledger.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLedger) AppendBatch(ctx context.Context, entries []ledger.Entry) error {
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeLedger) ListByProduct(ctx context.Context, productID id.ID, r ledger.DateRange) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range f.entries {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedger) SummaryByChangeType(ctx context.Context, r ledger.DateRange) ([]ledger.Summary, error) {
	return nil, nil
}

func (f *fakeLedger) ExistsForProduct(ctx context.Context, productID id.ID) (bool, error) {
	for _, e := range f.entries {
		if e.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) ExistsForReference(ctx context.Context, refType ledger.ReferenceType, refID id.ID) (bool, error) {
	for _, e := range f.entries {
		if e.ReferenceType != nil && *e.ReferenceType == refType && e.ReferenceID != nil && *e.ReferenceID == refID {
			return true, nil
		}
	}
	return false, nil
}

type fakeImports struct {
	docs  map[id.ID]*importreceipt.ImportReceipt
	lines map[id.ID][]importreceipt.Line
}

func newFakeImports() *fakeImports {
	return &fakeImports{
		docs:  make(map[id.ID]*importreceipt.ImportReceipt),
		lines: make(map[id.ID][]importreceipt.Line),
	}
}

func (f *fakeImports) Create(ctx context.Context, doc *importreceipt.ImportReceipt) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeImports) GetByID(ctx context.Context, docID id.ID) (*importreceipt.ImportReceipt, error) {
	doc, ok := f.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("import receipt", docID.String())
	}
	return doc, nil
}

func (f *fakeImports) GetByNumber(ctx context.Context, number string) (*importreceipt.ImportReceipt, error) {
	for _, doc := range f.docs {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("import receipt", number)
}

func (f *fakeImports) Update(ctx context.Context, doc *importreceipt.ImportReceipt) error { return nil }

func (f *fakeImports) Delete(ctx context.Context, docID id.ID) error {
	delete(f.docs, docID)
	return nil
}

func (f *fakeImports) GetLines(ctx context.Context, docID id.ID) ([]importreceipt.Line, error) {
	return f.lines[docID], nil
}

func (f *fakeImports) SaveLines(ctx context.Context, docID id.ID, lines []importreceipt.Line) error {
	f.lines[docID] = lines
	return nil
}

func (f *fakeImports) List(ctx context.Context, filter importreceipt.ListFilter) (domain.ListResult[*importreceipt.ImportReceipt], error) {
	return domain.ListResult[*importreceipt.ImportReceipt]{}, nil
}

func (f *fakeImports) GetForUpdate(ctx context.Context, docID id.ID) (*importreceipt.ImportReceipt, error) {
	return f.GetByID(ctx, docID)
}

type fakeReturns struct {
	docs  map[id.ID]*returnreceipt.ReturnReceipt
	lines map[id.ID][]returnreceipt.Line
}

func newFakeReturns() *fakeReturns {
	return &fakeReturns{
		docs:  make(map[id.ID]*returnreceipt.ReturnReceipt),
		lines: make(map[id.ID][]returnreceipt.Line),
	}
}

func (f *fakeReturns) Create(ctx context.Context, doc *returnreceipt.ReturnReceipt) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeReturns) GetByID(ctx context.Context, docID id.ID) (*returnreceipt.ReturnReceipt, error) {
	doc, ok := f.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("return receipt", docID.String())
	}
	return doc, nil
}

func (f *fakeReturns) GetByNumber(ctx context.Context, number string) (*returnreceipt.ReturnReceipt, error) {
	for _, doc := range f.docs {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("return receipt", number)
}

func (f *fakeReturns) Update(ctx context.Context, doc *returnreceipt.ReturnReceipt) error { return nil }

func (f *fakeReturns) Delete(ctx context.Context, docID id.ID) error {
	delete(f.docs, docID)
	return nil
}

func (f *fakeReturns) GetLines(ctx context.Context, docID id.ID) ([]returnreceipt.Line, error) {
	return f.lines[docID], nil
}

func (f *fakeReturns) SaveLines(ctx context.Context, docID id.ID, lines []returnreceipt.Line) error {
	f.lines[docID] = lines
	return nil
}

func (f *fakeReturns) List(ctx context.Context, filter returnreceipt.ListFilter) (domain.ListResult[*returnreceipt.ReturnReceipt], error) {
	return domain.ListResult[*returnreceipt.ReturnReceipt]{}, nil
}

func (f *fakeReturns) GetForUpdate(ctx context.Context, docID id.ID) (*returnreceipt.ReturnReceipt, error) {
	return f.GetByID(ctx, docID)
}

type fakeChecks struct {
	docs  map[id.ID]*checkreceipt.CheckReceipt
	lines map[id.ID][]checkreceipt.Line
}

func newFakeChecks() *fakeChecks {
	return &fakeChecks{
		docs:  make(map[id.ID]*checkreceipt.CheckReceipt),
		lines: make(map[id.ID][]checkreceipt.Line),
	}
}

func (f *fakeChecks) Create(ctx context.Context, doc *checkreceipt.CheckReceipt) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeChecks) GetByID(ctx context.Context, docID id.ID) (*checkreceipt.CheckReceipt, error) {
	doc, ok := f.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("check receipt", docID.String())
	}
	return doc, nil
}

func (f *fakeChecks) GetByNumber(ctx context.Context, number string) (*checkreceipt.CheckReceipt, error) {
	for _, doc := range f.docs {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("check receipt", number)
}

func (f *fakeChecks) Update(ctx context.Context, doc *checkreceipt.CheckReceipt) error { return nil }

func (f *fakeChecks) Delete(ctx context.Context, docID id.ID) error {
	delete(f.docs, docID)
	return nil
}

func (f *fakeChecks) GetLines(ctx context.Context, docID id.ID) ([]checkreceipt.Line, error) {
	return f.lines[docID], nil
}

func (f *fakeChecks) SaveLines(ctx context.Context, docID id.ID, lines []checkreceipt.Line) error {
	f.lines[docID] = lines
	return nil
}

func (f *fakeChecks) AggregatesFor(ctx context.Context, docIDs []id.ID) (map[id.ID]checkreceipt.Aggregates, error) {
	result := make(map[id.ID]checkreceipt.Aggregates, len(docIDs))
	for _, docID := range docIDs {
		result[docID] = checkreceipt.ComputeAggregates(f.lines[docID])
	}
	return result, nil
}

func (f *fakeChecks) List(ctx context.Context, filter checkreceipt.ListFilter) (domain.ListResult[*checkreceipt.CheckReceipt], error) {
	return domain.ListResult[*checkreceipt.CheckReceipt]{}, nil
}

func (f *fakeChecks) GetForUpdate(ctx context.Context, docID id.ID) (*checkreceipt.CheckReceipt, error) {
	return f.GetByID(ctx, docID)
}

// --- Fixture ---

type fixture struct {
	products *fakeProducts
	ledger   *fakeLedger
	imports  *fakeImports
	returns  *fakeReturns
	checks   *fakeChecks
	engine   *Engine
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		products: newFakeProducts(),
		ledger:   &fakeLedger{},
		imports:  newFakeImports(),
		returns:  newFakeReturns(),
		checks:   newFakeChecks(),
	}
	f.engine = NewEngine(f.products, f.ledger, f.imports, f.returns, f.checks, fakeTx{}, nil, cfg)
	return f
}

func (f *fixture) addProduct(sku string, qty float64, cost string) *product.Product {
	p := product.New(sku, "Product "+sku, "pcs")
	p.Quantity = types.NewQuantityFromFloat64(qty)
	p.CostPrice = types.MustMoney(cost)
	f.products.byID[p.ID] = p
	return p
}

func (f *fixture) addImport(status importreceipt.Status, lines ...importreceipt.Line) *importreceipt.ImportReceipt {
	doc := importreceipt.New("ACME Supply")
	doc.Status = status
	f.imports.docs[doc.ID] = doc
	f.imports.lines[doc.ID] = lines
	return doc
}

func (f *fixture) addReturn(returnType returnreceipt.ReturnType, status returnreceipt.Status, lines ...returnreceipt.Line) *returnreceipt.ReturnReceipt {
	doc := returnreceipt.New("Retail Co", returnType)
	doc.Status = status
	f.returns.docs[doc.ID] = doc
	f.returns.lines[doc.ID] = lines
	return doc
}

func (f *fixture) addCheck(status checkreceipt.Status, lines ...checkreceipt.Line) *checkreceipt.CheckReceipt {
	doc := checkreceipt.New()
	doc.Status = status
	f.checks.docs[doc.ID] = doc
	f.checks.lines[doc.ID] = lines
	return doc
}

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

// --- Import application ---

func TestApplyImportReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 100, "3.00")
	doc := f.addImport(importreceipt.StatusProcessing, importreceipt.Line{
		LineID: id.New(), LineNo: 1, ProductID: p.ID,
		Quantity: qty(20), UnitCost: types.MustMoney("3.50"),
	})

	applied, entries, err := f.engine.ApplyImportReceipt(ctx, doc.ID, "alice")
	require.NoError(t, err)

	assert.Equal(t, qty(120), p.Quantity)
	assert.True(t, p.CostPrice.Equal(types.MustMoney("3.50")))
	assert.NotNil(t, p.LastRestockAt)

	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, ledger.ChangeTypeImport, e.ChangeType)
	assert.Equal(t, qty(100), e.PreviousQuantity)
	assert.Equal(t, qty(20), e.QuantityDelta)
	assert.Equal(t, qty(120), e.NewQuantity)
	assert.Equal(t, "alice", e.Actor)
	require.NotNil(t, e.ReferenceID)
	assert.Equal(t, doc.ID, *e.ReferenceID)
	require.NoError(t, e.Validate())

	assert.Equal(t, importreceipt.StatusCompleted, applied.Status)
	assert.True(t, applied.IsApplied())
	assert.Equal(t, "alice", applied.AppliedBy)
	last, ok := applied.ChangeLog.Last()
	require.True(t, ok)
	assert.Equal(t, string(importreceipt.StatusCompleted), last.To)
}

func TestApplyImportAggregatesLinesPerProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 10, "1.00")
	doc := f.addImport(importreceipt.StatusProcessing,
		importreceipt.Line{LineID: id.New(), LineNo: 1, ProductID: p.ID, Quantity: qty(4), UnitCost: types.MustMoney("1.10")},
		importreceipt.Line{LineID: id.New(), LineNo: 2, ProductID: p.ID, Quantity: qty(6), UnitCost: types.MustMoney("1.20")},
	)

	_, entries, err := f.engine.ApplyImportReceipt(ctx, doc.ID, "alice")
	require.NoError(t, err)

	// One entry per distinct product, not per line.
	require.Len(t, entries, 1)
	assert.Equal(t, qty(10), entries[0].QuantityDelta)
	assert.Equal(t, qty(20), p.Quantity)
	assert.True(t, p.CostPrice.Equal(types.MustMoney("1.20")), "last priced line wins")
}

func TestApplyImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 100, "3.00")
	doc := f.addImport(importreceipt.StatusProcessing, importreceipt.Line{
		LineID: id.New(), LineNo: 1, ProductID: p.ID,
		Quantity: qty(20), UnitCost: types.MustMoney("3.50"),
	})

	_, _, err := f.engine.ApplyImportReceipt(ctx, doc.ID, "alice")
	require.NoError(t, err)

	_, _, err = f.engine.ApplyImportReceipt(ctx, doc.ID, "alice")
	assert.True(t, apperror.IsAlreadyApplied(err))

	// Second attempt changed nothing.
	assert.Equal(t, qty(120), p.Quantity)
	assert.Len(t, f.ledger.entries, 1)
}

func TestApplyImportUnknownProductAbortsEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 100, "3.00")
	ghost := id.New()
	doc := f.addImport(importreceipt.StatusProcessing,
		importreceipt.Line{LineID: id.New(), LineNo: 1, ProductID: p.ID, Quantity: qty(20), UnitCost: types.MustMoney("3.50")},
		importreceipt.Line{LineID: id.New(), LineNo: 2, ProductID: ghost, Quantity: qty(5), UnitCost: types.MustMoney("1.00")},
	)

	_, _, err := f.engine.ApplyImportReceipt(ctx, doc.ID, "alice")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePartialLineItem, appErr.Code)

	// All-or-nothing: the known product is untouched too.
	assert.Equal(t, qty(100), p.Quantity)
	assert.Empty(t, f.ledger.entries)
	assert.False(t, doc.IsApplied())
	assert.Equal(t, importreceipt.StatusProcessing, doc.Status)
}

func TestApplyImportFromDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 100, "3.00")
	doc := f.addImport(importreceipt.StatusDraft, importreceipt.Line{
		LineID: id.New(), LineNo: 1, ProductID: p.ID,
		Quantity: qty(20), UnitCost: types.MustMoney("3.50"),
	})

	applied, entries, err := f.engine.ApplyImportReceipt(ctx, doc.ID, "alice")
	require.NoError(t, err)

	assert.Equal(t, qty(120), p.Quantity)
	require.Len(t, entries, 1)
	assert.Equal(t, qty(20), entries[0].QuantityDelta)

	assert.Equal(t, importreceipt.StatusCompleted, applied.Status)
	assert.True(t, applied.IsApplied())

	// The change log keeps both hops of the walk through processing.
	require.Len(t, applied.ChangeLog, 2)
	assert.Equal(t, string(importreceipt.StatusDraft), applied.ChangeLog[0].From)
	assert.Equal(t, string(importreceipt.StatusProcessing), applied.ChangeLog[0].To)
	assert.Equal(t, string(importreceipt.StatusProcessing), applied.ChangeLog[1].From)
	assert.Equal(t, string(importreceipt.StatusCompleted), applied.ChangeLog[1].To)
}

func TestApplyImportRejectsTerminalStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 100, "3.00")
	doc := f.addImport(importreceipt.StatusCancelled, importreceipt.Line{
		LineID: id.New(), LineNo: 1, ProductID: p.ID,
		Quantity: qty(20), UnitCost: types.MustMoney("3.50"),
	})

	_, _, err := f.engine.ApplyImportReceipt(ctx, doc.ID, "alice")
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Empty(t, f.ledger.entries)
	assert.Equal(t, qty(100), p.Quantity)
}

// --- Return application ---

func TestApplyCustomerReturnIncreasesStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 50, "2.00")
	doc := f.addReturn(returnreceipt.ReturnTypeCustomer, returnreceipt.StatusProcessing,
		returnreceipt.Line{LineID: id.New(), LineNo: 1, ProductID: p.ID, Quantity: qty(3), UnitCost: types.MustMoney("2.00")},
	)

	_, entries, err := f.engine.ApplyReturnReceipt(ctx, doc.ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, qty(53), p.Quantity)
	assert.NotNil(t, p.LastRestockAt, "customer returns are stock-increasing")

	require.Len(t, entries, 1)
	assert.Equal(t, ledger.ChangeTypeReturn, entries[0].ChangeType)
	assert.Equal(t, qty(3), entries[0].QuantityDelta)
	assert.True(t, entries[0].CostDelta.IsZero(), "returns never change cost")
}

func TestApplySupplierReturnDecreasesStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 50, "2.00")
	doc := f.addReturn(returnreceipt.ReturnTypeSupplier, returnreceipt.StatusProcessing,
		returnreceipt.Line{LineID: id.New(), LineNo: 1, ProductID: p.ID, Quantity: qty(8), UnitCost: types.MustMoney("2.00")},
	)

	_, entries, err := f.engine.ApplyReturnReceipt(ctx, doc.ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, qty(42), p.Quantity)
	assert.Nil(t, p.LastRestockAt)
	require.Len(t, entries, 1)
	assert.Equal(t, qty(-8), entries[0].QuantityDelta)
}

func TestApplyReturnFromDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 50, "2.00")
	doc := f.addReturn(returnreceipt.ReturnTypeCustomer, returnreceipt.StatusDraft,
		returnreceipt.Line{LineID: id.New(), LineNo: 1, ProductID: p.ID, Quantity: qty(3), UnitCost: types.MustMoney("2.00")},
	)

	applied, entries, err := f.engine.ApplyReturnReceipt(ctx, doc.ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, qty(53), p.Quantity)
	require.Len(t, entries, 1)

	assert.Equal(t, returnreceipt.StatusCompleted, applied.Status)
	assert.True(t, applied.IsApplied())
	require.Len(t, applied.ChangeLog, 2)
	assert.Equal(t, string(returnreceipt.StatusProcessing), applied.ChangeLog[0].To)
	assert.Equal(t, string(returnreceipt.StatusCompleted), applied.ChangeLog[1].To)
}

func TestApplySupplierReturnRejectsShortage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 5, "2.00")
	doc := f.addReturn(returnreceipt.ReturnTypeSupplier, returnreceipt.StatusProcessing,
		returnreceipt.Line{LineID: id.New(), LineNo: 1, ProductID: p.ID, Quantity: qty(8), UnitCost: types.MustMoney("2.00")},
	)

	_, _, err := f.engine.ApplyReturnReceipt(ctx, doc.ID, "bob")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	assert.Equal(t, qty(5), p.Quantity)
	assert.Empty(t, f.ledger.entries)
	assert.False(t, doc.IsApplied())
}

func TestApplySupplierReturnAllowsNegativeWhenConfigured(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{AllowNegativeStock: true})

	p := f.addProduct("SKU-A", 5, "2.00")
	doc := f.addReturn(returnreceipt.ReturnTypeSupplier, returnreceipt.StatusProcessing,
		returnreceipt.Line{LineID: id.New(), LineNo: 1, ProductID: p.ID, Quantity: qty(8), UnitCost: types.MustMoney("2.00")},
	)

	_, entries, err := f.engine.ApplyReturnReceipt(ctx, doc.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, qty(-3), p.Quantity)
	require.Len(t, entries, 1)
	assert.Equal(t, qty(-3), entries[0].NewQuantity)
}

// --- Check balancing ---

func TestBalanceCheckShortageWritesOneEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 120, "2.00")
	doc := f.addCheck(checkreceipt.StatusBalancingRequired, checkreceipt.Line{
		LineID: id.New(), LineNo: 1, ProductID: p.ID,
		SystemQuantity: qty(120), CountedQuantity: qty(115),
		UnitCost: types.MustMoney("2.00"),
	})

	balanced, entries, err := f.engine.BalanceCheckReceipt(ctx, doc.ID, "carol", nil)
	require.NoError(t, err)

	// Quantity is set to exactly the counted value.
	assert.Equal(t, qty(115), p.Quantity)

	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, ledger.ChangeTypeCheck, e.ChangeType)
	assert.Equal(t, qty(120), e.PreviousQuantity)
	assert.Equal(t, qty(-5), e.QuantityDelta)
	assert.Equal(t, qty(115), e.NewQuantity)
	assert.True(t, e.CostDelta.IsZero())

	assert.Equal(t, checkreceipt.StatusBalanced, balanced.Status)
	assert.True(t, balanced.IsApplied())
	last, ok := balanced.ChangeLog.Last()
	require.True(t, ok)
	assert.Equal(t, string(checkreceipt.StatusBalanced), last.To)
}

func TestBalanceCheckZeroDifferenceWritesNoEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 120, "2.00")
	doc := f.addCheck(checkreceipt.StatusBalancingRequired, checkreceipt.Line{
		LineID: id.New(), LineNo: 1, ProductID: p.ID,
		SystemQuantity: qty(120), CountedQuantity: qty(120),
		UnitCost: types.MustMoney("2.00"),
	})

	balanced, entries, err := f.engine.BalanceCheckReceipt(ctx, doc.ID, "carol", nil)
	require.NoError(t, err)

	assert.Empty(t, entries, "matching count produces no ledger noise")
	assert.Empty(t, f.ledger.entries)
	assert.Equal(t, qty(120), p.Quantity)

	// The receipt still reaches balanced and is marked applied.
	assert.Equal(t, checkreceipt.StatusBalanced, balanced.Status)
	assert.True(t, balanced.IsApplied())
}

func TestBalanceCheckUsesLiveQuantityUnderLock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	// Count was recorded against 120, but stock moved to 118 since.
	p := f.addProduct("SKU-A", 118, "2.00")
	doc := f.addCheck(checkreceipt.StatusBalancingRequired, checkreceipt.Line{
		LineID: id.New(), LineNo: 1, ProductID: p.ID,
		SystemQuantity: qty(120), CountedQuantity: qty(115),
		UnitCost: types.MustMoney("2.00"),
	})

	_, entries, err := f.engine.BalanceCheckReceipt(ctx, doc.ID, "carol", nil)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, qty(118), entries[0].PreviousQuantity)
	assert.Equal(t, qty(-3), entries[0].QuantityDelta)
	assert.Equal(t, qty(115), p.Quantity)
}

func TestBalanceCheckCountedOverrides(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 100, "2.00")
	doc := f.addCheck(checkreceipt.StatusBalancingRequired, checkreceipt.Line{
		LineID: id.New(), LineNo: 1, ProductID: p.ID,
		SystemQuantity: qty(100), CountedQuantity: qty(100),
		UnitCost: types.MustMoney("2.00"),
	})

	_, entries, err := f.engine.BalanceCheckReceipt(ctx, doc.ID, "carol", []CountedLine{
		{ProductID: p.ID, CountedQuantity: qty(97)},
	})
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, qty(-3), entries[0].QuantityDelta)
	assert.Equal(t, qty(97), p.Quantity)
}

func TestMergeCountedLinesDoesNotMutateInput(t *testing.T) {
	productA := id.New()
	productB := id.New()
	stored := []checkreceipt.Line{
		{LineID: id.New(), LineNo: 1, ProductID: productA, SystemQuantity: qty(100), CountedQuantity: qty(100)},
	}

	merged := mergeCountedLines(stored, []CountedLine{
		{ProductID: productA, CountedQuantity: qty(97)},
		{ProductID: productB, CountedQuantity: qty(4)},
	})

	// The stored slice is left exactly as loaded.
	assert.Equal(t, qty(100), stored[0].CountedQuantity)
	require.Len(t, stored, 1)

	require.Len(t, merged, 2)
	assert.Equal(t, qty(97), merged[0].CountedQuantity)
	assert.Equal(t, productB, merged[1].ProductID)
	assert.Equal(t, qty(4), merged[1].CountedQuantity)
	assert.Equal(t, 2, merged[1].LineNo)
}

func TestBalanceCheckUnknownProductAborts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 100, "2.00")
	doc := f.addCheck(checkreceipt.StatusBalancingRequired,
		checkreceipt.Line{LineID: id.New(), LineNo: 1, ProductID: p.ID, SystemQuantity: qty(100), CountedQuantity: qty(90), UnitCost: types.MustMoney("2.00")},
		checkreceipt.Line{LineID: id.New(), LineNo: 2, ProductID: id.New(), SystemQuantity: qty(10), CountedQuantity: qty(9), UnitCost: types.MustMoney("1.00")},
	)

	_, _, err := f.engine.BalanceCheckReceipt(ctx, doc.ID, "carol", nil)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePartialLineItem, appErr.Code)
	assert.False(t, doc.IsApplied())
}

func TestBalanceCheckIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 120, "2.00")
	doc := f.addCheck(checkreceipt.StatusBalancingRequired, checkreceipt.Line{
		LineID: id.New(), LineNo: 1, ProductID: p.ID,
		SystemQuantity: qty(120), CountedQuantity: qty(115),
		UnitCost: types.MustMoney("2.00"),
	})

	_, _, err := f.engine.BalanceCheckReceipt(ctx, doc.ID, "carol", nil)
	require.NoError(t, err)

	_, _, err = f.engine.BalanceCheckReceipt(ctx, doc.ID, "carol", nil)
	assert.True(t, apperror.IsAlreadyApplied(err))
	assert.Equal(t, qty(115), p.Quantity)
	assert.Len(t, f.ledger.entries, 1)
}

// --- Manual adjustments ---

func TestAdjustManually(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 10, "2.00")

	entry, err := f.engine.AdjustManually(ctx, p.ID, qty(5), "found in back room", "dave")
	require.NoError(t, err)

	assert.Equal(t, qty(15), p.Quantity)
	assert.Equal(t, ledger.ChangeTypeManual, entry.ChangeType)
	assert.Equal(t, qty(5), entry.QuantityDelta)
	assert.Equal(t, "found in back room", entry.Note)
	assert.Nil(t, entry.ReferenceID, "manual changes carry no document reference")
	assert.NotNil(t, p.LastRestockAt)
}

func TestAdjustManuallyRejectsZeroDelta(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 10, "2.00")

	_, err := f.engine.AdjustManually(ctx, p.ID, 0, "", "dave")
	assert.Error(t, err)
	assert.Empty(t, f.ledger.entries)
}

func TestAdjustManuallyRejectsShortage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 3, "2.00")

	_, err := f.engine.AdjustManually(ctx, p.ID, qty(-10), "shrinkage", "dave")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, qty(3), p.Quantity)
}

// --- CanApply ---

func TestCanApply(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	p := f.addProduct("SKU-A", 100, "3.00")
	doc := f.addImport(importreceipt.StatusProcessing, importreceipt.Line{
		LineID: id.New(), LineNo: 1, ProductID: p.ID,
		Quantity: qty(20), UnitCost: types.MustMoney("3.50"),
	})

	ok, err := f.engine.CanApply(ctx, importreceipt.DocumentType, doc.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = f.engine.ApplyImportReceipt(ctx, doc.ID, "alice")
	require.NoError(t, err)

	ok, err = f.engine.CanApply(ctx, importreceipt.DocumentType, doc.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.engine.CanApply(ctx, "purchase_order", doc.ID)
	assert.Error(t, err)
}
