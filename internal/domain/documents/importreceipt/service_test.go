package importreceipt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/numerator"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/ledger"
)

type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	docs  map[id.ID]*ImportReceipt
	lines map[id.ID][]Line
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:  make(map[id.ID]*ImportReceipt),
		lines: make(map[id.ID][]Line),
	}
}

func (f *fakeRepo) Create(ctx context.Context, doc *ImportReceipt) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, docID id.ID) (*ImportReceipt, error) {
	doc, ok := f.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("import receipt", docID.String())
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeRepo) GetByNumber(ctx context.Context, number string) (*ImportReceipt, error) {
	for _, doc := range f.docs {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("import receipt", number)
}

func (f *fakeRepo) Update(ctx context.Context, doc *ImportReceipt) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(f.docs, docID)
	return nil
}

func (f *fakeRepo) GetLines(ctx context.Context, docID id.ID) ([]Line, error) {
	return f.lines[docID], nil
}

func (f *fakeRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	f.lines[docID] = lines
	return nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ImportReceipt], error) {
	return domain.ListResult[*ImportReceipt]{}, nil
}

func (f *fakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*ImportReceipt, error) {
	return f.GetByID(ctx, docID)
}

type fakeLedgerRepo struct{}

func (fakeLedgerRepo) Append(ctx context.Context, entry ledger.Entry) error        { return nil }
func (fakeLedgerRepo) AppendBatch(ctx context.Context, entries []ledger.Entry) error { return nil }
func (fakeLedgerRepo) ListByProduct(ctx context.Context, productID id.ID, r ledger.DateRange) ([]ledger.Entry, error) {
	return nil, nil
}
func (fakeLedgerRepo) SummaryByChangeType(ctx context.Context, r ledger.DateRange) ([]ledger.Summary, error) {
	return nil, nil
}
func (fakeLedgerRepo) ExistsForProduct(ctx context.Context, productID id.ID) (bool, error) {
	return false, nil
}
func (fakeLedgerRepo) ExistsForReference(ctx context.Context, refType ledger.ReferenceType, refID id.ID) (bool, error) {
	return false, nil
}

type recordedAction struct {
	entityType string
	entityID   id.ID
	action     string
	details    map[string]any
}

type fakeRecorder struct {
	actions []recordedAction
}

func (f *fakeRecorder) RecordAction(ctx context.Context, entityType string, entityID id.ID, action string, details map[string]any) error {
	f.actions = append(f.actions, recordedAction{entityType, entityID, action, details})
	return nil
}

func newServiceFixture() (*Service, *fakeRepo, *fakeRecorder) {
	repo := newFakeRepo()
	recorder := &fakeRecorder{}
	svc := NewService(repo, fakeLedgerRepo{}, &numerator.MockGenerator{}, fakeTx{}, recorder)
	return svc, repo, recorder
}

func TestUpdateRecordsActivityPerChangedField(t *testing.T) {
	ctx := context.Background()
	svc, repo, recorder := newServiceFixture()

	stored := New("ACME Supply")
	stored.AddLine(id.New(), types.NewQuantityFromFloat64(20), types.MustMoney("3.50"))
	repo.docs[stored.ID] = stored
	repo.lines[stored.ID] = stored.Lines

	updated := New("Initech")
	updated.Document = stored.Document
	updated.Note = "recount pending"
	updated.AddLine(id.New(), types.NewQuantityFromFloat64(25), types.MustMoney("3.40"))

	require.NoError(t, svc.Update(ctx, updated))

	// One row per changed field: supplier_name, note, lines.
	require.Len(t, recorder.actions, 3)

	fields := make(map[string]recordedAction, len(recorder.actions))
	for _, a := range recorder.actions {
		assert.Equal(t, DocumentType, a.entityType)
		assert.Equal(t, stored.ID, a.entityID)
		assert.Equal(t, "update", a.action)
		fields[a.details["field"].(string)] = a
	}

	supplier, ok := fields["supplier_name"]
	require.True(t, ok)
	assert.Equal(t, "ACME Supply", supplier.details["from"])
	assert.Equal(t, "Initech", supplier.details["to"])

	note, ok := fields["note"]
	require.True(t, ok)
	assert.Equal(t, "", note.details["from"])
	assert.Equal(t, "recount pending", note.details["to"])

	_, ok = fields["lines"]
	assert.True(t, ok)
}

func TestUpdateUnchangedFieldsRecordNothing(t *testing.T) {
	ctx := context.Background()
	svc, repo, recorder := newServiceFixture()

	stored := New("ACME Supply")
	stored.AddLine(id.New(), types.NewQuantityFromFloat64(20), types.MustMoney("3.50"))
	repo.docs[stored.ID] = stored
	repo.lines[stored.ID] = stored.Lines

	updated := New("ACME Supply")
	updated.Document = stored.Document
	line := stored.Lines[0]
	updated.AddLine(line.ProductID, line.Quantity, line.UnitCost)

	require.NoError(t, svc.Update(ctx, updated))
	assert.Empty(t, recorder.actions)
}

func TestUpdateAppliedDocumentIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, repo, recorder := newServiceFixture()

	stored := New("ACME Supply")
	stored.AddLine(id.New(), types.NewQuantityFromFloat64(20), types.MustMoney("3.50"))
	now := stored.Date
	require.NoError(t, stored.MarkApplied("alice", now))
	repo.docs[stored.ID] = stored
	repo.lines[stored.ID] = stored.Lines

	err := svc.Update(ctx, stored)
	assert.True(t, apperror.IsAlreadyApplied(err))
	assert.Empty(t, recorder.actions)
}

func TestFieldChangesIgnoresLineIDs(t *testing.T) {
	productID := id.New()

	old := New("ACME Supply")
	old.AddLine(productID, types.NewQuantityFromFloat64(20), types.MustMoney("3.50"))

	updated := New("ACME Supply")
	updated.Document = old.Document
	updated.AddLine(productID, types.NewQuantityFromFloat64(20), types.MustMoney("3.50"))

	// Same content, different generated line IDs: no change.
	assert.Empty(t, fieldChanges(old, updated))

	updated.Lines[0].Quantity = types.NewQuantityFromFloat64(21)
	changes := fieldChanges(old, updated)
	require.Len(t, changes, 1)
	assert.Equal(t, "lines", changes[0].Field)
}
