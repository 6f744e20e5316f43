package importreceipt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		ok   bool
	}{
		{"draft to processing", StatusDraft, StatusProcessing, true},
		{"draft to cancelled", StatusDraft, StatusCancelled, true},
		{"draft to completed", StatusDraft, StatusCompleted, false},
		{"processing to completed", StatusProcessing, StatusCompleted, true},
		{"processing to short_received", StatusProcessing, StatusShortReceived, true},
		{"processing to over_received", StatusProcessing, StatusOverReceived, true},
		{"processing to draft", StatusProcessing, StatusDraft, false},
		{"completed is terminal", StatusCompleted, StatusProcessing, false},
		{"cancelled is terminal", StatusCancelled, StatusProcessing, false},
		{"short_received is terminal", StatusShortReceived, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := New("ACME Supply")
			doc.Status = tt.from

			err := doc.CanTransition(tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperror.IsInvalidTransition(err))
			}
		})
	}
}

func TestTransitionAppendsChangeLog(t *testing.T) {
	doc := New("ACME Supply")
	require.NoError(t, doc.Transition(StatusProcessing, "alice"))

	require.Len(t, doc.ChangeLog, 1)
	assert.Equal(t, string(StatusDraft), doc.ChangeLog[0].From)
	assert.Equal(t, string(StatusProcessing), doc.ChangeLog[0].To)
	assert.Equal(t, "alice", doc.ChangeLog[0].Actor)
	assert.Equal(t, StatusProcessing, doc.Status)
}

func TestCompleteFromDraftWalksThroughProcessing(t *testing.T) {
	doc := New("ACME Supply")
	require.NoError(t, doc.CanComplete())
	require.NoError(t, doc.Complete("alice"))

	assert.Equal(t, StatusCompleted, doc.Status)
	require.Len(t, doc.ChangeLog, 2)
	assert.Equal(t, string(StatusProcessing), doc.ChangeLog[0].To)
	assert.Equal(t, string(StatusCompleted), doc.ChangeLog[1].To)
}

func TestCompleteFromProcessing(t *testing.T) {
	doc := New("ACME Supply")
	doc.Status = StatusProcessing
	require.NoError(t, doc.Complete("alice"))

	assert.Equal(t, StatusCompleted, doc.Status)
	require.Len(t, doc.ChangeLog, 1)
}

func TestCompleteFromTerminalFails(t *testing.T) {
	doc := New("ACME Supply")
	doc.Status = StatusCancelled

	assert.True(t, apperror.IsInvalidTransition(doc.CanComplete()))
	assert.True(t, apperror.IsInvalidTransition(doc.Complete("alice")))
	assert.Equal(t, StatusCancelled, doc.Status)
}

func TestAddLineRecalculatesTotals(t *testing.T) {
	doc := New("ACME Supply")
	doc.AddLine(id.New(), types.NewQuantityFromFloat64(20), types.MustMoney("3.50"))
	doc.AddLine(id.New(), types.NewQuantityFromFloat64(5), types.MustMoney("10"))

	assert.Equal(t, types.NewQuantityFromFloat64(25), doc.TotalQuantity)
	assert.True(t, doc.TotalAmount.Equal(types.MustMoney("120")), "got %s", doc.TotalAmount)
}

func TestValidateRejectsEmptyAndBadLines(t *testing.T) {
	ctx := context.Background()

	doc := New("ACME Supply")
	assert.Error(t, doc.Validate(ctx), "no lines")

	doc.AddLine(id.Nil(), types.NewQuantityFromFloat64(1), types.Zero())
	assert.Error(t, doc.Validate(ctx), "nil product")

	doc = New("ACME Supply")
	doc.AddLine(id.New(), types.NewQuantityFromFloat64(-1), types.Zero())
	assert.Error(t, doc.Validate(ctx), "negative quantity")

	doc = New("ACME Supply")
	doc.AddLine(id.New(), types.NewQuantityFromFloat64(2), types.MustMoney("1.25"))
	assert.NoError(t, doc.Validate(ctx))
}
