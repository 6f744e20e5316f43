package returnreceipt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

func TestDeltaSignPolicy(t *testing.T) {
	sign, err := DeltaSign(ReturnTypeCustomer)
	require.NoError(t, err)
	assert.Equal(t, int64(+1), sign, "customer returns increase stock")

	sign, err = DeltaSign(ReturnTypeSupplier)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), sign, "supplier returns decrease stock")

	_, err = DeltaSign(ReturnType("VENDOR"))
	assert.Error(t, err, "unknown types never default silently")
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		ok   bool
	}{
		{"draft to processing", StatusDraft, StatusProcessing, true},
		{"draft to cancelled", StatusDraft, StatusCancelled, true},
		{"processing to completed", StatusProcessing, StatusCompleted, true},
		{"processing to cancelled", StatusProcessing, StatusCancelled, true},
		{"draft to completed", StatusDraft, StatusCompleted, false},
		{"completed is terminal", StatusCompleted, StatusDraft, false},
		{"cancelled is terminal", StatusCancelled, StatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := New("Retail Co", ReturnTypeCustomer)
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

func TestCompleteFromDraftWalksThroughProcessing(t *testing.T) {
	doc := New("Retail Co", ReturnTypeCustomer)
	require.NoError(t, doc.CanComplete())
	require.NoError(t, doc.Complete("bob"))

	assert.Equal(t, StatusCompleted, doc.Status)
	require.Len(t, doc.ChangeLog, 2)
	assert.Equal(t, string(StatusProcessing), doc.ChangeLog[0].To)
	assert.Equal(t, string(StatusCompleted), doc.ChangeLog[1].To)
}

func TestCompleteFromTerminalFails(t *testing.T) {
	doc := New("Retail Co", ReturnTypeCustomer)
	doc.Status = StatusCancelled

	assert.True(t, apperror.IsInvalidTransition(doc.CanComplete()))
	assert.True(t, apperror.IsInvalidTransition(doc.Complete("bob")))
}

func TestValidateRequiresKnownReturnType(t *testing.T) {
	ctx := context.Background()

	doc := New("Retail Co", ReturnType("VENDOR"))
	doc.AddLine(id.New(), types.NewQuantityFromFloat64(1), types.Zero())
	assert.Error(t, doc.Validate(ctx))

	doc = New("Retail Co", ReturnTypeSupplier)
	doc.AddLine(id.New(), types.NewQuantityFromFloat64(1), types.Zero())
	assert.NoError(t, doc.Validate(ctx))
}
