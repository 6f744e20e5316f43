package checkreceipt

import (
	"testing"

	"github.com/stretchr/testify/assert"

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
		{"pending to processing", StatusPending, StatusProcessing, true},
		{"processing to balancing_required", StatusProcessing, StatusBalancingRequired, true},
		{"balancing_required to balanced", StatusBalancingRequired, StatusBalanced, true},
		{"pending to balanced", StatusPending, StatusBalanced, false},
		{"processing to balanced", StatusProcessing, StatusBalanced, false},
		{"balanced is terminal", StatusBalanced, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := New()
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

func TestComputeAggregates(t *testing.T) {
	doc := New()
	doc.AddLine(id.New(), types.NewQuantityFromFloat64(120), types.NewQuantityFromFloat64(115), types.MustMoney("2"))
	doc.AddLine(id.New(), types.NewQuantityFromFloat64(30), types.NewQuantityFromFloat64(33), types.MustMoney("10"))

	agg := ComputeAggregates(doc.Lines)

	assert.Equal(t, types.NewQuantityFromFloat64(150), agg.SystemInventory)
	assert.Equal(t, types.NewQuantityFromFloat64(148), agg.ActualInventory)
	assert.Equal(t, types.NewQuantityFromFloat64(-2), agg.TotalDifference)
	// -5*2 + 3*10 = 20
	assert.True(t, agg.TotalValueDifference.Equal(types.MustMoney("20")), "got %s", agg.TotalValueDifference)
}
