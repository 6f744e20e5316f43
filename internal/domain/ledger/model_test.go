package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

func qty(f float64) types.Quantity { return types.NewQuantityFromFloat64(f) }

func TestNewEntryComputesChain(t *testing.T) {
	pid := id.New()
	e := NewEntry(pid, ChangeTypeImport, qty(100), qty(20), types.MustMoney("10"), types.MustMoney("12"), "alice")

	require.NoError(t, e.Validate())
	assert.Equal(t, qty(120), e.NewQuantity)
	assert.True(t, e.CostDelta.Equal(types.MustMoney("2")))
}

func TestEntryValidateRejectsBrokenChain(t *testing.T) {
	e := NewEntry(id.New(), ChangeTypeCheck, qty(10), qty(-3), types.MustMoney("5"), types.MustMoney("5"), "bob")
	e.NewQuantity = qty(9) // tamper

	assert.Error(t, e.Validate())
}

func TestEntryValidateRejectsUnknownChangeType(t *testing.T) {
	e := NewEntry(id.New(), ChangeType("BOGUS"), qty(1), qty(1), types.Zero(), types.Zero(), "x")
	assert.Error(t, e.Validate())
}

func TestValidateChain(t *testing.T) {
	pid := id.New()
	cost := types.MustMoney("4")

	e1 := NewEntry(pid, ChangeTypeImport, qty(0), qty(50), cost, cost, "alice")
	e2 := NewEntry(pid, ChangeTypeSale, qty(50), qty(-8), cost, cost, "alice")
	e3 := NewEntry(pid, ChangeTypeCheck, qty(42), qty(-2), cost, cost, "bob")

	require.NoError(t, ValidateChain([]Entry{e1, e2, e3}))

	t.Run("detects gap", func(t *testing.T) {
		broken := NewEntry(pid, ChangeTypeManual, qty(41), qty(1), cost, cost, "bob")
		assert.Error(t, ValidateChain([]Entry{e1, e2, e3, broken}))
	})

	t.Run("rejects mixed products", func(t *testing.T) {
		other := NewEntry(id.New(), ChangeTypeImport, qty(40), qty(1), cost, cost, "bob")
		assert.Error(t, ValidateChain([]Entry{e1, e2, e3, other}))
	})
}
