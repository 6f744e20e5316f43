package checkreceipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

func TestFieldChanges(t *testing.T) {
	productID := id.New()

	old := New()
	old.AddLine(productID, types.NewQuantityFromFloat64(100), types.NewQuantityFromFloat64(100), types.MustMoney("2.00"))

	updated := New()
	updated.Document = old.Document
	updated.Note = "aisle 4 recounted"
	updated.AddLine(productID, types.NewQuantityFromFloat64(100), types.NewQuantityFromFloat64(97), types.MustMoney("2.00"))

	changes := fieldChanges(old, updated)
	require.Len(t, changes, 2)

	byField := make(map[string]fieldChange, len(changes))
	for _, ch := range changes {
		byField[ch.Field] = ch
	}

	assert.Equal(t, "aisle 4 recounted", byField["note"].To)
	_, ok := byField["lines"]
	assert.True(t, ok, "counted quantity changed")
}

func TestFieldChangesIdenticalContent(t *testing.T) {
	productID := id.New()

	old := New()
	old.AddLine(productID, types.NewQuantityFromFloat64(100), types.NewQuantityFromFloat64(98), types.MustMoney("2.00"))

	updated := New()
	updated.Document = old.Document
	updated.AddLine(productID, types.NewQuantityFromFloat64(100), types.NewQuantityFromFloat64(98), types.MustMoney("2.00"))

	assert.Empty(t, fieldChanges(old, updated))
}
