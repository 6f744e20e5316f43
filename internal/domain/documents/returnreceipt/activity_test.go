package returnreceipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

func TestFieldChanges(t *testing.T) {
	productID := id.New()

	old := New("Retail Co", ReturnTypeCustomer)
	old.AddLine(productID, types.NewQuantityFromFloat64(3), types.MustMoney("2.00"))

	updated := New("Wholesale Ltd", ReturnTypeSupplier)
	updated.Document = old.Document
	updated.Note = "wrong counterparty on intake"
	updated.AddLine(productID, types.NewQuantityFromFloat64(3), types.MustMoney("2.00"))

	changes := fieldChanges(old, updated)
	require.Len(t, changes, 3)

	byField := make(map[string]fieldChange, len(changes))
	for _, ch := range changes {
		byField[ch.Field] = ch
	}

	assert.Equal(t, "Retail Co", byField["counterparty_name"].From)
	assert.Equal(t, "Wholesale Ltd", byField["counterparty_name"].To)
	assert.Equal(t, string(ReturnTypeCustomer), byField["return_type"].From)
	assert.Equal(t, string(ReturnTypeSupplier), byField["return_type"].To)
	assert.Equal(t, "wrong counterparty on intake", byField["note"].To)
}

func TestFieldChangesIdenticalContent(t *testing.T) {
	productID := id.New()

	old := New("Retail Co", ReturnTypeCustomer)
	old.AddLine(productID, types.NewQuantityFromFloat64(3), types.MustMoney("2.00"))

	updated := New("Retail Co", ReturnTypeCustomer)
	updated.Document = old.Document
	updated.AddLine(productID, types.NewQuantityFromFloat64(3), types.MustMoney("2.00"))

	assert.Empty(t, fieldChanges(old, updated))
}
