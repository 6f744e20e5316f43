// Package product provides the Product catalog: the single mutable
// "current state" projection of stock quantity and cost per product.
package product

import (
	"context"
	"strings"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/entity"
	"stockbook/internal/core/types"
)

// Product holds current stock state for one warehouse item.
//
// Quantity is never mutated directly: every change goes through the
// reconciliation engine inside a transaction, paired with a ledger entry.
type Product struct {
	entity.BaseEntity

	// SKU is the unique stock keeping unit code
	SKU string `db:"sku" json:"sku"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// Unit of measure (pcs, kg, box)
	Unit string `db:"unit" json:"unit"`

	// Quantity is the current stock on hand
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// CostPrice is the current unit cost
	CostPrice types.Money `db:"cost_price" json:"costPrice"`

	// SalePrice is the current selling price
	SalePrice types.Money `db:"sale_price" json:"salePrice"`

	// LastRestockAt is the time of the last stock-increasing application
	LastRestockAt *time.Time `db:"last_restock_at" json:"lastRestockAt,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a product with generated ID and zero stock.
func New(sku, name, unit string) *Product {
	now := time.Now().UTC()
	return &Product{
		BaseEntity: entity.NewBaseEntity(),
		SKU:        sku,
		Name:       name,
		Unit:       unit,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.SKU) == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.CostPrice.IsNegative() {
		return apperror.NewValidation("cost price cannot be negative").
			WithDetail("field", "costPrice")
	}
	return nil
}
