package dto

import (
	"stockbook/internal/core/types"
	"stockbook/internal/domain/product"
)

// CreateProductRequest for creating products.
type CreateProductRequest struct {
	SKU       string         `json:"sku" binding:"required"`
	Name      string         `json:"name" binding:"required"`
	Unit      string         `json:"unit"`
	CostPrice types.Money    `json:"costPrice"`
	SalePrice types.Money    `json:"salePrice"`
	Quantity  types.Quantity `json:"quantity"`
}

// ToModel builds a product with generated ID. The initial quantity, when
// present, seeds opening stock for migrations from another system.
func (r CreateProductRequest) ToModel() *product.Product {
	p := product.New(r.SKU, r.Name, r.Unit)
	p.CostPrice = r.CostPrice
	p.SalePrice = r.SalePrice
	p.Quantity = r.Quantity
	return p
}

// UpdateProductRequest for updating catalog fields. Quantity is absent:
// stock only moves through inventory operations.
type UpdateProductRequest struct {
	SKU       string      `json:"sku" binding:"required"`
	Name      string      `json:"name" binding:"required"`
	Unit      string      `json:"unit"`
	CostPrice types.Money `json:"costPrice"`
	SalePrice types.Money `json:"salePrice"`
	Version   int         `json:"version" binding:"required,min=1"`
}

// Apply copies the editable fields onto the loaded product.
func (r UpdateProductRequest) Apply(p *product.Product) {
	p.SKU = r.SKU
	p.Name = r.Name
	p.Unit = r.Unit
	p.CostPrice = r.CostPrice
	p.SalePrice = r.SalePrice
	p.Version = r.Version
}
