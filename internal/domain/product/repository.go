package product

import (
	"context"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
)

// Delta describes one stock mutation for a product. Cost fields are
// optional: a zero CostPrice means "leave cost unchanged".
type Delta struct {
	ProductID id.ID
	Quantity  types.Quantity
	CostPrice types.Money
	HasCost   bool
}

// Repository defines operations for products.
//
// AdjustQuantity and SetQuantity must only be called inside a transaction
// started by the reconciliation engine; they are not separately transactional.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)
	Exists(ctx context.Context, productID id.ID) (bool, error)

	// GetManyForUpdate loads products by ID with row locks (FOR UPDATE),
	// in deterministic ID order to avoid lock-order deadlocks. Missing IDs
	// are simply absent from the result; callers decide how to fail.
	GetManyForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error)

	// AdjustQuantity applies delta with an in-database increment
	// (quantity = quantity + $delta ... RETURNING) and returns the new
	// quantity. When restockAt is non-nil, last_restock_at is advanced.
	AdjustQuantity(ctx context.Context, productID id.ID, delta types.Quantity, cost *types.Money, restockAt *time.Time) (types.Quantity, error)

	// SetQuantity overwrites the quantity with the counted ground-truth
	// value (check balancing) and returns the value it replaced.
	SetQuantity(ctx context.Context, productID id.ID, quantity types.Quantity) (types.Quantity, error)
}
