// Package product_repo provides the PostgreSQL implementation of the
// product repository, including the atomic stock mutation primitives the
// reconciliation engine relies on.
package product_repo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/product"
	"stockbook/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// Ensure compile-time interface compliance.
var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[product.Product](),
	}
}

func (r *ProductRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ProductRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *ProductRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(r.selectCols...).From(productsTable)
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	data := postgres.StructToMap(p)

	q := r.builder().
		Insert(productsTable).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.querier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// GetBySKU retrieves a product by its unique SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	q := r.baseSelect().Where(squirrel.Eq{"sku": sku})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.querier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, fmt.Errorf("get product by sku: %w", err)
	}

	return &p, nil
}

// Update rewrites product fields with optimistic locking. Quantity is
// deliberately excluded: it only moves through AdjustQuantity/SetQuantity.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := r.builder().
		Update(productsTable).
		Set("sku", p.SKU).
		Set("name", p.Name).
		Set("unit", p.Unit).
		Set("cost_price", p.CostPrice).
		Set("sale_price", p.SalePrice).
		Set("deletion_mark", p.DeletionMark).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("product", p.ID.String())
	}

	return nil
}

// SetDeletionMark soft-deletes or restores a product.
func (r *ProductRepo) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	q := r.builder().
		Update(productsTable).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}

	return nil
}

// List retrieves products with filtering.
func (r *ProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"name": pattern},
		})
	}

	countQ := r.builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list products: %w", err)
	}

	return result, nil
}

// Exists reports whether a product with the ID exists.
func (r *ProductRepo) Exists(ctx context.Context, productID id.ID) (bool, error) {
	var exists bool
	err := r.querier(ctx).QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM "+productsTable+" WHERE id = $1)",
		productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product exists: %w", err)
	}
	return exists, nil
}

// GetManyForUpdate loads products by ID with row locks, in deterministic
// ID order to avoid lock-order deadlocks between concurrent appliers.
// Missing IDs are simply absent from the result.
func (r *ProductRepo) GetManyForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	if len(ids) == 0 {
		return map[id.ID]*product.Product{}, nil
	}

	ordered := make([]id.ID, len(ids))
	copy(ordered, ids)
	sort.Slice(ordered, func(i, j int) bool {
		return strings.Compare(ordered[i].String(), ordered[j].String()) < 0
	})

	q := r.baseSelect().
		Where(squirrel.Eq{"id": ordered}).
		OrderBy("id").
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []*product.Product
	if err := pgxscan.Select(ctx, r.querier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	out := make(map[id.ID]*product.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// AdjustQuantity applies the delta as an in-database increment and
// returns the new quantity. Cost nil leaves cost_price unchanged;
// restockAt nil leaves last_restock_at unchanged.
func (r *ProductRepo) AdjustQuantity(ctx context.Context, productID id.ID, delta types.Quantity, cost *types.Money, restockAt *time.Time) (types.Quantity, error) {
	sql := `
		UPDATE ` + productsTable + `
		SET quantity = quantity + $2,
		    cost_price = COALESCE($3, cost_price),
		    last_restock_at = COALESCE($4, last_restock_at),
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING quantity
	`

	var newQty types.Quantity
	err := r.querier(ctx).QueryRow(ctx, sql, productID, delta, cost, restockAt).Scan(&newQty)
	if err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewNotFound("product", productID.String())
		}
		return 0, fmt.Errorf("adjust quantity: %w", err)
	}

	return newQty, nil
}

// SetQuantity overwrites the quantity with the counted ground-truth value
// and returns the value it replaced.
func (r *ProductRepo) SetQuantity(ctx context.Context, productID id.ID, quantity types.Quantity) (types.Quantity, error) {
	sql := `
		UPDATE ` + productsTable + ` p
		SET quantity = $2,
		    version = version + 1,
		    updated_at = NOW()
		FROM (SELECT quantity AS old_quantity FROM ` + productsTable + ` WHERE id = $1) prev
		WHERE p.id = $1
		RETURNING prev.old_quantity
	`

	var old types.Quantity
	err := r.querier(ctx).QueryRow(ctx, sql, productID, quantity).Scan(&old)
	if err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewNotFound("product", productID.String())
		}
		return 0, fmt.Errorf("set quantity: %w", err)
	}

	return old, nil
}

func (r *ProductRepo) parseOrderBy(orderBy string) (string, error) {
	allowed := map[string]struct{}{
		"sku": {}, "name": {}, "quantity": {}, "cost_price": {},
		"sale_price": {}, "created_at": {}, "updated_at": {}, "id": {},
	}

	if strings.TrimSpace(orderBy) == "" {
		return "name ASC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	return field + " " + direction, nil
}
