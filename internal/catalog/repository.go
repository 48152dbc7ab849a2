package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/storefront/internal/platform/db"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// Repository defines persistence operations for the catalog.
type Repository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	SearchProducts(ctx context.Context, term string) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	RelatedProducts(ctx context.Context, productID, categoryID int64, limit int) ([]Product, error)
	ProductsByCategory(ctx context.Context, categoryID int64, limit int) ([]Product, error)
	TopSellers(ctx context.Context, limit int) ([]Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	q db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(q db.Querier) *PGRepository {
	return &PGRepository{q: q}
}

var _ Repository = (*PGRepository)(nil)

// ListProducts runs the composed listing query.
func (r *PGRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	return r.run(ctx, NewProductQuery(filter))
}

// SearchProducts returns unranked matches in id order.
func (r *PGRepository) SearchProducts(ctx context.Context, term string) ([]Product, error) {
	return r.run(ctx, NewSearchQuery(term))
}

// GetProduct fetches a single product regardless of status.
func (r *PGRepository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	sql, args := NewQuery(listFrom).Where("id", "p.id = ?", id).Build()
	p, err := scanProduct(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("catalog: get product %d: %w", id, err)
	}
	return &p, nil
}

// RelatedProducts lists active products sharing the category.
func (r *PGRepository) RelatedProducts(ctx context.Context, productID, categoryID int64, limit int) ([]Product, error) {
	return r.run(ctx, NewRelatedQuery(productID, categoryID, limit))
}

// ProductsByCategory lists active products of a category.
func (r *PGRepository) ProductsByCategory(ctx context.Context, categoryID int64, limit int) ([]Product, error) {
	return r.run(ctx, NewCategoryQuery(categoryID, limit))
}

// TopSellers lists the best selling active products.
func (r *PGRepository) TopSellers(ctx context.Context, limit int) ([]Product, error) {
	return r.run(ctx, NewTopSellersQuery(limit))
}

// ListCategories returns active categories by name.
func (r *PGRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, status FROM categories WHERE status = $1 ORDER BY name, id`, CategoryActive)
	if err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Status); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PGRepository) run(ctx context.Context, q *Query) ([]Product, error) {
	sql, args := q.Build()
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate products: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var status string
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Sales, &p.Tags, &p.Image,
		&p.CategoryID, &p.CategoryName, &status, &p.CreatedAt,
	)
	p.Status = ProductStatus(status)
	return p, err
}
