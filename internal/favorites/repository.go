package favorites

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/platform/db"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// Repository defines persistence operations for favorites.
type Repository interface {
	Add(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
	Exists(ctx context.Context, userID, productID int64) (bool, error)
	List(ctx context.Context, userID int64) ([]Favorite, error)
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

// Add saves the pair. Saving an existing pair is a no-op; an unknown user or
// product yields shared.ErrNotFound.
func (r *PGRepository) Add(ctx context.Context, userID, productID int64) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO favorites (user_id, product_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, product_id) DO NOTHING`, userID, productID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("favorites: add: %w", err)
	}
	return nil
}

// Remove deletes the pair if present.
func (r *PGRepository) Remove(ctx context.Context, userID, productID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`, userID, productID); err != nil {
		return fmt.Errorf("favorites: remove: %w", err)
	}
	return nil
}

// Exists reports whether the user saved the product.
func (r *PGRepository) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`,
		userID, productID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("favorites: exists: %w", err)
	}
	return ok, nil
}

// List returns the user's active favorite products, newest favorite first.
func (r *PGRepository) List(ctx context.Context, userID int64) ([]Favorite, error) {
	rows, err := r.q.Query(ctx, `
		SELECT p.id, p.name, p.description, p.price, p.stock, p.sales, p.tags, p.image,
		       p.category_id, c.name, p.status, p.created_at, f.created_at
		FROM favorites f
		INNER JOIN products p ON p.id = f.product_id
		INNER JOIN categories c ON c.id = p.category_id
		WHERE f.user_id = $1 AND p.status = $2
		ORDER BY f.created_at DESC, f.id DESC`, userID, catalog.ProductActive)
	if err != nil {
		return nil, fmt.Errorf("favorites: list: %w", err)
	}
	defer rows.Close()

	out := make([]Favorite, 0)
	for rows.Next() {
		var f Favorite
		var status string
		if err := rows.Scan(
			&f.ID, &f.Name, &f.Description, &f.Price, &f.Stock, &f.Sales, &f.Tags, &f.Image,
			&f.CategoryID, &f.CategoryName, &status, &f.CreatedAt, &f.FavoritedAt,
		); err != nil {
			return nil, err
		}
		f.Status = catalog.ProductStatus(status)
		out = append(out, f)
	}
	return out, rows.Err()
}
