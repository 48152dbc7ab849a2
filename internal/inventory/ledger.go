// Package inventory guards product stock. Every decrement is a single
// predicate-guarded UPDATE, so concurrent buyers can never drive stock
// below zero and no row lock is held between read and write.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/odyssey-erp/storefront/internal/platform/db"
	"github.com/odyssey-erp/storefront/internal/shared"
)

const decrementSQL = `UPDATE products SET stock = stock - $1, sales = sales + $1 WHERE id = $2 AND stock >= $1`

var tracer = otel.Tracer("github.com/odyssey-erp/storefront/internal/inventory")

// Ledger applies stock movements through any Querier, either the pool or an
// open transaction.
type Ledger struct {
	q db.Querier
}

// NewLedger binds a ledger to q.
func NewLedger(q db.Querier) *Ledger {
	return &Ledger{q: q}
}

// DecrementStock removes qty units from the product and adds them to its
// sales counter. It reports false, with no change applied, when the product
// is missing or holds fewer than qty units.
func (l *Ledger) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	if qty < 1 {
		return false, shared.Invalid("quantity must be at least 1, got %d", qty)
	}
	ctx, span := tracer.Start(ctx, "inventory.DecrementStock")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", productID), attribute.Int("stock.qty", qty))

	tag, err := l.q.Exec(ctx, decrementSQL, qty, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decrement failed")
		return false, fmt.Errorf("inventory: decrement product %d: %w", productID, err)
	}
	ok := tag.RowsAffected() == 1
	span.SetAttributes(attribute.Bool("stock.applied", ok))
	return ok, nil
}

// Availability answers whether a quantity can currently be bought.
type Availability struct {
	ProductID int64 `json:"product_id"`
	Stock     int   `json:"stock"`
	Requested int   `json:"requested"`
	Available bool  `json:"available"`
}

// Available reads current stock for a product page. The answer is advisory;
// only DecrementStock is authoritative under concurrency. Inactive products
// are never available.
func (l *Ledger) Available(ctx context.Context, productID int64, qty int) (Availability, error) {
	if qty < 1 {
		return Availability{}, shared.Invalid("quantity must be at least 1, got %d", qty)
	}
	var stock int
	var status string
	err := l.q.QueryRow(ctx, `SELECT stock, status FROM products WHERE id = $1`, productID).Scan(&stock, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Availability{}, shared.ErrNotFound
		}
		return Availability{}, fmt.Errorf("inventory: read stock %d: %w", productID, err)
	}
	return Availability{
		ProductID: productID,
		Stock:     stock,
		Requested: qty,
		Available: status == "active" && stock >= qty,
	}, nil
}
