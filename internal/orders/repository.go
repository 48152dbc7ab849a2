package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/storefront/internal/inventory"
	"github.com/odyssey-erp/storefront/internal/platform/db"
	"github.com/odyssey-erp/storefront/internal/shared"
)

const idempotencyModule = "orders.place"

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListUserOrders(ctx context.Context, userID int64) ([]Order, error)
	GetOrder(ctx context.Context, orderID int64, userID *int64) (*Order, error)
	ListLineItems(ctx context.Context, orderID int64) ([]LineItem, error)
}

// TxRepository exposes the statements of one placement unit of work.
type TxRepository interface {
	ClaimIdempotencyKey(ctx context.Context, key string) error
	InsertOrder(ctx context.Context, req PlaceOrderRequest) (int64, error)
	InsertLineItem(ctx context.Context, orderID int64, item LineItemRequest) (int64, error)
	DecrementStock(ctx context.Context, productID int64, qty int) (bool, error)
}

// Pool is the connection surface the repository needs; *pgxpool.Pool
// satisfies it.
type Pool interface {
	db.Querier
	db.TxBeginner
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

type txRepo struct {
	tx     pgx.Tx
	ledger *inventory.Ledger
	idem   *shared.IdempotencyStore
}

// WithTx runs fn inside one read-committed transaction. The stock ledger and
// the idempotency store are bound to the same transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{
			tx:     tx,
			ledger: inventory.NewLedger(tx),
			idem:   shared.NewIdempotencyStore(tx),
		})
	})
}

func (t *txRepo) ClaimIdempotencyKey(ctx context.Context, key string) error {
	return t.idem.CheckAndInsert(ctx, key, idempotencyModule)
}

func (t *txRepo) InsertOrder(ctx context.Context, req PlaceOrderRequest) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, subtotal, shipping, taxes, total, ship_address, ship_city, contact_phone, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id`,
		req.UserID, req.Subtotal, req.Shipping, req.Taxes, req.Total,
		req.ShipAddress, req.ShipCity, req.ContactPhone, StatusPending,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order header: %w", err)
	}
	return id, nil
}

func (t *txRepo) InsertLineItem(ctx context.Context, orderID int64, item LineItemRequest) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, line_subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		orderID, item.ProductID, item.Quantity, item.UnitPrice, item.LineSubtotal,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert line item for product %d: %w", item.ProductID, err)
	}
	return id, nil
}

func (t *txRepo) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	return t.ledger.DecrementStock(ctx, productID, qty)
}

const orderColumns = `o.id, o.user_id, o.subtotal, o.shipping, o.taxes, o.total, o.ship_address,
       o.ship_city, o.contact_phone, o.status, o.created_at`

// ListUserOrders returns a user's orders newest first with their line count.
func (r *PGRepository) ListUserOrders(ctx context.Context, userID int64) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`,
		       (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id) AS item_count
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("orders: list for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Subtotal, &o.Shipping, &o.Taxes, &o.Total, &o.ShipAddress,
			&o.ShipCity, &o.ContactPhone, &o.Status, &o.CreatedAt, &o.ItemCount,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetOrder loads a header. With userID set the order must belong to that
// user.
func (r *PGRepository) GetOrder(ctx context.Context, orderID int64, userID *int64) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`
	args := []any{orderID}
	if userID != nil {
		query += ` AND o.user_id = $2`
		args = append(args, *userID)
	}
	var o Order
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&o.ID, &o.UserID, &o.Subtotal, &o.Shipping, &o.Taxes, &o.Total, &o.ShipAddress,
		&o.ShipCity, &o.ContactPhone, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("orders: get %d: %w", orderID, err)
	}
	return &o, nil
}

// ListLineItems returns an order's lines with product name and image, in
// insertion order.
func (r *PGRepository) ListLineItems(ctx context.Context, orderID int64) ([]LineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.line_subtotal,
		       p.name, p.image
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("orders: list items of %d: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]LineItem, 0)
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice,
			&it.LineSubtotal, &it.ProductName, &it.ProductImage); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
