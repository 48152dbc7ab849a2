// Package dbtest opens a disposable PostgreSQL schema for integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/platform/db"
)

// EnvDSN names the variable that enables integration tests.
const EnvDSN = "STOREFRONT_TEST_PG_DSN"

// Open connects to the database named by STOREFRONT_TEST_PG_DSN, applies the
// migrations and empties every table. The test is skipped when the variable
// is unset. Packages share one database, so run them with -p 1.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set; skipping postgres integration test", EnvDSN)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.New(ctx, dsn, db.PoolOptions{MaxConns: 16})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE order_items, orders, favorites, idempotency_keys, products, categories, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

// Fixture inserts rows used across integration tests.
type Fixture struct {
	Pool *pgxpool.Pool
}

// Category inserts a category and returns its id.
func (f Fixture) Category(t *testing.T, name, status string) int64 {
	t.Helper()
	var id int64
	err := f.Pool.QueryRow(context.Background(),
		`INSERT INTO categories (name, status) VALUES ($1, $2) RETURNING id`, name, status).Scan(&id)
	require.NoError(t, err)
	return id
}

// Product describes a product row to insert.
type Product struct {
	Name        string
	Description string
	Price       int64
	Stock       int
	Sales       int
	Tags        string
	CategoryID  *int64
	Status      string
}

// Product inserts a product and returns its id.
func (f Fixture) Product(t *testing.T, p Product) int64 {
	t.Helper()
	if p.Status == "" {
		p.Status = "active"
	}
	var id int64
	err := f.Pool.QueryRow(context.Background(),
		`INSERT INTO products (name, description, price, stock, sales, tags, category_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		p.Name, p.Description, p.Price, p.Stock, p.Sales, p.Tags, p.CategoryID, p.Status).Scan(&id)
	require.NoError(t, err)
	return id
}

// User inserts an active user with a placeholder hash and returns its id.
func (f Fixture) User(t *testing.T, email string) int64 {
	t.Helper()
	var id int64
	err := f.Pool.QueryRow(context.Background(),
		`INSERT INTO users (name, email, password_hash) VALUES ($1, $2, 'x') RETURNING id`, "Test User", email).Scan(&id)
	require.NoError(t, err)
	return id
}

// Stock reads the current stock and sales of a product.
func (f Fixture) Stock(t *testing.T, productID int64) (stock, sales int) {
	t.Helper()
	err := f.Pool.QueryRow(context.Background(),
		`SELECT stock, sales FROM products WHERE id = $1`, productID).Scan(&stock, &sales)
	require.NoError(t, err)
	return stock, sales
}
