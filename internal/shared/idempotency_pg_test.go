package shared_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/platform/db/dbtest"
	"github.com/odyssey-erp/storefront/internal/shared"
)

func TestIdempotencyStoreRoundTrip(t *testing.T) {
	pool := dbtest.Open(t)
	store := shared.NewIdempotencyStore(pool)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "k-1", "orders.place"))
	assert.ErrorIs(t, store.CheckAndInsert(ctx, "k-1", "orders.place"), shared.ErrIdempotencyConflict)
	require.NoError(t, store.CheckAndInsert(ctx, "k-2", "orders.place"))
}

func TestIdempotencyStoreCleanup(t *testing.T) {
	pool := dbtest.Open(t)
	store := shared.NewIdempotencyStore(pool)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "old", "orders.place"))
	require.NoError(t, store.CheckAndInsert(ctx, "fresh", "orders.place"))
	_, err := pool.Exec(ctx, `UPDATE idempotency_keys SET created_at = NOW() - INTERVAL '4 days' WHERE key = 'old'`)
	require.NoError(t, err)

	removed, err := store.Cleanup(ctx, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	assert.ErrorIs(t, store.CheckAndInsert(ctx, "fresh", "orders.place"), shared.ErrIdempotencyConflict)
}
