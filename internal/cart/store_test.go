package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/shared"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	c := New("abc")
	require.NoError(t, c.Add(Item{ProductID: 1, Name: "Tee", UnitPrice: 100, Quantity: 2}))
	c.RecordSearch("tee")
	require.NoError(t, store.Save(ctx, c))
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"abc"))

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, c.Items, got.Items)
	assert.Equal(t, []string{"tee"}, got.RecentSearches)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRedisStoreExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, New("abc")))

	mr.FastForward(2 * time.Hour)

	_, err := store.Load(ctx, "abc")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRedisStoreUpdate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, New("abc")))

	got, err := store.Update(ctx, "abc", func(c *Cart) error {
		return c.Add(Item{ProductID: 9, UnitPrice: 10, Quantity: 1})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count())

	_, err = store.Update(ctx, "abc", func(c *Cart) error { return c.Remove("missing") })
	assert.ErrorIs(t, err, shared.ErrNotFound)

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Count())

	_, err = store.Update(ctx, "missing", func(*Cart) error { return nil })
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRedisStoreConcurrentUpdates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, New("abc")))

	const writers = 4
	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "abc", func(c *Cart) error {
				return c.Add(Item{ProductID: 1, UnitPrice: 10, Quantity: 1})
			})
			if err == nil {
				mu.Lock()
				applied++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrBusy)
		}()
	}
	wg.Wait()

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, applied, got.Count())
}
