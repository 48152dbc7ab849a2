package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// ErrBusy is returned when a cart kept changing underneath an update.
var ErrBusy = errors.New("cart: concurrent update, retry")

const (
	keyPrefix     = "cart:"
	updateRetries = 5
)

// Store loads and saves carts. Load returns shared.ErrNotFound for unknown
// ids. Update applies fn to the stored cart atomically with respect to other
// Updates of the same id.
type Store interface {
	Load(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Update(ctx context.Context, id string, fn func(*Cart) error) (*Cart, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps carts as JSON documents that expire after ttl of
// inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs the store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

var _ Store = (*RedisStore)(nil)

// Load reads a cart.
func (s *RedisStore) Load(ctx context.Context, id string) (*Cart, error) {
	return s.load(ctx, s.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) load(ctx context.Context, g getter, id string) (*Cart, error) {
	payload, err := g.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart: load %s: %w", id, err)
	}
	var c Cart
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("cart: decode %s: %w", id, err)
	}
	return &c, nil
}

// Save writes the cart and refreshes its expiry.
func (s *RedisStore) Save(ctx context.Context, c *Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart: encode %s: %w", c.ID, err)
	}
	if err := s.client.Set(ctx, keyPrefix+c.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("cart: save %s: %w", c.ID, err)
	}
	return nil
}

// Update runs fn under WATCH and writes the result in a MULTI block, retrying
// when another writer got there first.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*Cart) error) (*Cart, error) {
	key := keyPrefix + id
	var out *Cart
	txf := func(tx *redis.Tx) error {
		c, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("cart: encode %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err == nil {
			out = c
		}
		return err
	}
	for i := 0; i < updateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return out, err
	}
	return nil, ErrBusy
}

// Delete removes the cart.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("cart: delete %s: %w", id, err)
	}
	return nil
}
