// Package cart holds per-device shopping state: cart lines, wishlist, recent
// searches and a queue of actions awaiting sync. State is loaded from and
// saved to a Store explicitly; nothing here touches storage on its own.
package cart

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// MaxRecentSearches bounds the recent search history.
const MaxRecentSearches = 10

// Item is one cart line. A line is identified by product and variant.
type Item struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
}

// Key identifies the line within a cart.
func (i Item) Key() string {
	return LineKey(i.ProductID, i.Color, i.Size)
}

// LineSubtotal is UnitPrice times Quantity.
func (i Item) LineSubtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// LineKey builds the identity of a product variant.
func LineKey(productID int64, color, size string) string {
	return strconv.FormatInt(productID, 10) + ":" + strings.ToLower(strings.TrimSpace(color)) + ":" + strings.ToLower(strings.TrimSpace(size))
}

// PendingAction is a mutation recorded while offline.
type PendingAction struct {
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	QueuedAt time.Time       `json:"queued_at"`
}

// Cart is the state container.
type Cart struct {
	ID             string          `json:"id"`
	UserID         int64           `json:"user_id,omitempty"`
	Items          []Item          `json:"items"`
	Wishlist       []int64         `json:"wishlist"`
	RecentSearches []string        `json:"recent_searches"`
	Pending        []PendingAction `json:"pending,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// New returns an empty cart with the given id.
func New(id string) *Cart {
	return &Cart{ID: id, Items: []Item{}, Wishlist: []int64{}, RecentSearches: []string{}}
}

func (c *Cart) find(key string) int {
	for i := range c.Items {
		if c.Items[i].Key() == key {
			return i
		}
	}
	return -1
}

// Add puts item in the cart. Adding an existing variant increases its
// quantity and refreshes the price snapshot.
func (c *Cart) Add(item Item) error {
	if item.ProductID <= 0 || item.Quantity < 1 || item.UnitPrice < 0 {
		return shared.Invalid("cart item needs a product, a positive quantity and a price")
	}
	if i := c.find(item.Key()); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		c.Items[i].UnitPrice = item.UnitPrice
		return nil
	}
	c.Items = append(c.Items, item)
	return nil
}

// Increment adds one unit to the line.
func (c *Cart) Increment(key string) error {
	i := c.find(key)
	if i < 0 {
		return shared.ErrNotFound
	}
	c.Items[i].Quantity++
	return nil
}

// Decrement removes one unit; a line at one unit is removed entirely.
func (c *Cart) Decrement(key string) error {
	i := c.find(key)
	if i < 0 {
		return shared.ErrNotFound
	}
	if c.Items[i].Quantity > 1 {
		c.Items[i].Quantity--
		return nil
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return nil
}

// Remove drops the line.
func (c *Cart) Remove(key string) error {
	i := c.find(key)
	if i < 0 {
		return shared.ErrNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return nil
}

// Settle removes the units of ordered from the cart. Lines that gained units
// since the order was built keep the surplus, and lines that were not part
// of the order stay as they are.
func (c *Cart) Settle(ordered []Item) {
	for _, o := range ordered {
		i := c.find(o.Key())
		if i < 0 {
			continue
		}
		if c.Items[i].Quantity > o.Quantity {
			c.Items[i].Quantity -= o.Quantity
			continue
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// Count is the number of units across lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// ToggleWishlist adds the product to the wishlist or removes it, and reports
// whether it is now present.
func (c *Cart) ToggleWishlist(productID int64) bool {
	for i, id := range c.Wishlist {
		if id == productID {
			c.Wishlist = append(c.Wishlist[:i], c.Wishlist[i+1:]...)
			return false
		}
	}
	c.Wishlist = append(c.Wishlist, productID)
	return true
}

// RecordSearch moves term to the front of the history, dropping an earlier
// identical entry and anything beyond MaxRecentSearches.
func (c *Cart) RecordSearch(term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	out := make([]string, 0, MaxRecentSearches)
	out = append(out, term)
	for _, s := range c.RecentSearches {
		if s == term {
			continue
		}
		if len(out) == MaxRecentSearches {
			break
		}
		out = append(out, s)
	}
	c.RecentSearches = out
}

// Enqueue records an action to replay once connectivity returns.
func (c *Cart) Enqueue(kind string, payload any, now time.Time) error {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return shared.Invalid("pending action payload: %v", err)
		}
		raw = b
	}
	c.Pending = append(c.Pending, PendingAction{Kind: kind, Payload: raw, QueuedAt: now})
	return nil
}

// Drain returns and clears the queued actions. Syncing is simulated: the
// caller only acknowledges them.
func (c *Cart) Drain() []PendingAction {
	out := c.Pending
	c.Pending = nil
	if out == nil {
		return []PendingAction{}
	}
	return out
}
