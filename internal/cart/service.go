package cart

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/orders"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// ProductLookup resolves the product behind a new cart line.
type ProductLookup interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

// OrderPlacer turns a checkout into an order.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req orders.PlaceOrderRequest) (int64, error)
}

// AddItemRequest selects a product variant to put in the cart.
type AddItemRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"omitempty,gte=1,lte=99"`
	Color     string `json:"color" validate:"max=40"`
	Size      string `json:"size" validate:"max=20"`
}

// View is a cart together with its priced totals.
type View struct {
	*Cart
	Totals Totals `json:"totals"`
}

// Service loads carts, applies one change and saves them back.
type Service struct {
	store    Store
	products ProductLookup
	placer   OrderPlacer
	policy   ShippingPolicy
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the cart service.
func NewService(store Store, products ProductLookup, placer OrderPlacer, policy ShippingPolicy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		products: products,
		placer:   placer,
		policy:   policy,
		logger:   logger.With(slog.String("component", "cart")),
		now:      time.Now,
	}
}

func (s *Service) view(c *Cart) *View {
	return &View{Cart: c, Totals: c.Totals(s.policy)}
}

// Create starts an empty cart with a fresh id.
func (s *Service) Create(ctx context.Context, userID int64) (*View, error) {
	c := New(uuid.NewString())
	c.UserID = userID
	c.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.view(c), nil
}

// Get loads a cart.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	c, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(c), nil
}

func (s *Service) update(ctx context.Context, id string, fn func(*Cart) error) (*View, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	c, err := s.store.Update(ctx, id, func(c *Cart) error {
		if err := fn(c); err != nil {
			return err
		}
		c.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(c), nil
}

// AddItem snapshots the product's current price into a cart line. Inactive
// products cannot be added.
func (s *Service) AddItem(ctx context.Context, id string, req AddItemRequest) (*View, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	p, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if p.Status != catalog.ProductActive {
		return nil, shared.ErrNotFound
	}
	item := Item{
		ProductID: p.ID,
		Name:      p.Name,
		Image:     p.Image,
		UnitPrice: p.Price,
		Quantity:  req.Quantity,
		Color:     req.Color,
		Size:      req.Size,
	}
	return s.update(ctx, id, func(c *Cart) error { return c.Add(item) })
}

// Increment adds one unit to a line.
func (s *Service) Increment(ctx context.Context, id, key string) (*View, error) {
	return s.update(ctx, id, func(c *Cart) error { return c.Increment(key) })
}

// Decrement removes one unit from a line, dropping it at zero.
func (s *Service) Decrement(ctx context.Context, id, key string) (*View, error) {
	return s.update(ctx, id, func(c *Cart) error { return c.Decrement(key) })
}

// RemoveItem drops a line.
func (s *Service) RemoveItem(ctx context.Context, id, key string) (*View, error) {
	return s.update(ctx, id, func(c *Cart) error { return c.Remove(key) })
}

// ToggleWishlist flips a product on the device wishlist.
func (s *Service) ToggleWishlist(ctx context.Context, id string, productID int64) (*View, error) {
	if productID <= 0 {
		return nil, shared.Invalid("product id must be positive")
	}
	return s.update(ctx, id, func(c *Cart) error {
		c.ToggleWishlist(productID)
		return nil
	})
}

// RecordSearch adds a term to the recent search history.
func (s *Service) RecordSearch(ctx context.Context, id, term string) (*View, error) {
	return s.update(ctx, id, func(c *Cart) error {
		c.RecordSearch(term)
		return nil
	})
}

// Enqueue stores an offline action.
func (s *Service) Enqueue(ctx context.Context, id, kind string, payload any) (*View, error) {
	if kind == "" {
		return nil, shared.Invalid("pending action kind required")
	}
	now := s.now().UTC()
	return s.update(ctx, id, func(c *Cart) error { return c.Enqueue(kind, payload, now) })
}

// Drain acknowledges and returns the queued offline actions.
func (s *Service) Drain(ctx context.Context, id string) ([]PendingAction, error) {
	var drained []PendingAction
	_, err := s.update(ctx, id, func(c *Cart) error {
		drained = c.Drain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drained, nil
}

// Checkout places the cart as an order and, on success, removes the ordered
// units from the cart. Lines added while the order was being placed survive.
// A failed placement leaves the cart untouched.
func (s *Service) Checkout(ctx context.Context, id string, co Checkout) (int64, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if co.UserID == 0 {
		co.UserID = v.UserID
	}
	req, err := v.ToOrderRequest(co, s.policy)
	if err != nil {
		return 0, err
	}
	orderID, err := s.placer.PlaceOrder(ctx, req)
	if err != nil {
		return 0, err
	}
	ordered := append([]Item(nil), v.Items...)
	if _, err := s.update(ctx, id, func(c *Cart) error {
		c.Settle(ordered)
		return nil
	}); err != nil {
		s.logger.Warn("clear cart after checkout", slog.String("cart_id", id), slog.Int64("order_id", orderID), slog.Any("error", err))
	}
	return orderID, nil
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return shared.ErrNotFound
	}
	return nil
}
