package cart

import (
	"strings"

	"github.com/odyssey-erp/storefront/internal/orders"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// ShippingPolicy prices delivery: free when the subtotal exceeds FreeOver,
// FlatFee otherwise.
type ShippingPolicy struct {
	FlatFee  int64
	FreeOver int64
}

// DefaultShipping mirrors the storefront's published rates.
var DefaultShipping = ShippingPolicy{FlatFee: 9900, FreeOver: 100000}

// Fee returns the shipping charge for subtotal. An empty cart ships nothing.
func (p ShippingPolicy) Fee(subtotal int64) int64 {
	if subtotal <= 0 || subtotal > p.FreeOver {
		return 0
	}
	return p.FlatFee
}

// Totals summarises the cart amounts in minor units.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Taxes    int64 `json:"taxes"`
	Total    int64 `json:"total"`
	Units    int   `json:"units"`
}

// Totals prices the cart. Taxes are included in product prices.
func (c *Cart) Totals(policy ShippingPolicy) Totals {
	var t Totals
	for _, it := range c.Items {
		t.Subtotal += it.LineSubtotal()
		t.Units += it.Quantity
	}
	t.Shipping = policy.Fee(t.Subtotal)
	t.Total = t.Subtotal + t.Shipping + t.Taxes
	return t
}

// Checkout carries the delivery details collected at checkout.
type Checkout struct {
	UserID         int64  `json:"user_id"`
	ShipAddress    string `json:"ship_address"`
	ShipCity       string `json:"ship_city"`
	ContactPhone   string `json:"contact_phone"`
	IdempotencyKey string `json:"-"`
}

// ToOrderRequest snapshots the cart into a placement request, one line per
// variant in cart order.
func (c *Cart) ToOrderRequest(co Checkout, policy ShippingPolicy) (orders.PlaceOrderRequest, error) {
	if len(c.Items) == 0 {
		return orders.PlaceOrderRequest{}, shared.Invalid("cart is empty")
	}
	t := c.Totals(policy)
	req := orders.PlaceOrderRequest{
		UserID:         co.UserID,
		Subtotal:       t.Subtotal,
		Shipping:       t.Shipping,
		Taxes:          t.Taxes,
		Total:          t.Total,
		ShipAddress:    strings.TrimSpace(co.ShipAddress),
		ShipCity:       strings.TrimSpace(co.ShipCity),
		ContactPhone:   strings.TrimSpace(co.ContactPhone),
		IdempotencyKey: co.IdempotencyKey,
		Items:          make([]orders.LineItemRequest, 0, len(c.Items)),
	}
	for _, it := range c.Items {
		req.Items = append(req.Items, orders.LineItemRequest{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			LineSubtotal: it.LineSubtotal(),
		})
	}
	return req, nil
}
