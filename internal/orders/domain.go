package orders

import "time"

// Order statuses as stored.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// LineItemRequest is one cart line submitted for placement. UnitPrice and
// LineSubtotal are snapshots taken by the caller.
type LineItemRequest struct {
	ProductID    int64 `json:"product_id" validate:"required,gt=0"`
	Quantity     int   `json:"quantity" validate:"required,gte=1"`
	UnitPrice    int64 `json:"unit_price" validate:"gte=0"`
	LineSubtotal int64 `json:"line_subtotal" validate:"gte=0"`
}

// PlaceOrderRequest carries a checkout. Amounts are minor currency units.
type PlaceOrderRequest struct {
	UserID         int64             `json:"user_id" validate:"required,gt=0"`
	Subtotal       int64             `json:"subtotal" validate:"gte=0"`
	Shipping       int64             `json:"shipping" validate:"gte=0"`
	Taxes          int64             `json:"taxes" validate:"gte=0"`
	Total          int64             `json:"total" validate:"gte=0"`
	ShipAddress    string            `json:"ship_address" validate:"required,max=500"`
	ShipCity       string            `json:"ship_city" validate:"required,max=120"`
	ContactPhone   string            `json:"contact_phone" validate:"required,max=40"`
	Items          []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	IdempotencyKey string            `json:"-" validate:"omitempty,uuid"`
}

// Order is a placed order header. ItemCount is filled by listings and Items
// by the detail view.
type Order struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Subtotal     int64      `json:"subtotal"`
	Shipping     int64      `json:"shipping"`
	Taxes        int64      `json:"taxes"`
	Total        int64      `json:"total"`
	ShipAddress  string     `json:"ship_address"`
	ShipCity     string     `json:"ship_city"`
	ContactPhone string     `json:"contact_phone"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ItemCount    int        `json:"item_count"`
	Items        []LineItem `json:"items,omitempty"`
}

// LineItem is an immutable order line joined to its product.
type LineItem struct {
	ID           int64  `json:"id"`
	OrderID      int64  `json:"order_id"`
	ProductID    int64  `json:"product_id"`
	Quantity     int    `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"`
	LineSubtotal int64  `json:"line_subtotal"`
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image"`
}

// Confirmation is handed to the notifier once an order commits.
type Confirmation struct {
	OrderID int64 `json:"order_id"`
	UserID  int64 `json:"user_id"`
	Total   int64 `json:"total"`
	Items   int   `json:"items"`
}
