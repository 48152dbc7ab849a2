package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/storefront/internal/shared"
)

type memoryProduct struct {
	Name  string
	Stock int
	Sales int
}

type memoryState struct {
	products map[int64]memoryProduct
	orders   map[int64]Order
	items    []LineItem
	keys     map[string]struct{}
	nextID   int64
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		products: make(map[int64]memoryProduct, len(s.products)),
		orders:   make(map[int64]Order, len(s.orders)),
		items:    append([]LineItem(nil), s.items...),
		keys:     make(map[string]struct{}, len(s.keys)),
		nextID:   s.nextID,
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.orders {
		out.orders[k] = v
	}
	for k := range s.keys {
		out.keys[k] = struct{}{}
	}
	return out
}

// memoryRepo serialises transactions and restores a snapshot on failure, so
// a failed unit of work leaves no trace.
type memoryRepo struct {
	mu         sync.Mutex
	state      memoryState
	txCount    int
	failItemOn int64
	readErr    error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: memoryState{
		products: make(map[int64]memoryProduct),
		orders:   make(map[int64]Order),
		keys:     make(map[string]struct{}),
	}}
}

func (r *memoryRepo) addProduct(id int64, name string, stock int) {
	r.state.products[id] = memoryProduct{Name: name, Stock: stock}
}

func (r *memoryRepo) product(id int64) memoryProduct {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.products[id]
}

func (r *memoryRepo) orderCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.orders)
}

func (r *memoryRepo) itemCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.items)
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txCount++
	snapshot := r.state.clone()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.state = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		r.state = snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) ListUserOrders(ctx context.Context, userID int64) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	out := make([]Order, 0)
	for _, o := range r.state.orders {
		if o.UserID != userID {
			continue
		}
		for _, it := range r.state.items {
			if it.OrderID == o.ID {
				o.ItemCount++
			}
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryRepo) GetOrder(ctx context.Context, orderID int64, userID *int64) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	o, ok := r.state.orders[orderID]
	if !ok || (userID != nil && o.UserID != *userID) {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func (r *memoryRepo) ListLineItems(ctx context.Context, orderID int64) ([]LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LineItem, 0)
	for _, it := range r.state.items {
		if it.OrderID == orderID {
			it.ProductName = r.state.products[it.ProductID].Name
			out = append(out, it)
		}
	}
	return out, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) ClaimIdempotencyKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.repo.state.keys[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	t.repo.state.keys[key] = struct{}{}
	return nil
}

func (t *memoryTx) InsertOrder(ctx context.Context, req PlaceOrderRequest) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t.repo.state.nextID++
	id := t.repo.state.nextID
	t.repo.state.orders[id] = Order{
		ID: id, UserID: req.UserID, Subtotal: req.Subtotal, Shipping: req.Shipping, Taxes: req.Taxes,
		Total: req.Total, ShipAddress: req.ShipAddress, ShipCity: req.ShipCity, ContactPhone: req.ContactPhone,
		Status: StatusPending, CreatedAt: time.Now(),
	}
	return id, nil
}

func (t *memoryTx) InsertLineItem(ctx context.Context, orderID int64, item LineItemRequest) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if t.repo.failItemOn == item.ProductID {
		return 0, fmt.Errorf("insert line item for product %d: %w", item.ProductID, errors.New("connection reset by peer"))
	}
	t.repo.state.nextID++
	id := t.repo.state.nextID
	t.repo.state.items = append(t.repo.state.items, LineItem{
		ID: id, OrderID: orderID, ProductID: item.ProductID, Quantity: item.Quantity,
		UnitPrice: item.UnitPrice, LineSubtotal: item.LineSubtotal,
	})
	return id, nil
}

func (t *memoryTx) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, ok := t.repo.state.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	p.Sales += qty
	t.repo.state.products[productID] = p
	return true, nil
}
