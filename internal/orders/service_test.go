package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/shared"
)

type recordingHooks struct {
	mu            sync.Mutex
	invalidations int
	confirmations []Confirmation
	outcomes      []string
	notifyErr     error
}

func (h *recordingHooks) Invalidate(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.invalidations++
	return nil
}

func (h *recordingHooks) NotifyOrderPlaced(ctx context.Context, c Confirmation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.notifyErr != nil {
		return h.notifyErr
	}
	h.confirmations = append(h.confirmations, c)
	return nil
}

func (h *recordingHooks) ObserveOrderPlacement(outcome string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outcomes = append(h.outcomes, outcome)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo Repository, cfg Config) (*Service, *recordingHooks) {
	hooks := &recordingHooks{}
	svc := NewService(repo, cfg, quietLogger(),
		WithCacheInvalidator(hooks), WithNotifier(hooks), WithRecorder(hooks))
	return svc, hooks
}

func sampleRequest(items ...LineItemRequest) PlaceOrderRequest {
	var subtotal int64
	for _, it := range items {
		subtotal += it.LineSubtotal
	}
	return PlaceOrderRequest{
		UserID:       7,
		Subtotal:     subtotal,
		Shipping:     9900,
		Total:        subtotal + 9900,
		ShipAddress:  "Calle 1 # 2-3",
		ShipCity:     "Bogotá",
		ContactPhone: "3001234567",
		Items:        items,
	}
}

func line(productID int64, qty int, price int64) LineItemRequest {
	return LineItemRequest{ProductID: productID, Quantity: qty, UnitPrice: price, LineSubtotal: int64(qty) * price}
}

func TestPlaceOrderCommits(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Tee", 5)
	repo.addProduct(2, "Cap", 2)
	svc, hooks := newTestService(repo, Config{})

	id, err := svc.PlaceOrder(context.Background(), sampleRequest(line(1, 2, 3000), line(2, 1, 1500)))
	require.NoError(t, err)
	require.NotZero(t, id)

	assert.Equal(t, 3, repo.product(1).Stock)
	assert.Equal(t, 2, repo.product(1).Sales)
	assert.Equal(t, 1, repo.product(2).Stock)
	assert.Equal(t, 1, repo.orderCount())
	assert.Equal(t, 2, repo.itemCount())

	assert.Equal(t, 1, hooks.invalidations)
	require.Len(t, hooks.confirmations, 1)
	assert.Equal(t, Confirmation{OrderID: id, UserID: 7, Total: 7500 + 9900, Items: 2}, hooks.confirmations[0])
	assert.Equal(t, []string{OutcomePlaced}, hooks.outcomes)
}

func TestPlaceOrderInsufficientStockRollsBackEverything(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Tee", 5)
	repo.addProduct(2, "Cap", 1)
	svc, hooks := newTestService(repo, Config{})

	_, err := svc.PlaceOrder(context.Background(), sampleRequest(line(1, 2, 3000), line(2, 3, 1500)))
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrOrderNotPlaced)
	assert.ErrorIs(t, err, shared.ErrConflict)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(2), stockErr.ProductID)
	assert.Equal(t, 3, stockErr.Requested)

	assert.Equal(t, 5, repo.product(1).Stock)
	assert.Zero(t, repo.product(1).Sales)
	assert.Equal(t, 1, repo.product(2).Stock)
	assert.Zero(t, repo.orderCount())
	assert.Zero(t, repo.itemCount())

	assert.Zero(t, hooks.invalidations)
	assert.Empty(t, hooks.confirmations)
	assert.Equal(t, []string{OutcomeOutOfStock}, hooks.outcomes)
}

func TestPlaceOrderUnknownProductIsAShortfall(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, Config{})

	_, err := svc.PlaceOrder(context.Background(), sampleRequest(line(99, 1, 100)))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(99), stockErr.ProductID)
}

func TestPlaceOrderInfrastructureFailureRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Tee", 5)
	repo.addProduct(2, "Cap", 5)
	repo.failItemOn = 2
	svc, hooks := newTestService(repo, Config{})

	_, err := svc.PlaceOrder(context.Background(), sampleRequest(line(1, 1, 3000), line(2, 1, 1500)))

	assert.ErrorIs(t, err, ErrOrderNotPlaced)
	var stockErr *InsufficientStockError
	assert.False(t, errors.As(err, &stockErr))
	assert.Equal(t, 5, repo.product(1).Stock)
	assert.Zero(t, repo.orderCount())
	assert.Equal(t, []string{OutcomeFailed}, hooks.outcomes)
}

func TestPlaceOrderValidatesBeforeStorage(t *testing.T) {
	repo := newMemoryRepo()
	svc, hooks := newTestService(repo, Config{})

	cases := map[string]PlaceOrderRequest{
		"no items":     sampleRequest(),
		"zero qty":     sampleRequest(LineItemRequest{ProductID: 1, Quantity: 0}),
		"no user":      func() PlaceOrderRequest { r := sampleRequest(line(1, 1, 10)); r.UserID = 0; return r }(),
		"no address":   func() PlaceOrderRequest { r := sampleRequest(line(1, 1, 10)); r.ShipAddress = ""; return r }(),
		"bad key":      func() PlaceOrderRequest { r := sampleRequest(line(1, 1, 10)); r.IdempotencyKey = "abc"; return r }(),
		"negative tax": func() PlaceOrderRequest { r := sampleRequest(line(1, 1, 10)); r.Taxes = -1; return r }(),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), req)
			assert.ErrorIs(t, err, shared.ErrValidation)
			assert.NotErrorIs(t, err, ErrOrderNotPlaced)
		})
	}
	assert.Zero(t, repo.txCount)
	assert.Len(t, hooks.outcomes, len(cases))
}

func TestPlaceOrderIdempotencyKey(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Tee", 5)
	svc, hooks := newTestService(repo, Config{})
	req := sampleRequest(line(1, 1, 3000))
	req.IdempotencyKey = "0b6f7c1e-8d0a-4a43-9b4f-0f3c5e2a9d11"

	first, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	require.NotZero(t, first)

	_, err = svc.PlaceOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrDuplicateOrder)
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	assert.Equal(t, 4, repo.product(1).Stock)
	assert.Equal(t, 1, repo.orderCount())
	assert.Equal(t, []string{OutcomePlaced, OutcomeDuplicate}, hooks.outcomes)
}

func TestPlaceOrderFailedAttemptReleasesKey(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Tee", 0)
	svc, _ := newTestService(repo, Config{})
	req := sampleRequest(line(1, 1, 3000))
	req.IdempotencyKey = "6a1d1f0e-2c55-4d59-8b1e-3f2b7d9c0a44"

	_, err := svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, ErrOrderNotPlaced)

	repo.mu.Lock()
	repo.state.products[1] = memoryProduct{Name: "Tee", Stock: 3}
	repo.mu.Unlock()

	id, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestPlaceOrderTimeoutAborts(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Tee", 5)
	svc, _ := newTestService(repo, Config{TxTimeout: time.Nanosecond})

	_, err := svc.PlaceOrder(context.Background(), sampleRequest(line(1, 1, 3000)))

	assert.ErrorIs(t, err, ErrOrderNotPlaced)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 5, repo.product(1).Stock)
	assert.Zero(t, repo.orderCount())
}

func TestPlaceOrderNotifierFailureIsBestEffort(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Tee", 5)
	svc, hooks := newTestService(repo, Config{})
	hooks.notifyErr = errors.New("redis down")

	id, err := svc.PlaceOrder(context.Background(), sampleRequest(line(1, 1, 3000)))
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, 1, repo.orderCount())
}

func TestPlaceOrderConcurrentBuyersNeverOversell(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Limited", 3)
	svc, _ := newTestService(repo, Config{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.PlaceOrder(context.Background(), sampleRequest(line(1, 1, 100))); err == nil {
				mu.Lock()
				placed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, placed)
	assert.Zero(t, repo.product(1).Stock)
	assert.Equal(t, 3, repo.orderCount())
}

func TestGetUserOrdersFailSoft(t *testing.T) {
	repo := newMemoryRepo()
	repo.readErr = errors.New("timeout")
	svc, _ := newTestService(repo, Config{})

	got := svc.GetUserOrders(context.Background(), 7)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetOrderDetailOwnership(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Tee", 5)
	repo.addProduct(2, "Cap", 5)
	svc, _ := newTestService(repo, Config{})
	ctx := context.Background()

	id, err := svc.PlaceOrder(ctx, sampleRequest(line(1, 1, 3000), line(2, 2, 1500)))
	require.NoError(t, err)

	order, err := svc.GetOrderDetail(ctx, id, nil)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Tee", order.Items[0].ProductName)
	assert.Equal(t, "Cap", order.Items[1].ProductName)
	assert.Equal(t, 2, order.ItemCount)

	owner := int64(7)
	_, err = svc.GetOrderDetail(ctx, id, &owner)
	require.NoError(t, err)

	stranger := int64(8)
	_, err = svc.GetOrderDetail(ctx, id, &stranger)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	list := svc.GetUserOrders(ctx, 7)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ItemCount)
}

func TestOrderStatusValues(t *testing.T) {
	assert.Equal(t, "pending", StatusPending)
	assert.Equal(t, "completed", StatusCompleted)

	repo := newMemoryRepo()
	repo.addProduct(1, "Tee", 5)
	svc, _ := newTestService(repo, Config{})

	id, err := svc.PlaceOrder(context.Background(), sampleRequest(line(1, 1, 3000)))
	require.NoError(t, err)
	order, err := svc.GetOrderDetail(context.Background(), id, nil)
	require.NoError(t, err)
	assert.Equal(t, "pending", order.Status)
}
