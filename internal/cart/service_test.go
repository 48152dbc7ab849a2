package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/orders"
	"github.com/odyssey-erp/storefront/internal/shared"
)

type stubProducts map[int64]catalog.Product

func (s stubProducts) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

type recordingPlacer struct {
	reqs   []orders.PlaceOrderRequest
	err    error
	during func()
}

func (p *recordingPlacer) PlaceOrder(_ context.Context, req orders.PlaceOrderRequest) (int64, error) {
	p.reqs = append(p.reqs, req)
	if p.during != nil {
		p.during()
	}
	if p.err != nil {
		return 0, p.err
	}
	return int64(100 + len(p.reqs)), nil
}

func testProducts() stubProducts {
	return stubProducts{
		1: {ID: 1, Name: "Tee", Price: 3000, Image: "tee.jpg", Status: catalog.ProductActive},
		2: {ID: 2, Name: "Coat", Price: 120000, Status: catalog.ProductActive},
		3: {ID: 3, Name: "Old", Price: 10, Status: catalog.ProductInactive},
	}
}

func newTestService(t *testing.T, placer OrderPlacer) *Service {
	t.Helper()
	store, _ := newTestStore(t)
	svc := NewService(store, testProducts(), placer, DefaultShipping, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestServiceAddItemSnapshotsProduct(t *testing.T) {
	svc := newTestService(t, &recordingPlacer{})
	ctx := context.Background()

	v, err := svc.Create(ctx, 7)
	require.NoError(t, err)

	v, err = svc.AddItem(ctx, v.ID, AddItemRequest{ProductID: 1, Color: "Red"})
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, Item{ProductID: 1, Name: "Tee", Image: "tee.jpg", UnitPrice: 3000, Quantity: 1, Color: "Red"}, v.Items[0])
	assert.Equal(t, Totals{Subtotal: 3000, Shipping: 9900, Total: 12900, Units: 1}, v.Totals)
	assert.Equal(t, svc.now(), v.UpdatedAt)

	_, err = svc.AddItem(ctx, v.ID, AddItemRequest{ProductID: 3})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.AddItem(ctx, v.ID, AddItemRequest{ProductID: 99})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.AddItem(ctx, v.ID, AddItemRequest{ProductID: 1, Quantity: 500})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestServiceLineOperations(t *testing.T) {
	svc := newTestService(t, &recordingPlacer{})
	ctx := context.Background()
	v, err := svc.Create(ctx, 0)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, v.ID, AddItemRequest{ProductID: 1, Quantity: 1, Size: "M"})
	require.NoError(t, err)
	key := LineKey(1, "", "M")

	v, err = svc.Increment(ctx, v.ID, key)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Count())

	v, err = svc.Decrement(ctx, v.ID, key)
	require.NoError(t, err)
	v, err = svc.Decrement(ctx, v.ID, key)
	require.NoError(t, err)
	assert.Empty(t, v.Items)

	_, err = svc.RemoveItem(ctx, v.ID, key)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestServiceUnknownCart(t *testing.T) {
	svc := newTestService(t, &recordingPlacer{})
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.Get(ctx, "6f1f0d7e-2f0b-4b2c-8d7e-1c2b3a4d5e6f")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestServiceDeviceState(t *testing.T) {
	svc := newTestService(t, &recordingPlacer{})
	ctx := context.Background()
	v, err := svc.Create(ctx, 0)
	require.NoError(t, err)

	v, err = svc.ToggleWishlist(ctx, v.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, v.Wishlist)

	_, err = svc.RecordSearch(ctx, v.ID, "coat")
	require.NoError(t, err)
	v, err = svc.RecordSearch(ctx, v.ID, "tee")
	require.NoError(t, err)
	assert.Equal(t, []string{"tee", "coat"}, v.RecentSearches)

	_, err = svc.Enqueue(ctx, v.ID, "favorite.add", map[string]int{"product_id": 2})
	require.NoError(t, err)
	_, err = svc.Enqueue(ctx, v.ID, "", nil)
	assert.ErrorIs(t, err, shared.ErrValidation)

	drained, err := svc.Drain(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, drained, 1)
	assert.Equal(t, svc.now(), drained[0].QueuedAt)

	again, err := svc.Drain(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestServiceCheckoutClearsCart(t *testing.T) {
	placer := &recordingPlacer{}
	svc := newTestService(t, placer)
	ctx := context.Background()
	v, err := svc.Create(ctx, 7)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, v.ID, AddItemRequest{ProductID: 2, Quantity: 1})
	require.NoError(t, err)

	orderID, err := svc.Checkout(ctx, v.ID, Checkout{ShipAddress: "Calle 1", ShipCity: "Cali", ContactPhone: "300"})
	require.NoError(t, err)
	assert.Equal(t, int64(101), orderID)

	require.Len(t, placer.reqs, 1)
	req := placer.reqs[0]
	assert.Equal(t, int64(7), req.UserID)
	assert.Equal(t, int64(0), req.Shipping)
	assert.Equal(t, int64(120000), req.Total)

	after, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Items)
}

func TestServiceCheckoutKeepsLinesAddedMeanwhile(t *testing.T) {
	placer := &recordingPlacer{}
	svc := newTestService(t, placer)
	ctx := context.Background()
	v, err := svc.Create(ctx, 7)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, v.ID, AddItemRequest{ProductID: 1, Quantity: 2})
	require.NoError(t, err)

	placer.during = func() {
		_, err := svc.AddItem(ctx, v.ID, AddItemRequest{ProductID: 2, Quantity: 1})
		require.NoError(t, err)
		_, err = svc.Increment(ctx, v.ID, LineKey(1, "", ""))
		require.NoError(t, err)
	}

	_, err = svc.Checkout(ctx, v.ID, Checkout{ShipAddress: "Calle 1", ShipCity: "Cali", ContactPhone: "300"})
	require.NoError(t, err)
	require.Len(t, placer.reqs, 1)
	require.Len(t, placer.reqs[0].Items, 1)
	assert.Equal(t, 2, placer.reqs[0].Items[0].Quantity)

	after, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, after.Items, 2)
	assert.Equal(t, Item{ProductID: 1, Name: "Tee", Image: "tee.jpg", UnitPrice: 3000, Quantity: 1}, after.Items[0])
	assert.Equal(t, int64(2), after.Items[1].ProductID)
	assert.Equal(t, 1, after.Items[1].Quantity)
}

func TestServiceCheckoutFailureKeepsCart(t *testing.T) {
	placer := &recordingPlacer{err: errors.New("order not placed")}
	svc := newTestService(t, placer)
	ctx := context.Background()
	v, err := svc.Create(ctx, 7)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, v.ID, AddItemRequest{ProductID: 1, Quantity: 2})
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, v.ID, Checkout{ShipAddress: "Calle 1", ShipCity: "Cali", ContactPhone: "300"})
	require.Error(t, err)

	after, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.Count())

	empty, err := svc.Create(ctx, 7)
	require.NoError(t, err)
	_, err = svc.Checkout(ctx, empty.ID, Checkout{})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Len(t, placer.reqs, 1)
}
