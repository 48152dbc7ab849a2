package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/odyssey-erp/storefront/internal/shared"
)

var tracer = otel.Tracer("github.com/odyssey-erp/storefront/internal/orders")

// Placement outcomes reported to the Recorder.
const (
	OutcomePlaced     = "placed"
	OutcomeInvalid    = "invalid"
	OutcomeDuplicate  = "duplicate"
	OutcomeOutOfStock = "insufficient_stock"
	OutcomeFailed     = "failed"
)

const afterCommitDeadline = 3 * time.Second

// CacheInvalidator drops cached catalog reads after stock changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Notifier schedules the customer confirmation for a committed order.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, c Confirmation) error
}

// Recorder counts placement outcomes.
type Recorder interface {
	ObserveOrderPlacement(outcome string)
}

// Config tunes the coordinator.
type Config struct {
	// TxTimeout bounds the whole placement transaction. Zero disables it.
	TxTimeout time.Duration
}

// Service coordinates order placement and order reads.
type Service struct {
	repo     Repository
	cfg      Config
	logger   *slog.Logger
	cache    CacheInvalidator
	notifier Notifier
	recorder Recorder
}

// Option customises the service.
type Option func(*Service)

// WithCacheInvalidator bumps the catalog cache after each committed order.
func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(s *Service) { s.cache = c }
}

// WithNotifier enqueues confirmations after each committed order.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithRecorder reports placement outcomes.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService constructs the order service.
func NewService(repo Repository, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, cfg: cfg, logger: logger.With(slog.String("component", "orders"))}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder writes the header, then for each item in order its line and the
// matching stock decrement, all in one transaction. Any failure rolls the
// whole order back and is returned wrapped in ErrOrderNotPlaced; a stock
// shortfall surfaces as *InsufficientStockError. A replayed idempotency key
// yields ErrDuplicateOrder.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (int64, error) {
	if err := shared.ValidateStruct(req); err != nil {
		s.record(OutcomeInvalid)
		return 0, err
	}

	ctx, span := tracer.Start(ctx, "orders.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", req.UserID), attribute.Int("order.lines", len(req.Items)))

	txCtx := ctx
	if s.cfg.TxTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.cfg.TxTimeout)
		defer cancel()
	}

	var orderID int64
	err := s.repo.WithTx(txCtx, func(ctx context.Context, tx TxRepository) error {
		if req.IdempotencyKey != "" {
			if err := tx.ClaimIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
				if errors.Is(err, shared.ErrIdempotencyConflict) {
					return ErrDuplicateOrder
				}
				return fmt.Errorf("claim idempotency key: %w", err)
			}
		}
		id, err := tx.InsertOrder(ctx, req)
		if err != nil {
			return err
		}
		for _, item := range req.Items {
			if _, err := tx.InsertLineItem(ctx, id, item); err != nil {
				return err
			}
			ok, err := tx.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &InsufficientStockError{ProductID: item.ProductID, Requested: item.Quantity}
			}
		}
		orderID = id
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order not placed")
		return 0, s.placementFailed(req, err)
	}

	span.SetAttributes(attribute.Int64("order.id", orderID))
	s.record(OutcomePlaced)
	s.logger.Info("order placed", slog.Int64("order_id", orderID), slog.Int64("user_id", req.UserID), slog.Int64("total", req.Total))
	s.afterCommit(ctx, orderID, req)
	return orderID, nil
}

func (s *Service) placementFailed(req PlaceOrderRequest, err error) error {
	if errors.Is(err, ErrDuplicateOrder) {
		s.record(OutcomeDuplicate)
		s.logger.Info("duplicate order submission", slog.Int64("user_id", req.UserID))
		return ErrDuplicateOrder
	}
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		s.record(OutcomeOutOfStock)
		s.logger.Info("order rejected", slog.Int64("user_id", req.UserID), slog.Int64("product_id", stockErr.ProductID), slog.Int("requested", stockErr.Requested))
	} else {
		s.record(OutcomeFailed)
		s.logger.Error("place order", slog.Int64("user_id", req.UserID), slog.Any("error", err))
	}
	return fmt.Errorf("%w: %w", ErrOrderNotPlaced, err)
}

// afterCommit runs the best-effort follow ups. Their failures are logged and
// never affect the committed order.
func (s *Service) afterCommit(ctx context.Context, orderID int64, req PlaceOrderRequest) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterCommitDeadline)
	defer cancel()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("invalidate catalog cache", slog.Int64("order_id", orderID), slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		c := Confirmation{OrderID: orderID, UserID: req.UserID, Total: req.Total, Items: len(req.Items)}
		if err := s.notifier.NotifyOrderPlaced(ctx, c); err != nil {
			s.logger.Warn("enqueue order confirmation", slog.Int64("order_id", orderID), slog.Any("error", err))
		}
	}
}

func (s *Service) record(outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveOrderPlacement(outcome)
	}
}

// GetUserOrders lists a user's orders, newest first. Failures are logged and
// yield an empty list.
func (s *Service) GetUserOrders(ctx context.Context, userID int64) []Order {
	out, err := s.repo.ListUserOrders(ctx, userID)
	if err != nil {
		s.logger.Error("list user orders", slog.Int64("user_id", userID), slog.Any("error", err))
		return []Order{}
	}
	if out == nil {
		return []Order{}
	}
	return out
}

// GetOrderDetail loads an order with its lines. When userID is set the order
// must belong to that user. Missing, foreign and unreadable orders all report
// shared.ErrNotFound; storage failures are logged.
func (s *Service) GetOrderDetail(ctx context.Context, orderID int64, userID *int64) (*Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID, userID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("get order", slog.Int64("order_id", orderID), slog.Any("error", err))
		}
		return nil, shared.ErrNotFound
	}
	items, err := s.repo.ListLineItems(ctx, orderID)
	if err != nil {
		s.logger.Error("list order items", slog.Int64("order_id", orderID), slog.Any("error", err))
		return nil, shared.ErrNotFound
	}
	order.Items = items
	order.ItemCount = len(items)
	return order, nil
}
