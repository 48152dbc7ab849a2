package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/storefront/internal/identity"
	jobmetrics "github.com/odyssey-erp/storefront/internal/jobs"
	"github.com/odyssey-erp/storefront/internal/orders"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// OrderReader loads a placed order with its lines.
type OrderReader interface {
	GetOrderDetail(ctx context.Context, orderID int64, userID *int64) (*orders.Order, error)
}

// UserReader loads the customer to address.
type UserReader interface {
	GetUser(ctx context.Context, id int64) (*identity.User, error)
}

// Message is an outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	Logger *slog.Logger
}

// Send logs the message.
func (m LogMailer) Send(_ context.Context, msg Message) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("send email", slog.String("to", msg.To), slog.String("subject", msg.Subject), slog.Int("bytes", len(msg.Body)))
	return nil
}

// OrderConfirmationJob emails the customer a summary of a committed order.
type OrderConfirmationJob struct {
	Orders  OrderReader
	Users   UserReader
	Mailer  Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOrderConfirmationJob wires dependencies for the confirmation handler.
func NewOrderConfirmationJob(ordersSvc OrderReader, users UserReader, mailer Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrderConfirmationJob {
	return &OrderConfirmationJob{Orders: ordersSvc, Users: users, Mailer: mailer, Logger: logger, Metrics: metrics}
}

// Handle processes TaskOrderConfirmation tasks. Orders or users that no
// longer exist are skipped without retry.
func (j *OrderConfirmationJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Orders == nil || j.Users == nil || j.Mailer == nil {
		return errors.New("order confirmation: handler not configured")
	}
	var payload OrderConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.OrderID <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskOrderConfirmation)
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(slog.Int64("order_id", payload.OrderID))

	order, err := j.Orders.GetOrderDetail(ctx, payload.OrderID, &payload.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.Warn("order vanished before confirmation")
			return fmt.Errorf("order %d: %w", payload.OrderID, asynq.SkipRetry)
		}
		return err
	}
	user, err := j.Users.GetUser(ctx, order.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("user %d: %w", order.UserID, asynq.SkipRetry)
		}
		return err
	}

	if err := j.Mailer.Send(ctx, ConfirmationMessage(user, order)); err != nil {
		logger.Error("send confirmation", slog.Any("error", err))
		return err
	}
	j.metrics().AddProcessed(TaskOrderConfirmation, 1)
	logger.Info("order confirmation sent")
	return nil
}

// ConfirmationMessage renders the plain text confirmation.
func ConfirmationMessage(user *identity.User, order *orders.Order) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s,\n\nRecibimos tu pedido #%d.\n\n", user.Name, order.ID)
	for _, it := range order.Items {
		fmt.Fprintf(&b, "  %d x %s  %s\n", it.Quantity, it.ProductName, formatMoney(it.LineSubtotal))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\nEnvío: %s\nTotal: %s\n", formatMoney(order.Subtotal), formatMoney(order.Shipping), formatMoney(order.Total))
	fmt.Fprintf(&b, "\nEnviaremos tu pedido a %s, %s.\n", order.ShipAddress, order.ShipCity)
	return Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Confirmación de pedido #%d", order.ID),
		Body:    b.String(),
	}
}

var moneyLocale = language.MustParse("es-CO")

// formatMoney renders whole pesos with locale digit grouping.
func formatMoney(v int64) string {
	return message.NewPrinter(moneyLocale).Sprintf("$%d", v)
}

func (j *OrderConfirmationJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskOrderConfirmation))
	}
	return slog.Default().With(slog.String("job", TaskOrderConfirmation))
}

func (j *OrderConfirmationJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
