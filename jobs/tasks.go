package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/storefront/internal/orders"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueCritical carries customer facing notifications.
	QueueCritical = "critical"

	// TaskOrderConfirmation sends the confirmation for a committed order.
	TaskOrderConfirmation = "orders:confirmation"
	// TaskCatalogWarmup repopulates the catalog read cache.
	TaskCatalogWarmup = "catalog:warmup"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// OrderConfirmationPayload identifies the order to confirm.
type OrderConfirmationPayload struct {
	OrderID int64 `json:"order_id"`
	UserID  int64 `json:"user_id"`
	Total   int64 `json:"total"`
	Items   int   `json:"items"`
}

// NewOrderConfirmationTask builds the confirmation task. The order id doubles
// as the task id so a retried enqueue never sends twice.
func NewOrderConfirmationTask(c orders.Confirmation) (*asynq.Task, error) {
	data, err := json.Marshal(OrderConfirmationPayload(c))
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderConfirmation, data,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(8),
		asynq.TaskID(fmt.Sprintf("order-confirmation-%d", c.OrderID)),
		asynq.Retention(24*time.Hour),
	), nil
}

// CatalogWarmupPayload tunes a warmup run.
type CatalogWarmupPayload struct {
	// Categories caps how many category listings are warmed. Zero warms all.
	Categories int `json:"categories,omitempty"`
}

// NewCatalogWarmupTask builds a warmup task.
func NewCatalogWarmupTask(payload CatalogWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogWarmup, data, asynq.Queue(QueueDefault), asynq.MaxRetry(2)), nil
}

// IdempotencyCleanupPayload sets how long keys are kept.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask builds a cleanup task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data, asynq.Queue(QueueDefault), asynq.MaxRetry(1)), nil
}
