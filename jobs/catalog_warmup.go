package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/storefront/internal/catalog"
	jobmetrics "github.com/odyssey-erp/storefront/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// CatalogReader is the subset of the catalog service the warmup drives. Each
// call fills the versioned cache as a side effect.
type CatalogReader interface {
	ListCategories(ctx context.Context) []catalog.Category
	ListProducts(ctx context.Context, filter catalog.ProductFilter) []catalog.Product
	TopSellers(ctx context.Context, limit int) []catalog.Product
	ProductsByCategory(ctx context.Context, categoryID int64, limit int) []catalog.Product
}

// CatalogWarmupJob pre-populates catalog caches after a version bump.
type CatalogWarmupJob struct {
	Catalog CatalogReader
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewCatalogWarmupJob wires dependencies for the warmup handler.
func NewCatalogWarmupJob(reader CatalogReader, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogWarmupJob {
	return &CatalogWarmupJob{
		Catalog: reader,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskCatalogWarmup tasks.
func (j *CatalogWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Catalog == nil {
		return errors.New("catalog warmup: handler not configured")
	}
	var payload CatalogWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskCatalogWarmup)
	defer func() { err = tracker.End(err) }()

	logger := j.logger()
	start := j.now()

	// The service swallows read failures, so the context is the only error
	// surface worth checking between steps.
	warmed := int64(0)
	j.Catalog.ListProducts(ctx, catalog.ProductFilter{})
	j.Catalog.ListProducts(ctx, catalog.ProductFilter{Sort: catalog.SortPopularity})
	j.Catalog.TopSellers(ctx, 0)
	warmed += 3

	categories := j.Catalog.ListCategories(ctx)
	warmed++
	for i, c := range categories {
		if payload.Categories > 0 && i >= payload.Categories {
			break
		}
		if err := ctx.Err(); err != nil {
			logger.Warn("catalog warmup interrupted", slog.Int64("warmed", warmed))
			return err
		}
		j.Catalog.ProductsByCategory(ctx, c.ID, 0)
		warmed++
	}

	j.metrics().AddProcessed(TaskCatalogWarmup, warmed)
	logger.Info("completed catalog warmup", slog.Int64("entries", warmed), slog.Duration("duration", j.now().Sub(start)))
	return ctx.Err()
}

func (j *CatalogWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCatalogWarmup))
	}
	return slog.Default().With(slog.String("job", TaskCatalogWarmup))
}

func (j *CatalogWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *CatalogWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
