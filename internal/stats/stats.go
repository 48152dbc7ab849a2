// Package stats reports storefront wide counters.
package stats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/identity"
	"github.com/odyssey-erp/storefront/internal/orders"
	"github.com/odyssey-erp/storefront/internal/platform/db"
)

// Summary aggregates headline numbers. CompletedSales sums order totals in
// minor units.
type Summary struct {
	ActiveProducts int64 `json:"active_products"`
	ActiveUsers    int64 `json:"active_users"`
	Orders         int64 `json:"orders"`
	CompletedSales int64 `json:"completed_sales"`
}

// Repository loads the summary.
type Repository interface {
	Summary(ctx context.Context) (Summary, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	q db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(q db.Querier) *PGRepository {
	return &PGRepository{q: q}
}

var _ Repository = (*PGRepository)(nil)

// Summary reads every counter in one round trip.
func (r *PGRepository) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := r.q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products WHERE status = $1),
			(SELECT COUNT(*) FROM users WHERE status = $2),
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(SUM(total), 0)::BIGINT FROM orders WHERE status = $3)`,
		catalog.ProductActive, identity.StatusActive, orders.StatusCompleted,
	).Scan(&s.ActiveProducts, &s.ActiveUsers, &s.Orders, &s.CompletedSales)
	if err != nil {
		return Summary{}, fmt.Errorf("stats: summary: %w", err)
	}
	return s, nil
}

// Service serves the summary.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs the stats service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger.With(slog.String("component", "stats"))}
}

// Summary returns the counters. A storage failure is logged and reads as
// all zeros.
func (s *Service) Summary(ctx context.Context) Summary {
	sum, err := s.repo.Summary(ctx)
	if err != nil {
		s.logger.Error("stats summary", slog.Any("error", err))
		return Summary{}
	}
	return sum
}
