package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// Service exposes catalog reads. List style reads are fail-soft: a storage
// failure is logged and reported as an empty result.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

// NewService constructs the catalog service. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger.With(slog.String("component", "catalog"))}
}

// ListProducts applies the filter and returns matching products.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) []Product {
	var out []Product
	err := s.cached(ctx, keyProducts(filter), &out, func(ctx context.Context) (any, error) {
		return s.repo.ListProducts(ctx, filter)
	})
	if err != nil {
		s.logger.Error("list products", slog.Any("error", err))
		return []Product{}
	}
	return nonNil(out)
}

// Search returns active products matching term, best matches first.
func (s *Service) Search(ctx context.Context, term string) []Product {
	if strings.TrimSpace(term) == "" {
		return []Product{}
	}
	rows, err := s.repo.SearchProducts(ctx, term)
	if err != nil {
		s.logger.Error("search products", slog.String("term", term), slog.Any("error", err))
		return []Product{}
	}
	return RankResults(term, rows)
}

// GetProduct returns one product or shared.ErrNotFound.
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	if id <= 0 {
		return nil, shared.ErrNotFound
	}
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("get product", slog.Int64("product_id", id), slog.Any("error", err))
		}
		return nil, err
	}
	return p, nil
}

// Related lists other active products of the same category. Products without
// a category have no related items.
func (s *Service) Related(ctx context.Context, productID int64, limit int) []Product {
	p, err := s.GetProduct(ctx, productID)
	if err != nil || p.CategoryID == nil {
		return []Product{}
	}
	categoryID := *p.CategoryID
	var out []Product
	key := "related:" + strconv.FormatInt(productID, 10) + ":" + strconv.Itoa(limit)
	err = s.cached(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.repo.RelatedProducts(ctx, productID, categoryID, limit)
	})
	if err != nil {
		s.logger.Error("related products", slog.Int64("product_id", productID), slog.Any("error", err))
		return []Product{}
	}
	return nonNil(out)
}

// ListCategories returns active categories ordered by name.
func (s *Service) ListCategories(ctx context.Context) []Category {
	var out []Category
	err := s.cached(ctx, "categories", &out, func(ctx context.Context) (any, error) {
		return s.repo.ListCategories(ctx)
	})
	if err != nil {
		s.logger.Error("list categories", slog.Any("error", err))
		return []Category{}
	}
	if out == nil {
		return []Category{}
	}
	return out
}

// ProductsByCategory lists active products of a category by sales. A zero
// limit returns all of them.
func (s *Service) ProductsByCategory(ctx context.Context, categoryID int64, limit int) []Product {
	var out []Product
	key := "category:" + strconv.FormatInt(categoryID, 10) + ":" + strconv.Itoa(limit)
	err := s.cached(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.repo.ProductsByCategory(ctx, categoryID, limit)
	})
	if err != nil {
		s.logger.Error("products by category", slog.Int64("category_id", categoryID), slog.Any("error", err))
		return []Product{}
	}
	return nonNil(out)
}

// TopSellers lists the best selling active products.
func (s *Service) TopSellers(ctx context.Context, limit int) []Product {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	var out []Product
	err := s.cached(ctx, "top:"+strconv.Itoa(limit), &out, func(ctx context.Context) (any, error) {
		return s.repo.TopSellers(ctx, limit)
	})
	if err != nil {
		s.logger.Error("top sellers", slog.Any("error", err))
		return []Product{}
	}
	return nonNil(out)
}

// Invalidate drops every cached catalog read.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) cached(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	fullKey, err := s.cache.BuildKey(ctx, key)
	if err != nil {
		s.logger.Warn("catalog cache unavailable", slog.Any("error", err))
		return loadInto(ctx, dest, loader)
	}
	return s.cache.FetchJSON(ctx, fullKey, dest, loader)
}

func nonNil(p []Product) []Product {
	if p == nil {
		return []Product{}
	}
	return p
}
