package catalog

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// Handler wires catalog endpoints into chi.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes on the API router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/top", h.topSellers)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/products/{id}/related", h.related)
	r.Get("/search", h.search)
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{id}/products", h.productsByCategory)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": h.service.ListProducts(r.Context(), filter)})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) related(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit, err := httpx.QueryInt(r, "limit", defaultRelatedLimit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": h.service.Related(r.Context(), id, limit)})
}

func (h *Handler) topSellers(w http.ResponseWriter, r *http.Request) {
	limit, err := httpx.QueryInt(r, "limit", defaultTopLimit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": h.service.TopSellers(r.Context(), limit)})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	httpx.JSON(w, http.StatusOK, map[string]any{"query": term, "products": h.service.Search(r.Context(), term)})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": h.service.ListCategories(r.Context())})
}

func (h *Handler) productsByCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit, err := httpx.QueryInt(r, "limit", 0)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": h.service.ProductsByCategory(r.Context(), id, limit)})
}

func parseFilter(r *http.Request) (ProductFilter, error) {
	q := r.URL.Query()
	var f ProductFilter
	var err error
	if f.CategoryID, err = httpx.QueryInt64(r, "category_id"); err != nil {
		return f, err
	}
	if f.MinPrice, err = httpx.QueryInt64(r, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = httpx.QueryInt64(r, "max_price"); err != nil {
		return f, err
	}
	if f.Limit, err = httpx.QueryInt(r, "limit", 0); err != nil {
		return f, err
	}
	if f.Offset, err = httpx.QueryInt(r, "offset", 0); err != nil {
		return f, err
	}
	f.Search = q.Get("q")
	switch strings.ToLower(q.Get("in_stock")) {
	case "", "0", "false":
	case "1", "true":
		f.InStockOnly = true
	default:
		return f, shared.Invalid("in_stock must be a boolean")
	}
	switch key := SortKey(q.Get("sort")); key {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortPopularity:
		f.Sort = key
	default:
		return f, shared.Invalid("unknown sort %q", key)
	}
	return f, nil
}
