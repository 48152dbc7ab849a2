package favorites

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
)

// Handler exposes favorites over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers favorites routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/users/{userID}/favorites", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{productID}", h.check)
		r.Put("/{productID}", h.add)
		r.Delete("/{productID}", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.URLParamInt64(r, "userID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.List(r.Context(), userID))
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	userID, productID, ok := pairParams(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"favorite": h.service.IsFavorite(r.Context(), userID, productID)})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	userID, productID, ok := pairParams(w, r)
	if !ok {
		return
	}
	if err := h.service.Add(r.Context(), userID, productID); err != nil {
		h.logger.Debug("add favorite", slog.Int64("user_id", userID), slog.Int64("product_id", productID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	userID, productID, ok := pairParams(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), userID, productID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pairParams(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, err := httpx.URLParamInt64(r, "userID")
	if err != nil {
		httpx.RespondError(w, err)
		return 0, 0, false
	}
	productID, err := httpx.URLParamInt64(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return 0, 0, false
	}
	return userID, productID, true
}
