package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
)

// Handler exposes stock checks over HTTP.
type Handler struct {
	logger *slog.Logger
	ledger *Ledger
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, ledger *Ledger) *Handler {
	return &Handler{logger: logger, ledger: ledger}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products/{id}/availability", h.availability)
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	qty, err := httpx.QueryInt(r, "qty", 1)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.ledger.Available(r.Context(), id, qty)
	if err != nil {
		if h.logger != nil {
			h.logger.Debug("availability", slog.Int64("product_id", id), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
