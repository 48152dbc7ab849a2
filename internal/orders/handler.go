package orders

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
)

// IdempotencyHeader carries the optional client supplied placement key.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes order endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the order handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/users/{userID}/orders", h.listUserOrders)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	req.IdempotencyKey = r.Header.Get(IdempotencyHeader)

	id, err := h.service.PlaceOrder(r.Context(), req)
	if err != nil {
		RespondPlacementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"order_id": id})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	userID, err := httpx.QueryInt64(r, "user_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.GetOrderDetail(r.Context(), id, userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) listUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.URLParamInt64(r, "userID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": h.service.GetUserOrders(r.Context(), userID)})
}

// RespondPlacementError writes the response for a failed PlaceOrder.
// Shortfalls and infrastructure failures share one response.
func RespondPlacementError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrOrderNotPlaced) {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Order Not Placed", ErrOrderNotPlaced.Error())
		return
	}
	httpx.RespondError(w, err)
}
