package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storefront/internal/orders"
	"github.com/odyssey-erp/storefront/internal/platform/httpx"
)

// Handler exposes carts over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers cart routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/carts", func(r chi.Router) {
		r.Post("/", h.create)
		r.Route("/{cartID}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Post("/items", h.addItem)
			r.Post("/items/{key}/increment", h.lineOp(h.service.Increment))
			r.Post("/items/{key}/decrement", h.lineOp(h.service.Decrement))
			r.Delete("/items/{key}", h.lineOp(h.service.RemoveItem))
			r.Put("/wishlist/{productID}", h.toggleWishlist)
			r.Post("/searches", h.recordSearch)
			r.Post("/pending", h.enqueue)
			r.Post("/pending/drain", h.drain)
			r.Post("/checkout", h.checkout)
		})
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID int64 `json:"user_id"`
	}
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	v, err := h.service.Create(r.Context(), body.UserID)
	if err != nil {
		h.logger.Error("create cart", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Get(r.Context(), chi.URLParam(r, "cartID"))
	h.respond(w, v, err)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.AddItem(r.Context(), chi.URLParam(r, "cartID"), req)
	h.respond(w, v, err)
}

func (h *Handler) lineOp(op func(ctx context.Context, id, key string) (*View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := op(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "key"))
		h.respond(w, v, err)
	}
}

func (h *Handler) toggleWishlist(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.URLParamInt64(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.ToggleWishlist(r.Context(), chi.URLParam(r, "cartID"), productID)
	h.respond(w, v, err)
}

func (h *Handler) recordSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Term string `json:"term"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.RecordSearch(r.Context(), chi.URLParam(r, "cartID"), body.Term)
	h.respond(w, v, err)
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Kind    string          `json:"kind"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var payload any
	if len(body.Payload) > 0 {
		payload = body.Payload
	}
	v, err := h.service.Enqueue(r.Context(), chi.URLParam(r, "cartID"), body.Kind, payload)
	h.respond(w, v, err)
}

func (h *Handler) drain(w http.ResponseWriter, r *http.Request) {
	actions, err := h.service.Drain(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, actions)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var co Checkout
	if err := httpx.DecodeJSON(r, &co); err != nil {
		httpx.RespondError(w, err)
		return
	}
	co.IdempotencyKey = r.Header.Get(orders.IdempotencyHeader)
	orderID, err := h.service.Checkout(r.Context(), chi.URLParam(r, "cartID"), co)
	if err != nil {
		orders.RespondPlacementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]int64{"order_id": orderID})
}

func (h *Handler) respond(w http.ResponseWriter, v *View, err error) {
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}
