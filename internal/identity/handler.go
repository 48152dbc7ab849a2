package identity

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// Handler exposes registration, login and profile endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the identity handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountAuthRoutes registers routes served under /auth.
func (h *Handler) MountAuthRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/users/{userID}/profile", h.getUser)
	r.Put("/users/{userID}/profile", h.updateProfile)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var p Profile
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res := h.service.Register(r.Context(), p)
	switch {
	case res.Success:
		httpx.JSON(w, http.StatusCreated, res)
	case res.Message == MsgEmailTaken:
		httpx.JSON(w, http.StatusConflict, res)
	case res.Message == MsgSystemError:
		httpx.JSON(w, http.StatusInternalServerError, res)
	default:
		httpx.JSON(w, http.StatusBadRequest, res)
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var c Credentials
	if err := httpx.DecodeJSON(r, &c); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.ValidateStruct(c); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Login(r.Context(), c.Email, c.Password)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("login", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "userID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "userID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var upd ProfileUpdate
	if err := httpx.DecodeJSON(r, &upd); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), id, upd)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
