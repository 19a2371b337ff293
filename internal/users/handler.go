package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wiseman-psychedelics/wiseman-api/internal/platform/httpx"
	"github.com/wiseman-psychedelics/wiseman-api/internal/shared"
)

// Gate resolves the bearer token and enforces a role before next runs.
type Gate interface {
	Require(role Role) func(http.Handler) http.Handler
}

// Handler serves the profile and newsletter endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	gate     Gate
	throttle func(http.Handler) http.Handler
}

// NewHandler builds Handler instance. throttle runs before the gate so
// abusive clients are rejected before any token or storage work.
func NewHandler(logger *slog.Logger, service *Service, gate Gate, throttle func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, gate: gate, throttle: throttle}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.throttle != nil {
			r.Use(h.throttle)
		}
		r.With(h.gate.Require(RoleUser)).Get("/me", h.me)
		r.With(h.gate.Require(RoleAdmin)).Get("/newsletter", h.newsletter)
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user := FromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	httpx.JSON(w, http.StatusOK, ProfileOf(*user))
}

func (h *Handler) newsletter(w http.ResponseWriter, r *http.Request) {
	subscribers, err := h.service.Subscribers(r.Context())
	if err != nil {
		h.logger.Error("list subscribers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, subscribers)
}
