package reporting

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brokerledger/brokerledger/internal/auth"
	"github.com/brokerledger/brokerledger/internal/platform/httpx"
)

// Handler manages report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   auth.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers report routes. Reports are read-only and visible to
// every signed-in role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(auth.RoleUser, auth.RoleManager, auth.RoleAdmin))
		r.Get("/outstanding", h.outstanding)
		r.Get("/dashboard", h.dashboard)
		r.Get("/parties/{id}/statement", h.partyStatement)
	})
}

func (h *Handler) outstanding(w http.ResponseWriter, r *http.Request) {
	var partyID int64
	if raw := r.URL.Query().Get("party_id"); raw != "" {
		partyID, _ = strconv.ParseInt(raw, 10, 64)
	}

	groups, err := h.service.Outstanding(r.Context(), partyID)
	if err != nil {
		h.logger.Error("outstanding report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("dashboard report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}

func (h *Handler) partyStatement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid party id")
		return
	}

	invoices, groups, err := h.service.PartyStatement(r.Context(), id)
	if err != nil {
		h.logger.Error("party statement", slog.Any("error", err), slog.Int64("party_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoices": invoices,
		"groups":   groups,
	})
}
