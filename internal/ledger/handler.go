package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/brokerledger/brokerledger/internal/auth"
	"github.com/brokerledger/brokerledger/internal/platform/httpx"
)

// Handler manages transaction endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   auth.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// AppendTransactionRequest is the JSON payload for recording a transaction.
type AppendTransactionRequest struct {
	Reference  string          `json:"reference,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt *time.Time      `json:"occurred_at,omitempty"`
	Type       string          `json:"type"`
	PartyID    int64           `json:"party_id"`
	InvoiceID  *int64          `json:"invoice_id,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// MountRoutes registers transaction routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(auth.RoleUser, auth.RoleManager, auth.RoleAdmin))
		r.Get("/", h.list)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(auth.RoleManager, auth.RoleAdmin))
		r.Post("/", h.append)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListTransactionsFilter{
		Type:  TransactionType(r.URL.Query().Get("type")),
		Limit: 100,
	}
	if raw := r.URL.Query().Get("party_id"); raw != "" {
		filter.PartyID, _ = strconv.ParseInt(raw, 10, 64)
	}
	if raw := r.URL.Query().Get("invoice_id"); raw != "" {
		filter.InvoiceID, _ = strconv.ParseInt(raw, 10, 64)
	}

	txns, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

func (h *Handler) append(w http.ResponseWriter, r *http.Request) {
	var req AppendTransactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	input := AppendTransactionInput{
		Reference: req.Reference,
		Amount:    req.Amount,
		Type:      TransactionType(req.Type),
		PartyID:   req.PartyID,
		InvoiceID: req.InvoiceID,
		Notes:     req.Notes,
		ActorID:   auth.ActorID(r.Context()),
	}
	if req.OccurredAt != nil {
		input.OccurredAt = *req.OccurredAt
	}

	txn, err := h.service.Append(r.Context(), input)
	if err != nil {
		h.logger.Error("append transaction", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, txn)
}
