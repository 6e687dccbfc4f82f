package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brokerledger/brokerledger/internal/auth"
	"github.com/brokerledger/brokerledger/internal/invoicing"
	"github.com/brokerledger/brokerledger/internal/ledger"
	"github.com/brokerledger/brokerledger/internal/party"
	"github.com/brokerledger/brokerledger/internal/reporting"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Guard            auth.Middleware
	AuthHandler      *auth.Handler
	PartyHandler     *party.Handler
	InvoiceHandler   *invoicing.Handler
	LedgerHandler    *ledger.Handler
	ReportingHandler *reporting.Handler
	Pool             *pgxpool.Pool
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
		Guard:  params.Guard,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				params.Logger.Error("health check", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", params.AuthHandler.MountRoutes)
		api.Route("/parties", params.PartyHandler.MountRoutes)
		api.Route("/invoices", params.InvoiceHandler.MountRoutes)
		api.Route("/transactions", params.LedgerHandler.MountRoutes)
		api.Route("/reports", params.ReportingHandler.MountRoutes)
	})

	return r
}
