package reporting

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brokerledger/brokerledger/internal/invoicing"
)

// InvoiceSource reads invoices for aggregation. Satisfied by the invoicing
// repository.
type InvoiceSource interface {
	ListInvoices(ctx context.Context, filter invoicing.ListInvoicesFilter) ([]invoicing.Invoice, error)
}

// Service coordinates report computation with the cache layer.
type Service struct {
	source   InvoiceSource
	cache    *Cache
	settings Settings
}

// NewService wires an InvoiceSource with the cache helper and explicit
// settings.
func NewService(source InvoiceSource, cache *Cache, settings Settings) *Service {
	if settings.DashboardWindow <= 0 {
		settings.DashboardWindow = DefaultSettings().DashboardWindow
	}
	if settings.DefaultCurrency == "" {
		settings.DefaultCurrency = DefaultSettings().DefaultCurrency
	}
	if settings.DateFormat == "" {
		settings.DateFormat = DefaultSettings().DateFormat
	}
	return &Service{source: source, cache: cache, settings: settings}
}

// Outstanding returns the per-currency outstanding rollup, optionally
// scoped to one party, serving from cache when warm.
func (s *Service) Outstanding(ctx context.Context, partyID int64) ([]CurrencyGroup, error) {
	key, err := s.cache.BuildKey(ctx, keyOutstanding(partyID)...)
	if err != nil {
		return nil, err
	}
	var groups []CurrencyGroup
	err = s.cache.FetchJSON(ctx, key, &groups, func(ctx context.Context) (any, error) {
		return s.computeOutstanding(ctx, partyID)
	})
	return groups, err
}

// PartyStatement returns a party's invoices oldest due first together with
// the party-scoped rollup.
func (s *Service) PartyStatement(ctx context.Context, partyID int64) ([]invoicing.Invoice, []CurrencyGroup, error) {
	invoices, err := s.source.ListInvoices(ctx, invoicing.ListInvoicesFilter{PartyID: partyID})
	if err != nil {
		return nil, nil, err
	}
	SortOldestDueFirst(invoices)
	return invoices, Outstanding(invoices), nil
}

// Dashboard assembles the dashboard projection, serving from cache when warm.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, keyDashboard()...)
	if err != nil {
		return Dashboard{}, err
	}
	var dashboard Dashboard
	err = s.cache.FetchJSON(ctx, key, &dashboard, func(ctx context.Context) (any, error) {
		return s.computeDashboard(ctx)
	})
	return dashboard, err
}

// Refresh recomputes and re-caches the ledger-wide reports. Called by the
// background worker after the cache version is bumped.
func (s *Service) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.Outstanding(ctx, 0)
		return err
	})
	g.Go(func() error {
		_, err := s.Dashboard(ctx)
		return err
	})
	return g.Wait()
}

// Aggregation reads leave Limit zero so the repository applies no LIMIT;
// rollups must cover every invoice.
func (s *Service) computeOutstanding(ctx context.Context, partyID int64) ([]CurrencyGroup, error) {
	invoices, err := s.source.ListInvoices(ctx, invoicing.ListInvoicesFilter{PartyID: partyID})
	if err != nil {
		return nil, err
	}
	return Outstanding(invoices), nil
}

func (s *Service) computeDashboard(ctx context.Context) (Dashboard, error) {
	invoices, err := s.source.ListInvoices(ctx, invoicing.ListInvoicesFilter{})
	if err != nil {
		return Dashboard{}, err
	}
	return ProjectDashboard(Outstanding(invoices), invoices, s.settings, time.Now()), nil
}
