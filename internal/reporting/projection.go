package reporting

import (
	"sort"
	"time"

	"github.com/brokerledger/brokerledger/internal/invoicing"
	"github.com/brokerledger/brokerledger/internal/money"
)

// Settings is the explicit configuration passed into report projections
// instead of ambient global state.
type Settings struct {
	DefaultCurrency string
	DashboardWindow int
	DateFormat      string
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		DefaultCurrency: money.BaseCurrency,
		DashboardWindow: 10,
		DateFormat:      "2006-01-02",
	}
}

// Dashboard is the shape consumed by the dashboard view.
type Dashboard struct {
	Groups          []CurrencyGroup    `json:"groups"`
	RecentInvoices  []RecentInvoice    `json:"recent_invoices"`
	DefaultCurrency string             `json:"default_currency"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// RecentInvoice is the trimmed invoice row on the dashboard.
type RecentInvoice struct {
	ID          int64  `json:"id"`
	Number      string `json:"number"`
	InvoiceDate string `json:"invoice_date"`
	DueDate     string `json:"due_date"`
	Currency    string `json:"currency"`
	Total       string `json:"total"`
	Balance     string `json:"balance_brokerage"`
	Status      string `json:"status"`
}

// ProjectDashboard assembles aggregate output and a recent-invoices list into
// the dashboard shape. Pure field selection and sorting: invoices come back
// newest first, limited to the configured window.
func ProjectDashboard(groups []CurrencyGroup, invoices []invoicing.Invoice, settings Settings, now time.Time) Dashboard {
	window := settings.DashboardWindow
	if window <= 0 {
		window = DefaultSettings().DashboardWindow
	}
	dateFormat := settings.DateFormat
	if dateFormat == "" {
		dateFormat = DefaultSettings().DateFormat
	}
	currency := settings.DefaultCurrency
	if currency == "" {
		currency = money.BaseCurrency
	}

	sorted := make([]invoicing.Invoice, len(invoices))
	copy(sorted, invoices)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].InvoiceDate.Equal(sorted[j].InvoiceDate) {
			return sorted[i].InvoiceDate.After(sorted[j].InvoiceDate)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if len(sorted) > window {
		sorted = sorted[:window]
	}

	recent := make([]RecentInvoice, 0, len(sorted))
	for _, inv := range sorted {
		recent = append(recent, RecentInvoice{
			ID:          inv.ID,
			Number:      inv.Number,
			InvoiceDate: inv.InvoiceDate.Format(dateFormat),
			DueDate:     inv.DueDate.Format(dateFormat),
			Currency:    inv.Currency,
			Total:       inv.Total.StringFixed(2),
			Balance:     inv.BalanceBrokerage.StringFixed(2),
			Status:      string(inv.Status),
		})
	}

	return Dashboard{
		Groups:          groups,
		RecentInvoices:  recent,
		DefaultCurrency: currency,
		GeneratedAt:     now,
	}
}
