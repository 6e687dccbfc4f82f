package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brokerledger/brokerledger/internal/invoicing"
)

func TestProjectDashboardRecentWindow(t *testing.T) {
	invoices := make([]invoicing.Invoice, 0, 12)
	base := day(t, "2026-03-01")
	for i := 0; i < 12; i++ {
		invoices = append(invoices, invoicing.Invoice{
			ID:          int64(i + 1),
			Number:      "INV-00000" + string(rune('0'+i%10)),
			Currency:    "INR",
			Status:      invoicing.StatusPending,
			InvoiceDate: base.AddDate(0, 0, i),
			DueDate:     base.AddDate(0, 0, i+7),
			Total:       dec(t, "100.00"),
			BrokerageInINR: dec(t, "5.00"), ReceivedBrokerage: dec(t, "0.00"),
			BalanceBrokerage: dec(t, "5.00"),
		})
	}

	now := day(t, "2026-04-01")
	dash := ProjectDashboard(Outstanding(invoices), invoices, DefaultSettings(), now)

	require.Len(t, dash.RecentInvoices, 10)
	// Newest invoice date first.
	require.Equal(t, int64(12), dash.RecentInvoices[0].ID)
	require.Equal(t, "2026-03-12", dash.RecentInvoices[0].InvoiceDate)
	require.Equal(t, int64(3), dash.RecentInvoices[9].ID)
	require.Equal(t, "INR", dash.DefaultCurrency)
	require.True(t, dash.GeneratedAt.Equal(now))
}

func TestProjectDashboardSameDayOrdersByID(t *testing.T) {
	when := day(t, "2026-03-05")
	invoices := []invoicing.Invoice{
		{ID: 1, Currency: "INR", Status: invoicing.StatusPending, InvoiceDate: when, DueDate: when,
			Total: dec(t, "10.00"), BrokerageInINR: dec(t, "1.00"), ReceivedBrokerage: dec(t, "0.00"), BalanceBrokerage: dec(t, "1.00")},
		{ID: 2, Currency: "INR", Status: invoicing.StatusPending, InvoiceDate: when, DueDate: when,
			Total: dec(t, "10.00"), BrokerageInINR: dec(t, "1.00"), ReceivedBrokerage: dec(t, "0.00"), BalanceBrokerage: dec(t, "1.00")},
	}

	dash := ProjectDashboard(nil, invoices, DefaultSettings(), time.Now())
	require.Equal(t, int64(2), dash.RecentInvoices[0].ID)
	require.Equal(t, int64(1), dash.RecentInvoices[1].ID)
}

func TestProjectDashboardFormatsMoney(t *testing.T) {
	invoices := []invoicing.Invoice{
		{ID: 1, Number: "INV-000001", Currency: "USD", Status: invoicing.StatusPending,
			InvoiceDate: day(t, "2026-02-01"), DueDate: day(t, "2026-02-15"),
			Total: dec(t, "1234.5"), BrokerageInINR: dec(t, "83.00"),
			ReceivedBrokerage: dec(t, "0.00"), BalanceBrokerage: dec(t, "83.00")},
	}

	settings := Settings{DefaultCurrency: "USD", DashboardWindow: 5, DateFormat: "02-01-2006"}
	dash := ProjectDashboard(Outstanding(invoices), invoices, settings, time.Now())

	require.Equal(t, "1234.50", dash.RecentInvoices[0].Total)
	require.Equal(t, "83.00", dash.RecentInvoices[0].Balance)
	require.Equal(t, "01-02-2026", dash.RecentInvoices[0].InvoiceDate)
	require.Equal(t, "USD", dash.DefaultCurrency)
}
