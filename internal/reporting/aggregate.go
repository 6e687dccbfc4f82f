// Package reporting derives outstanding-dues rollups and dashboard
// projections from the invoice ledger. All aggregation is fixed-point
// decimal arithmetic, so results are identical for any input ordering.
package reporting

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/brokerledger/brokerledger/internal/invoicing"
)

// CurrencyGroup is the per-currency outstanding rollup.
type CurrencyGroup struct {
	Currency                 string          `json:"currency"`
	TotalSales               decimal.Decimal `json:"total_sales"`
	TotalBrokerage           decimal.Decimal `json:"total_brokerage"`
	ReceivedBrokerage        decimal.Decimal `json:"received_brokerage"`
	OutstandingBrokerage     decimal.Decimal `json:"outstanding_brokerage"`
	OutstandingInvoicesCount int             `json:"outstanding_invoices_count"`
}

// Outstanding rolls a set of invoices up into per-currency groups.
// Cancelled invoices are excluded. Groups come back ordered by descending
// total sales, ties broken by currency code so output is deterministic.
func Outstanding(invoices []invoicing.Invoice) []CurrencyGroup {
	byCurrency := make(map[string]*CurrencyGroup)
	for _, inv := range invoices {
		if inv.Status == invoicing.StatusCancelled {
			continue
		}
		group, ok := byCurrency[inv.Currency]
		if !ok {
			group = &CurrencyGroup{
				Currency:             inv.Currency,
				TotalSales:           decimal.Zero,
				TotalBrokerage:       decimal.Zero,
				ReceivedBrokerage:    decimal.Zero,
				OutstandingBrokerage: decimal.Zero,
			}
			byCurrency[inv.Currency] = group
		}
		group.TotalSales = group.TotalSales.Add(inv.Total)
		group.TotalBrokerage = group.TotalBrokerage.Add(inv.BrokerageInINR)
		group.ReceivedBrokerage = group.ReceivedBrokerage.Add(inv.ReceivedBrokerage)
		if inv.Status == invoicing.StatusPending && inv.BalanceBrokerage.Sign() > 0 {
			group.OutstandingInvoicesCount++
		}
	}

	groups := make([]CurrencyGroup, 0, len(byCurrency))
	for _, group := range byCurrency {
		group.OutstandingBrokerage = group.TotalBrokerage.Sub(group.ReceivedBrokerage)
		groups = append(groups, *group)
	}

	sort.Slice(groups, func(i, j int) bool {
		if !groups[i].TotalSales.Equal(groups[j].TotalSales) {
			return groups[i].TotalSales.GreaterThan(groups[j].TotalSales)
		}
		return groups[i].Currency < groups[j].Currency
	})
	return groups
}

// SortOldestDueFirst orders invoices by due date ascending for
// oldest-due-first party statements. Equal due dates keep a stable id order.
func SortOldestDueFirst(invoices []invoicing.Invoice) {
	sort.Slice(invoices, func(i, j int) bool {
		if !invoices[i].DueDate.Equal(invoices[j].DueDate) {
			return invoices[i].DueDate.Before(invoices[j].DueDate)
		}
		return invoices[i].ID < invoices[j].ID
	})
}
