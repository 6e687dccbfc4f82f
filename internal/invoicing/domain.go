package invoicing

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	StatusPending   InvoiceStatus = "PENDING"
	StatusPaid      InvoiceStatus = "PAID"
	StatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice model. Monetary fields are fixed-point decimals in the invoice
// currency, except the brokerage trio which is kept in the base currency.
type Invoice struct {
	ID                int64
	Number            string
	SellerID          int64
	BuyerID           int64
	InvoiceDate       time.Time
	DueDate           time.Time
	Currency          string
	ExchangeRate      decimal.Decimal
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	Total             decimal.Decimal
	BrokerageInINR    decimal.Decimal
	ReceivedBrokerage decimal.Decimal
	BalanceBrokerage  decimal.Decimal
	Status            InvoiceStatus
	Notes             string
	CreatedBy         int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// InvoiceItem is a line owned exclusively by its invoice.
type InvoiceItem struct {
	ID          int64
	InvoiceID   int64
	Description string
	Quantity    int64
	Rate        decimal.Decimal
	CreatedAt   time.Time
}

// InvoiceWithItems bundles an invoice with its line items and payment history.
type InvoiceWithItems struct {
	Invoice
	SellerName string
	BuyerName  string
	Items      []InvoiceItem
	Payments   []PaymentSummary
}

// PaymentSummary is a brokerage payment as shown on the invoice detail view.
type PaymentSummary struct {
	ID        int64
	Reference string
	Amount    decimal.Decimal
	PaidAt    time.Time
	Notes     string
}

// LineInput is a validated line item used when creating or editing invoices.
type LineInput struct {
	Description string
	Quantity    int64
	Rate        decimal.Decimal
}

// Totals carries the computed invoice amounts.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// CreateInvoiceInput for creating invoices with an item snapshot.
type CreateInvoiceInput struct {
	Number       string
	SellerID     int64
	BuyerID      int64
	InvoiceDate  time.Time
	DueDays      int
	Currency     string
	ExchangeRate decimal.Decimal
	Tax          decimal.Decimal
	TaxRate      decimal.Decimal
	Items        []LineInput
	Notes        string
	CreatedBy    int64
}

// RegisterPaymentInput records a brokerage payment against an invoice.
// Reference deduplicates retried submissions; when empty a fresh one is
// generated.
type RegisterPaymentInput struct {
	InvoiceID int64
	Reference string
	Amount    decimal.Decimal
	PaidAt    time.Time
	Notes     string
	ActorID   int64
}

// ListInvoicesFilter narrows invoice listings.
type ListInvoicesFilter struct {
	Status  InvoiceStatus
	PartyID int64
	Limit   int
	Offset  int
}
