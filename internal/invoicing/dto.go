package invoicing

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest is the JSON payload for creating an invoice.
type CreateInvoiceRequest struct {
	Number       string            `json:"number,omitempty" validate:"omitempty,max=50"`
	SellerID     int64             `json:"seller_id" validate:"required,gt=0"`
	BuyerID      int64             `json:"buyer_id" validate:"required,gt=0"`
	InvoiceDate  *time.Time        `json:"invoice_date,omitempty"`
	DueDays      int               `json:"due_days" validate:"gte=0,lte=365"`
	Currency     string            `json:"currency" validate:"required,len=3"`
	ExchangeRate decimal.Decimal   `json:"exchange_rate"`
	Tax          decimal.Decimal   `json:"tax"`
	TaxRate      decimal.Decimal   `json:"tax_rate"`
	Items        []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes        string            `json:"notes,omitempty"`
}

// LineItemRequest is one line of a create/update payload.
type LineItemRequest struct {
	Description string          `json:"description" validate:"required,max=200"`
	Quantity    int64           `json:"quantity" validate:"required,gt=0"`
	Rate        decimal.Decimal `json:"rate"`
}

// UpdateItemsRequest replaces an invoice's line items.
type UpdateItemsRequest struct {
	Tax     decimal.Decimal   `json:"tax"`
	TaxRate decimal.Decimal   `json:"tax_rate"`
	Items   []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// RegisterPaymentRequest records a brokerage payment.
type RegisterPaymentRequest struct {
	Reference string          `json:"reference,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

func (r CreateInvoiceRequest) toInput(actorID int64) CreateInvoiceInput {
	input := CreateInvoiceInput{
		Number:       r.Number,
		SellerID:     r.SellerID,
		BuyerID:      r.BuyerID,
		DueDays:      r.DueDays,
		Currency:     r.Currency,
		ExchangeRate: r.ExchangeRate,
		Tax:          r.Tax,
		TaxRate:      r.TaxRate,
		Items:        toLines(r.Items),
		Notes:        r.Notes,
		CreatedBy:    actorID,
	}
	if r.InvoiceDate != nil {
		input.InvoiceDate = *r.InvoiceDate
	}
	return input
}

func toLines(items []LineItemRequest) []LineInput {
	lines := make([]LineInput, 0, len(items))
	for _, item := range items {
		lines = append(lines, LineInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
		})
	}
	return lines
}
