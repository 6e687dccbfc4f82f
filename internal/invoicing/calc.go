package invoicing

import (
	"github.com/shopspring/decimal"

	"github.com/brokerledger/brokerledger/internal/money"
	"github.com/brokerledger/brokerledger/internal/shared"
)

// CalcTotals computes subtotal, tax and grand total for one invoice from its
// ordered line items. Deterministic, no side effects. The brokerage is given
// either as tax, a fixed amount in the invoice currency, or as taxRate, a
// percentage applied to the rounded subtotal. Supplying both is rejected.
func CalcTotals(items []LineInput, tax, taxRate decimal.Decimal) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, shared.Invalid("items", "at least one line item required")
	}
	if tax.Sign() < 0 {
		return Totals{}, shared.Invalid("tax", "must not be negative, got %s", tax)
	}
	if taxRate.Sign() < 0 {
		return Totals{}, shared.Invalid("tax_rate", "must not be negative, got %s", taxRate)
	}
	if tax.Sign() > 0 && taxRate.Sign() > 0 {
		return Totals{}, shared.Invalid("tax_rate", "give either a fixed tax amount or a rate, not both")
	}

	subtotal := decimal.Zero
	for i, item := range items {
		if item.Quantity <= 0 {
			return Totals{}, shared.Invalid("items", "line %d: quantity must be positive, got %d", i+1, item.Quantity)
		}
		if item.Rate.Sign() < 0 {
			return Totals{}, shared.Invalid("items", "line %d: rate must not be negative, got %s", i+1, item.Rate)
		}
		subtotal = subtotal.Add(decimal.NewFromInt(item.Quantity).Mul(item.Rate))
	}

	subtotal = money.Round2(subtotal)
	if taxRate.Sign() > 0 {
		tax = subtotal.Mul(taxRate).Div(decimal.NewFromInt(100))
	}
	tax = money.Round2(tax)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}, nil
}

// ApplyPayment applies a brokerage payment to the invoice in place,
// maintaining balance = brokerage − received. Overpayment is rejected rather
// than clamped: received brokerage never exceeds the brokerage amount, so the
// balance never goes negative.
func ApplyPayment(inv *Invoice, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return shared.Invalid("amount", "must be positive, got %s", amount)
	}
	if inv.Status == StatusCancelled {
		return shared.Invalid("invoice", "cannot record payment on a cancelled invoice")
	}
	received := inv.ReceivedBrokerage.Add(amount)
	if received.GreaterThan(inv.BrokerageInINR) {
		return shared.Invalid("amount",
			"payment of %s would exceed brokerage %s (already received %s)",
			amount, inv.BrokerageInINR, inv.ReceivedBrokerage)
	}
	inv.ReceivedBrokerage = received
	inv.BalanceBrokerage = inv.BrokerageInINR.Sub(received)
	if inv.BalanceBrokerage.IsZero() && inv.Status == StatusPending {
		inv.Status = StatusPaid
	}
	return nil
}
