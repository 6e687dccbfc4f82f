// Package money holds the fixed-point arithmetic used for every monetary
// value in the ledger. Amounts carry two fractional digits and are never
// represented as binary floats, so aggregation cannot drift.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/brokerledger/brokerledger/internal/shared"
)

// BaseCurrency is the reporting currency all amounts normalize to.
const BaseCurrency = "INR"

// One is the default exchange rate for invoices already in the base currency.
var One = decimal.NewFromInt(1)

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Normalize converts an amount in an invoice's native currency to the base
// currency using the stored exchange rate.
func Normalize(amount, rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.Sign() <= 0 {
		return decimal.Zero, shared.Invalid("exchange_rate", "must be greater than zero, got %s", rate)
	}
	return Round2(amount.Mul(rate)), nil
}

// DefaultRate returns the exchange rate to apply when none was supplied:
// 1.00 for the base currency, zero (caller must supply) otherwise.
func DefaultRate(code string) (decimal.Decimal, bool) {
	if code == BaseCurrency {
		return One, true
	}
	return decimal.Zero, false
}

// ValidCurrency reports whether code is a well-formed ISO 4217 currency.
func ValidCurrency(code string) bool {
	_, err := currency.ParseISO(code)
	return err == nil
}
