package invoicing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/brokerledger/brokerledger/internal/shared"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalcTotals(t *testing.T) {
	totals, err := CalcTotals([]LineInput{
		{Description: "Cotton bales", Quantity: 10, Rate: dec("100.00")},
	}, dec("50.00"), decimal.Zero)
	require.NoError(t, err)
	require.Equal(t, "1000.00", totals.Subtotal.StringFixed(2))
	require.Equal(t, "50.00", totals.Tax.StringFixed(2))
	require.Equal(t, "1050.00", totals.Total.StringFixed(2))
}

func TestCalcTotalsMultipleLines(t *testing.T) {
	totals, err := CalcTotals([]LineInput{
		{Quantity: 3, Rate: dec("19.99")},
		{Quantity: 7, Rate: dec("0.35")},
		{Quantity: 1, Rate: dec("0")},
	}, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	require.Equal(t, "62.42", totals.Subtotal.StringFixed(2))
	require.Equal(t, "62.42", totals.Total.StringFixed(2))
}

func TestCalcTotalsRoundsHalfUp(t *testing.T) {
	// 3 × 0.125 = 0.375 rounds to 0.38
	totals, err := CalcTotals([]LineInput{
		{Quantity: 3, Rate: dec("0.125")},
	}, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	require.Equal(t, "0.38", totals.Subtotal.StringFixed(2))
}

func TestCalcTotalsTotalIdentity(t *testing.T) {
	items := []LineInput{
		{Quantity: 12, Rate: dec("45.67")},
		{Quantity: 4, Rate: dec("1200.00")},
	}
	tax := dec("93.13")
	totals, err := CalcTotals(items, tax, decimal.Zero)
	require.NoError(t, err)
	require.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax)))
}

func TestCalcTotalsFromRate(t *testing.T) {
	// 2.5% of 1000.00 is 25.00.
	totals, err := CalcTotals([]LineInput{
		{Description: "Cotton bales", Quantity: 10, Rate: dec("100.00")},
	}, decimal.Zero, dec("2.5"))
	require.NoError(t, err)
	require.Equal(t, "1000.00", totals.Subtotal.StringFixed(2))
	require.Equal(t, "25.00", totals.Tax.StringFixed(2))
	require.Equal(t, "1025.00", totals.Total.StringFixed(2))
}

func TestCalcTotalsRateRoundsHalfUp(t *testing.T) {
	// 1.25% of 100.20 = 1.2525, rounds to 1.25.
	totals, err := CalcTotals([]LineInput{
		{Quantity: 1, Rate: dec("100.20")},
	}, decimal.Zero, dec("1.25"))
	require.NoError(t, err)
	require.Equal(t, "1.25", totals.Tax.StringFixed(2))

	// 0.5% of 101.00 = 0.505, rounds away from zero to 0.51.
	totals, err = CalcTotals([]LineInput{
		{Quantity: 1, Rate: dec("101.00")},
	}, decimal.Zero, dec("0.5"))
	require.NoError(t, err)
	require.Equal(t, "0.51", totals.Tax.StringFixed(2))
}

func TestCalcTotalsRejectsBadInput(t *testing.T) {
	cases := map[string]struct {
		items   []LineInput
		tax     decimal.Decimal
		taxRate decimal.Decimal
	}{
		"empty items":   {items: nil, tax: decimal.Zero},
		"zero quantity": {items: []LineInput{{Quantity: 0, Rate: dec("1")}}, tax: decimal.Zero},
		"negative qty":  {items: []LineInput{{Quantity: -2, Rate: dec("1")}}, tax: decimal.Zero},
		"negative rate": {items: []LineInput{{Quantity: 1, Rate: dec("-0.01")}}, tax: decimal.Zero},
		"negative tax":  {items: []LineInput{{Quantity: 1, Rate: dec("1")}}, tax: dec("-5")},
		"negative tax rate": {
			items:   []LineInput{{Quantity: 1, Rate: dec("1")}},
			taxRate: dec("-2"),
		},
		"both tax and rate": {
			items:   []LineInput{{Quantity: 1, Rate: dec("1")}},
			tax:     dec("10"),
			taxRate: dec("2"),
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := CalcTotals(tc.items, tc.tax, tc.taxRate)
			require.Error(t, err)
			require.True(t, shared.IsValidation(err))
		})
	}
}

func TestApplyPayment(t *testing.T) {
	inv := &Invoice{
		Status:            StatusPending,
		BrokerageInINR:    dec("200.00"),
		ReceivedBrokerage: decimal.Zero,
		BalanceBrokerage:  dec("200.00"),
	}

	require.NoError(t, ApplyPayment(inv, dec("80.00")))
	require.NoError(t, ApplyPayment(inv, dec("80.00")))
	require.Equal(t, "160.00", inv.ReceivedBrokerage.StringFixed(2))
	require.Equal(t, "40.00", inv.BalanceBrokerage.StringFixed(2))
	require.Equal(t, StatusPending, inv.Status)

	// A third payment of 50 would exceed the brokerage amount.
	err := ApplyPayment(inv, dec("50.00"))
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
	require.Equal(t, "160.00", inv.ReceivedBrokerage.StringFixed(2))
	require.Equal(t, "40.00", inv.BalanceBrokerage.StringFixed(2))
}

func TestApplyPaymentMarksPaidOnFullSettlement(t *testing.T) {
	inv := &Invoice{
		Status:            StatusPending,
		BrokerageInINR:    dec("100.00"),
		BalanceBrokerage:  dec("100.00"),
		ReceivedBrokerage: decimal.Zero,
	}
	require.NoError(t, ApplyPayment(inv, dec("100.00")))
	require.Equal(t, StatusPaid, inv.Status)
	require.True(t, inv.BalanceBrokerage.IsZero())
}

func TestApplyPaymentInvariantHoldsAcrossSequences(t *testing.T) {
	// For any sequence of valid payments, received never exceeds brokerage.
	inv := &Invoice{
		Status:            StatusPending,
		BrokerageInINR:    dec("500.00"),
		BalanceBrokerage:  dec("500.00"),
		ReceivedBrokerage: decimal.Zero,
	}
	payments := []string{"125.50", "0.01", "374.49", "100.00", "0.01"}
	for _, p := range payments {
		err := ApplyPayment(inv, dec(p))
		if err != nil {
			require.True(t, shared.IsValidation(err))
		}
		require.True(t, inv.ReceivedBrokerage.LessThanOrEqual(inv.BrokerageInINR))
		require.True(t, inv.BalanceBrokerage.Sign() >= 0)
	}
	require.Equal(t, "500.00", inv.ReceivedBrokerage.StringFixed(2))
	require.Equal(t, StatusPaid, inv.Status)
}

func TestApplyPaymentRejectsBadInput(t *testing.T) {
	inv := &Invoice{Status: StatusPending, BrokerageInINR: dec("100"), BalanceBrokerage: dec("100")}

	require.Error(t, ApplyPayment(inv, decimal.Zero))
	require.Error(t, ApplyPayment(inv, dec("-10")))

	cancelled := &Invoice{Status: StatusCancelled, BrokerageInINR: dec("100"), BalanceBrokerage: dec("100")}
	err := ApplyPayment(cancelled, dec("10"))
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}
