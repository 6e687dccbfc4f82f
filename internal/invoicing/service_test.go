package invoicing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/brokerledger/brokerledger/internal/shared"
)

type memoryRepo struct {
	invoices map[int64]*Invoice
	items    map[int64][]LineInput
	payments map[int64][]PaymentSummary
	nextID   int64
	counter  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		invoices: make(map[int64]*Invoice),
		items:    make(map[int64][]LineInput),
		payments: make(map[int64][]PaymentSummary),
	}
}

func (r *memoryRepo) CreateInvoice(ctx context.Context, record InvoiceRecord) (*Invoice, error) {
	for _, inv := range r.invoices {
		if inv.Number == record.Number {
			return nil, fmt.Errorf("invoice number already exists: %w", shared.ErrConflict)
		}
	}
	r.nextID++
	inv := &Invoice{
		ID:                r.nextID,
		Number:            record.Number,
		SellerID:          record.SellerID,
		BuyerID:           record.BuyerID,
		InvoiceDate:       record.InvoiceDate,
		DueDate:           record.DueDate,
		Currency:          record.Currency,
		ExchangeRate:      record.ExchangeRate,
		Subtotal:          record.Totals.Subtotal,
		Tax:               record.Totals.Tax,
		Total:             record.Totals.Total,
		BrokerageInINR:    record.BrokerageInINR,
		ReceivedBrokerage: decimal.Zero,
		BalanceBrokerage:  record.BrokerageInINR,
		Status:            StatusPending,
		Notes:             record.Notes,
		CreatedBy:         record.CreatedBy,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	r.invoices[inv.ID] = inv
	r.items[inv.ID] = record.Items
	return inv, nil
}

func (r *memoryRepo) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %d: %w", id, shared.ErrNotFound)
	}
	copied := *inv
	return &copied, nil
}

func (r *memoryRepo) GetInvoiceWithItems(ctx context.Context, id int64) (*InvoiceWithItems, error) {
	inv, err := r.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &InvoiceWithItems{Invoice: *inv, Payments: r.payments[id]}
	for _, item := range r.items[id] {
		out.Items = append(out.Items, InvoiceItem{
			InvoiceID:   id,
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
		})
	}
	return out, nil
}

func (r *memoryRepo) ListInvoices(ctx context.Context, filter ListInvoicesFilter) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.PartyID != 0 && inv.SellerID != filter.PartyID && inv.BuyerID != filter.PartyID {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (r *memoryRepo) ReplaceItems(ctx context.Context, id int64, items []LineInput, totals Totals, brokerageInINR decimal.Decimal) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %d: %w", id, shared.ErrNotFound)
	}
	r.items[id] = items
	inv.Subtotal = totals.Subtotal
	inv.Tax = totals.Tax
	inv.Total = totals.Total
	inv.BrokerageInINR = brokerageInINR
	inv.BalanceBrokerage = brokerageInINR.Sub(inv.ReceivedBrokerage)
	copied := *inv
	return &copied, nil
}

func (r *memoryRepo) CancelInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok || inv.Status != StatusPending {
		return nil, fmt.Errorf("invoice %d not found or not pending: %w", id, shared.ErrConflict)
	}
	inv.Status = StatusCancelled
	copied := *inv
	return &copied, nil
}

func (r *memoryRepo) ApplyPayment(ctx context.Context, input RegisterPaymentInput, apply func(*Invoice) error) (*Invoice, error) {
	inv, ok := r.invoices[input.InvoiceID]
	if !ok {
		return nil, fmt.Errorf("invoice %d: %w", input.InvoiceID, shared.ErrNotFound)
	}
	for _, existing := range r.payments {
		for _, p := range existing {
			if p.Reference == input.Reference {
				return nil, shared.ErrConflict
			}
		}
	}
	if err := apply(inv); err != nil {
		return nil, err
	}
	r.payments[inv.ID] = append(r.payments[inv.ID], PaymentSummary{
		Reference: input.Reference,
		Amount:    input.Amount,
		PaidAt:    input.PaidAt,
		Notes:     input.Notes,
	})
	copied := *inv
	return &copied, nil
}

func (r *memoryRepo) GenerateNumber(ctx context.Context) (string, error) {
	r.counter++
	return fmt.Sprintf("INV-%06d", r.counter), nil
}

type recordedActivity struct {
	entries []shared.Activity
}

func (a *recordedActivity) Record(ctx context.Context, act shared.Activity) error {
	a.entries = append(a.entries, act)
	return nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) InvalidateReports(ctx context.Context) error {
	c.calls++
	return nil
}

func newTestService() (*Service, *memoryRepo, *recordedActivity, *countingInvalidator) {
	repo := newMemoryRepo()
	activity := &recordedActivity{}
	invalidator := &countingInvalidator{}
	return NewService(repo, activity, invalidator, nil), repo, activity, invalidator
}

func validInput() CreateInvoiceInput {
	return CreateInvoiceInput{
		SellerID:     1,
		BuyerID:      2,
		DueDays:      30,
		Currency:     "INR",
		Tax:          dec("50.00"),
		Items:        []LineInput{{Description: "Cotton bales", Quantity: 10, Rate: dec("100.00")}},
		CreatedBy:    7,
	}
}

func TestCreateInvoice(t *testing.T) {
	ctx := context.Background()
	svc, repo, activity, invalidator := newTestService()

	inv, err := svc.CreateInvoice(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, "INV-000001", inv.Number)
	require.Equal(t, "1000.00", inv.Subtotal.StringFixed(2))
	require.Equal(t, "1050.00", inv.Total.StringFixed(2))
	require.Equal(t, "50.00", inv.BrokerageInINR.StringFixed(2))
	require.Equal(t, "50.00", inv.BalanceBrokerage.StringFixed(2))
	require.Equal(t, StatusPending, inv.Status)
	require.Equal(t, inv.InvoiceDate.AddDate(0, 0, 30), inv.DueDate)

	require.Len(t, repo.items[inv.ID], 1)
	require.Len(t, activity.entries, 1)
	require.Equal(t, "invoice.created", activity.entries[0].Action)
	require.Equal(t, 1, invalidator.calls)
}

func TestCreateInvoiceWithTaxRate(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	input := validInput()
	input.Tax = decimal.Zero
	input.TaxRate = dec("2.5")
	inv, err := svc.CreateInvoice(ctx, input)
	require.NoError(t, err)
	require.Equal(t, "1000.00", inv.Subtotal.StringFixed(2))
	require.Equal(t, "25.00", inv.Tax.StringFixed(2))
	require.Equal(t, "1025.00", inv.Total.StringFixed(2))
	require.Equal(t, "25.00", inv.BrokerageInINR.StringFixed(2))
}

func TestCreateInvoiceNormalizesBrokerage(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	input := validInput()
	input.Currency = "USD"
	input.ExchangeRate = dec("83.00")
	input.Tax = dec("10.00")

	inv, err := svc.CreateInvoice(ctx, input)
	require.NoError(t, err)
	// Tax stays in invoice currency; brokerage is normalized to INR.
	require.Equal(t, "10.00", inv.Tax.StringFixed(2))
	require.Equal(t, "830.00", inv.BrokerageInINR.StringFixed(2))
}

func TestCreateInvoiceValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	cases := map[string]func(*CreateInvoiceInput){
		"missing seller":       func(i *CreateInvoiceInput) { i.SellerID = 0 },
		"missing buyer":        func(i *CreateInvoiceInput) { i.BuyerID = 0 },
		"same party":           func(i *CreateInvoiceInput) { i.BuyerID = i.SellerID },
		"negative due days":    func(i *CreateInvoiceInput) { i.DueDays = -1 },
		"bad currency":         func(i *CreateInvoiceInput) { i.Currency = "ZZZZ" },
		"missing fx rate":      func(i *CreateInvoiceInput) { i.Currency = "USD" },
		"negative fx rate":     func(i *CreateInvoiceInput) { i.ExchangeRate = dec("-1") },
		"empty items":          func(i *CreateInvoiceInput) { i.Items = nil },
		"zero quantity":        func(i *CreateInvoiceInput) { i.Items[0].Quantity = 0 },
		"negative rate":        func(i *CreateInvoiceInput) { i.Items[0].Rate = dec("-1") },
		"negative tax":         func(i *CreateInvoiceInput) { i.Tax = dec("-1") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput()
			mutate(&input)
			_, err := svc.CreateInvoice(ctx, input)
			require.Error(t, err)
			require.True(t, shared.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestCreateInvoiceDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	input := validInput()
	input.Number = "INV-DUP"
	_, err := svc.CreateInvoice(ctx, input)
	require.NoError(t, err)

	_, err = svc.CreateInvoice(ctx, input)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestRegisterPaymentSequence(t *testing.T) {
	ctx := context.Background()
	svc, _, activity, _ := newTestService()

	input := validInput()
	input.Tax = dec("200.00")
	inv, err := svc.CreateInvoice(ctx, input)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := svc.RegisterPayment(ctx, RegisterPaymentInput{
			InvoiceID: inv.ID,
			Amount:    dec("80.00"),
			ActorID:   7,
		})
		require.NoError(t, err)
	}

	updated, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, "160.00", updated.ReceivedBrokerage.StringFixed(2))
	require.Equal(t, "40.00", updated.BalanceBrokerage.StringFixed(2))
	require.Len(t, updated.Payments, 2)

	_, err = svc.RegisterPayment(ctx, RegisterPaymentInput{
		InvoiceID: inv.ID,
		Amount:    dec("50.00"),
		ActorID:   7,
	})
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))

	// Two create/payment activities plus the failed attempt leaves no entry.
	var paymentEvents int
	for _, act := range activity.entries {
		if act.Action == "invoice.payment_recorded" {
			paymentEvents++
		}
	}
	require.Equal(t, 2, paymentEvents)
}

func TestRegisterPaymentSettlesInvoice(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	inv, err := svc.CreateInvoice(ctx, validInput())
	require.NoError(t, err)

	settled, err := svc.RegisterPayment(ctx, RegisterPaymentInput{
		InvoiceID: inv.ID,
		Amount:    dec("50.00"),
		ActorID:   7,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, settled.Status)
	require.True(t, settled.BalanceBrokerage.IsZero())
}

func TestRegisterPaymentDuplicateReference(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	inv, err := svc.CreateInvoice(ctx, validInput())
	require.NoError(t, err)

	input := RegisterPaymentInput{
		InvoiceID: inv.ID,
		Reference: "neft-20260301-01",
		Amount:    dec("10.00"),
		ActorID:   7,
	}
	_, err = svc.RegisterPayment(ctx, input)
	require.NoError(t, err)

	_, err = svc.RegisterPayment(ctx, input)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestRegisterPaymentUnknownInvoice(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	_, err := svc.RegisterPayment(ctx, RegisterPaymentInput{InvoiceID: 999, Amount: dec("10")})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateItemsRecomputesTotals(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	inv, err := svc.CreateInvoice(ctx, validInput())
	require.NoError(t, err)

	updated, err := svc.UpdateItems(ctx, inv.ID, []LineInput{
		{Description: "Cotton bales", Quantity: 5, Rate: dec("100.00")},
	}, dec("25.00"), decimal.Zero, 7)
	require.NoError(t, err)
	require.Equal(t, "500.00", updated.Subtotal.StringFixed(2))
	require.Equal(t, "525.00", updated.Total.StringFixed(2))
	require.Equal(t, "25.00", updated.BrokerageInINR.StringFixed(2))
}

func TestUpdateItemsRejectsBrokerageBelowReceived(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	input := validInput()
	input.Tax = dec("200.00")
	inv, err := svc.CreateInvoice(ctx, input)
	require.NoError(t, err)

	_, err = svc.RegisterPayment(ctx, RegisterPaymentInput{InvoiceID: inv.ID, Amount: dec("150.00")})
	require.NoError(t, err)

	_, err = svc.UpdateItems(ctx, inv.ID, []LineInput{
		{Description: "Cotton bales", Quantity: 1, Rate: dec("10.00")},
	}, dec("100.00"), decimal.Zero, 7)
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}

func TestCancelInvoice(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	inv, err := svc.CreateInvoice(ctx, validInput())
	require.NoError(t, err)

	cancelled, err := svc.CancelInvoice(ctx, inv.ID, 7)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)

	// Payments against a cancelled invoice are rejected.
	_, err = svc.RegisterPayment(ctx, RegisterPaymentInput{InvoiceID: inv.ID, Amount: dec("10")})
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))

	// Cancelling twice conflicts.
	_, err = svc.CancelInvoice(ctx, inv.ID, 7)
	require.ErrorIs(t, err, shared.ErrConflict)
}
