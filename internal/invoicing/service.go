package invoicing

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brokerledger/brokerledger/internal/money"
	"github.com/brokerledger/brokerledger/internal/shared"
)

// RepositoryPort defines data access methods for invoicing.
type RepositoryPort interface {
	CreateInvoice(ctx context.Context, record InvoiceRecord) (*Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	GetInvoiceWithItems(ctx context.Context, id int64) (*InvoiceWithItems, error)
	ListInvoices(ctx context.Context, filter ListInvoicesFilter) ([]Invoice, error)
	ReplaceItems(ctx context.Context, id int64, items []LineInput, totals Totals, brokerageInINR decimal.Decimal) (*Invoice, error)
	CancelInvoice(ctx context.Context, id int64) (*Invoice, error)
	ApplyPayment(ctx context.Context, input RegisterPaymentInput, apply func(*Invoice) error) (*Invoice, error)
	GenerateNumber(ctx context.Context) (string, error)
}

// InvoiceRecord is the persisted snapshot handed to the repository after all
// amounts have been computed.
type InvoiceRecord struct {
	Number            string
	SellerID          int64
	BuyerID           int64
	InvoiceDate       time.Time
	DueDate           time.Time
	Currency          string
	ExchangeRate      decimal.Decimal
	Totals            Totals
	BrokerageInINR    decimal.Decimal
	Items             []LineInput
	Notes             string
	CreatedBy         int64
}

// ActivityRecorder appends audit entries for UI timelines.
type ActivityRecorder interface {
	Record(ctx context.Context, act shared.Activity) error
}

// ReportInvalidator signals that derived report caches are stale.
type ReportInvalidator interface {
	InvalidateReports(ctx context.Context) error
}

// Service handles invoice business logic.
type Service struct {
	repo     RepositoryPort
	activity ActivityRecorder
	reports  ReportInvalidator
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, activity ActivityRecorder, reports ReportInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, activity: activity, reports: reports, logger: logger}
}

// CreateInvoice validates the input, computes all derived amounts and
// persists the invoice with its line item snapshot.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	if input.SellerID == 0 {
		return nil, shared.Invalid("seller_id", "required")
	}
	if input.BuyerID == 0 {
		return nil, shared.Invalid("buyer_id", "required")
	}
	if input.SellerID == input.BuyerID {
		return nil, shared.Invalid("buyer_id", "seller and buyer must differ")
	}
	if input.DueDays < 0 {
		return nil, shared.Invalid("due_days", "must not be negative")
	}
	if !money.ValidCurrency(input.Currency) {
		return nil, shared.Invalid("currency", "unknown currency code %q", input.Currency)
	}

	rate := input.ExchangeRate
	if rate.IsZero() {
		var ok bool
		if rate, ok = money.DefaultRate(input.Currency); !ok {
			return nil, shared.Invalid("exchange_rate", "required for currency %s", input.Currency)
		}
	}
	if rate.Sign() <= 0 {
		return nil, shared.Invalid("exchange_rate", "must be greater than zero, got %s", rate)
	}

	totals, err := CalcTotals(input.Items, input.Tax, input.TaxRate)
	if err != nil {
		return nil, err
	}
	brokerageInINR, err := money.Normalize(totals.Tax, rate)
	if err != nil {
		return nil, err
	}

	invoiceDate := input.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}

	number := input.Number
	if number == "" {
		if number, err = s.repo.GenerateNumber(ctx); err != nil {
			return nil, err
		}
	}

	inv, err := s.repo.CreateInvoice(ctx, InvoiceRecord{
		Number:         number,
		SellerID:       input.SellerID,
		BuyerID:        input.BuyerID,
		InvoiceDate:    invoiceDate,
		DueDate:        invoiceDate.AddDate(0, 0, input.DueDays),
		Currency:       input.Currency,
		ExchangeRate:   rate,
		Totals:         totals,
		BrokerageInINR: brokerageInINR,
		Items:          input.Items,
		Notes:          input.Notes,
		CreatedBy:      input.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, input.CreatedBy, "invoice.created", inv.ID, map[string]any{
		"number": inv.Number,
		"total":  inv.Total.StringFixed(2),
	})
	s.invalidate(ctx)
	return inv, nil
}

// UpdateItems replaces an invoice's line items and recomputes every derived
// amount before persistence.
func (s *Service) UpdateItems(ctx context.Context, id int64, items []LineInput, tax, taxRate decimal.Decimal, actorID int64) (*Invoice, error) {
	current, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusPending {
		return nil, shared.Invalid("invoice", "only pending invoices can be edited")
	}

	totals, err := CalcTotals(items, tax, taxRate)
	if err != nil {
		return nil, err
	}
	brokerageInINR, err := money.Normalize(totals.Tax, current.ExchangeRate)
	if err != nil {
		return nil, err
	}
	if current.ReceivedBrokerage.GreaterThan(brokerageInINR) {
		return nil, shared.Invalid("tax",
			"new brokerage %s is below already received %s",
			brokerageInINR, current.ReceivedBrokerage)
	}

	inv, err := s.repo.ReplaceItems(ctx, id, items, totals, brokerageInINR)
	if err != nil {
		return nil, err
	}

	s.record(ctx, actorID, "invoice.items_updated", id, map[string]any{
		"total": inv.Total.StringFixed(2),
	})
	s.invalidate(ctx)
	return inv, nil
}

// RegisterPayment records a brokerage payment against an invoice. The
// read-modify-write runs inside the repository's serializable transaction
// with a row lock, so concurrent payments cannot double-apply.
func (s *Service) RegisterPayment(ctx context.Context, input RegisterPaymentInput) (*Invoice, error) {
	if input.InvoiceID == 0 {
		return nil, shared.Invalid("invoice_id", "required")
	}
	if input.Amount.Sign() <= 0 {
		return nil, shared.Invalid("amount", "must be positive, got %s", input.Amount)
	}
	if input.PaidAt.IsZero() {
		input.PaidAt = time.Now()
	}
	if input.Reference == "" {
		input.Reference = uuid.NewString()
	}

	inv, err := s.repo.ApplyPayment(ctx, input, func(inv *Invoice) error {
		return ApplyPayment(inv, input.Amount)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, input.ActorID, "invoice.payment_recorded", inv.ID, map[string]any{
		"amount":  input.Amount.StringFixed(2),
		"balance": inv.BalanceBrokerage.StringFixed(2),
	})
	s.invalidate(ctx)
	return inv, nil
}

// CancelInvoice moves a pending invoice to cancelled.
func (s *Service) CancelInvoice(ctx context.Context, id, actorID int64) (*Invoice, error) {
	inv, err := s.repo.CancelInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "invoice.cancelled", id, nil)
	s.invalidate(ctx)
	return inv, nil
}

// GetInvoice returns a single invoice with items and payments.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*InvoiceWithItems, error) {
	return s.repo.GetInvoiceWithItems(ctx, id)
}

// ListInvoices returns invoices matching the filter. Party-scoped listings
// come back ordered oldest due first.
func (s *Service) ListInvoices(ctx context.Context, filter ListInvoicesFilter) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, filter)
}

func (s *Service) record(ctx context.Context, actorID int64, action string, invoiceID int64, meta map[string]any) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, shared.Activity{
		ActorID:  actorID,
		Action:   action,
		Entity:   "invoice",
		EntityID: strconv.FormatInt(invoiceID, 10),
		Meta:     meta,
	}); err != nil && s.logger != nil {
		s.logger.Warn("record activity", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.reports == nil {
		return
	}
	if err := s.reports.InvalidateReports(ctx); err != nil && s.logger != nil {
		s.logger.Warn("invalidate report cache", slog.Any("error", err))
	}
}
