package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates money-movement kinds.
type TransactionType string

const (
	TypePayment TransactionType = "payment"
	TypeRefund  TransactionType = "refund"
)

// Transaction represents a money movement. Rows are appended and never
// mutated; corrections are recorded as new transactions.
type Transaction struct {
	ID         int64           `json:"id"`
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
	Type       TransactionType `json:"type"`
	PartyID    int64           `json:"party_id"`
	InvoiceID  *int64          `json:"invoice_id,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AppendTransactionInput records a new transaction. Reference is optional;
// clients that retry submissions pass their own so replays are rejected
// instead of double-counted.
type AppendTransactionInput struct {
	Reference  string
	Amount     decimal.Decimal
	OccurredAt time.Time
	Type       TransactionType
	PartyID    int64
	InvoiceID  *int64
	Notes      string
	ActorID    int64
}

// ListTransactionsFilter narrows transaction listings.
type ListTransactionsFilter struct {
	PartyID   int64
	InvoiceID int64
	Type      TransactionType
	Limit     int
	Offset    int
}
