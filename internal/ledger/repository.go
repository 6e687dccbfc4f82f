package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brokerledger/brokerledger/internal/platform/db"
	"github.com/brokerledger/brokerledger/internal/shared"
)

// Repository provides PostgreSQL backed persistence for transactions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Append inserts a transaction row. There is deliberately no UPDATE or
// DELETE statement in this package.
func (r *Repository) Append(ctx context.Context, input AppendTransactionInput) (*Transaction, error) {
	var invoiceID pgtype.Int8
	if input.InvoiceID != nil && *input.InvoiceID > 0 {
		invoiceID = pgtype.Int8{Int64: *input.InvoiceID, Valid: true}
	}

	txn := Transaction{
		Reference:  input.Reference,
		Amount:     input.Amount,
		OccurredAt: input.OccurredAt,
		Type:       input.Type,
		PartyID:    input.PartyID,
		InvoiceID:  input.InvoiceID,
		Notes:      input.Notes,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (reference, amount, occurred_at, type, party_id, invoice_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at`,
		input.Reference,
		db.DecimalToNumeric(input.Amount),
		input.OccurredAt,
		string(input.Type),
		input.PartyID,
		invoiceID,
		input.Notes,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("reference %s already recorded: %w", input.Reference, shared.ErrConflict)
		}
		return nil, err
	}
	return &txn, nil
}

// List returns transactions with optional filtering, newest first.
func (r *Repository) List(ctx context.Context, filter ListTransactionsFilter) ([]Transaction, error) {
	query := `
		SELECT id, reference, amount, occurred_at, type, party_id, invoice_id, notes, created_at
		FROM transactions
		WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.PartyID > 0 {
		query += fmt.Sprintf(" AND party_id = $%d", argNum)
		args = append(args, filter.PartyID)
		argNum++
	}
	if filter.InvoiceID > 0 {
		query += fmt.Sprintf(" AND invoice_id = $%d", argNum)
		args = append(args, filter.InvoiceID)
		argNum++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", argNum)
		args = append(args, string(filter.Type))
		argNum++
	}

	query += " ORDER BY occurred_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
		argNum++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var txn Transaction
		var amount pgtype.Numeric
		var invoiceID pgtype.Int8

		err := rows.Scan(&txn.ID, &txn.Reference, &amount, &txn.OccurredAt, &txn.Type, &txn.PartyID, &invoiceID, &txn.Notes, &txn.CreatedAt)
		if err != nil {
			return nil, err
		}

		txn.Amount = db.NumericToDecimal(amount)
		if invoiceID.Valid {
			txn.InvoiceID = &invoiceID.Int64
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
