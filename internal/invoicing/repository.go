package invoicing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/brokerledger/brokerledger/internal/platform/db"
	"github.com/brokerledger/brokerledger/internal/shared"
)

// Repository provides PostgreSQL backed persistence for invoicing.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const invoiceColumns = `id, number, seller_id, buyer_id, invoice_date, due_date,
	currency, exchange_rate, subtotal, tax, total,
	brokerage_inr, received_brokerage, balance_brokerage,
	status, notes, created_by, created_at, updated_at`

// CreateInvoice persists the invoice and its line item snapshot atomically.
func (r *Repository) CreateInvoice(ctx context.Context, record InvoiceRecord) (*Invoice, error) {
	var inv *Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO invoices (
				number, seller_id, buyer_id, invoice_date, due_date,
				currency, exchange_rate, subtotal, tax, total,
				brokerage_inr, received_brokerage, balance_brokerage,
				status, notes, created_by, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $11, 'PENDING', $12, $13, NOW(), NOW())
			RETURNING ` + invoiceColumns

		row := tx.QueryRow(ctx, query,
			record.Number,
			record.SellerID,
			record.BuyerID,
			record.InvoiceDate,
			record.DueDate,
			record.Currency,
			db.DecimalToNumeric(record.ExchangeRate),
			db.DecimalToNumeric(record.Totals.Subtotal),
			db.DecimalToNumeric(record.Totals.Tax),
			db.DecimalToNumeric(record.Totals.Total),
			db.DecimalToNumeric(record.BrokerageInINR),
			record.Notes,
			nullableID(record.CreatedBy),
		)
		created, err := scanInvoice(row)
		if err != nil {
			return mapConflict(err)
		}

		for _, item := range record.Items {
			if err := insertItem(ctx, tx, created.ID, item); err != nil {
				return err
			}
		}
		inv = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func insertItem(ctx context.Context, tx pgx.Tx, invoiceID int64, item LineInput) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO invoice_items (invoice_id, description, quantity, rate, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		invoiceID, item.Description, item.Quantity, db.DecimalToNumeric(item.Rate))
	return err
}

// GetInvoice retrieves an invoice by ID.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoice %d: %w", id, shared.ErrNotFound)
	}
	return inv, err
}

// GetInvoiceWithItems retrieves an invoice with lines, party names and payments.
func (r *Repository) GetInvoiceWithItems(ctx context.Context, id int64) (*InvoiceWithItems, error) {
	inv, err := r.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &InvoiceWithItems{Invoice: *inv}

	err = r.pool.QueryRow(ctx, `
		SELECT s.name, b.name
		FROM invoices i
		JOIN parties s ON s.id = i.seller_id
		JOIN parties b ON b.id = i.buyer_id
		WHERE i.id = $1`, id).Scan(&out.SellerName, &out.BuyerName)
	if err != nil {
		return nil, err
	}

	if out.Items, err = r.listItems(ctx, id); err != nil {
		return nil, err
	}
	if out.Payments, err = r.listPayments(ctx, id); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) listItems(ctx context.Context, invoiceID int64) ([]InvoiceItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, description, quantity, rate, created_at
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InvoiceItem
	for rows.Next() {
		var item InvoiceItem
		var rate pgtype.Numeric
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &rate, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Rate = db.NumericToDecimal(rate)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) listPayments(ctx context.Context, invoiceID int64) ([]PaymentSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, reference, amount, occurred_at, notes
		FROM transactions
		WHERE invoice_id = $1 AND type = 'payment'
		ORDER BY occurred_at`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []PaymentSummary
	for rows.Next() {
		var p PaymentSummary
		var amount pgtype.Numeric
		if err := rows.Scan(&p.ID, &p.Reference, &amount, &p.PaidAt, &p.Notes); err != nil {
			return nil, err
		}
		p.Amount = db.NumericToDecimal(amount)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ListInvoices returns invoices with optional filtering. Party-scoped
// listings are ordered oldest due first; otherwise newest invoice first.
func (r *Repository) ListInvoices(ctx context.Context, filter ListInvoicesFilter) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filter.Status))
		argNum++
	}
	if filter.PartyID > 0 {
		query += fmt.Sprintf(" AND (seller_id = $%d OR buyer_id = $%d)", argNum, argNum)
		args = append(args, filter.PartyID)
		argNum++
	}

	if filter.PartyID > 0 {
		query += " ORDER BY due_date ASC, id ASC"
	} else {
		query += " ORDER BY invoice_date DESC, id DESC"
	}

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

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

// ReplaceItems swaps the line item snapshot and writes the recomputed totals.
func (r *Repository) ReplaceItems(ctx context.Context, id int64, items []LineInput, totals Totals, brokerageInINR decimal.Decimal) (*Invoice, error) {
	var inv *Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
			return err
		}
		for _, item := range items {
			if err := insertItem(ctx, tx, id, item); err != nil {
				return err
			}
		}
		row := tx.QueryRow(ctx, `
			UPDATE invoices
			SET subtotal = $2, tax = $3, total = $4,
				brokerage_inr = $5,
				balance_brokerage = $5 - received_brokerage,
				updated_at = NOW()
			WHERE id = $1 AND status = 'PENDING'
			RETURNING `+invoiceColumns,
			id,
			db.DecimalToNumeric(totals.Subtotal),
			db.DecimalToNumeric(totals.Tax),
			db.DecimalToNumeric(totals.Total),
			db.DecimalToNumeric(brokerageInINR),
		)
		updated, err := scanInvoice(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("invoice %d not pending: %w", id, shared.ErrConflict)
		}
		if err != nil {
			return err
		}
		inv = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// CancelInvoice moves a pending invoice to cancelled.
func (r *Repository) CancelInvoice(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE invoices
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+invoiceColumns, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoice %d not found or not pending: %w", id, shared.ErrConflict)
	}
	return inv, err
}

// ApplyPayment runs the read-modify-write for a brokerage payment inside a
// serializable transaction with a row lock, then appends the transaction row.
func (r *Repository) ApplyPayment(ctx context.Context, input RegisterPaymentInput, apply func(*Invoice) error) (*Invoice, error) {
	var inv *Invoice
	err := db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`,
			input.InvoiceID)
		locked, err := scanInvoice(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("invoice %d: %w", input.InvoiceID, shared.ErrNotFound)
		}
		if err != nil {
			return err
		}

		if err := apply(locked); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE invoices
			SET received_brokerage = $2, balance_brokerage = $3, status = $4, updated_at = NOW()
			WHERE id = $1`,
			locked.ID,
			db.DecimalToNumeric(locked.ReceivedBrokerage),
			db.DecimalToNumeric(locked.BalanceBrokerage),
			string(locked.Status),
		); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO transactions (reference, amount, occurred_at, type, party_id, invoice_id, notes, created_at)
			VALUES ($1, $2, $3, 'payment', $4, $5, $6, NOW())`,
			input.Reference,
			db.DecimalToNumeric(input.Amount),
			input.PaidAt,
			locked.BuyerID,
			locked.ID,
			input.Notes,
		); err != nil {
			return mapConflict(err)
		}

		inv = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// GenerateNumber generates a unique invoice number from the shared sequence.
func (r *Repository) GenerateNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%06d", seq), nil
}

// --- Helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	var inv Invoice
	var rate, subtotal, tax, total, brokerage, received, balance pgtype.Numeric
	var notes pgtype.Text
	var createdBy pgtype.Int8

	err := row.Scan(
		&inv.ID, &inv.Number, &inv.SellerID, &inv.BuyerID, &inv.InvoiceDate, &inv.DueDate,
		&inv.Currency, &rate, &subtotal, &tax, &total,
		&brokerage, &received, &balance,
		&inv.Status, &notes, &createdBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.ExchangeRate = db.NumericToDecimal(rate)
	inv.Subtotal = db.NumericToDecimal(subtotal)
	inv.Tax = db.NumericToDecimal(tax)
	inv.Total = db.NumericToDecimal(total)
	inv.BrokerageInINR = db.NumericToDecimal(brokerage)
	inv.ReceivedBrokerage = db.NumericToDecimal(received)
	inv.BalanceBrokerage = db.NumericToDecimal(balance)
	inv.Notes = notes.String
	inv.CreatedBy = createdBy.Int64
	return &inv, nil
}

func nullableID(id int64) pgtype.Int8 {
	if id > 0 {
		return pgtype.Int8{Int64: id, Valid: true}
	}
	return pgtype.Int8{}
}

// mapConflict turns a unique-violation into shared.ErrConflict with a message
// matching the constraint that fired.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case "transactions_reference_key":
		return fmt.Errorf("payment reference already recorded: %w", shared.ErrConflict)
	default:
		return fmt.Errorf("invoice number already exists: %w", shared.ErrConflict)
	}
}
