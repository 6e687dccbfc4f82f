package party

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brokerledger/brokerledger/internal/shared"
)

// Repository provides PostgreSQL backed persistence for parties.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const partyColumns = `id, name, contact_person, phone, email, address, gstin, notes,
	is_active, created_by, created_at, updated_at`

// Create inserts a new party. The unique index on lower(name) backs the
// case-insensitive uniqueness invariant.
func (r *Repository) Create(ctx context.Context, p Party) (*Party, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO parties (name, contact_person, phone, email, address, gstin, notes, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING `+partyColumns,
		p.Name, p.ContactPerson, p.Phone, p.Email, p.Address, p.GSTIN, p.Notes, p.IsActive, nullableID(p.CreatedBy))
	created, err := scanParty(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("party name already exists: %w", shared.ErrConflict)
		}
		return nil, err
	}
	return created, nil
}

// Get retrieves a party by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Party, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+partyColumns+` FROM parties WHERE id = $1`, id)
	p, err := scanParty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("party %d: %w", id, shared.ErrNotFound)
	}
	return p, err
}

// FindByName looks a party up by case-insensitive name. Returns nil when
// absent so callers can distinguish "missing" from a query failure.
func (r *Repository) FindByName(ctx context.Context, name string) (*Party, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+partyColumns+` FROM parties WHERE lower(name) = lower($1)`, name)
	p, err := scanParty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// List returns parties with optional search filter plus the total count.
func (r *Repository) List(ctx context.Context, req ListPartiesRequest) ([]Party, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argNum := 1

	if req.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR contact_person ILIKE $%d)", argNum, argNum)
		args = append(args, "%"+req.Search+"%")
		argNum++
	}
	if req.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argNum)
		args = append(args, *req.IsActive)
		argNum++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM parties`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := `SELECT ` + partyColumns + ` FROM parties` + where +
		fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var parties []Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, 0, err
		}
		parties = append(parties, *p)
	}
	return parties, total, rows.Err()
}

// Update writes the full party record back.
func (r *Repository) Update(ctx context.Context, p Party) (*Party, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE parties
		SET name = $2, contact_person = $3, phone = $4, email = $5,
			address = $6, gstin = $7, notes = $8, is_active = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING `+partyColumns,
		p.ID, p.Name, p.ContactPerson, p.Phone, p.Email, p.Address, p.GSTIN, p.Notes, p.IsActive)
	updated, err := scanParty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("party %d: %w", p.ID, shared.ErrNotFound)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("party name already exists: %w", shared.ErrConflict)
		}
		return nil, err
	}
	return updated, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParty(row rowScanner) (*Party, error) {
	var p Party
	var email, address, gstin, notes pgtype.Text
	var createdBy pgtype.Int8

	err := row.Scan(
		&p.ID, &p.Name, &p.ContactPerson, &p.Phone, &email, &address, &gstin, &notes,
		&p.IsActive, &createdBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		p.Email = &email.String
	}
	if address.Valid {
		p.Address = &address.String
	}
	if gstin.Valid {
		p.GSTIN = &gstin.String
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	p.CreatedBy = createdBy.Int64
	return &p, nil
}

func nullableID(id int64) pgtype.Int8 {
	if id > 0 {
		return pgtype.Int8{Int64: id, Valid: true}
	}
	return pgtype.Int8{}
}
