package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campus-radio/songdesk/internal/auth/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const schema = `
CREATE TABLE IF NOT EXISTS admin_accounts (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'admin',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// EnsureSchema creates the accounts table if it does not exist.
func (r *AccountRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create admin_accounts: %w", err)
	}
	return nil
}

// GetByUsername retrieves an account by username
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `
		SELECT username, password_hash, role, created_at
		FROM admin_accounts
		WHERE username = $1
	`

	var acc domain.Account
	var role string
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&acc.Username,
		&acc.PasswordHash,
		&role,
		&acc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	acc.Role = domain.Role(role)
	if !acc.Role.Valid() {
		acc.Role = domain.RoleAdmin
	}
	return &acc, nil
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, acc *domain.Account) error {
	query := `
		INSERT INTO admin_accounts (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, acc.Username, acc.PasswordHash, string(acc.Role)).Scan(&acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAccountExists
		}
		return err
	}
	return nil
}

// UpdatePassword replaces the password hash of an account
func (r *AccountRepository) UpdatePassword(ctx context.Context, username, hash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE admin_accounts SET password_hash = $2 WHERE username = $1`, username, hash)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// List returns every account ordered by username
func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT username, password_hash, role, created_at FROM admin_accounts ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var acc domain.Account
		var role string
		if err := rows.Scan(&acc.Username, &acc.PasswordHash, &role, &acc.CreatedAt); err != nil {
			return nil, err
		}
		acc.Role = domain.Role(role)
		out = append(out, acc)
	}
	return out, rows.Err()
}
