package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/campus-radio/songdesk/internal/auth/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAccountRepo(t *testing.T) (*AccountRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewAccountRepository(db)
	return repo, mock, db
}

func TestAccountRepository_GetByUsername(t *testing.T) {
	repo, mock, db := setupAccountRepo(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT username, password_hash, role, created_at\s+FROM admin_accounts`).
			WithArgs("control").
			WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash", "role", "created_at"}).
				AddRow("control", "hash", "control", now))

		acc, err := repo.GetByUsername(ctx, "control")
		require.NoError(t, err)
		assert.Equal(t, "control", acc.Username)
		assert.Equal(t, domain.RoleControl, acc.Role)
		assert.Equal(t, "hash", acc.PasswordHash)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown role falls back to admin", func(t *testing.T) {
		mock.ExpectQuery(`SELECT username`).
			WithArgs("old").
			WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash", "role", "created_at"}).
				AddRow("old", "hash", "", time.Now()))

		acc, err := repo.GetByUsername(ctx, "old")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, acc.Role)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT username`).
			WithArgs("nobody").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_Create(t *testing.T) {
	repo, mock, db := setupAccountRepo(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("inserts", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO admin_accounts`).
			WithArgs("admin", "hash", "admin").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		acc := &domain.Account{Username: "admin", PasswordHash: "hash", Role: domain.RoleAdmin}
		require.NoError(t, repo.Create(ctx, acc))
		assert.False(t, acc.CreatedAt.IsZero())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO admin_accounts`).
			WithArgs("admin", "hash", "admin").
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, &domain.Account{Username: "admin", PasswordHash: "hash", Role: domain.RoleAdmin})
		assert.ErrorIs(t, err, domain.ErrAccountExists)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_UpdatePassword(t *testing.T) {
	repo, mock, db := setupAccountRepo(t)
	defer db.Close()
	ctx := context.Background()

	mock.ExpectExec(`UPDATE admin_accounts SET password_hash`).
		WithArgs("admin", "new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePassword(ctx, "admin", "new"))

	mock.ExpectExec(`UPDATE admin_accounts SET password_hash`).
		WithArgs("ghost", "new").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdatePassword(ctx, "ghost", "new"), domain.ErrAccountNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_EnsureSchemaAndList(t *testing.T) {
	repo, mock, db := setupAccountRepo(t)
	defer db.Close()
	ctx := context.Background()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS admin_accounts`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.EnsureSchema(ctx))

	mock.ExpectQuery(`SELECT username, password_hash, role, created_at FROM admin_accounts ORDER BY username`).
		WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash", "role", "created_at"}).
			AddRow("admin", "h1", "admin", time.Now()).
			AddRow("control", "h2", "control", time.Now()))

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, domain.RoleControl, accounts[1].Role)

	require.NoError(t, mock.ExpectationsWereMet())
}
