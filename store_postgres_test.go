package aisleauth

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewPostgresStore(mock), mock
}

func accountRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "email", "first_name", "last_name", "password_hash",
		"date_of_birth", "gender", "pronoun", "profile_image",
	})
}

func TestPostgresStoreCreate(t *testing.T) {
	store, mock := newPostgresStore(t)
	defer mock.Close()
	ctx := context.Background()

	account := Account{ID: "a-1", Email: "Sam@Example.com", FirstName: "Sam", PasswordHash: "h"}

	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs("a-1", "sam@example.com", "Sam", "", "h", "", "", "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, store.Create(ctx, account))

	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs("a-1", "sam@example.com", "Sam", "", "h", "", "", "", "").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, store.Create(ctx, account), ErrDuplicateEmail)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetByEmail(t *testing.T) {
	store, mock := newPostgresStore(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email=\$1`).
		WithArgs("sam@example.com").
		WillReturnRows(accountRows().AddRow("a-1", "sam@example.com", "Sam", "Doe", "h", "", "", "", ""))
	account, err := store.GetByEmail(ctx, "SAM@example.com")
	require.NoError(t, err)
	require.Equal(t, "a-1", account.ID)

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email=\$1`).
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)
	_, err = store.GetByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetByID(t *testing.T) {
	store, mock := newPostgresStore(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id=\$1`).
		WithArgs("a-1").
		WillReturnRows(accountRows().AddRow("a-1", "sam@example.com", "Sam", "Doe", "h", "", "", "", ""))
	account, err := store.GetByID(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, "sam@example.com", account.Email)

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id=\$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, err = store.GetByID(ctx, "missing")
	require.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdate(t *testing.T) {
	store, mock := newPostgresStore(t)
	defer mock.Close()
	ctx := context.Background()

	account := Account{ID: "a-1", Email: "sam@example.com", FirstName: "Samuel", PasswordHash: "h2"}

	mock.ExpectExec(`UPDATE accounts`).
		WithArgs("a-1", "sam@example.com", "Samuel", "", "h2", "", "", "", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, store.Update(ctx, account))

	mock.ExpectExec(`UPDATE accounts`).
		WithArgs("a-1", "sam@example.com", "Samuel", "", "h2", "", "", "", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, store.Update(ctx, account), ErrAccountNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreTransportFailure(t *testing.T) {
	store, mock := newPostgresStore(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs("a-1", "sam@example.com", "", "", "h", "", "", "", "").
		WillReturnError(context.DeadlineExceeded)
	err := store.Create(ctx, Account{ID: "a-1", Email: "sam@example.com", PasswordHash: "h"})
	require.ErrorIs(t, err, ErrStoreUnavailable)

	require.NoError(t, mock.ExpectationsWereMet())
}
