package aisleauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is the minimal pool surface the postgres store needs. It is
// implemented by *pgxpool.Pool and by pgxmock.PgxPoolIface.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore is a CredentialStore over an accounts table (see the bundled
// goose migrations). It carries no session record, so pair it with a
// [SessionStore] in the builder. Uniqueness rides on the email unique index;
// violation maps to [ErrDuplicateEmail].
type PostgresStore struct {
	pool PgxPool
}

// NewPostgresStore creates a PostgresStore over pool.
func NewPostgresStore(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenPostgresStore dials dsn and returns a store over a fresh pgx pool.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return NewPostgresStore(pool), nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23505"
}

const accountColumns = `id, email, first_name, last_name, password_hash, date_of_birth, gender, pronoun, profile_image`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(
		&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.PasswordHash,
		&a.DateOfBirth, &a.Gender, &a.Pronoun, &a.ProfileImage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return a, nil
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE email=$1`
	return scanAccount(s.pool.QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(email))))
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id=$1`
	return scanAccount(s.pool.QueryRow(ctx, q, id))
}

func (s *PostgresStore) Create(ctx context.Context, account Account) error {
	const q = `
INSERT INTO accounts (id, email, first_name, last_name, password_hash, date_of_birth, gender, pronoun, profile_image)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.pool.Exec(ctx, q,
		account.ID,
		strings.ToLower(strings.TrimSpace(account.Email)),
		account.FirstName,
		account.LastName,
		account.PasswordHash,
		account.DateOfBirth,
		account.Gender,
		account.Pronoun,
		account.ProfileImage,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, account Account) error {
	const q = `
UPDATE accounts
SET email=$2, first_name=$3, last_name=$4, password_hash=$5, date_of_birth=$6, gender=$7, pronoun=$8, profile_image=$9
WHERE id=$1`

	tag, err := s.pool.Exec(ctx, q,
		account.ID,
		strings.ToLower(strings.TrimSpace(account.Email)),
		account.FirstName,
		account.LastName,
		account.PasswordHash,
		account.DateOfBirth,
		account.Gender,
		account.Pronoun,
		account.ProfileImage,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

var _ CredentialStore = (*PostgresStore)(nil)
