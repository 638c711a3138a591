// Package accounts provides a PostgreSQL-backed repository for account rows,
// including the stored-storage counter mutated by the quota ledger.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgconn"

	"recvault/internal/common"
	"recvault/internal/dbx"
	"recvault/internal/server/models"
)

// PostgresRepository implements account storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Create inserts a new account. A duplicate email yields common.ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO users (email, password_hash, name, plan)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		account.Email, account.PasswordHash, account.Name, account.Plan).Scan(&account.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if account.StorageUsed == nil {
		account.StorageUsed = big.NewInt(0)
	}
	return account, nil
}

func (r *PostgresRepository) scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	var used string
	err := row.Scan(&account.ID, &account.Email, &account.PasswordHash,
		&account.Name, &account.Avatar, &account.Plan, &used, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	storageUsed, ok := new(big.Int).SetString(used, 10)
	if !ok {
		return nil, fmt.Errorf("invalid storage_used value: %q", used)
	}
	account.StorageUsed = storageUsed
	return account, nil
}

// GetByID returns the account with the given id or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, email, password_hash, name, avatar, plan, storage_used::text, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail returns the account with the given email or common.ErrorNotFound.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT id, email, password_hash, name, avatar, plan, storage_used::text, created_at
		FROM users
		WHERE email = $1
	`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// AddStorageUsed increments the stored-storage counter by amount.
// Exactly one row must be affected.
func (r *PostgresRepository) AddStorageUsed(ctx context.Context, id string, amount *big.Int) error {
	query := `UPDATE users SET storage_used = storage_used + $2::numeric WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, amount.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

// SubtractStorageUsed decrements the stored-storage counter by amount. The
// update is guarded so the counter can never go negative; a decrement that
// would underflow affects zero rows and is reported as an error rather
// than clamped.
func (r *PostgresRepository) SubtractStorageUsed(ctx context.Context, id string, amount *big.Int) error {
	query := `
		UPDATE users SET storage_used = storage_used - $2::numeric
		WHERE id = $1 AND storage_used >= $2::numeric
	`
	result, err := r.db.ExecContext(ctx, query, id, amount.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("storage counter underflow or missing account %s", id)
	}
	return nil
}
