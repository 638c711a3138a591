// Package apikeys provides a PostgreSQL-backed repository for API key rows.
package apikeys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recvault/internal/common"
	"recvault/internal/dbx"
	"recvault/internal/server/models"
)

// PostgresRepository implements API key storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new API key row.
func (r *PostgresRepository) Create(ctx context.Context, key *models.ApiKey) (*models.ApiKey, error) {
	query := `
		INSERT INTO api_keys (key, name, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, key.Key, key.Name, key.AccountID).
		Scan(&key.ID, &key.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return key, nil
}

// GetByKey looks up an API key row by its opaque key string.
// A miss returns common.ErrorNotFound.
func (r *PostgresRepository) GetByKey(ctx context.Context, key string) (*models.ApiKey, error) {
	query := `
		SELECT id, key, name, user_id, last_used, created_at
		FROM api_keys
		WHERE key = $1
	`
	result := &models.ApiKey{}
	err := r.db.QueryRowContext(ctx, query, key).
		Scan(&result.ID, &result.Key, &result.Name, &result.AccountID, &result.LastUsed, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// TouchLastUsed records a successful key authentication.
func (r *PostgresRepository) TouchLastUsed(ctx context.Context, id string) error {
	query := `UPDATE api_keys SET last_used = now() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByAccount returns all keys owned by accountID, newest first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.ApiKey, error) {
	query := `
		SELECT id, key, name, user_id, last_used, created_at
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ApiKey
	for rows.Next() {
		item := &models.ApiKey{}
		if err := rows.Scan(&item.ID, &item.Key, &item.Name, &item.AccountID, &item.LastUsed, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
