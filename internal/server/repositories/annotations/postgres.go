// Package annotations provides a PostgreSQL-backed repository for the
// timestamped notes attached to recordings. Annotations are append-only.
package annotations

import (
	"context"
	"fmt"

	"recvault/internal/dbx"
	"recvault/internal/server/models"
)

// PostgresRepository implements annotation storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new annotation row.
func (r *PostgresRepository) Create(ctx context.Context, annotation *models.Annotation) (*models.Annotation, error) {
	query := `
		INSERT INTO annotations (recording_id, ts, body, kind)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		annotation.RecordingID, annotation.Timestamp, annotation.Text, annotation.Kind).
		Scan(&annotation.ID, &annotation.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return annotation, nil
}

// ListByRecording returns all annotations of one recording ordered by
// timestamp offset.
func (r *PostgresRepository) ListByRecording(ctx context.Context, recordingID string) ([]*models.Annotation, error) {
	query := `
		SELECT id, recording_id, ts, body, kind, created_at
		FROM annotations
		WHERE recording_id = $1
		ORDER BY ts ASC
	`
	rows, err := r.db.QueryContext(ctx, query, recordingID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Annotation
	for rows.Next() {
		item := &models.Annotation{}
		if err := rows.Scan(&item.ID, &item.RecordingID, &item.Timestamp, &item.Text, &item.Kind, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
