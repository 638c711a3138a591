// Package recordings provides a PostgreSQL-backed repository for recording
// metadata: owner-scoped reads, the public share-token path, and the
// status transition performed on upload confirmation.
package recordings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recvault/internal/common"
	"recvault/internal/dbx"
	"recvault/internal/server/models"
)

// PostgresRepository implements recording storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const recordingColumns = `r.id, r.user_id, r.project_id, r.title, r.description, r.status,
		r.file_size, r.duration, r.video_url, r.is_public, r.share_token, r.views,
		r.created_at, r.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(row rowScanner, withProject bool) (*models.Recording, error) {
	rec := &models.Recording{}
	dest := []any{
		&rec.ID, &rec.AccountID, &rec.ProjectID, &rec.Title, &rec.Description, &rec.Status,
		&rec.FileSize, &rec.Duration, &rec.VideoURL, &rec.IsPublic, &rec.ShareToken, &rec.Views,
		&rec.CreatedAt, &rec.UpdatedAt,
	}
	var projectName sql.NullString
	if withProject {
		dest = append(dest, &projectName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if withProject && rec.ProjectID != nil {
		rec.Project = &models.ProjectRef{ID: *rec.ProjectID, Name: projectName.String}
	}
	return rec, nil
}

// Create inserts a new recording row in PENDING state.
func (r *PostgresRepository) Create(ctx context.Context, recording *models.Recording) (*models.Recording, error) {
	query := `
		INSERT INTO recordings (user_id, project_id, title, description, duration, file_size, share_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, is_public, views, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		recording.AccountID, recording.ProjectID, recording.Title, recording.Description,
		recording.Duration, recording.FileSize, recording.ShareToken).
		Scan(&recording.ID, &recording.Status, &recording.IsPublic, &recording.Views,
			&recording.CreatedAt, &recording.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return recording, nil
}

// GetOwned returns the recording with the given id only when it belongs to
// accountID. A miss and a foreign owner are indistinguishable: both yield
// common.ErrorNotFound.
func (r *PostgresRepository) GetOwned(ctx context.Context, id, accountID string) (*models.Recording, error) {
	query := `
		SELECT ` + recordingColumns + `, p.name
		FROM recordings r
		LEFT JOIN projects p ON p.id = r.project_id
		WHERE r.id = $1 AND r.user_id = $2
	`
	rec, err := scanRecording(r.db.QueryRowContext(ctx, query, id, accountID), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// GetByID returns a recording regardless of owner. Used by the view
// capability path, which performs no ownership check.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Recording, error) {
	query := `
		SELECT ` + recordingColumns + `
		FROM recordings r
		WHERE r.id = $1
	`
	rec, err := scanRecording(r.db.QueryRowContext(ctx, query, id), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// GetByShareToken resolves a recording for the public path. The token match
// and the is_public flag are checked in one query so a private recording's
// token is indistinguishable from an unknown one.
func (r *PostgresRepository) GetByShareToken(ctx context.Context, token string) (*models.SharedRecording, error) {
	query := `
		SELECT ` + recordingColumns + `, p.name, u.name, u.avatar
		FROM recordings r
		JOIN users u ON u.id = r.user_id
		LEFT JOIN projects p ON p.id = r.project_id
		WHERE r.share_token = $1 AND r.is_public = true
	`
	rec := &models.Recording{}
	var projectName sql.NullString
	shared := &models.SharedRecording{Recording: rec}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rec.ID, &rec.AccountID, &rec.ProjectID, &rec.Title, &rec.Description, &rec.Status,
		&rec.FileSize, &rec.Duration, &rec.VideoURL, &rec.IsPublic, &rec.ShareToken, &rec.Views,
		&rec.CreatedAt, &rec.UpdatedAt,
		&projectName, &shared.OwnerName, &shared.OwnerAvatar,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if rec.ProjectID != nil {
		rec.Project = &models.ProjectRef{ID: *rec.ProjectID, Name: projectName.String}
	}
	return shared, nil
}

// ownerFilter builds the WHERE clause shared by List and Count. Every query
// is scoped by owner first; filters only narrow further.
func ownerFilter(accountID string, f Filter) (string, []any) {
	where := `r.user_id = $1`
	args := []any{accountID}
	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		where += fmt.Sprintf(` AND r.project_id = $%d`, len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where += fmt.Sprintf(` AND (r.title ILIKE $%d OR r.description ILIKE $%d)`, n, n)
	}
	return where, args
}

// List returns a page of the account's recordings, newest first.
func (r *PostgresRepository) List(ctx context.Context, accountID string, f Filter) ([]*models.Recording, error) {
	where, args := ownerFilter(accountID, f)
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT `+recordingColumns+`, p.name
		FROM recordings r
		LEFT JOIN projects p ON p.id = r.project_id
		WHERE %s
		ORDER BY r.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Recording
	for rows.Next() {
		rec, err := scanRecording(rows, true)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the total number of recordings matching the same filter
// List applies, for pagination totals.
func (r *PostgresRepository) Count(ctx context.Context, accountID string, f Filter) (int64, error) {
	where, args := ownerFilter(accountID, f)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM recordings r WHERE %s`, where)

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

// Update persists the mutable metadata fields. The owner guard keeps a
// racing owner change from leaking across accounts; zero affected rows
// surface as common.ErrorNotFound.
func (r *PostgresRepository) Update(ctx context.Context, recording *models.Recording) error {
	query := `
		UPDATE recordings
		SET title = $3, description = $4, is_public = $5, project_id = $6, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		recording.ID, recording.AccountID, recording.Title, recording.Description,
		recording.IsPublic, recording.ProjectID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}

// MarkReady transitions a recording to READY with its resolved object-store
// location, byte size, and duration. Exactly one row must be affected.
func (r *PostgresRepository) MarkReady(ctx context.Context, id, videoURL string, fileSize int64, duration float64) error {
	query := `
		UPDATE recordings
		SET status = 'READY', video_url = $2, file_size = $3, duration = $4, updated_at = now()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, videoURL, fileSize, duration)
	if err != nil {
		return fmt.Errorf("failed to mark ready: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

// IncrementViews bumps the public view counter. Concurrent increments may
// race; the counter is approximate by design.
func (r *PostgresRepository) IncrementViews(ctx context.Context, id string) error {
	query := `UPDATE recordings SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes a recording row; annotations go with it via ON DELETE
// CASCADE. Deleting an absent row yields common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM recordings WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}
