package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"recvault/internal/logging"
	"recvault/internal/server/models"
	"recvault/internal/server/quota"
	"recvault/internal/server/repositories/recordings"
	"recvault/internal/server/repositories/repomanager"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

// CreateRecordingRequest carries the metadata for a new recording. The
// payload arrives later through the upload coordinator.
type CreateRecordingRequest struct {
	Title       string
	Description string
	ProjectID   *string
	Duration    float64
	FileSize    int64
}

// UpdateRecordingRequest carries a partial metadata update. Nil fields are
// left unchanged; a non-nil ProjectID pointing at an empty string clears
// the project assignment.
type UpdateRecordingRequest struct {
	Title       *string
	Description *string
	IsPublic    *bool
	ProjectID   *string
}

// ListRecordingsRequest narrows and pages an owner-scoped listing.
type ListRecordingsRequest struct {
	ProjectID string
	Search    string
	Page      int
	Limit     int
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int
	Limit int
	Total int64
	Pages int64
}

// RecordingService is the metadata gateway for recordings: owner-scoped
// CRUD, annotations, and the public share-token path.
type RecordingService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	ledger *quota.Ledger
	logger logging.Logger
}

// NewRecordingService constructs a RecordingService.
func NewRecordingService(db *sql.DB, repos repomanager.RepositoryManager, ledger *quota.Ledger, logger logging.Logger) *RecordingService {
	return &RecordingService{db: db, repos: repos, ledger: ledger, logger: logger}
}

// Create inserts a new PENDING recording with a fresh share token. The
// token exists from birth; it stays inert until the recording is made
// public.
func (s *RecordingService) Create(ctx context.Context, account *models.Account, req CreateRecordingRequest) (*models.Recording, error) {
	recording := &models.Recording{
		AccountID:   account.ID,
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		FileSize:    req.FileSize,
		ShareToken:  uuid.New().String(),
	}
	recording, err := s.repos.Recordings(s.db).Create(ctx, recording)
	if err != nil {
		return nil, fmt.Errorf("error creating recording: %w", err)
	}
	return recording, nil
}

// GetOwned returns one of the account's recordings with its annotations.
// A miss and a foreign owner both yield common.ErrorNotFound.
func (s *RecordingService) GetOwned(ctx context.Context, account *models.Account, id string) (*models.Recording, error) {
	recording, err := s.repos.Recordings(s.db).GetOwned(ctx, id, account.ID)
	if err != nil {
		return nil, err
	}

	recording.Annotations, err = s.repos.Annotations(s.db).ListByRecording(ctx, recording.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading annotations: %w", err)
	}
	return recording, nil
}

// ListOwned returns a page of the account's recordings, newest first, with
// pagination totals computed against the same filter.
func (s *RecordingService) ListOwned(ctx context.Context, account *models.Account, req ListRecordingsRequest) ([]*models.Recording, *Pagination, error) {
	page := req.Page
	if page < 1 {
		page = defaultPage
	}
	limit := req.Limit
	if limit < 1 {
		limit = defaultLimit
	}

	filter := recordings.Filter{
		ProjectID: req.ProjectID,
		Search:    req.Search,
		Offset:    (page - 1) * limit,
		Limit:     limit,
	}

	list, err := s.repos.Recordings(s.db).List(ctx, account.ID, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("error listing recordings: %w", err)
	}
	total, err := s.repos.Recordings(s.db).Count(ctx, account.ID, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("error counting recordings: %w", err)
	}

	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return list, &Pagination{Page: page, Limit: limit, Total: total, Pages: pages}, nil
}

// Update applies a partial metadata update, owner-scoped. The recording is
// read first so untouched fields survive the write.
func (s *RecordingService) Update(ctx context.Context, account *models.Account, id string, req UpdateRecordingRequest) (*models.Recording, error) {
	recording, err := s.repos.Recordings(s.db).GetOwned(ctx, id, account.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		recording.Title = *req.Title
	}
	if req.Description != nil {
		recording.Description = *req.Description
	}
	if req.IsPublic != nil {
		recording.IsPublic = *req.IsPublic
	}
	if req.ProjectID != nil {
		if *req.ProjectID == "" {
			recording.ProjectID = nil
			recording.Project = nil
		} else {
			recording.ProjectID = req.ProjectID
		}
	}

	if err := s.repos.Recordings(s.db).Update(ctx, recording); err != nil {
		return nil, err
	}
	return recording, nil
}

// Delete removes an owned recording and, if a payload was charged against
// quota, releases exactly the recorded size. The row delete and the quota
// release are separate steps: a crash in between leaves the counter
// over-reporting, which is the accepted failure direction.
func (s *RecordingService) Delete(ctx context.Context, account *models.Account, id string) error {
	recording, err := s.repos.Recordings(s.db).GetOwned(ctx, id, account.ID)
	if err != nil {
		return err
	}

	if err := s.repos.Recordings(s.db).Delete(ctx, recording.ID); err != nil {
		return err
	}

	if recording.FileSize > 0 {
		if err := s.ledger.Release(ctx, account.ID, recording.FileSize); err != nil {
			return err
		}
	}
	return nil
}

// GetShared resolves a recording on the public share path. The token only
// resolves while the recording is public; a private recording's token is
// indistinguishable from an unknown one. Each successful resolution bumps
// the view counter best-effort.
func (s *RecordingService) GetShared(ctx context.Context, shareToken string) (*models.SharedRecording, error) {
	shared, err := s.repos.Recordings(s.db).GetByShareToken(ctx, shareToken)
	if err != nil {
		return nil, err
	}

	shared.Recording.Annotations, err = s.repos.Annotations(s.db).ListByRecording(ctx, shared.Recording.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading annotations: %w", err)
	}

	// Lost increments under concurrency are acceptable; a failed bump must
	// not fail the read.
	if err := s.repos.Recordings(s.db).IncrementViews(ctx, shared.Recording.ID); err != nil {
		s.logger.Error(ctx, "error incrementing views", "recording", shared.Recording.ID, "error", err)
	} else {
		shared.Recording.Views++
	}
	return shared, nil
}

// AddAnnotation attaches a timestamped note to an owned recording. Kind
// defaults to "note".
func (s *RecordingService) AddAnnotation(ctx context.Context, account *models.Account, recordingID string, timestamp float64, text, kind string) (*models.Annotation, error) {
	if _, err := s.repos.Recordings(s.db).GetOwned(ctx, recordingID, account.ID); err != nil {
		return nil, err
	}

	if kind == "" {
		kind = "note"
	}
	annotation := &models.Annotation{
		RecordingID: recordingID,
		Timestamp:   timestamp,
		Text:        text,
		Kind:        kind,
	}
	annotation, err := s.repos.Annotations(s.db).Create(ctx, annotation)
	if err != nil {
		return nil, fmt.Errorf("error creating annotation: %w", err)
	}
	return annotation, nil
}
