package recordings

import (
	"context"

	"recvault/internal/server/models"
)

// Filter narrows owner-scoped listings. Zero values mean "no constraint";
// Search matches title or description case-insensitively as a substring.
type Filter struct {
	ProjectID string
	Search    string
	Offset    int
	Limit     int
}

type Repository interface {
	Create(ctx context.Context, recording *models.Recording) (*models.Recording, error)
	GetOwned(ctx context.Context, id, accountID string) (*models.Recording, error)
	GetByID(ctx context.Context, id string) (*models.Recording, error)
	GetByShareToken(ctx context.Context, token string) (*models.SharedRecording, error)
	List(ctx context.Context, accountID string, f Filter) ([]*models.Recording, error)
	Count(ctx context.Context, accountID string, f Filter) (int64, error)
	Update(ctx context.Context, recording *models.Recording) error
	MarkReady(ctx context.Context, id, videoURL string, fileSize int64, duration float64) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
