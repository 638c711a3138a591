package annotations

import (
	"context"

	"recvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, annotation *models.Annotation) (*models.Annotation, error)
	ListByRecording(ctx context.Context, recordingID string) ([]*models.Annotation, error)
}
