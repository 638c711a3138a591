package apikeys

import (
	"context"

	"recvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, key *models.ApiKey) (*models.ApiKey, error)
	GetByKey(ctx context.Context, key string) (*models.ApiKey, error)
	TouchLastUsed(ctx context.Context, id string) error
	ListByAccount(ctx context.Context, accountID string) ([]*models.ApiKey, error)
}
