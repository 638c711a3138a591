package accounts

import (
	"context"
	"math/big"

	"recvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	AddStorageUsed(ctx context.Context, id string, amount *big.Int) error
	SubtractStorageUsed(ctx context.Context, id string, amount *big.Int) error
}
