// Package services contains server-side business logic: credential
// resolution, account management, upload coordination, and recording
// retrieval/sharing.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"recvault/internal/common"
	"recvault/internal/server/auth"
	"recvault/internal/server/config"
	"recvault/internal/server/models"
	"recvault/internal/server/repositories/repomanager"
)

// Credentials carries the raw credential material of one request: the
// X-Api-Key header value and the full Authorization header value. Either
// may be empty.
type Credentials struct {
	APIKey     string
	AuthHeader string
}

// Resolver authenticates requests. An API key, when present, takes
// precedence over a bearer token; the bearer path is only consulted when no
// key is supplied. Every call re-verifies and re-queries: there is no
// caching and no retry policy, so a metadata-store failure surfaces as an
// infrastructure error, never as an authentication failure.
type Resolver struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	jwtSecret []byte
}

// NewResolver constructs a Resolver using repositories and server config.
func NewResolver(db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config) *Resolver {
	return &Resolver{db: db, repos: repos, jwtSecret: []byte(cfg.SecretKey)}
}

// Resolve maps request credentials to the owning account.
//
// Failure modes, all collapsing to one unauthenticated response at the
// boundary but kept distinct here:
//   - common.ErrMissingCredential: no API key and no usable bearer header
//   - common.ErrInvalidCredential: unknown API key, bad signature, expiry
//   - common.ErrUnknownAccount: valid token whose account no longer exists
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (*models.Account, error) {
	if creds.APIKey != "" {
		return r.resolveAPIKey(ctx, creds.APIKey)
	}
	return r.resolveBearer(ctx, creds.AuthHeader)
}

func (r *Resolver) resolveAPIKey(ctx context.Context, rawKey string) (*models.Account, error) {
	keyRecord, err := r.repos.ApiKeys(r.db).GetByKey(ctx, rawKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredential
		}
		return nil, fmt.Errorf("api key lookup: %w", err)
	}

	if err := r.repos.ApiKeys(r.db).TouchLastUsed(ctx, keyRecord.ID); err != nil {
		return nil, fmt.Errorf("api key touch: %w", err)
	}

	account, err := r.repos.Accounts(r.db).GetByID(ctx, keyRecord.AccountID)
	if err != nil {
		return nil, fmt.Errorf("api key account lookup: %w", err)
	}
	return account, nil
}

func (r *Resolver) resolveBearer(ctx context.Context, authHeader string) (*models.Account, error) {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return nil, common.ErrMissingCredential
	}

	accountID, err := auth.GetAccountIDFromToken(token, r.jwtSecret)
	if err != nil {
		return nil, common.ErrInvalidCredential
	}

	account, err := r.repos.Accounts(r.db).GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownAccount
		}
		return nil, fmt.Errorf("account lookup: %w", err)
	}
	return account, nil
}
