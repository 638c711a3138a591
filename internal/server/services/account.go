package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"recvault/internal/common"
	"recvault/internal/dbx"
	"recvault/internal/server/auth"
	"recvault/internal/server/config"
	"recvault/internal/server/models"
	"recvault/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AccountService provides authentication-related operations:
// registration, login, refresh-token rotation, and API key management.
type AccountService struct {
	db                           *sql.DB
	repos                        repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewAccountService constructs an AccountService using repositories and
// server config.
func NewAccountService(db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                           db,
		repos:                        repos,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new account on the free plan and logs it in.
// A duplicate email yields common.ErrorConflict.
func (s *AccountService) Register(ctx context.Context, email, password, name string) (*models.Account, *TokenPair, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	account := &models.Account{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Plan:         models.PlanFree,
	}
	account, err = s.repos.Accounts(s.db).Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, nil, common.ErrorConflict
		}
		return nil, nil, fmt.Errorf("error creating account: %w", err)
	}

	pair, err := s.generateTokenPair(ctx, account.ID, s.db)
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

// Login verifies the email/password pair and, on success, returns the
// account and a fresh TokenPair.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Account, *TokenPair, error) {
	account, err := s.repos.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, account.ID, s.db)
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *AccountService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repos.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.AccountID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// CreateAPIKey mints a new opaque API key for the account. The key value is
// returned exactly once, at creation.
func (s *AccountService) CreateAPIKey(ctx context.Context, account *models.Account, name string) (*models.ApiKey, error) {
	secret, err := common.MakeRandHexString(24)
	if err != nil {
		return nil, common.ErrorInternal
	}

	key := &models.ApiKey{
		Key:       "rk_" + secret,
		Name:      name,
		AccountID: account.ID,
	}
	key, err = s.repos.ApiKeys(s.db).Create(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error creating api key: %w", err)
	}
	return key, nil
}

// ListAPIKeys returns the account's API keys, newest first.
func (s *AccountService) ListAPIKeys(ctx context.Context, account *models.Account) ([]*models.ApiKey, error) {
	keys, err := s.repos.ApiKeys(s.db).ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing api keys: %w", err)
	}
	return keys, nil
}

// --- helpers below ---

func (s *AccountService) generateAccessToken(accountID string) (string, error) {
	return auth.GenerateToken(accountID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *AccountService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *AccountService) generateTokenPair(ctx context.Context, accountID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(accountID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repos.RefreshTokens(tx).Create(ctx, accountID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
