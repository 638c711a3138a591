package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"recvault/internal/common"
	"recvault/internal/server/auth"
	"recvault/internal/server/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func bearerFor(t *testing.T, cfg *config.Config, accountID string) string {
	t.Helper()
	token, err := auth.GenerateToken(accountID, []byte(cfg.SecretKey), time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return "Bearer " + token
}

func TestResolve_APIKeyHit(t *testing.T) {
	cfg := testConfig()
	repos := newFakeRepoManager()
	account := testAccount("acc-1", "FREE", 0)
	repos.accounts.add(account)
	repos.apiKeys.byKey["rk_good"] = keyFor("key-1", "acc-1", "rk_good")

	resolver := NewResolver(nil, repos, cfg)

	got, err := resolver.Resolve(context.Background(), Credentials{APIKey: "rk_good"})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.ID != "acc-1" {
		t.Fatalf("wrong account: %s", got.ID)
	}
	if len(repos.apiKeys.touched) != 1 || repos.apiKeys.touched[0] != "key-1" {
		t.Fatalf("last_used not touched: %v", repos.apiKeys.touched)
	}
}

func TestResolve_APIKeyPrecedenceOverBearer(t *testing.T) {
	cfg := testConfig()
	repos := newFakeRepoManager()
	account := testAccount("acc-1", "FREE", 0)
	repos.accounts.add(account)

	resolver := NewResolver(nil, repos, cfg)

	// A present-but-unknown key must fail as an invalid credential even
	// though a perfectly valid bearer token rides along.
	creds := Credentials{
		APIKey:     "rk_unknown",
		AuthHeader: bearerFor(t, cfg, "acc-1"),
	}
	_, err := resolver.Resolve(context.Background(), creds)
	if !errors.Is(err, common.ErrInvalidCredential) {
		t.Fatalf("want ErrInvalidCredential, got %v", err)
	}
}

func TestResolve_MissingCredential(t *testing.T) {
	resolver := NewResolver(nil, newFakeRepoManager(), testConfig())

	for _, header := range []string{"", "Bearer ", "Token abc", "bearer abc"} {
		_, err := resolver.Resolve(context.Background(), Credentials{AuthHeader: header})
		if !errors.Is(err, common.ErrMissingCredential) {
			t.Fatalf("header %q: want ErrMissingCredential, got %v", header, err)
		}
	}
}

func TestResolve_BadBearerToken(t *testing.T) {
	resolver := NewResolver(nil, newFakeRepoManager(), testConfig())

	_, err := resolver.Resolve(context.Background(), Credentials{AuthHeader: "Bearer not.a.jwt"})
	if !errors.Is(err, common.ErrInvalidCredential) {
		t.Fatalf("want ErrInvalidCredential, got %v", err)
	}
}

func TestResolve_ExpiredBearerToken(t *testing.T) {
	cfg := testConfig()
	resolver := NewResolver(nil, newFakeRepoManager(), cfg)

	token, err := auth.GenerateToken("acc-1", []byte(cfg.SecretKey), -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	_, err = resolver.Resolve(context.Background(), Credentials{AuthHeader: "Bearer " + token})
	if !errors.Is(err, common.ErrInvalidCredential) {
		t.Fatalf("want ErrInvalidCredential, got %v", err)
	}
}

func TestResolve_ValidTokenUnknownAccount(t *testing.T) {
	cfg := testConfig()
	resolver := NewResolver(nil, newFakeRepoManager(), cfg)

	_, err := resolver.Resolve(context.Background(), Credentials{AuthHeader: bearerFor(t, cfg, "acc-gone")})
	if !errors.Is(err, common.ErrUnknownAccount) {
		t.Fatalf("want ErrUnknownAccount, got %v", err)
	}
}

func TestResolve_StoreFailureIsNotAuthFailure(t *testing.T) {
	cfg := testConfig()
	repos := newFakeRepoManager()
	repos.apiKeys.getByKeyErr = errors.New("connection refused")

	resolver := NewResolver(nil, repos, cfg)

	_, err := resolver.Resolve(context.Background(), Credentials{APIKey: "rk_any"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, common.ErrInvalidCredential) || errors.Is(err, common.ErrMissingCredential) {
		t.Fatalf("store failure must not masquerade as auth failure: %v", err)
	}
}

func TestResolve_TouchFailurePropagates(t *testing.T) {
	cfg := testConfig()
	repos := newFakeRepoManager()
	repos.accounts.add(testAccount("acc-1", "FREE", 0))
	repos.apiKeys.byKey["rk_good"] = keyFor("key-1", "acc-1", "rk_good")
	repos.apiKeys.touchErr = errors.New("write timeout")

	resolver := NewResolver(nil, repos, cfg)

	_, err := resolver.Resolve(context.Background(), Credentials{APIKey: "rk_good"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, common.ErrInvalidCredential) {
		t.Fatalf("infrastructure failure reported as auth failure: %v", err)
	}
}
