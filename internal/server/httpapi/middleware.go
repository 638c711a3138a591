package httpapi

import (
	"context"
	"net/http"

	"recvault/internal/server/models"
	"recvault/internal/server/services"
)

type contextKey string

const accountContextKey contextKey = "account"

// requireAccount resolves the request's credentials and stashes the account
// in the context. All three credential failure modes collapse to one 401;
// infrastructure failures become a 500, never an auth failure.
func (s *Server) requireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := services.Credentials{
			APIKey:     r.Header.Get("X-Api-Key"),
			AuthHeader: r.Header.Get("Authorization"),
		}
		account, err := s.resolver.Resolve(r.Context(), creds)
		if err != nil {
			if isAuthFailure(err) {
				unauthorized(w)
				return
			}
			s.logger.Error(r.Context(), "credential resolution failed", "error", err)
			internalServerError(w)
			return
		}
		ctx := context.WithValue(r.Context(), accountContextKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accountFrom(ctx context.Context) *models.Account {
	account, _ := ctx.Value(accountContextKey).(*models.Account)
	return account
}
