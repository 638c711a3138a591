// Package auth implements minting and verification of the signed, time-bound
// bearer tokens used on the Authorization header.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"recvault/internal/common"
)

// Claims extends the registered JWT claims with the authenticated account id.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"accountId"`
}

// GenerateToken mints an HS256 token for accountID valid for validityDuration.
func GenerateToken(accountID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		AccountID: accountID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetAccountIDFromToken verifies signature and expiry and returns the
// embedded account id. Any verification failure yields common.ErrInvalidToken.
func GetAccountIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.AccountID, nil
}
