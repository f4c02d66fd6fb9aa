package auth

import (
	"errors"
	"fmt"
	"time"

	courerrors "courier/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload embedded in every issued credential.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed, time-limited bearer tokens.
// The signing key and validity window come from configuration; tokens are
// HS256 (HMAC with SHA256).
type TokenManager struct {
	secret   []byte
	validity time.Duration
}

func NewTokenManager(secret string, validity time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), validity: validity}
}

// Issue creates a signed token carrying the user id.
func (t *TokenManager) Issue(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.validity)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "courier",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses the token, checks signature and expiry, and returns the
// embedded user id. Expired credentials are distinguished from malformed
// ones so diagnostics can tell a stale client from a hostile one.
func (t *TokenManager) Verify(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, fmt.Errorf("%w: %v", courerrors.ErrTokenExpired, err)
		}
		return uuid.Nil, fmt.Errorf("%w: %v", courerrors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, courerrors.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad user id claim", courerrors.ErrInvalidToken)
	}
	return userID, nil
}
