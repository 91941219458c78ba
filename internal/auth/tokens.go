// Package auth provides JWT authentication for Campstack.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campstack/campstack/internal/domain"
)

// TokenManager issues and verifies the signed session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager signing with the given secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a signed token carrying the user ID as subject.
func (m *TokenManager) Issue(userID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the user ID it carries.
// Expired, malformed, or mis-signed tokens all map to domain.ErrInvalidToken.
func (m *TokenManager) Parse(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, domain.ErrInvalidToken
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}

	return userID, nil
}
