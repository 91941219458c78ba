package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/domain"
)

// CookieName is the cookie the session token travels in alongside the
// Authorization header.
const CookieName = "token"

// UserLoader resolves an authenticated user ID to the current user record.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Middleware authenticates requests and loads the user into the context.
type Middleware struct {
	tokens *TokenManager
	users  UserLoader
	logger zerolog.Logger
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(tokens *TokenManager, users UserLoader, logger zerolog.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		users:  users,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// Authenticate requires a valid session token. The token is read from the
// Authorization header first, then from the session cookie. The user record
// is loaded fresh on every request so deleted users lose access immediately.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractToken(r)
		if tokenString == "" {
			writeAuthError(w, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		userID, err := m.tokens.Parse(tokenString)
		if err != nil {
			m.logger.Debug().Err(err).Msg("token rejected")
			writeAuthError(w, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				writeAuthError(w, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}
			m.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to load user")
			writeAuthError(w, http.StatusInternalServerError, "Server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireRoles restricts a route to the given roles. It must run after
// Authenticate.
func (m *Middleware) RequireRoles(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r.Context())
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeAuthError(w, http.StatusForbidden,
				fmt.Sprintf("User role '%s' is unauthorized to access this route", user.Role))
		})
	}
}

// extractToken pulls the session token from the Authorization header or the
// session cookie, in that order.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}
