package auth

import (
	"context"

	"github.com/campstack/campstack/internal/domain"
)

type identityCtxKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, user)
}

// UserFromContext returns the authenticated user, or
// domain.ErrNotAuthenticated when the request carried none.
func UserFromContext(ctx context.Context) (*domain.User, error) {
	user, ok := ctx.Value(identityCtxKey{}).(*domain.User)
	if !ok || user == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return user, nil
}
