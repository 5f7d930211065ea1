// Package auth carries the authenticated user on a context. The upstream gateway has already
// authenticated the caller; this service only reads the identity it forwards.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/menuapp/internal/domain"
)

// UserHeader is set by the auth gateway in front of the API.
const UserHeader = "X-User-ID"

type ctxKey struct{}

func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFrom returns the user stored on ctx, or nil.
func UserFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(ctxKey{}).(*domain.User)
	return u
}

// ContextAuthenticator implements interfaces.Authenticator over the request context.
type ContextAuthenticator struct{}

func (ContextAuthenticator) CurrentUser(ctx context.Context) (*domain.User, error) {
	return UserFrom(ctx), nil
}

// FromRequest reads the forwarded identity. A missing header yields a nil user.
func FromRequest(r *http.Request) (*domain.User, error) {
	raw := strings.TrimSpace(r.Header.Get(UserHeader))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s header: %w", UserHeader, err)
	}
	return &domain.User{ID: id}, nil
}
