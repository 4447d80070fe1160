package auth

import (
	"context"

	"github.com/labstack/echo/v4"

	apperr "scheduler/internal/errors"
	"scheduler/internal/model"
)

const (
	claimsContextKey = "auth.claims"
	userContextKey   = "auth.user"
)

type userCtxKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// UserFromContext returns the authenticated user stored in ctx.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(*model.User)
	return user, ok && user != nil
}

// setUser attaches the user to both the echo context and the request context.
func setUser(c echo.Context, user *model.User) {
	c.Set(userContextKey, user)
	req := c.Request()
	c.SetRequest(req.WithContext(WithUser(req.Context(), user)))
}

// CurrentUser returns the user resolved by the auth middleware. Handlers on
// unprotected routes get ErrUnauthorized.
func CurrentUser(c echo.Context) (*model.User, error) {
	if user, ok := c.Get(userContextKey).(*model.User); ok && user != nil {
		return user, nil
	}
	if user, ok := UserFromContext(c.Request().Context()); ok {
		return user, nil
	}
	return nil, apperr.ErrUnauthorized
}
