package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	apperr "scheduler/internal/errors"
	"scheduler/internal/model"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// UserResolver loads the user named by a verified token. A missing user
// must be reported as apperr.ErrUserNotFound.
type UserResolver interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Option configures the Middleware.
type Option func(*Middleware)

// WithLogger sets the logger used for rejected requests.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Middleware) {
		m.log = log
	}
}

// WithRejectHook registers a callback invoked with the kind of every
// rejected request.
func WithRejectHook(fn func(kind apperr.Kind)) Option {
	return func(m *Middleware) {
		m.onReject = fn
	}
}

// Middleware authenticates requests by bearer token. Each request ends
// Authenticated (user attached to the context) or Rejected with
// Unauthorized or InvalidToken.
type Middleware struct {
	tokens   TokenVerifier
	users    UserResolver
	log      zerolog.Logger
	onReject func(kind apperr.Kind)
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(tokens TokenVerifier, users UserResolver, opts ...Option) *Middleware {
	m := &Middleware{
		tokens: tokens,
		users:  users,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler returns the echo middleware: bearer extraction and verification
// through echo-jwt, followed by user resolution.
func (m *Middleware) Handler() echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  claimsContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return m.tokens.Verify(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			// no bearer token at all vs a token that failed verification
			var missing *echojwt.TokenExtractionError
			if errors.As(err, &missing) || errors.Is(err, echojwt.ErrJWTMissing) {
				return m.reject(c, apperr.KindUnauthorized, err)
			}
			return m.reject(c, apperr.KindInvalidToken, err)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(m.resolve(next))
	}
}

func (m *Middleware) resolve(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := c.Get(claimsContextKey).(*Claims)
		if !ok || claims == nil {
			return m.reject(c, apperr.KindInvalidToken, errors.New("claims missing from context"))
		}

		user, err := m.users.GetUser(c.Request().Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, apperr.ErrUserNotFound) {
				return m.reject(c, apperr.KindUnauthorized, err)
			}
			return apperr.Internal(err)
		}

		setUser(c, user)
		return next(c)
	}
}

func (m *Middleware) reject(c echo.Context, kind apperr.Kind, cause error) error {
	m.log.Debug().
		Err(cause).
		Str("kind", kind.String()).
		Str("path", c.Path()).
		Msg("request rejected by auth")
	if m.onReject != nil {
		m.onReject(kind)
	}
	return apperr.Wrap(kind, cause)
}
