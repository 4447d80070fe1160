package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheduler/internal/auth"
	apperr "scheduler/internal/errors"
	"scheduler/internal/model"
	"scheduler/internal/response"
)

type stubResolver struct {
	users map[uuid.UUID]*model.User
	err   error
}

func (s *stubResolver) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	return user, nil
}

type fixture struct {
	e        *echo.Echo
	tokens   *auth.JWTService
	user     *model.User
	rejected []apperr.Kind
}

func newFixture(t *testing.T, resolver *stubResolver) *fixture {
	t.Helper()
	f := &fixture{
		e:      echo.New(),
		tokens: auth.NewJWTService("test-secret", time.Hour),
		user:   &model.User{ID: uuid.New(), Name: "Alice", Email: "a@example.com"},
	}
	if resolver == nil {
		resolver = &stubResolver{users: map[uuid.UUID]*model.User{f.user.ID: f.user}}
	}
	f.e.HTTPErrorHandler = response.ErrorHandler(zerolog.Nop())

	mw := auth.NewMiddleware(f.tokens, resolver, auth.WithRejectHook(func(kind apperr.Kind) {
		f.rejected = append(f.rejected, kind)
	}))
	f.e.GET("/events", func(c echo.Context) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		ctxUser, ok := auth.UserFromContext(c.Request().Context())
		if !ok || ctxUser.ID != user.ID {
			return errors.New("user missing from request context")
		}
		return response.OK(c, map[string]string{"id": user.ID.String()})
	}, mw.Handler())
	return f
}

func (f *fixture) get(t *testing.T, authHeader string) (int, apperr.ErrorResponse, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var errBody apperr.ErrorResponse
	var okBody struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &okBody))
	return rec.Code, errBody, okBody.Data
}

func TestMiddleware_Authenticated(t *testing.T) {
	f := newFixture(t, nil)
	token, err := f.tokens.Issue(f.user.ID, f.user.Name)
	require.NoError(t, err)

	code, _, data := f.get(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, f.user.ID.String(), data["id"])
	assert.Empty(t, f.rejected)
}

func TestMiddleware_Rejections(t *testing.T) {
	f := newFixture(t, nil)

	expired, err := f.tokens.IssueWithTTL(f.user.ID, f.user.Name, -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.NewJWTService("other-secret", time.Hour).Issue(f.user.ID, f.user.Name)
	require.NoError(t, err)
	unknownUser, err := f.tokens.Issue(uuid.New(), "Ghost")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		kind   apperr.Kind
	}{
		{"no header", "", apperr.KindUnauthorized},
		{"wrong scheme", "Basic dXNlcjpwYXNz", apperr.KindUnauthorized},
		{"garbage token", "Bearer not-a-token", apperr.KindInvalidToken},
		{"expired token", "Bearer " + expired, apperr.KindInvalidToken},
		{"foreign signature", "Bearer " + foreign, apperr.KindInvalidToken},
		{"user no longer exists", "Bearer " + unknownUser, apperr.KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.rejected = nil
			code, body, _ := f.get(t, tt.header)
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.Equal(t, http.StatusUnauthorized, body.Error.Code)
			assert.Equal(t, tt.kind.DefaultMessage(), body.Error.Message)
			assert.Equal(t, []apperr.Kind{tt.kind}, f.rejected)
		})
	}
}

func TestMiddleware_ResolverFailureIsInternal(t *testing.T) {
	f := newFixture(t, &stubResolver{err: errors.New("db down")})
	token, err := f.tokens.Issue(f.user.ID, f.user.Name)
	require.NoError(t, err)

	code, body, _ := f.get(t, "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.NotContains(t, body.Error.Message, "db down")
}

func TestCurrentUser_Unauthenticated(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, err := auth.CurrentUser(c)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
