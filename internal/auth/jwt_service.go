package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	// ErrTokenMalformed covers structurally invalid tokens and bad signatures.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired is returned for a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims represents JWT claims.
type Claims struct {
	UserID uuid.UUID `json:"id"`
	Name   string    `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 identity tokens. The secret is fixed
// for the life of the process; changing it invalidates every issued token.
type JWTService struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTService creates a new JWT service with the given secret and
// default time-to-live.
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL is the lifetime given to tokens by Issue.
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the user with the configured TTL.
func (s *JWTService) Issue(userID uuid.UUID, name string) (string, error) {
	return s.IssueWithTTL(userID, name, s.ttl)
}

// IssueWithTTL signs a token that expires ttl from now.
func (s *JWTService) IssueWithTTL(userID uuid.UUID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns its claims. Failures wrap either
// ErrTokenMalformed or ErrTokenExpired.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		// signature is checked first: an expired token signed with another
		// key is malformed, not expired
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", ErrTokenMalformed)
	}
	return claims, nil
}
