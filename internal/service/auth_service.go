package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperr "scheduler/internal/errors"
	"scheduler/internal/model"
	"scheduler/internal/repository"
	"scheduler/internal/validation"
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID, name string) (string, error)
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string      `json:"token"`
	Name  string      `json:"name"`
	User  *model.User `json:"-"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Signup(ctx context.Context, req validation.Signup) (*AuthResult, error)
	Login(ctx context.Context, req validation.Login) (*AuthResult, error)
}

type authService struct {
	users  repository.UserRepository
	hasher Hasher
	tokens TokenIssuer
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, hasher Hasher, tokens TokenIssuer) AuthService {
	return &authService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a user with a hashed password and returns a token for it.
func (s *authService) Signup(ctx context.Context, req validation.Signup) (*AuthResult, error) {
	email := NormalizeEmail(req.Email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperr.ErrEmailRegistered
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal(fmt.Errorf("check user existence: %w", err))
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: digest,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent signup for the same email
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.ErrEmailRegistered
		}
		return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
	}

	return s.issue(user)
}

// Login checks credentials and returns a fresh token.
func (s *authService) Login(ctx context.Context, req validation.Login) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, apperr.Internal(fmt.Errorf("find user: %w", err))
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.ErrWrongPassword
	}

	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Name)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("issue token: %w", err))
	}
	return &AuthResult{Token: token, Name: user.Name, User: user}, nil
}
