package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippet-store/internal/apperror"
	"github.com/sakif/snippet-store/internal/auth"
	"github.com/sakif/snippet-store/internal/loader"
	"github.com/sakif/snippet-store/internal/model"
	"github.com/sakif/snippet-store/internal/repository"
)

// AuthService handles registration, login, and user lookups.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the issued session token with the public profile of
// the authenticated user.
type AuthResult struct {
	Token string
	User  *model.User
}

// Register creates a new account and issues a session token.
//
// Registration with an email that is already in use fails with a
// validation error and creates no user record. The stored password is a
// bcrypt hash; the plaintext never leaves this method.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, apperror.ValidationFailed("email", "user already exists with this email")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A registration race can still trip the UNIQUE email constraint.
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("email", "user already exists with this email")
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies the credentials and issues a session token. Both an
// unknown email and a wrong password fail with a validation error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("email", "no user found with this email")
		}
		return nil, fmt.Errorf("service/auth: fetching user by email: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.ValidationFailed("password", "invalid password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{Token: token, User: user}, nil
}

// GetUserByID returns the user with the given id, preferring the
// request's user loader when one is attached.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	if loaders, ok := loader.FromContext(ctx); ok {
		user, err := loaders.Users.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
		}
		if user == nil {
			return nil, apperror.NotFound("user", id)
		}
		return user, nil
	}

	return s.users.GetByID(ctx, id)
}

// ListUsers returns all registered users.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/auth: listing users: %w", err)
	}
	return users, nil
}
