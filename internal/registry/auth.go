package registry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/mwantia/cpkgs/pkg/api"
	"github.com/mwantia/cpkgs/pkg/db/models"
	"github.com/mwantia/cpkgs/pkg/db/store"
	"golang.org/x/crypto/bcrypt"
)

// Authenticate verifies the credential against the stored bcrypt hash
// and issues an opaque bearer token. A missing user and a wrong
// password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (api.AuthResponse, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return api.AuthResponse{}, fmt.Errorf("%w: unknown user or wrong password", ErrUnauthorized)
		}
		return api.AuthResponse{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return api.AuthResponse{}, fmt.Errorf("%w: unknown user or wrong password", ErrUnauthorized)
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return api.AuthResponse{}, err
	}

	s.log.Info("User '%s' authenticated", user.Username)
	return api.AuthResponse{Token: token, User: UserView(user)}, nil
}

// Register creates a user with role USER and authenticates it.
func (s *Service) Register(ctx context.Context, req api.UserRequest) (api.AuthResponse, error) {
	user, err := s.createUser(ctx, req, models.RoleUser)
	if err != nil {
		return api.AuthResponse{}, err
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return api.AuthResponse{}, err
	}

	s.log.Info("User '%s' registered", user.Username)
	return api.AuthResponse{Token: token, User: UserView(user)}, nil
}

// Logout invalidates the token. Unknown tokens are ignored so logout
// never fails on stale session state.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.store.DeleteToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// ValidateToken resolves a bearer token to its user. Used by the HTTP
// middleware before any protected operation reaches the facade.
func (s *Service) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	record, err := s.store.GetToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	return &record.User, nil
}

func (s *Service) issueToken(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.store.CreateToken(ctx, &models.AuthToken{Token: token, UserID: userID}); err != nil {
		return "", fmt.Errorf("failed to persist token: %w", wrapStore(err))
	}
	return token, nil
}

func hashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
