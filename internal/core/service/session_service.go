package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/veriton/identity-system/internal/core/domain"
	"github.com/veriton/identity-system/internal/core/ports"
)

// SessionService implements registration and the session lifecycle: login,
// refresh, logout. At most one refresh token is live per account — login
// overwrites the stored token and refresh matches it by equality.
type SessionService struct {
	repo   ports.UserRepository
	tokens ports.TokenService
	hasher ports.PasswordHasher
	logger zerolog.Logger
}

func NewSessionService(repo ports.UserRepository, tokens ports.TokenService, hasher ports.PasswordHasher, logger zerolog.Logger) *SessionService {
	return &SessionService{repo: repo, tokens: tokens, hasher: hasher, logger: logger}
}

// Register creates a new USER-role account with a freshly hashed password.
// Role is never caller-controlled here; promotion goes through the admin
// update path.
func (s *SessionService) Register(ctx context.Context, in ports.RegisterInput) error {
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	name := in.Name
	if name == "" {
		name = "User_" + uuid.NewString()[:5]
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Name:         name,
		Email:        in.Email,
		PasswordHash: hashed,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return nil
}

// Login verifies credentials and issues an access/refresh token pair. The
// refresh token is persisted onto the account, superseding any prior session.
func (s *SessionService) Login(ctx context.Context, in ports.LoginInput) (*ports.TokenPair, error) {
	var user *domain.User
	var err error
	if in.Username != "" {
		user, err = s.repo.FindByUsername(ctx, in.Username)
	} else {
		user, err = s.repo.FindByEmail(ctx, in.Email)
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Compare(user.PasswordHash, in.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	claims := domain.Claims{
		Subject:  user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}

	access, err := s.tokens.SignAccess(claims)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.tokens.SignRefresh(claims)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.repo.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user logged in")
	return &ports.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout clears the stored refresh token on whichever account holds it.
// Always a no-op success outwardly: an empty or unknown token must not act as
// a validity oracle, and even a store failure is only logged.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.ClearRefreshToken(ctx, refreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("logout: clearing refresh token failed")
	}
	return nil
}

// Refresh exchanges a valid refresh token for a new access token. The token
// must verify against the refresh secret and still be the one stored on an
// account; a superseded or cleared token fails even when its signature is
// good. The stored refresh token is not rotated.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", domain.ErrTokenMissing
	}

	if _, err := s.tokens.VerifyRefresh(refreshToken); err != nil {
		return "", err
	}

	user, err := s.repo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrTokenInvalid
		}
		return "", err
	}

	access, err := s.tokens.SignAccess(domain.Claims{
		Subject:  user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	s.logger.Debug().Str("user_id", user.ID).Msg("access token refreshed")
	return access, nil
}
