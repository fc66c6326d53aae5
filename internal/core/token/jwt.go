// Package token implements the signed-token service: HS256 JWTs with distinct
// secrets and validity windows for access and refresh tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veriton/identity-system/internal/core/domain"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// tokenClaims is the wire shape of the identity claims. Subject carries the
// account id via RegisteredClaims.
type tokenClaims struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and verifies both token kinds.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Service {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (s *Service) SignAccess(claims domain.Claims) (string, error) {
	return s.sign(claims, s.accessSecret, s.accessTTL)
}

func (s *Service) SignRefresh(claims domain.Claims) (string, error) {
	return s.sign(claims, s.refreshSecret, s.refreshTTL)
}

func (s *Service) VerifyAccess(token string) (*domain.Claims, error) {
	return s.verify(token, s.accessSecret)
}

func (s *Service) VerifyRefresh(token string) (*domain.Claims, error) {
	return s.verify(token, s.refreshSecret)
}

func (s *Service) sign(claims domain.Claims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	tc := &tokenClaims{
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(secret)
}

func (s *Service) verify(token string, secret []byte) (*domain.Claims, error) {
	tc := &tokenClaims{}
	tkn, err := jwt.ParseWithClaims(token, tc, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !tkn.Valid {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.Claims{
		Subject:  tc.Subject,
		Username: tc.Username,
		Email:    tc.Email,
		Role:     tc.Role,
	}, nil
}
