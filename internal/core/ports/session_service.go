package ports

import "context"

// RegisterInput carries the data needed to create an account. Name is
// optional; a placeholder is generated when absent.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
}

// LoginInput identifies an account by username when set, else by email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type SessionService interface {
	Register(ctx context.Context, in RegisterInput) error
	Login(ctx context.Context, in LoginInput) (*TokenPair, error)
	// Logout is idempotent and never reports whether the token was known.
	Logout(ctx context.Context, refreshToken string) error
	// Refresh exchanges a valid, currently-stored refresh token for a new
	// access token. The refresh token itself is left unchanged.
	Refresh(ctx context.Context, refreshToken string) (string, error)
}
