package ports

import (
	"context"

	"github.com/veriton/identity-system/internal/core/domain"
)

// UpdateUserInput carries the optional fields of a partial account update.
// Empty strings mean "leave unchanged".
type UpdateUserInput struct {
	Name  string
	Email string
	Role  string
}

// UserRepository defines the persistence surface the core calls. Uniqueness of
// username and email is the store's responsibility; violations surface as
// domain.ErrUserExists.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByRefreshToken locates the single account currently holding token.
	FindByRefreshToken(ctx context.Context, token string) (*domain.User, error)
	// SetRefreshToken overwrites the stored refresh token for the account,
	// superseding any previous session.
	SetRefreshToken(ctx context.Context, id, token string) error
	// ClearRefreshToken nulls the stored token on whichever account holds it.
	// Not an error when no account matches.
	ClearRefreshToken(ctx context.Context, token string) error

	// FindSafeByID reads through the safe projection only.
	FindSafeByID(ctx context.Context, id string) (*domain.SafeUser, error)

	Update(ctx context.Context, id string, in UpdateUserInput) error
	// Search filters by exact name and/or email match; empty filters are
	// ignored and both empty returns every account.
	Search(ctx context.Context, name, email string) ([]*domain.User, error)
}
