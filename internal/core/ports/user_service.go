package ports

import (
	"context"

	"github.com/veriton/identity-system/internal/core/domain"
)

// SearchResult is the sanitized search record: the safe projection plus
// email. Secrets, session state, verification flag and timestamps are
// stripped before results leave the service.
type SearchResult struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type UserService interface {
	// Update applies a partial, admin-gated account update.
	Update(ctx context.Context, id string, in UpdateUserInput) error
	// Search filters accounts by exact name and/or email match.
	Search(ctx context.Context, name, email string) ([]SearchResult, error)
	// GetByID returns the safe projection of the target account. A USER-role
	// caller may only read its own record.
	GetByID(ctx context.Context, caller domain.Claims, id string) (*domain.SafeUser, error)
}
