package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/veriton/identity-system/internal/core/domain"
	"github.com/veriton/identity-system/internal/core/ports"
)

// ProfileCache abstracts the safe-projection read cache (Redis). A nil miss
// is (nil, nil); cache failures degrade to the store and are never surfaced.
type ProfileCache interface {
	Get(ctx context.Context, id string) (*domain.SafeUser, error)
	Set(ctx context.Context, user *domain.SafeUser) error
	Invalidate(ctx context.Context, id string) error
}

// UserService implements the admin-gated account query/update operations.
// Authorization (which roles may call what) is enforced at the perimeter;
// this layer only applies the ownership rule of GetByID.
type UserService struct {
	repo   ports.UserRepository
	cache  ProfileCache
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, cache ProfileCache, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, cache: cache, logger: logger}
}

// Update applies the supplied fields to the target account; empty fields are
// left untouched. A role value outside the persistable enum is rejected
// before any store access.
func (s *UserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) error {
	if in.Role != "" && !domain.ValidRole(in.Role) {
		return domain.ErrInvalidRole
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, in); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("user_id", id).Msg("profile cache invalidation failed")
		}
	}

	s.logger.Info().Str("user_id", id).Msg("user updated")
	return nil
}

// Search returns sanitized records matching the exact name/email filters.
// The safe projection view is not used here: arbitrary filters run against
// the full collection, so stripping happens field-by-field on the way out.
func (s *UserService) Search(ctx context.Context, name, email string) ([]ports.SearchResult, error) {
	users, err := s.repo.Search(ctx, name, email)
	if err != nil {
		return nil, err
	}

	results := make([]ports.SearchResult, 0, len(users))
	for _, u := range users {
		results = append(results, ports.SearchResult{
			ID:       u.ID,
			Username: u.Username,
			Name:     u.Name,
			Email:    u.Email,
			Role:     u.Role,
		})
	}
	return results, nil
}

// GetByID reads the target's safe projection. USER-role callers may only
// read their own record; privileged roles may read any.
func (s *UserService) GetByID(ctx context.Context, caller domain.Claims, id string) (*domain.SafeUser, error) {
	if caller.Role == domain.RoleUser && caller.Subject != id {
		return nil, domain.ErrForbidden
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("user_id", id).Msg("profile cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := s.repo.FindSafeByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, user); err != nil {
			s.logger.Warn().Err(err).Str("user_id", id).Msg("profile cache write failed")
		}
	}
	return user, nil
}
