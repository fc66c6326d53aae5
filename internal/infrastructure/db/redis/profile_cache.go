package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veriton/identity-system/internal/api/metrics"
	"github.com/veriton/identity-system/internal/core/domain"
)

const profileTTL = 5 * time.Minute

// ProfileCache caches safe-projection reads backed by Redis.
// Key format: profile:<user_id>
type ProfileCache struct {
	client *redis.Client
}

// NewProfileCache creates a ProfileCache wrapping the given Redis client.
func NewProfileCache(client *redis.Client) *ProfileCache {
	return &ProfileCache{client: client}
}

// Get returns the cached projection, or (nil, nil) on a miss.
func (p *ProfileCache) Get(ctx context.Context, id string) (*domain.SafeUser, error) {
	raw, err := p.client.Get(ctx, p.key(id)).Bytes()
	if err == redis.Nil {
		metrics.ProfileCacheTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile cache get: %w", err)
	}

	var user domain.SafeUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("profile cache decode: %w", err)
	}
	metrics.ProfileCacheTotal.WithLabelValues("hit").Inc()
	return &user, nil
}

// Set stores the projection (expires after profileTTL).
func (p *ProfileCache) Set(ctx context.Context, user *domain.SafeUser) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("profile cache encode: %w", err)
	}
	return p.client.Set(ctx, p.key(user.ID), raw, profileTTL).Err()
}

// Invalidate drops the cached projection after a mutating update.
func (p *ProfileCache) Invalidate(ctx context.Context, id string) error {
	return p.client.Del(ctx, p.key(id)).Err()
}

func (p *ProfileCache) key(id string) string {
	return "profile:" + id
}
