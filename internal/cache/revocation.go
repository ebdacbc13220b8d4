package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationCache remembers revoked session digests until their natural
// expiry so hot-path checks can skip the database.
// Key format: revoked:<sha256 hex digest>
type RevocationCache struct {
	client *redis.Client
}

// NewRevocationCache wraps the given Redis client.
func NewRevocationCache(client *redis.Client) *RevocationCache {
	return &RevocationCache{client: client}
}

// IsRevoked reports whether digest was marked revoked.
func (c *RevocationCache) IsRevoked(ctx context.Context, digest string) (bool, error) {
	n, err := c.client.Exists(ctx, key(digest)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

// MarkRevoked records digest as revoked for ttl. Non-positive ttls are
// ignored because the token has already expired.
func (c *RevocationCache) MarkRevoked(ctx context.Context, digest string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, key(digest), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revocation mark: %w", err)
	}
	return nil
}

func key(digest string) string {
	return "revoked:" + digest
}
