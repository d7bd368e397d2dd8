package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/cfadjust/internal/domain"
)

// AccountCacheKey is where the account snapshot is stored.
const AccountCacheKey = "cfadjust:accounts"

// AccountCache implements usecase.AccountCache using Redis.
type AccountCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewAccountCache creates a new AccountCache. A zero ttl keeps the snapshot
// until it is replaced.
func NewAccountCache(client *redis.Client, ttl time.Duration) *AccountCache {
	return &AccountCache{
		client: client,
		key:    AccountCacheKey,
		ttl:    ttl,
	}
}

// Load returns the cached snapshot, or nil when none is stored.
func (c *AccountCache) Load(ctx context.Context) (*domain.AccountSnapshot, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account snapshot: %w", err)
	}

	var snapshot domain.AccountSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode account snapshot: %w", err)
	}
	return &snapshot, nil
}

// Store replaces the cached snapshot.
func (c *AccountCache) Store(ctx context.Context, snapshot *domain.AccountSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode account snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store account snapshot: %w", err)
	}
	return nil
}
