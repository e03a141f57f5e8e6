package events

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// DefaultDedupTTL bounds how long a message id is remembered. Meta retries
// undelivered webhooks for about a day.
const DefaultDedupTTL = 24 * time.Hour

// RedisDeduper claims message ids with SET NX so every API and worker
// instance shares one view of what was handled.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if client == nil {
		panic("events: redis client required")
	}
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) MarkProcessed(ctx context.Context, provider, messageID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupKey(provider, messageID), time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("events: redis dedup: %w", err)
	}
	return ok, nil
}

// MemoryDeduper is the single-process variant.
type MemoryDeduper struct {
	cache *cache.Cache
}

func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &MemoryDeduper{cache: cache.New(ttl, 10*time.Minute)}
}

func (d *MemoryDeduper) MarkProcessed(_ context.Context, provider, messageID string) (bool, error) {
	// Add fails when the key is present and unexpired.
	if err := d.cache.Add(dedupKey(provider, messageID), struct{}{}, cache.DefaultExpiration); err != nil {
		return false, nil
	}
	return true, nil
}

func dedupKey(provider, messageID string) string {
	return "whatsapp:processed:" + provider + ":" + messageID
}
