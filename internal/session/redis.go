package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	redisKeyPrefix   = "whatsapp:session:"
	redisIndexKey    = "whatsapp:sessions"
	maxWatchAttempts = 5
)

// RedisRepository stores sessions as JSON strings and tracks known users in a
// set so Count stays O(1). Writes use WATCH/MULTI so concurrent updates from
// several processes do not overwrite each other.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	now    func() time.Time
}

var _ Repository = (*RedisRepository)(nil)

// NewRedisRepository builds a repository on client. A zero ttl keeps sessions forever.
func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	return &RedisRepository{
		client: client,
		ttl:    ttl,
		tracer: otel.Tracer("pharmacare.internal.session.redis"),
		now:    time.Now,
	}
}

func (r *RedisRepository) Get(ctx context.Context, userID string) (Session, error) {
	ctx, span := r.tracer.Start(ctx, "session.get")
	defer span.End()

	s, err := r.load(ctx, r.client, userID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		return Session{}, err
	}

	fresh := New(userID, r.now())
	data, err := json.Marshal(fresh)
	if err != nil {
		span.RecordError(err)
		return Session{}, fmt.Errorf("session: encode: %w", err)
	}
	created, err := r.client.SetNX(ctx, redisKey(userID), data, r.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return Session{}, fmt.Errorf("session: create: %w", err)
	}
	if !created {
		// another writer won the race; read what it stored
		return r.load(ctx, r.client, userID)
	}
	if err := r.client.SAdd(ctx, redisIndexKey, userID).Err(); err != nil {
		span.RecordError(err)
		return Session{}, fmt.Errorf("session: index: %w", err)
	}
	return fresh, nil
}

func (r *RedisRepository) Update(ctx context.Context, userID string, patch Patch) (Session, error) {
	ctx, span := r.tracer.Start(ctx, "session.update")
	defer span.End()

	out, err := r.mutate(ctx, userID, func(s Session) Session {
		return s.Apply(patch, r.now())
	})
	if err != nil {
		span.RecordError(err)
	}
	return out, err
}

func (r *RedisRepository) ClearCart(ctx context.Context, userID string) error {
	ctx, span := r.tracer.Start(ctx, "session.clear_cart")
	defer span.End()

	_, err := r.mutate(ctx, userID, func(s Session) Session {
		s.Cart = []string{}
		return s
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (r *RedisRepository) Lookup(ctx context.Context, userID string) (Session, error) {
	return r.load(ctx, r.client, userID)
}

func (r *RedisRepository) Count(ctx context.Context) (int, error) {
	n, err := r.client.SCard(ctx, redisIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("session: count: %w", err)
	}
	return int(n), nil
}

func (r *RedisRepository) mutate(ctx context.Context, userID string, fn func(Session) Session) (Session, error) {
	key := redisKey(userID)
	var out Session

	txf := func(tx *redis.Tx) error {
		current, err := r.load(ctx, tx, userID)
		if errors.Is(err, ErrNotFound) {
			current = New(userID, r.now())
		} else if err != nil {
			return err
		}
		next := fn(current)
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("session: encode: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			pipe.SAdd(ctx, redisIndexKey, userID)
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	}

	for attempt := 0; attempt < maxWatchAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return Session{}, fmt.Errorf("session: update %s: %w", userID, err)
	}
	return Session{}, fmt.Errorf("session: update %s: too much contention", userID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisRepository) load(ctx context.Context, c getter, userID string) (Session, error) {
	data, err := c.Get(ctx, redisKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("session: load %s: %w", userID, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("session: decode %s: %w", userID, err)
	}
	if s.Cart == nil {
		s.Cart = []string{}
	}
	return s, nil
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}
