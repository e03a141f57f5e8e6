package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

// purgeEvery is how many fresh claims pass between expired-row sweeps.
const purgeEvery = 500

type pgExec interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ProcessedStore is the Postgres deduper. Rows older than the TTL count as
// unseen, matching the expiry of the Redis and in-process variants, and are
// swept periodically.
type ProcessedStore struct {
	db     pgExec
	ttl    time.Duration
	logger *logging.Logger
	claims atomic.Int64
}

func NewProcessedStore(pool *pgxpool.Pool, ttl time.Duration, logger *logging.Logger) *ProcessedStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return newProcessedStore(pool, ttl, logger)
}

func newProcessedStore(db pgExec, ttl time.Duration, logger *logging.Logger) *ProcessedStore {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ProcessedStore{db: db, ttl: ttl, logger: logger}
}

// MarkProcessed claims a wamid. It returns false while an unexpired claim exists.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, provider, messageID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO processed_events (provider, event_id, processed_at)
		VALUES ($1, $2, now())
		ON CONFLICT (provider, event_id) DO UPDATE
			SET processed_at = EXCLUDED.processed_at
			WHERE processed_events.processed_at < now() - make_interval(secs => $3)
	`, provider, messageID, s.ttl.Seconds())
	if err != nil {
		return false, fmt.Errorf("events: claim %s/%s: %w", provider, messageID, err)
	}
	fresh := tag.RowsAffected() > 0
	if fresh && s.claims.Add(1)%purgeEvery == 0 {
		if n, err := s.Purge(ctx); err != nil {
			s.logger.Warn("processed_events purge failed", "error", err)
		} else if n > 0 {
			s.logger.Debug("purged expired message ids", "rows", n)
		}
	}
	return fresh, nil
}

// Purge deletes claims older than the TTL.
func (s *ProcessedStore) Purge(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM processed_events
		WHERE processed_at < now() - make_interval(secs => $1)
	`, s.ttl.Seconds())
	if err != nil {
		return 0, fmt.Errorf("events: purge processed: %w", err)
	}
	return tag.RowsAffected(), nil
}
