package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/pharmacare-bot/internal/config"
	"github.com/wolfman30/pharmacare-bot/internal/conversation"
	"github.com/wolfman30/pharmacare-bot/internal/events"
	"github.com/wolfman30/pharmacare-bot/internal/session"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildSessionRepository picks the session store named by SESSION_BACKEND.
func BuildSessionRepository(cfg *appconfig.Config, redisClient *redis.Client, dynamoClient *dynamodb.Client, logger *logging.Logger) (session.Repository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.SessionBackend {
	case "", "memory":
		logger.Info("using in-memory session store")
		return session.NewMemoryRepository(), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: session backend redis needs REDIS_ADDR")
		}
		logger.Info("using redis session store", "ttl", cfg.SessionTTL)
		return session.NewRedisRepository(redisClient, cfg.SessionTTL), nil
	case "dynamodb", "dynamo":
		if dynamoClient == nil {
			return nil, fmt.Errorf("bootstrap: session backend dynamodb needs an AWS client")
		}
		logger.Info("using dynamodb session store", "table", cfg.SessionsTable)
		return session.NewDynamoRepository(dynamoClient, cfg.SessionsTable, cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown session backend %q", cfg.SessionBackend)
	}
}

// BuildLocker serializes turns per user across processes when Redis is
// available and within this process otherwise.
func BuildLocker(redisClient *redis.Client) session.Locker {
	if redisClient == nil {
		return session.NewLocalLocker()
	}
	return session.NewRedisLocker(redisClient, 0, 0)
}

// BuildDeduper picks the message-id store named by DEDUP_BACKEND.
func BuildDeduper(cfg *appconfig.Config, redisClient *redis.Client, pool *pgxpool.Pool, logger *logging.Logger) (conversation.Deduper, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.DedupBackend {
	case "", "memory":
		return events.NewMemoryDeduper(cfg.DedupTTL), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: dedup backend redis needs REDIS_ADDR")
		}
		return events.NewRedisDeduper(redisClient, cfg.DedupTTL), nil
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("bootstrap: dedup backend postgres needs DATABASE_URL")
		}
		logger.Info("using postgres processed_events for dedup")
		return events.NewProcessedStore(pool, cfg.DedupTTL, logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown dedup backend %q", cfg.DedupBackend)
	}
}
