package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/pharmacare-bot/internal/audit"
	"github.com/wolfman30/pharmacare-bot/internal/catalog"
	appconfig "github.com/wolfman30/pharmacare-bot/internal/config"
	"github.com/wolfman30/pharmacare-bot/internal/conversation"
	"github.com/wolfman30/pharmacare-bot/internal/livefeed"
	"github.com/wolfman30/pharmacare-bot/internal/observability/metrics"
	"github.com/wolfman30/pharmacare-bot/internal/orders"
	"github.com/wolfman30/pharmacare-bot/internal/session"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

// Runtime is the shared object graph of the API server and the worker.
type Runtime struct {
	Config  *appconfig.Config
	Logger  *logging.Logger
	Catalog *catalog.Catalog

	Redis *redis.Client
	Pool  *pgxpool.Pool
	DB    *sql.DB

	Sessions  session.Repository
	Queue     conversation.Queue
	Processor *conversation.Processor
	Orders    *orders.Service
	Audit     *audit.Recorder
	LiveFeed  *livefeed.Hub

	Registry            *prometheus.Registry
	MessagingMetrics    *metrics.MessagingMetrics
	ConversationMetrics *metrics.ConversationMetrics
}

// NewRuntime builds the runtime from config. Optional backends that are not
// configured are skipped; misconfigured required ones return an error.
func NewRuntime(ctx context.Context, cfg *appconfig.Config, awsClients AWSClients, logger *logging.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cat, err := BuildCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load catalog: %w", err)
	}

	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Catalog:  cat,
		Registry: prometheus.NewRegistry(),
		LiveFeed: livefeed.NewHub(logger),
	}
	rt.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt.MessagingMetrics = metrics.NewMessagingMetrics(rt.Registry)
	rt.ConversationMetrics = metrics.NewConversationMetrics(rt.Registry)

	rt.Redis = BuildRedisClient(ctx, cfg, logger, true)
	rt.Pool = ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if rt.Pool != nil {
		rt.DB = OpenSQLDB(cfg.DatabaseURL, logger)
	}

	if rt.Sessions, err = BuildSessionRepository(cfg, rt.Redis, awsClients.Dynamo, logger); err != nil {
		rt.Close()
		return nil, err
	}
	deduper, err := BuildDeduper(cfg, rt.Redis, rt.Pool, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if rt.Queue, err = BuildQueue(cfg, awsClients.SQS); err != nil {
		rt.Close()
		return nil, err
	}

	email := BuildEmailSender(cfg, awsClients.SES, logger)
	rt.Orders = BuildOrderService(cfg, rt.Pool, awsClients.S3, email, logger)

	observers := []conversation.TurnObserver{rt.LiveFeed}
	if rt.DB != nil {
		rt.Audit = audit.NewRecorder(rt.DB, logger)
		observers = append(observers, rt.Audit)
	}

	rt.Processor, err = BuildProcessor(ProcessorDeps{
		Catalog:             cat,
		Options:             BuildEngineOptions(cfg),
		Sessions:            rt.Sessions,
		Gateway:             BuildGateway(cfg),
		Locker:              BuildLocker(rt.Redis),
		Deduper:             deduper,
		Orders:              rt.Orders,
		Observers:           observers,
		MessagingMetrics:    rt.MessagingMetrics,
		ConversationMetrics: rt.ConversationMetrics,
		Logger:              logger,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	logger.Info("runtime ready",
		"catalog_items", cat.Size(),
		"session_backend", cfg.SessionBackend,
		"dedup_backend", cfg.DedupBackend,
		"memory_queue", cfg.UseMemoryQueue,
		"postgres", rt.Pool != nil,
		"redis", rt.Redis != nil,
	)
	return rt, nil
}

// MetricsHandler exposes the runtime's registry.
func (rt *Runtime) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{Registry: rt.Registry})
}

// Close releases database and cache connections.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	if rt.DB != nil {
		_ = rt.DB.Close()
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
}
