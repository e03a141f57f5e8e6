package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/pharmacare-bot/cmd/mainconfig"
	"github.com/wolfman30/pharmacare-bot/internal/api/router"
	"github.com/wolfman30/pharmacare-bot/internal/app/bootstrap"
	"github.com/wolfman30/pharmacare-bot/internal/channels/whatsapp"
	appconfig "github.com/wolfman30/pharmacare-bot/internal/config"
	"github.com/wolfman30/pharmacare-bot/internal/conversation"
	"github.com/wolfman30/pharmacare-bot/internal/http/handlers"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting pharmacare bot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)
	if missing := cfg.Validate(); len(missing) > 0 {
		logger.Warn("missing configuration; replies will fail until set", "keys", missing)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsClients, err := loadAWSClients(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	rt, err := bootstrap.NewRuntime(ctx, cfg, awsClients, logger)
	if err != nil {
		logger.Error("failed to build runtime", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	// With the in-process queue the API server also runs the workers.
	var worker *conversation.Worker
	if cfg.UseMemoryQueue {
		worker = conversation.NewWorker(rt.Processor, rt.Queue, logger, conversation.WithWorkerCount(cfg.WorkerCount))
		worker.Start(ctx)
		logger.Info("in-process conversation workers started", "count", cfg.WorkerCount)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      buildRouter(cfg, rt, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	cancel()
	if worker != nil {
		waitCh := make(chan struct{})
		go func() {
			worker.Wait()
			close(waitCh)
		}()
		select {
		case <-waitCh:
		case <-shutdownCtx.Done():
			logger.Error("conversation worker shutdown timed out", "error", shutdownCtx.Err())
		}
	}

	logger.Info("server stopped")
}

func loadAWSClients(ctx context.Context, cfg *appconfig.Config) (bootstrap.AWSClients, error) {
	if !bootstrap.NeedsAWS(cfg) {
		return bootstrap.AWSClients{}, nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return bootstrap.AWSClients{}, err
	}
	return bootstrap.NewAWSClients(awsCfg), nil
}

func buildRouter(cfg *appconfig.Config, rt *bootstrap.Runtime, logger *logging.Logger) http.Handler {
	publisher := conversation.NewPublisher(rt.Queue, logger)
	webhook := whatsapp.NewWebhookHandler(cfg.WebhookVerifyToken, cfg.WhatsAppAppSecret, publisher, logger, rt.MessagingMetrics)

	var turns handlers.TurnLister
	if rt.Audit != nil {
		turns = rt.Audit
	}

	return router.New(&router.Config{
		Logger:             logger,
		Webhook:            webhook,
		Health:             handlers.NewHealthHandler(rt.Sessions, rt.Catalog, logger),
		MetricsHandler:     rt.MetricsHandler(),
		WebhookRateLimit:   cfg.WebhookRateLimit,
		WebhookRateBurst:   cfg.WebhookRateBurst,
		Admin:              handlers.NewAdminHandler(rt.Sessions, rt.Orders, turns, rt.Catalog, logger),
		LiveFeed:           rt.LiveFeed,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.AdminCORSOrigins,
	})
}
