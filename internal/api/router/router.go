package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/pharmacare-bot/internal/channels/whatsapp"
	"github.com/wolfman30/pharmacare-bot/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/pharmacare-bot/internal/http/middleware"
	"github.com/wolfman30/pharmacare-bot/internal/livefeed"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Webhook        *whatsapp.WebhookHandler
	Health         http.Handler
	MetricsHandler http.Handler

	// Per-IP limit on /webhook. Zero disables limiting.
	WebhookRateLimit float64
	WebhookRateBurst int

	// Admin API (optional, mounted only with a secret)
	Admin              *handlers.AdminHandler
	LiveFeed           *livefeed.Hub
	AdminAuthSecret    string
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		if cfg.Health != nil {
			public.Handle("/health", cfg.Health)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Webhook != nil {
			public.Route("/webhook", func(wh chi.Router) {
				if cfg.WebhookRateLimit > 0 {
					wh.Use(httpmiddleware.RateLimit(cfg.WebhookRateLimit, cfg.WebhookRateBurst))
				}
				wh.Get("/", cfg.Webhook.HandleVerification)
				wh.Post("/", cfg.Webhook.HandleInbound)
			})
		}
	})

	if cfg.AdminAuthSecret != "" && cfg.Admin != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/sessions/{phone}", cfg.Admin.GetSession)
			admin.Get("/orders/{orderID}", cfg.Admin.GetOrder)
			admin.Get("/turns/{phone}", cfg.Admin.ListTurns)
			if cfg.LiveFeed != nil {
				admin.Get("/live", cfg.LiveFeed.HandleWebSocket)
			}
		})
	}

	return r
}
