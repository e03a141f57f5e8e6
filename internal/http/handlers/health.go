package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wolfman30/pharmacare-bot/internal/catalog"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

const healthTimeout = 2 * time.Second

// SessionCounter reports how many sessions the store holds.
type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

type HealthResponse struct {
	Status       string   `json:"status"`
	Timestamp    string   `json:"timestamp"`
	Sessions     int      `json:"sessions"`
	CatalogItems int      `json:"catalog_items"`
	Categories   []string `json:"categories"`
	Error        string   `json:"error,omitempty"`
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	sessions SessionCounter
	catalog  *catalog.Catalog
	logger   *logging.Logger
	now      func() time.Time
}

func NewHealthHandler(sessions SessionCounter, cat *catalog.Catalog, logger *logging.Logger) *HealthHandler {
	if sessions == nil || cat == nil {
		panic("handlers: health needs a session counter and a catalog")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HealthHandler{sessions: sessions, catalog: cat, logger: logger, now: time.Now}
}

// ServeHTTP answers 200 when the session store is reachable, 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:       "healthy",
		Timestamp:    h.now().UTC().Format(time.RFC3339),
		CatalogItems: h.catalog.Size(),
		Categories:   h.catalog.Categories(),
	}
	n, err := h.sessions.Count(ctx)
	if err != nil {
		h.logger.Warn("health: session count failed", "error", err)
		resp.Status = "degraded"
		resp.Error = "session store unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Sessions = n
	writeJSON(w, http.StatusOK, resp)
}
