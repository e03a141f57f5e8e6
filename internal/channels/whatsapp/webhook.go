package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/pharmacare-bot/internal/conversation"
	"github.com/wolfman30/pharmacare-bot/internal/observability/metrics"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

const maxWebhookBody = 1 << 20

// Enqueuer hands an interaction to the conversation pipeline.
type Enqueuer interface {
	Enqueue(ctx context.Context, in conversation.Interaction) error
}

// WebhookHandler handles WhatsApp webhook verification and inbound events.
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	queue       Enqueuer
	logger      *logging.Logger
	metrics     *metrics.MessagingMetrics
}

// NewWebhookHandler creates a webhook handler. When appSecret is empty the
// X-Hub-Signature-256 header is not checked.
func NewWebhookHandler(verifyToken, appSecret string, queue Enqueuer, logger *logging.Logger, m *metrics.MessagingMetrics) *WebhookHandler {
	if queue == nil {
		panic("whatsapp: enqueuer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		queue:       queue,
		logger:      logger,
		metrics:     m,
	}
}

// HandleVerification answers Meta's GET subscription challenge.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.ObserveWebhookLatency(http.MethodGet, time.Since(start).Seconds()) }()

	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		h.logger.Info("whatsapp webhook verified")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}

	h.logger.Warn("whatsapp webhook verification failed", "mode", mode)
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleInbound accepts POSTed events, queues every user message and
// records delivery statuses.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.ObserveWebhookLatency(http.MethodPost, time.Since(start).Seconds()) }()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if h.appSecret != "" && !VerifySignature(h.appSecret, body, r.Header.Get("X-Hub-Signature-256")) {
		h.logger.Warn("whatsapp webhook signature mismatch")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("whatsapp webhook payload invalid", "error", err)
		h.metrics.ObserveInbound("invalid", "rejected")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	interactions, statuses := ParseWebhookEvent(event)
	for _, st := range statuses {
		h.metrics.ObserveDeliveryStatus(st.Status)
		if len(st.Errors) > 0 {
			h.logger.Warn("whatsapp delivery failed",
				"message_id", st.ID,
				"status", st.Status,
				"code", st.Errors[0].Code,
				"error", st.Errors[0].Message,
			)
			continue
		}
		h.logger.Debug("whatsapp delivery status", "message_id", st.ID, "status", st.Status)
	}

	for _, in := range interactions {
		if err := h.queue.Enqueue(r.Context(), in); err != nil {
			h.logger.Error("failed to enqueue whatsapp message",
				"message_id", in.MessageID,
				"error", err,
			)
			h.metrics.ObserveInbound(string(in.Kind), "error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		h.metrics.ObserveInbound(string(in.Kind), "queued")
		h.logger.Info("whatsapp message queued",
			"message_id", in.MessageID,
			"kind", in.Kind,
			"reply_id", in.ReplyID,
		)
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// VerifySignature checks an X-Hub-Signature-256 header ("sha256=<hex>").
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}
	const prefix = "sha256="
	if !strings.HasPrefix(signature, prefix) || len(signature) == len(prefix) {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature[len(prefix):])))
}
