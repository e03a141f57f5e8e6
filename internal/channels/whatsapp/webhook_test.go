package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/pharmacare-bot/internal/conversation"
	"github.com/wolfman30/pharmacare-bot/internal/observability/metrics"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

type stubEnqueuer struct {
	mu     sync.Mutex
	queued []conversation.Interaction
	err    error
}

func (s *stubEnqueuer) Enqueue(_ context.Context, in conversation.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.queued = append(s.queued, in)
	return nil
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func newTestHandler(secret string, q *stubEnqueuer) *WebhookHandler {
	return NewWebhookHandler("my_verify_token", secret, q, logging.Default(), metrics.NewMessagingMetrics(prometheus.NewRegistry()))
}

func TestVerifySignature(t *testing.T) {
	secret := "test_app_secret"
	body := []byte(`{"object":"whatsapp_business_account","entry":[]}`)
	validSig := sign(secret, string(body))

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		want      bool
	}{
		{"valid signature", secret, body, validSig, true},
		{"uppercase hex", secret, body, "sha256=" + strings.ToUpper(validSig[len("sha256="):]), true},
		{"wrong signature", secret, body, "sha256=0000000000000000000000000000000000000000000000000000000000000000", false},
		{"empty signature", secret, body, "", false},
		{"empty secret", "", body, validSig, false},
		{"missing prefix", secret, body, "abcdef", false},
		{"prefix only", secret, body, "sha256=", false},
		{"tampered body", secret, []byte(`tampered`), validSig, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(tt.secret, tt.body, tt.signature); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandleVerification(t *testing.T) {
	h := newTestHandler("", &stubEnqueuer{})

	tests := []struct {
		name  string
		query string
		code  int
		body  string
	}{
		{"valid challenge", "hub.mode=subscribe&hub.verify_token=my_verify_token&hub.challenge=CHALLENGE_123", http.StatusOK, "CHALLENGE_123"},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=X", http.StatusForbidden, ""},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=my_verify_token&hub.challenge=X", http.StatusForbidden, ""},
		{"missing params", "", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/webhook?"+tt.query, nil)
			w := httptest.NewRecorder()
			h.HandleVerification(w, req)

			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, w.Code)
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Fatalf("expected body %q, got %q", tt.body, w.Body.String())
			}
		})
	}
}

func TestHandleInboundQueuesMessages(t *testing.T) {
	q := &stubEnqueuer{}
	h := newTestHandler("", q)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(samplePayload))
	w := httptest.NewRecorder()
	h.HandleInbound(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("expected 200 OK, got %d %q", w.Code, w.Body.String())
	}
	if len(q.queued) != 5 {
		t.Fatalf("expected 5 queued interactions, got %d", len(q.queued))
	}
	if q.queued[1].ReplyID != "view_cart" {
		t.Errorf("unexpected second interaction %+v", q.queued[1])
	}
}

func TestHandleInboundSignature(t *testing.T) {
	secret := "app_secret"

	t.Run("valid", func(t *testing.T) {
		q := &stubEnqueuer{}
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(samplePayload))
		req.Header.Set("X-Hub-Signature-256", sign(secret, samplePayload))
		w := httptest.NewRecorder()
		newTestHandler(secret, q).HandleInbound(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		q := &stubEnqueuer{}
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(samplePayload))
		req.Header.Set("X-Hub-Signature-256", sign("other", samplePayload))
		w := httptest.NewRecorder()
		newTestHandler(secret, q).HandleInbound(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		if len(q.queued) != 0 {
			t.Fatalf("nothing should be queued on a bad signature")
		}
	})
}

func TestHandleInboundBadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()
	newTestHandler("", &stubEnqueuer{}).HandleInbound(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleInboundEnqueueFailure(t *testing.T) {
	q := &stubEnqueuer{err: errors.New("queue full")}
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(samplePayload))
	w := httptest.NewRecorder()
	newTestHandler("", q).HandleInbound(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestHandleInboundStatusesAcknowledged(t *testing.T) {
	body := `{"object":"whatsapp_business_account","entry":[{"changes":[{"field":"messages","value":{"statuses":[{"id":"wamid.out","status":"read","recipient_id":"919672618163"}]}}]}]}`
	q := &stubEnqueuer{}
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()
	newTestHandler("", q).HandleInbound(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(q.queued) != 0 {
		t.Fatalf("statuses must not be queued")
	}
}
