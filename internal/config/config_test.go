package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "API_VERSION", "FOLLOW_UP_DELAY", "SESSION_BACKEND", "USE_MEMORY_QUEUE", "PHARMACY_NAME"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.WhatsAppAPIVersion != "v21.0" {
		t.Fatalf("expected default api version, got %s", cfg.WhatsAppAPIVersion)
	}
	if cfg.FollowUpDelay != 2*time.Second {
		t.Fatalf("expected 2s follow-up delay, got %s", cfg.FollowUpDelay)
	}
	if cfg.SessionBackend != "memory" {
		t.Fatalf("expected memory session backend, got %s", cfg.SessionBackend)
	}
	if !cfg.UseMemoryQueue {
		t.Fatalf("expected memory queue by default")
	}
	if cfg.PharmacyName != "Ganesh Medicals" {
		t.Fatalf("expected default pharmacy name, got %s", cfg.PharmacyName)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("WHATSAPP_TOKEN", "token-1")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "1234")
	t.Setenv("API_VERSION", "v19.0")
	t.Setenv("SESSION_BACKEND", " Redis ")
	t.Setenv("FOLLOW_UP_DELAY", "500ms")
	t.Setenv("WORKER_COUNT", "6")
	t.Setenv("WEBHOOK_RATE_LIMIT", "2.5")
	t.Setenv("USE_MEMORY_QUEUE", "false")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.WhatsAppToken != "token-1" || cfg.WhatsAppPhoneNumberID != "1234" {
		t.Fatalf("expected whatsapp overrides, got %+v", cfg)
	}
	if cfg.WhatsAppAPIVersion != "v19.0" {
		t.Fatalf("expected api version override, got %s", cfg.WhatsAppAPIVersion)
	}
	if cfg.SessionBackend != "redis" {
		t.Fatalf("expected normalized backend, got %q", cfg.SessionBackend)
	}
	if cfg.FollowUpDelay != 500*time.Millisecond {
		t.Fatalf("expected delay override, got %s", cfg.FollowUpDelay)
	}
	if cfg.WorkerCount != 6 {
		t.Fatalf("expected worker override, got %d", cfg.WorkerCount)
	}
	if cfg.WebhookRateLimit != 2.5 {
		t.Fatalf("expected rate override, got %v", cfg.WebhookRateLimit)
	}
	if cfg.UseMemoryQueue {
		t.Fatalf("expected memory queue disabled")
	}
}

func TestValidateReportsMissingKeys(t *testing.T) {
	cfg := &Config{WhatsAppToken: "tok", UseMemoryQueue: false}
	missing := cfg.Validate()
	want := []string{"WHATSAPP_PHONE_NUMBER_ID", "WEBHOOK_VERIFY_TOKEN", "CONVERSATION_QUEUE_URL"}
	if len(missing) != len(want) {
		t.Fatalf("expected %v, got %v", want, missing)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, missing)
		}
	}

	complete := &Config{WhatsAppToken: "tok", WhatsAppPhoneNumberID: "1", WebhookVerifyToken: "v", UseMemoryQueue: true}
	if got := complete.Validate(); len(got) != 0 {
		t.Fatalf("expected no missing keys, got %v", got)
	}
}
