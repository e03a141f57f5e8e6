package bootstrap

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/pharmacare-bot/internal/config"
	"github.com/wolfman30/pharmacare-bot/internal/conversation"
	"github.com/wolfman30/pharmacare-bot/internal/events"
	"github.com/wolfman30/pharmacare-bot/internal/notify"
	"github.com/wolfman30/pharmacare-bot/internal/session"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

func TestBuildRedisClientDisabledWithoutAddr(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true); client != nil {
		t.Fatalf("expected nil client without REDIS_ADDR")
	}
}

func TestBuildRedisClientVerifies(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr()}
	client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true)
	if client == nil {
		t.Fatalf("expected client for reachable redis")
	}
	_ = client.Close()
}

func TestBuildSessionRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := logging.New("error")

	tests := []struct {
		name    string
		backend string
		redis   *redis.Client
		wantErr bool
		check   func(session.Repository) bool
	}{
		{name: "default memory", backend: "", check: func(r session.Repository) bool { _, ok := r.(*session.MemoryRepository); return ok }},
		{name: "redis", backend: "redis", redis: redisClient, check: func(r session.Repository) bool { _, ok := r.(*session.RedisRepository); return ok }},
		{name: "redis without client", backend: "redis", wantErr: true},
		{name: "dynamo without client", backend: "dynamodb", wantErr: true},
		{name: "unknown", backend: "etcd", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := BuildSessionRepository(&appconfig.Config{SessionBackend: tt.backend}, tt.redis, nil, logger)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(repo) {
				t.Fatalf("unexpected repository %T", repo)
			}
		})
	}
}

func TestBuildLocker(t *testing.T) {
	if _, ok := BuildLocker(nil).(*session.LocalLocker); !ok {
		t.Fatalf("expected local locker without redis")
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if _, ok := BuildLocker(client).(*session.RedisLocker); !ok {
		t.Fatalf("expected redis locker")
	}
}

func TestBuildDeduper(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	d, err := BuildDeduper(&appconfig.Config{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := d.(*events.MemoryDeduper); !ok {
		t.Fatalf("expected memory deduper, got %T", d)
	}

	d, err = BuildDeduper(&appconfig.Config{DedupBackend: "redis"}, client, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := d.(*events.RedisDeduper); !ok {
		t.Fatalf("expected redis deduper, got %T", d)
	}

	if _, err := BuildDeduper(&appconfig.Config{DedupBackend: "postgres"}, nil, nil, nil); err == nil {
		t.Fatalf("expected error for postgres without pool")
	}
}

func TestBuildQueue(t *testing.T) {
	q, err := BuildQueue(&appconfig.Config{UseMemoryQueue: true}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := q.(*conversation.MemoryQueue); !ok {
		t.Fatalf("expected memory queue, got %T", q)
	}
	if _, err := BuildQueue(&appconfig.Config{UseMemoryQueue: false}, nil); err == nil {
		t.Fatalf("expected error without sqs client")
	}
	if _, err := BuildQueue(nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestBuildEmailSenderFallsBackToStub(t *testing.T) {
	sender := BuildEmailSender(&appconfig.Config{}, nil, logging.New("error"))
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("expected stub sender, got %T", sender)
	}
	sender = BuildEmailSender(&appconfig.Config{SendGridAPIKey: "SG.test", SendGridFromEmail: "orders@example.com"}, nil, nil)
	if _, ok := sender.(*notify.SendGridSender); !ok {
		t.Fatalf("expected sendgrid sender, got %T", sender)
	}
}

func TestBuildOrderServiceMemoryStore(t *testing.T) {
	svc := BuildOrderService(&appconfig.Config{}, nil, nil, nil, logging.New("error"))
	if svc == nil {
		t.Fatalf("expected service")
	}
}

func TestBuildProcessorRequiresDeps(t *testing.T) {
	if _, err := BuildProcessor(ProcessorDeps{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}

func TestBuildCatalogDefault(t *testing.T) {
	cat, err := BuildCatalog(&appconfig.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.Size() == 0 {
		t.Fatalf("expected built-in catalog")
	}
}

func TestNewRuntimeInMemory(t *testing.T) {
	cfg := &appconfig.Config{
		UseMemoryQueue:     true,
		WhatsAppAPIVersion: "v21.0",
		PharmacyName:       "Ganesh Medicals",
	}
	rt, err := NewRuntime(context.Background(), cfg, AWSClients{}, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rt.Close()

	if rt.Processor == nil || rt.Queue == nil || rt.Orders == nil || rt.LiveFeed == nil {
		t.Fatalf("runtime not fully wired: %+v", rt)
	}
	if rt.Audit != nil {
		t.Fatalf("audit recorder needs a database")
	}
	if _, ok := rt.Sessions.(*session.MemoryRepository); !ok {
		t.Fatalf("expected memory sessions, got %T", rt.Sessions)
	}

	rt.MessagingMetrics.ObserveInbound("text", "ok")
	families, err := rt.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "pharmacare_messaging_inbound_webhook_total" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected messaging metrics in runtime registry")
	}
}

func TestNewRuntimeSQSWithoutClient(t *testing.T) {
	cfg := &appconfig.Config{UseMemoryQueue: false, ConversationQueueURL: "http://localhost:4566/queue/q"}
	if _, err := NewRuntime(context.Background(), cfg, AWSClients{}, logging.New("error")); err == nil {
		t.Fatalf("expected error without sqs client")
	}
}

func TestNeedsAWS(t *testing.T) {
	tests := []struct {
		name string
		cfg  *appconfig.Config
		want bool
	}{
		{name: "nil", cfg: nil, want: false},
		{name: "all local", cfg: &appconfig.Config{UseMemoryQueue: true}, want: false},
		{name: "sqs", cfg: &appconfig.Config{UseMemoryQueue: false}, want: true},
		{name: "dynamo sessions", cfg: &appconfig.Config{UseMemoryQueue: true, SessionBackend: "dynamodb"}, want: true},
		{name: "receipts", cfg: &appconfig.Config{UseMemoryQueue: true, ReceiptsBucket: "receipts"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsAWS(tt.cfg); got != tt.want {
				t.Fatalf("NeedsAWS = %v, want %v", got, tt.want)
			}
		})
	}
}
