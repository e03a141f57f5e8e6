package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

// Archiver keeps a durable copy of each receipt.
type Archiver interface {
	Archive(ctx context.Context, o Order) error
}

// Notifier tells staff about a new order.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, o Order) error
}

// Service records placed orders: the store write must succeed, the receipt
// archive and staff notification are best effort.
type Service struct {
	store    Store
	archive  Archiver
	notifier Notifier
	logger   *logging.Logger
}

func NewService(store Store, archive Archiver, notifier Notifier, logger *logging.Logger) *Service {
	if store == nil {
		panic("orders: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, archive: archive, notifier: notifier, logger: logger}
}

// Record persists o under a fresh storage key and fans it out.
func (s *Service) Record(ctx context.Context, o Order) error {
	if o.Key == "" {
		o.Key = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPlaced
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = PaymentCashOnDelivery
	}
	if o.PlacedAt.IsZero() {
		o.PlacedAt = time.Now().UTC()
	}
	if err := s.store.Save(ctx, o); err != nil {
		return fmt.Errorf("orders: record: %w", err)
	}
	s.logger.Info("order recorded",
		"order_id", o.ID,
		"order_key", o.Key,
		"customer_phone", o.CustomerPhone,
		"items", len(o.Lines),
		"total", o.Total.String(),
	)

	if s.archive != nil {
		if err := s.archive.Archive(ctx, o); err != nil {
			s.logger.Warn("order receipt archive failed", "order_id", o.ID, "error", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyOrderPlaced(ctx, o); err != nil {
			s.logger.Warn("order notification failed", "order_id", o.ID, "error", err)
		}
	}
	return nil
}

// Find returns every order with display id id, newest first.
func (s *Service) Find(ctx context.Context, id string) ([]Order, error) {
	return s.store.Find(ctx, id)
}

// Get returns the newest order with display id id.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return Latest(ctx, s.store, id)
}
