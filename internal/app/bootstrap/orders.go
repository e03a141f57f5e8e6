package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/wolfman30/pharmacare-bot/internal/config"
	"github.com/wolfman30/pharmacare-bot/internal/notify"
	"github.com/wolfman30/pharmacare-bot/internal/orders"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

// BuildEmailSender prefers SendGrid, then SES, then a logging stub.
func BuildEmailSender(cfg *appconfig.Config, sesClient *sesv2.Client, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger)
	}
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		logger.Info("order emails via sendgrid")
		return sender
	}
	if sender := notify.NewSESSender(sesClient, notify.SESConfig{
		FromEmail: cfg.SESFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		logger.Info("order emails via ses")
		return sender
	}
	logger.Info("no email provider configured; order emails are logged only")
	return notify.NewStubEmailSender(logger)
}

// BuildOrderService wires order persistence, receipt archiving and staff
// notification. Orders go to Postgres when a pool is given.
func BuildOrderService(cfg *appconfig.Config, pool *pgxpool.Pool, s3Client *s3.Client, email notify.EmailSender, logger *logging.Logger) *orders.Service {
	if logger == nil {
		logger = logging.Default()
	}

	var store orders.Store = orders.NewMemoryStore()
	if pool != nil {
		store = orders.NewPostgresStore(pool)
	}

	var archive orders.Archiver
	if cfg != nil && cfg.ReceiptsBucket != "" && s3Client != nil {
		archive = orders.NewReceiptArchive(s3Client, cfg.ReceiptsBucket, logger)
		logger.Info("order receipts archived to s3", "bucket", cfg.ReceiptsBucket)
	}

	var notifier orders.Notifier
	if cfg != nil && cfg.OrderNotifyEmail != "" && email != nil {
		notifier = notify.NewOrderNotifier(email, cfg.OrderNotifyEmail, cfg.PharmacyName, logger)
	}
	return orders.NewService(store, archive, notifier, logger)
}
