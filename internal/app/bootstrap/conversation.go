package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/wolfman30/pharmacare-bot/internal/catalog"
	"github.com/wolfman30/pharmacare-bot/internal/channels/whatsapp"
	appconfig "github.com/wolfman30/pharmacare-bot/internal/config"
	"github.com/wolfman30/pharmacare-bot/internal/conversation"
	"github.com/wolfman30/pharmacare-bot/internal/observability/metrics"
	"github.com/wolfman30/pharmacare-bot/internal/session"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

const memoryQueueBuffer = 256

// BuildCatalog loads CATALOG_PATH, falling back to the built-in storefront.
func BuildCatalog(cfg *appconfig.Config) (*catalog.Catalog, error) {
	path := ""
	if cfg != nil {
		path = strings.TrimSpace(cfg.CatalogPath)
	}
	return catalog.LoadOrDefault(path)
}

// BuildEngineOptions copies the storefront wording out of config.
func BuildEngineOptions(cfg *appconfig.Config) conversation.Options {
	if cfg == nil {
		return conversation.Options{}
	}
	return conversation.Options{
		PharmacyName:    cfg.PharmacyName,
		SupportPhone:    cfg.SupportPhone,
		RegisterFormURL: cfg.RegisterFormURL,
		AppDownloadURL:  cfg.AppDownloadURL,
		CustomerCare:    cfg.CustomerCare,
		AboutProgramURL: cfg.AboutProgramURL,
		WelcomeTemplate: cfg.WelcomeTemplate,
		WelcomeImageURL: cfg.WelcomeImageURL,
		FollowUpDelay:   cfg.FollowUpDelay,
	}
}

// BuildGateway returns the WhatsApp Cloud API client.
func BuildGateway(cfg *appconfig.Config) *whatsapp.Client {
	client := whatsapp.NewClient(cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppAPIVersion)
	if base := strings.TrimSpace(cfg.WhatsAppGraphBase); base != "" {
		client.SetGraphAPIBase(base)
	}
	return client
}

// BuildQueue returns the in-process queue when USE_MEMORY_QUEUE is set and
// the SQS queue otherwise.
func BuildQueue(cfg *appconfig.Config, sqsClient *sqs.Client) (conversation.Queue, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if cfg.UseMemoryQueue {
		return conversation.NewMemoryQueue(memoryQueueBuffer), nil
	}
	if sqsClient == nil || strings.TrimSpace(cfg.ConversationQueueURL) == "" {
		return nil, fmt.Errorf("bootstrap: sqs queue needs a client and CONVERSATION_QUEUE_URL")
	}
	return conversation.NewSQSQueue(sqsClient, cfg.ConversationQueueURL), nil
}

// ProcessorDeps collects everything a conversation processor needs.
type ProcessorDeps struct {
	Catalog             *catalog.Catalog
	Options             conversation.Options
	Sessions            session.Repository
	Gateway             conversation.Gateway
	Locker              session.Locker
	Deduper             conversation.Deduper
	Orders              conversation.OrderRecorder
	Observers           []conversation.TurnObserver
	MessagingMetrics    *metrics.MessagingMetrics
	ConversationMetrics *metrics.ConversationMetrics
	Logger              *logging.Logger
}

// BuildProcessor wires the engine, dispatcher and processor.
func BuildProcessor(deps ProcessorDeps) (*conversation.Processor, error) {
	if deps.Catalog == nil || deps.Sessions == nil || deps.Gateway == nil {
		return nil, fmt.Errorf("bootstrap: processor needs a catalog, sessions and a gateway")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}

	opts := []conversation.ProcessorOption{
		conversation.WithConversationMetrics(deps.ConversationMetrics),
	}
	if deps.Locker != nil {
		opts = append(opts, conversation.WithLocker(deps.Locker))
	}
	if deps.Deduper != nil {
		opts = append(opts, conversation.WithDeduper(deps.Deduper))
	}
	if deps.Orders != nil {
		opts = append(opts, conversation.WithOrderRecorder(deps.Orders))
	}
	if len(deps.Observers) > 0 {
		opts = append(opts, conversation.WithTurnObservers(deps.Observers...))
	}

	engine := conversation.NewEngine(deps.Catalog, deps.Options)
	dispatcher := conversation.NewDispatcher(deps.Gateway, logger, deps.MessagingMetrics)
	return conversation.NewProcessor(engine, deps.Sessions, dispatcher, logger, opts...), nil
}
