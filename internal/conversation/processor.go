package conversation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/pharmacare-bot/internal/observability/metrics"
	"github.com/wolfman30/pharmacare-bot/internal/orders"
	"github.com/wolfman30/pharmacare-bot/internal/session"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

const dedupProvider = "whatsapp"

// Deduper remembers handled message ids. MarkProcessed returns false when the
// id was already recorded.
type Deduper interface {
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// OrderRecorder persists orders placed during a turn.
type OrderRecorder interface {
	Record(ctx context.Context, order orders.Order) error
}

// TurnEvent describes one completed turn for audit and live views.
type TurnEvent struct {
	UserID     string        `json:"user_id"`
	MessageID  string        `json:"message_id"`
	Kind       Kind          `json:"interaction_kind"`
	Action     string        `json:"action"`
	FromState  session.State `json:"from_state"`
	ToState    session.State `json:"to_state"`
	Cart       []string      `json:"cart"`
	OrderID    string        `json:"order_id,omitempty"`
	Directives int           `json:"directives"`
	Sent       int           `json:"sent"`
	Failed     int           `json:"failed"`
	At         time.Time     `json:"at"`
}

// TurnObserver is notified after every processed turn. Implementations must
// not block for long; they run on the worker goroutine.
type TurnObserver interface {
	ObserveTurn(ctx context.Context, evt TurnEvent)
}

// Processor runs the full pipeline for one interaction: dedup, access gate,
// per-user lock, session read, decision, session write, order recording,
// dispatch and observers.
type Processor struct {
	engine     *Engine
	sessions   session.Repository
	dispatcher *Dispatcher
	locker     session.Locker
	dedup      Deduper
	orders     OrderRecorder
	observers  []TurnObserver
	metrics    *metrics.ConversationMetrics
	logger     *logging.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

func WithLocker(l session.Locker) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.locker = l
		}
	}
}

func WithDeduper(d Deduper) ProcessorOption {
	return func(p *Processor) {
		p.dedup = d
	}
}

func WithOrderRecorder(r OrderRecorder) ProcessorOption {
	return func(p *Processor) {
		p.orders = r
	}
}

// WithTurnObservers appends observers; nil entries are ignored.
func WithTurnObservers(observers ...TurnObserver) ProcessorOption {
	return func(p *Processor) {
		for _, o := range observers {
			if o != nil {
				p.observers = append(p.observers, o)
			}
		}
	}
}

func WithConversationMetrics(m *metrics.ConversationMetrics) ProcessorOption {
	return func(p *Processor) {
		p.metrics = m
	}
}

func NewProcessor(engine *Engine, sessions session.Repository, dispatcher *Dispatcher, logger *logging.Logger, opts ...ProcessorOption) *Processor {
	if engine == nil {
		panic("conversation: engine cannot be nil")
	}
	if sessions == nil {
		panic("conversation: session repository cannot be nil")
	}
	if dispatcher == nil {
		panic("conversation: dispatcher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	p := &Processor{
		engine:     engine,
		sessions:   sessions,
		dispatcher: dispatcher,
		locker:     session.NewLocalLocker(),
		logger:     logger,
		tracer:     otel.Tracer("pharmacare.internal.conversation"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process handles one interaction. Gateway failures are absorbed by the
// dispatcher; the returned error reports session store or lock failures
// after the user has been sent the recovery menu.
func (p *Processor) Process(ctx context.Context, in Interaction) error {
	started := p.now()
	ctx, span := p.tracer.Start(ctx, "conversation.process", trace.WithAttributes(
		attribute.String("pharmacare.whatsapp.message_id", in.MessageID),
		attribute.String("pharmacare.interaction.kind", string(in.Kind)),
	))
	defer span.End()

	if in.From == "" {
		p.logger.Warn("dropping interaction without sender", "message_id", in.MessageID)
		return nil
	}

	if p.dedup != nil && in.MessageID != "" {
		fresh, err := p.dedup.MarkProcessed(ctx, dedupProvider, in.MessageID)
		if err != nil {
			// process anyway; a duplicate reply beats a lost one
			p.logger.Warn("dedup check failed", "error", err, "message_id", in.MessageID)
		} else if !fresh {
			p.metrics.ObserveDuplicate()
			p.logger.Info("skipping duplicate whatsapp message", "message_id", in.MessageID, "from", in.From)
			return nil
		}
	}

	if !p.engine.catalog.IsKnownCustomer(in.From) {
		p.metrics.ObserveRejected()
		p.logger.Info("rejecting unregistered sender", "from", in.From)
		p.dispatcher.Dispatch(ctx, in.From, []Directive{p.engine.Rejection()})
		return nil
	}

	unlock, err := p.locker.Lock(ctx, in.From)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: lock %s: %w", in.From, err)
	}
	defer unlock()

	current, err := p.sessions.Get(ctx, in.From)
	if err != nil {
		return p.recover(ctx, span, in, fmt.Errorf("conversation: load session: %w", err))
	}

	decision := p.engine.Decide(current, in)
	if decision.ClearCart {
		if err := p.sessions.ClearCart(ctx, in.From); err != nil {
			return p.recover(ctx, span, in, fmt.Errorf("conversation: clear cart: %w", err))
		}
	}
	updated, err := p.sessions.Update(ctx, in.From, decision.Patch)
	if err != nil {
		return p.recover(ctx, span, in, fmt.Errorf("conversation: save session: %w", err))
	}

	orderID := ""
	if decision.Order != nil {
		orderID = decision.Order.ID
		p.metrics.ObserveOrder(decision.Order.PaymentMethod, decision.Order.Total.Float())
		if p.orders != nil {
			if err := p.orders.Record(ctx, *decision.Order); err != nil {
				span.RecordError(err)
				p.logger.Error("failed to record order", "error", err, "order_id", orderID, "from", in.From)
			}
		}
	}

	report := p.dispatcher.Dispatch(ctx, in.From, decision.Messages)

	span.SetAttributes(
		attribute.String("pharmacare.conversation.action", decision.Action.Kind.String()),
		attribute.String("pharmacare.conversation.state", string(updated.State)),
	)
	p.metrics.ObserveTurn(decision.Action.Kind.String(), string(current.State), string(updated.State),
		p.now().Sub(started).Seconds())
	p.logger.Info("conversation turn processed",
		"from", in.From,
		"message_id", in.MessageID,
		"action", decision.Action.Kind.String(),
		"from_state", current.State,
		"to_state", updated.State,
		"cart_size", len(updated.Cart),
		"sent", report.Sent,
		"failed", report.Failed,
	)

	evt := TurnEvent{
		UserID:     in.From,
		MessageID:  in.MessageID,
		Kind:       in.Kind,
		Action:     decision.Action.Kind.String(),
		FromState:  current.State,
		ToState:    updated.State,
		Cart:       append([]string{}, updated.Cart...),
		OrderID:    orderID,
		Directives: len(decision.Messages),
		Sent:       report.Sent,
		Failed:     report.Failed,
		At:         updated.LastInteractionAt,
	}
	for _, o := range p.observers {
		o.ObserveTurn(ctx, evt)
	}
	return nil
}

func (p *Processor) recover(ctx context.Context, span trace.Span, in Interaction, err error) error {
	span.RecordError(err)
	p.logger.Error("conversation turn failed", "error", err, "from", in.From, "message_id", in.MessageID)
	p.dispatcher.Dispatch(ctx, in.From, p.engine.Recovery())
	return err
}
