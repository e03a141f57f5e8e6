package conversation

import (
	"context"
	"fmt"

	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

// Publisher enqueues inbound interactions for the worker pool.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue Queue, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		queue:  queue,
		logger: logger,
	}
}

// Enqueue publishes one interaction. The job id reuses the WhatsApp message
// id when there is one so logs on both sides line up.
func (p *Publisher) Enqueue(ctx context.Context, in Interaction) error {
	if ctx == nil {
		ctx = context.Background()
	}

	payload, body, err := encodePayload(queuePayload{
		ID:          in.MessageID,
		Kind:        jobTypeInteraction,
		Interaction: in,
	})
	if err != nil {
		return err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("conversation: failed to enqueue interaction: %w", err)
	}

	p.logger.Debug("interaction enqueued", "job_id", payload.ID, "from", in.From, "kind", in.Kind)
	return nil
}
