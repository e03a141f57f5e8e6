package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

func TestWorkerProcessesInteractions(t *testing.T) {
	queue := newScriptedQueue()
	processor := &recordingProcessor{}
	worker := NewWorker(processor, queue, logging.Default(), WithWorkerCount(1), WithReceiveBatchSize(1), WithReceiveWaitSeconds(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	body, _ := json.Marshal(queuePayload{
		ID:          "wamid.1",
		Kind:        jobTypeInteraction,
		Interaction: Interaction{MessageID: "wamid.1", From: customerPhone, Kind: KindButton, ReplyID: "view_cart"},
	})
	queue.enqueue(queueMessage{ID: "msg-1", Body: string(body), ReceiptHandle: "rh-1"})

	waitFor(func() bool { return processor.count() > 0 }, time.Second, t)
	waitFor(func() bool { return queue.deletedCount() == 1 }, time.Second, t)

	cancel()
	worker.Wait()

	got := processor.last()
	if got.ReplyID != "view_cart" || got.From != customerPhone {
		t.Fatalf("unexpected interaction %+v", got)
	}
}

func TestWorkerDeletesFailedJobs(t *testing.T) {
	queue := newScriptedQueue()
	processor := &recordingProcessor{err: errors.New("boom")}
	worker := NewWorker(processor, queue, logging.Default(), WithWorkerCount(1), WithReceiveWaitSeconds(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	body, _ := json.Marshal(queuePayload{ID: "job", Kind: jobTypeInteraction, Interaction: Interaction{From: customerPhone}})
	queue.enqueue(queueMessage{ID: "msg-2", Body: string(body), ReceiptHandle: "rh-2"})

	waitFor(func() bool { return queue.deletedCount() == 1 }, time.Second, t)
	cancel()
	worker.Wait()
}

func TestWorkerSkipsMalformedPayload(t *testing.T) {
	queue := newScriptedQueue()
	processor := &recordingProcessor{}
	worker := NewWorker(processor, queue, logging.Default(), WithWorkerCount(1), WithReceiveWaitSeconds(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	queue.enqueue(queueMessage{ID: "bad", Body: "{not-json", ReceiptHandle: "rh-bad"})
	unknown, _ := json.Marshal(queuePayload{ID: "job", Kind: "payment"})
	queue.enqueue(queueMessage{ID: "other", Body: string(unknown), ReceiptHandle: "rh-other"})

	waitFor(func() bool { return queue.deletedCount() == 2 }, time.Second, t)
	cancel()
	worker.Wait()

	if processor.count() != 0 {
		t.Fatalf("expected no processing, got %d", processor.count())
	}
}

func TestWorkerConfigOptions(t *testing.T) {
	worker := NewWorker(&recordingProcessor{}, newScriptedQueue(), nil,
		WithWorkerCount(4),
		WithReceiveWaitSeconds(60),
		WithReceiveBatchSize(50),
	)
	if worker.cfg.workers != 4 {
		t.Fatalf("expected 4 workers, got %d", worker.cfg.workers)
	}
	if worker.cfg.receiveWaitSecs != maxWaitSeconds {
		t.Fatalf("expected wait clamp to %d, got %d", maxWaitSeconds, worker.cfg.receiveWaitSecs)
	}
	if worker.cfg.receiveBatchSize != maxReceiveBatchSize {
		t.Fatalf("expected batch clamp to %d, got %d", maxReceiveBatchSize, worker.cfg.receiveBatchSize)
	}

	defaults := NewWorker(&recordingProcessor{}, newScriptedQueue(), nil, WithWorkerCount(0), WithReceiveBatchSize(-1))
	if defaults.cfg.workers != defaultWorkerCount || defaults.cfg.receiveBatchSize != defaultBatchSize {
		t.Fatalf("invalid options should keep defaults, got %+v", defaults.cfg)
	}
}

type recordingProcessor struct {
	mu    sync.Mutex
	calls []Interaction
	err   error
}

func (r *recordingProcessor) Process(_ context.Context, in Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, in)
	return r.err
}

func (r *recordingProcessor) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingProcessor) last() Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

type scriptedQueue struct {
	ch       chan queueMessage
	deleted  int
	delMutex sync.Mutex
}

func newScriptedQueue() *scriptedQueue {
	return &scriptedQueue{
		ch: make(chan queueMessage, 10),
	}
}

func (s *scriptedQueue) enqueue(msg queueMessage) {
	s.ch <- msg
}

func (s *scriptedQueue) Send(ctx context.Context, body string) error {
	return nil
}

func (s *scriptedQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg := <-s.ch:
		return []queueMessage{msg}, nil
	case <-time.After(50 * time.Millisecond):
		return nil, nil
	}
}

func (s *scriptedQueue) Delete(ctx context.Context, receiptHandle string) error {
	s.delMutex.Lock()
	s.deleted++
	s.delMutex.Unlock()
	return nil
}

func (s *scriptedQueue) deletedCount() int {
	s.delMutex.Lock()
	defer s.delMutex.Unlock()
	return s.deleted
}

func waitFor(cond func() bool, timeout time.Duration, t *testing.T) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
