// Package livefeed streams processed conversation turns to admin dashboards
// over WebSocket.
package livefeed

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/pharmacare-bot/internal/conversation"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

const defaultBuffer = 64

// Message is what the feed sends to a dashboard.
type Message struct {
	Type      string                  `json:"type"` // "hello", "turn", "pong"
	Turn      *conversation.TurnEvent `json:"turn,omitempty"`
	Timestamp string                  `json:"timestamp,omitempty"`
}

type inbound struct {
	Type string `json:"type"`
}

type subscriber struct {
	user string
	ch   chan conversation.TurnEvent
}

// Hub fans turn events out to connected dashboards. Slow subscribers lose
// events instead of stalling the worker.
type Hub struct {
	logger *logging.Logger
	buffer int

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{logger: logger, buffer: defaultBuffer, subs: make(map[*subscriber]struct{})}
}

// ObserveTurn broadcasts evt to every matching subscriber without blocking.
func (h *Hub) ObserveTurn(_ context.Context, evt conversation.TurnEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if sub.user != "" && sub.user != evt.UserID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			h.logger.Debug("livefeed: subscriber lagging, dropping turn", "message_id", evt.MessageID)
		}
	}
}

// Subscribers reports the number of connected dashboards.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) subscribe(user string) *subscriber {
	sub := &subscriber{user: user, ch: make(chan conversation.TurnEvent, h.buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// HandleWebSocket upgrades the request and streams turns until the client
// disconnects. ?user=<phone> restricts the feed to one customer.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Hub) serveWS(conn *websocket.Conn, r *http.Request) {
	// clear the server's read/write timeouts inherited by the hijacked conn
	_ = conn.SetDeadline(time.Time{})

	user := strings.TrimSpace(r.URL.Query().Get("user"))
	sub := h.subscribe(user)
	defer h.unsubscribe(sub)

	if err := websocket.JSON.Send(conn, Message{Type: "hello", Timestamp: now()}); err != nil {
		return
	}
	h.logger.Info("livefeed: dashboard connected", "user_filter", user)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var msg inbound
			if err := websocket.JSON.Receive(conn, &msg); err != nil {
				return
			}
			if msg.Type == "ping" {
				_ = websocket.JSON.Send(conn, Message{Type: "pong", Timestamp: now()})
			}
		}
	}()

	for {
		select {
		case <-closed:
			h.logger.Debug("livefeed: dashboard disconnected", "user_filter", user)
			return
		case <-r.Context().Done():
			return
		case evt := <-sub.ch:
			if err := websocket.JSON.Send(conn, Message{Type: "turn", Turn: &evt, Timestamp: now()}); err != nil {
				return
			}
		}
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

var _ conversation.TurnObserver = (*Hub)(nil)
