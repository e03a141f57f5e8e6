package livefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/pharmacare-bot/internal/conversation"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/live" + query
	conn, err := websocket.Dial(url, "", srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var hello Message
	if err := websocket.JSON.Receive(conn, &hello); err != nil || hello.Type != "hello" {
		t.Fatalf("expected hello, got %+v err=%v", hello, err)
	}
	return conn
}

func receive(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := websocket.JSON.Receive(conn, &msg); err != nil {
		t.Fatalf("receive: %v", err)
	}
	return msg
}

func TestHubStreamsTurns(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv, "")
	if hub.Subscribers() != 1 {
		t.Fatalf("expected one subscriber, got %d", hub.Subscribers())
	}

	hub.ObserveTurn(context.Background(), conversation.TurnEvent{UserID: "919672618163", Action: "view_cart"})
	msg := receive(t, conn)
	if msg.Type != "turn" || msg.Turn == nil || msg.Turn.Action != "view_cart" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestHubFiltersByUser(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv, "?user=919672618163")

	hub.ObserveTurn(context.Background(), conversation.TurnEvent{UserID: "15550001111", Action: "show_menu"})
	hub.ObserveTurn(context.Background(), conversation.TurnEvent{UserID: "919672618163", Action: "payment_cod"})

	msg := receive(t, conn)
	if msg.Turn == nil || msg.Turn.UserID != "919672618163" {
		t.Fatalf("expected only the filtered user's turn, got %+v", msg)
	}
}

func TestHubAnswersPing(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv, "")
	if err := websocket.JSON.Send(conn, map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("send ping: %v", err)
	}
	if msg := receive(t, conn); msg.Type != "pong" {
		t.Fatalf("expected pong, got %+v", msg)
	}
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	hub := NewHub(nil)
	hub.buffer = 1
	sub := hub.subscribe("")
	defer hub.unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			hub.ObserveTurn(context.Background(), conversation.TurnEvent{UserID: "u"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ObserveTurn blocked on a full subscriber")
	}
	if len(sub.ch) != 1 {
		t.Fatalf("expected the buffer to hold one event, got %d", len(sub.ch))
	}
}

func TestHubUnsubscribesOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv, "")
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber not removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
