package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHub_GreetingOrderedWithBroadcasts(t *testing.T) {
	var h *Hub
	h = NewHub(nil, func(join func(Message)) error {
		join(Message{Type: MessageState, Message: "greeting"})
		h.Broadcast(Message{Type: MessageState, Message: "newer"})
		return nil
	})

	// queued before the client joins, must never reach it
	h.Broadcast(Message{Type: MessageState, Message: "older"})

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	go h.Run(ctx)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for _, want := range []string{"greeting", "newer"} {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read %q: %v", want, err)
		}
		if msg.Message != want {
			t.Fatalf("message = %q, want %q", msg.Message, want)
		}
	}
}

func TestHub_AlertAfterGreeting(t *testing.T) {
	h := NewHub(nil, func(join func(Message)) error {
		join(Message{Type: MessageState})
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	h.Alert("dataset unavailable")

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for _, want := range []string{MessageState, MessageAlert} {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read %s: %v", want, err)
		}
		if msg.Type != want {
			t.Fatalf("type = %q, want %q", msg.Type, want)
		}
	}
}
