package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T, handler func(ctx context.Context, c *Client, msg *Message)) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := NewHub()
	go h.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(h, conn)
		h.Register(client)
		go client.WritePump()
		client.ReadPump(ctx, handler)
	}))
	t.Cleanup(srv.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return msg
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcast(t *testing.T) {
	h, url := startHub(t, func(context.Context, *Client, *Message) {})
	a, b := dial(t, url), dial(t, url)
	waitForClients(t, h, 2)

	if err := h.Emit(MsgTypeMediaPlayerInfo, map[string]any{"status": "playing"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if msg.Type != MsgTypeMediaPlayerInfo {
			t.Errorf("type = %q", msg.Type)
		}
		if !strings.Contains(string(msg.Data), `"playing"`) {
			t.Errorf("data = %s", msg.Data)
		}
		if msg.Timestamp == 0 {
			t.Error("missing timestamp")
		}
	}
}

func TestLastMessageReplayed(t *testing.T) {
	h, url := startHub(t, func(context.Context, *Client, *Message) {})
	first := dial(t, url)
	waitForClients(t, h, 1)

	h.Emit(MsgTypeMediaPlayerInfo, map[string]any{"volume": 12})
	readMessage(t, first)

	late := dial(t, url)
	msg := readMessage(t, late)
	if !strings.Contains(string(msg.Data), `"volume":12`) {
		t.Errorf("replayed data = %s", msg.Data)
	}
}

func TestPingAndHandler(t *testing.T) {
	got := make(chan *Message, 1)
	h, url := startHub(t, func(ctx context.Context, c *Client, msg *Message) {
		got <- msg
	})
	conn := dial(t, url)
	waitForClients(t, h, 1)

	conn.WriteJSON(Message{Type: MsgTypePing})
	if msg := readMessage(t, conn); msg.Type != MsgTypePong {
		t.Errorf("reply type = %q, want pong", msg.Type)
	}

	conn.WriteJSON(Message{Type: MsgTypeCommand, Data: json.RawMessage(`{"action":"next"}`)})
	select {
	case msg := <-got:
		if msg.Type != MsgTypeCommand || string(msg.Data) != `{"action":"next"}` {
			t.Errorf("handler got %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
}

func TestUnregisterOnClose(t *testing.T) {
	h, url := startHub(t, func(context.Context, *Client, *Message) {})
	conn := dial(t, url)
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)
}

func TestRegisterAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	client := &Client{ID: "late", Hub: h, Send: make(chan []byte, 1)}
	h.Register(client)
	h.Broadcast([]byte("x"))
	if client.trySend([]byte("y")) {
		t.Error("client accepted a message after the hub stopped")
	}
}
