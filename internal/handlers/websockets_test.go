package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"observo/internal/models"

	"github.com/gorilla/websocket"
)

type envelope struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	return conn
}

func waitForCount(t *testing.T, env *testEnv, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Count() != want {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber count = %d, want %d", env.hub.Count(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocket_HandshakeThenNewLog(t *testing.T) {
	env := newTestEnv()
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env1 envelope
	if err := conn.ReadJSON(&env1); err != nil {
		t.Fatalf("read handshake: %v", err)
	}
	if env1.Type != models.EventConnected || env1.Message == "" {
		t.Fatalf("bad handshake: %+v", env1)
	}

	waitForCount(t, env, 1)
	rec := models.LogRecord{Level: models.LevelError, Message: "ERROR: disk full", Service: "unknown"}
	if n := env.hub.Broadcast(models.Event{Type: models.EventNewLog, Data: rec}); n != 1 {
		t.Fatalf("delivered = %d, want 1", n)
	}

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env2 envelope
	if err := conn.ReadJSON(&env2); err != nil {
		t.Fatalf("read newLog: %v", err)
	}
	if env2.Type != models.EventNewLog {
		t.Fatalf("type = %q, want newLog", env2.Type)
	}
	var got models.LogRecord
	if err := json.Unmarshal(env2.Data, &got); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if got.Message != "ERROR: disk full" {
		t.Fatalf("message = %q", got.Message)
	}
}

func TestWebSocket_DisconnectUnregisters(t *testing.T) {
	env := newTestEnv()
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn := dialWS(t, srv)
	waitForCount(t, env, 1)

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	_ = conn.Close()

	waitForCount(t, env, 0)
}
