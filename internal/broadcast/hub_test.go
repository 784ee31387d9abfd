package broadcast

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"observo/internal/models"

	"github.com/gorilla/websocket"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	writeErr error
	closed   bool

	// gate, when set, blocks every text write until it is closed.
	gate    chan struct{}
	entered chan struct{}
	got     chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{got: make(chan struct{}, 64)}
}

func (c *fakeConn) WriteMessage(mt int, data []byte) error {
	if mt != websocket.TextMessage {
		return nil
	}
	if c.gate != nil {
		select {
		case c.entered <- struct{}{}:
		default:
		}
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.messages = append(c.messages, data)
	select {
	case c.got <- struct{}{}:
	default:
	}
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) events(t *testing.T) []models.Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Event, 0, len(c.messages))
	for _, m := range c.messages {
		var ev models.Event
		if err := json.Unmarshal(m, &ev); err != nil {
			t.Fatalf("bad message %s: %v", m, err)
		}
		out = append(out, ev)
	}
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_HandshakeThenEventsInOrder(t *testing.T) {
	h := NewHub(8, nil, nil)
	conn := newFakeConn()
	h.Register(conn)

	for i := 0; i < 3; i++ {
		h.Broadcast(models.Event{Type: models.EventNewLog, Data: map[string]int{"seq": i}})
	}
	waitFor(t, func() bool { return len(conn.events(t)) == 4 })

	evs := conn.events(t)
	if evs[0].Type != models.EventConnected || evs[0].Message != "Connected to Observo Log Service" {
		t.Fatalf("first message should be the handshake, got %+v", evs[0])
	}
	for i, ev := range evs[1:] {
		data := ev.Data.(map[string]any)
		if ev.Type != models.EventNewLog || data["seq"] != float64(i) {
			t.Fatalf("event %d out of order: %+v", i, ev)
		}
	}
	h.CloseAll()
}

func TestHub_BroadcastCountsOpenSubscribers(t *testing.T) {
	h := NewHub(8, nil, nil)
	conns := []*fakeConn{newFakeConn(), newFakeConn(), newFakeConn()}
	for _, c := range conns {
		h.Register(c)
	}

	if n := h.Broadcast(models.Event{Type: models.EventNewLog}); n != 3 {
		t.Fatalf("expected 3 deliveries, got %d", n)
	}
	if h.Count() != 3 {
		t.Fatalf("expected 3 subscribers, got %d", h.Count())
	}
	h.CloseAll()
	for i, c := range conns {
		if !c.isClosed() {
			t.Fatalf("conn %d not closed", i)
		}
	}
	if h.Count() != 0 {
		t.Fatalf("expected empty registry, got %d", h.Count())
	}
}

func TestHub_WriteFailureRemovesSubscriber(t *testing.T) {
	h := NewHub(8, nil, nil)
	bad := newFakeConn()
	bad.writeErr = errors.New("broken pipe")
	good := newFakeConn()
	h.Register(bad)
	h.Register(good)

	waitFor(t, func() bool { return h.Count() == 1 })
	waitFor(t, bad.isClosed)

	if n := h.Broadcast(models.Event{Type: models.EventNewLog}); n != 1 {
		t.Fatalf("expected 1 delivery after removal, got %d", n)
	}
	h.CloseAll()
}

func TestHub_FullQueueDropsSubscriber(t *testing.T) {
	h := NewHub(1, nil, nil)
	slow := newFakeConn()
	slow.gate = make(chan struct{})
	slow.entered = make(chan struct{}, 1)
	s := h.Register(slow)

	// writer is now blocked on the handshake; the queue is empty
	<-slow.entered

	if n := h.Broadcast(models.Event{Type: models.EventNewLog}); n != 1 {
		t.Fatalf("first broadcast should fit the queue, got %d", n)
	}
	if n := h.Broadcast(models.Event{Type: models.EventNewLog}); n != 0 {
		t.Fatalf("full subscriber must not be counted, got %d", n)
	}
	if h.Count() != 0 {
		t.Fatalf("slow subscriber should be removed, count=%d", h.Count())
	}
	select {
	case <-s.Done():
	default:
		t.Fatal("slow subscriber not marked done")
	}

	close(slow.gate)
	h.CloseAll()
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	h := NewHub(4, nil, nil)
	s := h.Register(newFakeConn())
	h.Unregister(s)
	h.Unregister(s)
	if h.Count() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", h.Count())
	}
	if n := h.Broadcast(models.Event{Type: models.EventNewLog}); n != 0 {
		t.Fatalf("expected no deliveries, got %d", n)
	}
	h.CloseAll()
}
