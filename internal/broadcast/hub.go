// Package broadcast fans realtime events out to websocket subscribers.
// Every subscriber owns a bounded queue drained by a single writer
// goroutine, so a slow client never stalls ingestion.
package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"observo/internal/logger"
	"observo/internal/metrics"
	"observo/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// PongWait is how long a reader may wait for the next pong.
	PongWait = pongWait

	defaultSendBuffer = 256
	connectedMessage  = "Connected to Observo Log Service"
)

// Conn is the write side of a websocket connection. *websocket.Conn
// satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Subscriber struct {
	ID string

	conn      Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Done is closed once the subscriber has been unregistered.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	buffer int
	wg     sync.WaitGroup

	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewHub(buffer int, log *logger.Logger, m *metrics.Metrics) *Hub {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		subs:    make(map[*Subscriber]struct{}),
		buffer:  buffer,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// Register adds conn to the registry and starts its writer. The
// "connected" handshake is always the first message the client receives.
func (h *Hub) Register(conn Conn) *Subscriber {
	s := &Subscriber{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.buffer),
		done: make(chan struct{}),
	}
	if b, err := json.Marshal(models.Event{
		Type:      models.EventConnected,
		Message:   connectedMessage,
		Timestamp: h.now().UTC(),
	}); err == nil {
		s.send <- b
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	h.metrics.SetSubscribers(n)
	h.log.Infow("subscriber_connected", "id", s.ID, "subscribers", n)

	h.wg.Add(1)
	go h.writeLoop(s)
	return s
}

// Unregister removes s and stops its writer. Safe to call more than once.
func (h *Hub) Unregister(s *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()

	s.closeOnce.Do(func() { close(s.done) })
	if ok {
		h.metrics.SetSubscribers(n)
		h.log.Infow("subscriber_disconnected", "id", s.ID, "subscribers", n)
	}
}

// Broadcast enqueues ev to every subscriber and returns how many accepted
// it. Subscribers whose queue is full are dropped.
func (h *Hub) Broadcast(ev models.Event) int {
	b, err := json.Marshal(ev)
	if err != nil {
		h.log.Errorw("broadcast_marshal_failed", "type", ev.Type, "error", err)
		return 0
	}

	var (
		delivered int
		slow      []*Subscriber
	)
	h.mu.RLock()
	for s := range h.subs {
		select {
		case <-s.done:
			continue
		default:
		}
		select {
		case s.send <- b:
			delivered++
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.log.Warnw("subscriber_dropped", "id", s.ID, "reason", "send queue full")
		h.Unregister(s)
	}
	h.metrics.BroadcastDelivered(delivered)
	return delivered
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// CloseAll unregisters every subscriber and waits for the writers to
// close their connections.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	all := make([]*Subscriber, 0, len(h.subs))
	for s := range h.subs {
		all = append(all, s)
	}
	h.mu.RUnlock()

	for _, s := range all {
		h.Unregister(s)
	}
	h.wg.Wait()
}

func (h *Hub) writeLoop(s *Subscriber) {
	defer h.wg.Done()
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(h.now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscriber closed"))
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(h.now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Infow("ws_write_failed", "id", s.ID, "err", err)
				h.Unregister(s)
				return
			}
		case <-ping.C:
			_ = s.conn.SetWriteDeadline(h.now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Infow("ws_ping_failed", "id", s.ID, "err", err)
				h.Unregister(s)
				return
			}
		}
	}
}
