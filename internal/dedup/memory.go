package dedup

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is a TTL-bound LRU of seen keys.
type Memory struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	now   func() time.Time
	ll    *list.List // most recent at front
	items map[string]*list.Element
}

type entry struct {
	key string
	exp time.Time
}

func NewMemory(maxKeys int, ttl time.Duration) *Memory {
	if maxKeys <= 0 {
		maxKeys = 100000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Memory{
		cap:   maxKeys,
		ttl:   ttl,
		now:   time.Now,
		ll:    list.New(),
		items: make(map[string]*list.Element),
	}
}

func (m *Memory) Seen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return false, nil
	}
	if m.now().Before(el.Value.(entry).exp) {
		m.ll.MoveToFront(el)
		return true, nil
	}
	m.ll.Remove(el)
	delete(m.items, key)
	return false, nil
}

func (m *Memory) Mark(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp := m.now().Add(m.ttl)
	if el, ok := m.items[key]; ok {
		el.Value = entry{key: key, exp: exp}
		m.ll.MoveToFront(el)
		return nil
	}
	m.items[key] = m.ll.PushFront(entry{key: key, exp: exp})

	for m.ll.Len() > m.cap {
		m.evict(m.ll.Back())
	}
	// drop expired entries from the tail
	for tail := m.ll.Back(); tail != nil && !m.now().Before(tail.Value.(entry).exp); tail = m.ll.Back() {
		m.evict(tail)
	}
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ll.Len()
}

func (m *Memory) Close() error { return nil }

func (m *Memory) evict(el *list.Element) {
	if el == nil {
		return
	}
	m.ll.Remove(el)
	delete(m.items, el.Value.(entry).key)
}
