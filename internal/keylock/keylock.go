// Package keylock serializes work per key. Callers holding different keys
// never block each other.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Map hands out one mutex per key and forgets it once no caller holds or
// waits for it.
type Map struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty lock map.
func New() *Map {
	return &Map{entries: make(map[string]*entry)}
}

// WithLock runs fn while holding the lock for key and returns its error.
func (m *Map) WithLock(key string, fn func() error) error {
	e := m.acquire(key)
	defer m.release(key, e)
	return fn()
}

// Len returns the number of keys currently held or awaited.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Map) acquire(key string) *entry {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	return e
}

func (m *Map) release(key string, e *entry) {
	e.mu.Unlock()

	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}
