// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"sync"
	"time"
)

// Memory is an in-process Backend backed by a map. Payloads are copied on
// the way in and out so callers cannot mutate stored entries.
// Per prd002-caching R5.2.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(fingerprint string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[fingerprint]
	if !ok {
		return Entry{}, false, nil
	}
	e.Payload = append([]byte(nil), e.Payload...)
	return e, true, nil
}

func (m *Memory) Put(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Payload = append([]byte(nil), e.Payload...)
	m.entries[e.Fingerprint] = e
	return nil
}

func (m *Memory) Delete(fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, fingerprint)
	return nil
}

func (m *Memory) Len() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *Memory) Sweep(now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for fp, e := range m.entries {
		if e.Expired(now) {
			delete(m.entries, fp)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) Clear() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	m.entries = make(map[string]Entry)
	return n, nil
}
