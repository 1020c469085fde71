package session

import (
	"context"
	"sync"
)

// MemoryStore keeps session records in process memory. Sessions last
// until the console restarts, which matches the tab-lifetime semantics
// of the admin UI in development setups.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Get returns the record for sid. Unknown sessions read as a zero
// Record, which downstream code treats as logged out.
func (m *MemoryStore) Get(_ context.Context, sid string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[sid], nil
}

// SetToken stores the bearer token for sid.
func (m *MemoryStore) SetToken(_ context.Context, sid, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.records[sid]
	rec.Token = token
	m.records[sid] = rec
	return nil
}

// ClearToken removes the bearer token, keeping the language preference.
func (m *MemoryStore) ClearToken(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.records[sid]
	rec.Token = ""
	m.records[sid] = rec
	return nil
}

// SetLanguage stores the operator's language preference.
func (m *MemoryStore) SetLanguage(_ context.Context, sid, lang string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.records[sid]
	rec.Language = lang
	m.records[sid] = rec
	return nil
}
