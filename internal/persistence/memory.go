package persistence

import (
	"sync"

	"github.com/suderio/werewolf-arena/internal/engine"
)

// MemoryStore keeps the history in memory. It is the default for sessions
// that do not ask for durability.
type MemoryStore struct {
	mu      sync.Mutex
	entries []engine.HistoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(entry engine.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryStore) Load() ([]engine.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]engine.HistoryEntry(nil), m.entries...), nil
}

func (m *MemoryStore) Close() error { return nil }
