// Package store provides an in-memory DocumentStore.
package store

import (
	"context"
	"sync"

	"github.com/warp/points-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	documents map[ledger.Collection][]byte
}

func NewMemory() *Memory {
	return &Memory{documents: make(map[ledger.Collection][]byte)}
}

// Load returns a copy of the stored document, or nil if it was never saved.
func (m *Memory) Load(_ context.Context, c ledger.Collection) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.documents[c]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), doc...), nil
}

// Save replaces the stored document with a copy of document.
func (m *Memory) Save(_ context.Context, c ledger.Collection, document []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.documents[c] = append([]byte(nil), document...)
	return nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.documents = make(map[ledger.Collection][]byte)
	return nil
}

// Put stores raw content without going through Collections, so tests can
// plant blank or corrupt documents.
func (m *Memory) Put(c ledger.Collection, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[c] = []byte(raw)
}

// Snapshot returns a copy of every stored document.
func (m *Memory) Snapshot() map[ledger.Collection]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[ledger.Collection]string, len(m.documents))
	for c, doc := range m.documents {
		out[c] = string(doc)
	}
	return out
}
