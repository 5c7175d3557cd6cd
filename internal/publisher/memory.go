package publisher

import (
	"context"
	"fmt"
	"sync"
)

// MemoryProvider stores published payloads for inspection in tests.
type MemoryProvider struct {
	mu       sync.RWMutex
	payloads []any
}

// NewMemoryProvider returns an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{}
}

// Publish records the payload and returns a pseudo ID.
func (m *MemoryProvider) Publish(_ context.Context, payload any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	return fmt.Sprintf("memory-%d", len(m.payloads)), nil
}

// Payloads returns a copy of the recorded payloads.
func (m *MemoryProvider) Payloads() []any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]any, len(m.payloads))
	copy(out, m.payloads)
	return out
}

// Close does nothing.
func (m *MemoryProvider) Close() error { return nil }
