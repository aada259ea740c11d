package memory

import (
	"context"
	"sync"

	"etiket/internal/history"
)

// KV is a process-local key-value store.
type KV struct {
	mu    sync.Mutex
	items map[string][]byte
}

var _ history.KV = (*KV)(nil)

func New() *KV {
	return &KV{items: make(map[string][]byte)}
}

// NewWithValue returns a store pre-seeded with one key.
func NewWithValue(key string, value []byte) *KV {
	kv := New()
	kv.items[key] = append([]byte(nil), value...)
	return kv
}

func (m *KV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *KV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), value...)
	return nil
}

func (m *KV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Update implements history.KV
func (m *KV) Update(_ context.Context, key string, fn history.UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, found := m.items[key]
	next, err := fn(append([]byte(nil), old...), found)
	if err != nil {
		return err
	}
	if next == nil {
		delete(m.items, key)
		return nil
	}
	m.items[key] = append([]byte(nil), next...)
	return nil
}
