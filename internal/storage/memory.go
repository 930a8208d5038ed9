package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/encodex/internal/common"
)

// MemoryStore keeps everything in a map guarded by a RWMutex.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return listKeys(m.data, nil, prefix), nil
}

// Atomic holds the write lock for the duration of fn and stages its writes
// in an overlay that is applied only when fn succeeds.
func (m *MemoryStore) Atomic(ctx context.Context, fn func(ctx context.Context, kv KV) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{base: m.data, staged: make(map[string][]byte), deleted: make(map[string]struct{})}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for k := range tx.deleted {
		delete(m.data, k)
	}
	for k, v := range tx.staged {
		m.data[k] = v
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// memoryTx is only used while MemoryStore.mu is held.
type memoryTx struct {
	base    map[string][]byte
	staged  map[string][]byte
	deleted map[string]struct{}
}

func (t *memoryTx) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := t.staged[key]; ok {
		return append([]byte(nil), v...), nil
	}
	if _, gone := t.deleted[key]; gone {
		return nil, common.ErrNotFound
	}
	v, ok := t.base[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (t *memoryTx) Put(_ context.Context, key string, value []byte) error {
	delete(t.deleted, key)
	t.staged[key] = append([]byte(nil), value...)
	return nil
}

func (t *memoryTx) Delete(_ context.Context, key string) error {
	delete(t.staged, key)
	t.deleted[key] = struct{}{}
	return nil
}

func (t *memoryTx) List(_ context.Context, prefix string) ([]string, error) {
	merged := make(map[string][]byte, len(t.base)+len(t.staged))
	for k, v := range t.base {
		if _, gone := t.deleted[k]; !gone {
			merged[k] = v
		}
	}
	return listKeys(merged, t.staged, prefix), nil
}

func listKeys(a, b map[string][]byte, prefix string) []string {
	seen := make(map[string]struct{})
	keys := make([]string, 0)
	for _, m := range []map[string][]byte{a, b} {
		for k := range m {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
