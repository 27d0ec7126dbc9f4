package storage

import (
	"context"
	"sync"
)

// MemoryTier is the ephemeral in-process fallback tier. Contents do not
// survive a process restart; that is a documented limitation, not a bug.
type MemoryTier struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryTier() *MemoryTier {
	return &MemoryTier{data: make(map[string]string)}
}

func (t *MemoryTier) Put(ctx context.Context, key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[key] = value
	return nil
}

func (t *MemoryTier) Get(ctx context.Context, key string) (string, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	value, ok := t.data[key]
	return value, ok, nil
}

func (t *MemoryTier) Remove(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.data, key)
	return nil
}

func (t *MemoryTier) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = make(map[string]string)
	return nil
}
