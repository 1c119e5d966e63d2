package history

import (
	"context"
	"sync"
)

// MemoryBackend keeps records in process memory. Nothing survives a restart.
type MemoryBackend struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Read(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc, ok := b.docs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), doc...), nil
}

func (b *MemoryBackend) Write(_ context.Context, key string, doc []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[key] = append([]byte(nil), doc...)
	return nil
}
