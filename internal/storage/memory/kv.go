package memory

import (
	"context"
	"sync"

	"github.com/hongminglow/finanzas-be/internal/storage"
)

var _ storage.KeyValueStore = (*KV)(nil)

// KV is a map-backed key-value store used for ephemeral sessions and tests.
type KV struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewKV returns an empty store.
func NewKV() *KV {
	return &KV{m: make(map[string]string)}
}

func (k *KV) Get(_ context.Context, key string) (string, bool, error) {
	k.mu.RLock()
	v, ok := k.m[key]
	k.mu.RUnlock()
	return v, ok, nil
}

func (k *KV) PutAll(_ context.Context, values map[string]string) error {
	k.mu.Lock()
	for key, v := range values {
		k.m[key] = v
	}
	k.mu.Unlock()
	return nil
}

func (k *KV) Clear(_ context.Context) error {
	k.mu.Lock()
	k.m = make(map[string]string)
	k.mu.Unlock()
	return nil
}
