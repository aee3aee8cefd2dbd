// Package cache is the terminal's durable local store: a small key-value
// layer holding the last known product list, settings document, pending
// offline orders and the signed-in staff member. It bootstraps state before
// the first network round trip completes and keeps the terminal usable
// through a full disconnection. It is never treated as more current than a
// live backend response.
package cache

import (
	"context"
	"errors"
	"sync"
)

// Slot names. One whole JSON value per slot, overwritten atomically.
const (
	KeyProducts    = "pos:products"
	KeySettings    = "pos:settings"
	KeyOfflineQue  = "pos:offline_orders"
	KeyActiveStaff = "pos:active_staff"
)

// ErrMiss is returned by Read when the key has never been written.
var ErrMiss = errors.New("cache: miss")

type Store interface {
	// Read unmarshals the value under key into dest, or returns ErrMiss.
	Read(ctx context.Context, key string, dest any) error
	// Write overwrites the whole value under key.
	Write(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process Store used in tests and as a degraded fallback
// when no Redis is reachable at startup (state then only survives the
// process, not a restart).
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory { return &Memory{data: make(map[string][]byte)} }

func (m *Memory) Read(_ context.Context, key string, dest any) error {
	m.mu.RLock()
	b, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return ErrMiss
	}
	return unmarshal(b, dest)
}

func (m *Memory) Write(_ context.Context, key string, value any) error {
	b, err := marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = b
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
