package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is a process-local LRU with per-entry expiry.
type Memory struct {
	mu  sync.Mutex // makes the check and insert in Add atomic against Invalidate
	lru *expirable.LRU[string, string]
}

// NewMemory returns a cache holding at most size entries for ttl each.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = 10000
	}
	return &Memory{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, code string) (string, bool) {
	v, ok := m.lru.Get(code)
	if !ok || v == tombstone {
		return "", false
	}
	return v, true
}

func (m *Memory) Add(_ context.Context, code, originalURL string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lru.Peek(code); ok {
		return false
	}
	m.lru.Add(code, originalURL)
	return true
}

func (m *Memory) Invalidate(_ context.Context, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Add(code, tombstone)
}

func (m *Memory) Len() int {
	return m.lru.Len()
}
