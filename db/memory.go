package db

import (
	"context"
	"sync"
	"time"

	"xboard/models"
)

// MemoryStore is a process-local CacheStore.
// Entries are never evicted; a newer Set replaces an older one.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]models.CacheEntry
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock stamps ExpiresAt and CreatedAt using now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{data: make(map[string]models.CacheEntry), now: now}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*models.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, accounts []string, data models.TimelineResponse, ttl time.Duration) error {
	now := s.now()
	entry := models.CacheEntry{
		Key:       key,
		Data:      data,
		ExpiresAt: now.Add(ttl),
		Accounts:  append([]string(nil), accounts...),
		CreatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry
	return nil
}
