package idempotency

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	payload   []byte
	expiresAt time.Time
}

// InMemory is an in-memory idempotency record store for tests and local
// development. Expired records are dropped lazily on read.
type InMemory struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		records: make(map[string]memoryRecord),
		now:     time.Now,
	}
}

func (s *InMemory) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, false, nil
	}
	if s.now().After(rec.expiresAt) {
		delete(s.records, key)
		return nil, false, nil
	}
	return rec.payload, true, nil
}

func (s *InMemory) Put(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; ok {
		return nil
	}
	s.records[key] = memoryRecord{
		payload:   append([]byte(nil), payload...),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}
