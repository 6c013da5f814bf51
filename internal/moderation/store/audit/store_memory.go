package audit

import (
	"context"
	"sync"

	"modgate/internal/moderation/models"
	id "modgate/pkg/domain"
)

// InMemory keeps the audit trail in per-resource append-only slices. There is
// deliberately no update or delete path; entries are immutable once appended.
type InMemory struct {
	mu      sync.RWMutex
	entries map[id.ResourceID][]models.AuditEntry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[id.ResourceID][]models.AuditEntry)}
}

func (s *InMemory) Append(_ context.Context, entry models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ResourceID] = append(s.entries[entry.ResourceID], entry)
	return nil
}

// ListByResource returns the trail for one resource, oldest first.
func (s *InMemory) ListByResource(_ context.Context, resourceID id.ResourceID) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditEntry(nil), s.entries[resourceID]...), nil
}
