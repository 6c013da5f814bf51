package resource

import (
	"context"
	"sort"
	"strings"
	"sync"

	"modgate/internal/moderation/models"
	id "modgate/pkg/domain"
	"modgate/pkg/platform/sentinel"
)

// InMemory implements the resource store with a mutex-guarded map. It is the
// default for tests and single-node development; production uses PostgresStore.
type InMemory struct {
	mu        sync.RWMutex
	resources map[id.ResourceID]*models.Resource
}

func NewInMemory() *InMemory {
	return &InMemory{resources: make(map[id.ResourceID]*models.Resource)}
}

// Create stores a new resource. Fails with sentinel.ErrConflict when the ID
// already exists.
func (s *InMemory) Create(_ context.Context, r *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.resources[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.resources[r.ID] = r.Clone()
	return nil
}

// FindByID returns a copy of the resource or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, resourceID id.ResourceID) (*models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.resources[resourceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// UpdateStatus persists a status change guarded by an optimistic version
// check: expectedVersion is the version the caller read before mutating.
// Returns sentinel.ErrConflict when a concurrent writer committed first.
func (s *InMemory) UpdateStatus(_ context.Context, r *models.Resource, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.resources[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	s.resources[r.ID] = r.Clone()
	return nil
}

// List returns one page of resources matching the filter, newest update
// first, plus the total match count before pagination.
func (s *InMemory) List(_ context.Context, f models.ResourceFilter) ([]*models.Resource, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var matched []*models.Resource
	for _, r := range s.resources {
		if r.Kind != f.Kind {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if !f.OwnerID.IsNil() && r.OwnerID != f.OwnerID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.Title), search) {
			continue
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		// Stable tiebreak so pagination never duplicates rows.
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := (f.Page - 1) * f.PageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}

	page := make([]*models.Resource, 0, end-start)
	for _, r := range matched[start:end] {
		page = append(page, r.Clone())
	}
	return page, total, nil
}
