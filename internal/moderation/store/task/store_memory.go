package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"modgate/internal/moderation/models"
	id "modgate/pkg/domain"
	"modgate/pkg/platform/sentinel"
)

// claimLease is how long a claimed task stays invisible to other workers
// before it becomes claimable again. Generous relative to the per-attempt
// delivery timeout; a crashed worker's task resurfaces after the lease.
const claimLease = 2 * time.Minute

// InMemory implements the notification task queue with a mutex-guarded map.
// Claiming hides a task behind a lease rather than a dedicated state so the
// delivery state set stays closed (queued, sent, failed).
type InMemory struct {
	mu     sync.Mutex
	tasks  map[id.TaskID]*models.NotificationTask
	leases map[id.TaskID]time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		tasks:  make(map[id.TaskID]*models.NotificationTask),
		leases: make(map[id.TaskID]time.Time),
	}
}

func (s *InMemory) Enqueue(_ context.Context, t *models.NotificationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

// ClaimDue returns up to limit queued tasks that are due at now, leasing them
// so concurrent claimers skip them. For each resource only the earliest queued
// task is claimable, which keeps same-resource delivery in creation order;
// ordering across distinct resources is not guaranteed.
func (s *InMemory) ClaimDue(_ context.Context, now time.Time, limit int) ([]*models.NotificationTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Earliest queued task per resource.
	head := make(map[id.ResourceID]*models.NotificationTask)
	for _, t := range s.tasks {
		if t.State != models.DeliveryQueued {
			continue
		}
		if cur, ok := head[t.ResourceID]; !ok || t.CreatedAt.Before(cur.CreatedAt) {
			head[t.ResourceID] = t
		}
	}

	var due []*models.NotificationTask
	for _, t := range head {
		if t.NextAttemptAt.After(now) {
			continue
		}
		if until, leased := s.leases[t.ID]; leased && until.After(now) {
			continue
		}
		due = append(due, t)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	out := make([]*models.NotificationTask, 0, len(due))
	for _, t := range due {
		s.leases[t.ID] = now.Add(claimLease)
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) MarkSent(_ context.Context, taskID id.TaskID, now time.Time) error {
	return s.finish(taskID, models.DeliverySent, now)
}

func (s *InMemory) MarkFailed(_ context.Context, taskID id.TaskID, attempts int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return sentinel.ErrNotFound
	}
	t.State = models.DeliveryFailed
	t.Attempts = attempts
	t.UpdatedAt = now
	delete(s.leases, taskID)
	return nil
}

// Reschedule records a failed attempt and queues the next one.
func (s *InMemory) Reschedule(_ context.Context, taskID id.TaskID, attempts int, nextAttemptAt, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return sentinel.ErrNotFound
	}
	t.Attempts = attempts
	t.NextAttemptAt = nextAttemptAt
	t.UpdatedAt = now
	delete(s.leases, taskID)
	return nil
}

// ListByState returns tasks in the given state, oldest first. An empty state
// returns everything.
func (s *InMemory) ListByState(_ context.Context, state models.DeliveryState, limit int) ([]*models.NotificationTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.NotificationTask
	for _, t := range s.tasks {
		if state != "" && t.State != state {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) finish(taskID id.TaskID, state models.DeliveryState, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return sentinel.ErrNotFound
	}
	t.State = state
	t.UpdatedAt = now
	delete(s.leases, taskID)
	return nil
}
