package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"modgate/internal/moderation/models"
	auditstore "modgate/internal/moderation/store/audit"
	resourcestore "modgate/internal/moderation/store/resource"
	taskstore "modgate/internal/moderation/store/task"
	id "modgate/pkg/domain"
	dErrors "modgate/pkg/domain-errors"
	"modgate/pkg/platform/sentinel"
	"modgate/pkg/requestcontext"
)

type EngineSuite struct {
	suite.Suite
	resources *resourcestore.InMemory
	audit     *auditstore.InMemory
	tasks     *taskstore.InMemory
	engine    *Engine
	ctx       context.Context

	moderatorID id.ModeratorID
	now         time.Time
}

func (s *EngineSuite) SetupTest() {
	s.resources = resourcestore.NewInMemory()
	s.audit = auditstore.NewInMemory()
	s.tasks = taskstore.NewInMemory()
	s.engine = New(s.resources, s.audit, s.tasks, nil)
	s.moderatorID = id.ModeratorID(uuid.New())
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) newSubmission(title string) *models.Resource {
	r, err := models.NewSubmission(
		id.ResourceID(uuid.New()),
		id.OwnerID(uuid.New()),
		title,
		models.SubmissionMeta{Category: "games", Platform: "win64", Version: "1.0.0"},
		[]models.AssetRef{"assets/logo.png"},
		s.now,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.resources.Create(s.ctx, r))
	return r
}

func (s *EngineSuite) newAccount(name string) *models.Resource {
	r, err := models.NewAccount(
		id.ResourceID(uuid.New()),
		id.OwnerID(uuid.New()),
		models.AccountProfile{DisplayName: name},
		s.now,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.resources.Create(s.ctx, r))
	return r
}

func (s *EngineSuite) apply(r *models.Resource, action models.Action, message string) (*TransitionResult, error) {
	return s.engine.ApplyTransition(s.ctx, ApplyRequest{
		ResourceID:  r.ID,
		Kind:        r.Kind,
		Action:      action,
		ModeratorID: s.moderatorID,
		Message:     message,
	})
}

func (s *EngineSuite) TestSubmissionLifecycle() {
	s.Run("accept moves pending submission to approved", func() {
		r := s.newSubmission("Solitaire Deluxe")

		result, err := s.apply(r, models.ActionAccept, "looks good")
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, result.Resource.Status)
		s.Equal(models.StatusPending, result.Entry.FromStatus)
		s.Equal(models.StatusApproved, result.Entry.ToStatus)
		s.Equal(s.moderatorID, result.Entry.ModeratorID)
		s.Equal("looks good", result.Entry.Message)
	})

	s.Run("full path pending to inactive and back to active", func() {
		r := s.newSubmission("Tower Defense")

		for _, step := range []struct {
			action models.Action
			want   models.Status
		}{
			{models.ActionAccept, models.StatusApproved},
			{models.ActionActivate, models.StatusActive},
			{models.ActionDeactivate, models.StatusInactive},
			{models.ActionActivate, models.StatusActive},
		} {
			result, err := s.apply(r, step.action, "")
			s.Require().NoError(err)
			s.Equal(step.want, result.Resource.Status)
		}

		entries, err := s.audit.ListByResource(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Len(entries, 4)
	})

	s.Run("rejected submission can be rejected again and each pass is recorded", func() {
		r := s.newSubmission("Spam App")

		first, err := s.apply(r, models.ActionReject, "broken installer")
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, first.Resource.Status)

		second, err := s.apply(r, models.ActionReject, "still broken")
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, second.Resource.Status)
		s.Equal(models.StatusRejected, second.Entry.FromStatus)

		entries, err := s.audit.ListByResource(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		s.Equal("broken installer", entries[0].Message)
		s.Equal("still broken", entries[1].Message)
	})
}

func (s *EngineSuite) TestAccountLifecycle() {
	s.Run("accepted account goes straight to active", func() {
		r := s.newAccount("Starlight Studios")

		result, err := s.apply(r, models.ActionAccept, "")
		s.Require().NoError(err)
		s.Equal(models.StatusActive, result.Resource.Status)
	})

	s.Run("accounts have no approved resting state", func() {
		r := s.newAccount("Moonbase Games")
		_, err := s.apply(r, models.ActionAccept, "")
		s.Require().NoError(err)

		_, err = s.apply(r, models.ActionActivate, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *EngineSuite) TestIllegalTransitionLeavesNoTrace() {
	r := s.newSubmission("Pixel Quest")

	_, err := s.apply(r, models.ActionActivate, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	stored, err := s.resources.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)
	s.Equal(int64(1), stored.Version)

	entries, err := s.audit.ListByResource(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Empty(entries)

	tasks, err := s.tasks.ListByState(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Empty(tasks)
}

func (s *EngineSuite) TestCommitIsAtomic() {
	r := s.newSubmission("Atomic Cat")

	result, err := s.apply(r, models.ActionAccept, "")
	s.Require().NoError(err)

	s.Run("exactly one audit entry", func() {
		entries, err := s.audit.ListByResource(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(result.Entry.ID, entries[0].ID)
	})

	s.Run("exactly one queued task addressed to the owner", func() {
		tasks, err := s.tasks.ListByState(s.ctx, models.DeliveryQueued, 0)
		s.Require().NoError(err)
		s.Require().Len(tasks, 1)
		s.Equal(r.ID, tasks[0].ResourceID)
		s.Equal(r.OwnerID.String(), tasks[0].Recipient)
		s.Equal(0, tasks[0].Attempts)
		s.NotEmpty(tasks[0].Subject)
	})

	s.Run("version incremented once", func() {
		stored, err := s.resources.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(int64(2), stored.Version)
	})
}

func (s *EngineSuite) TestValidation() {
	r := s.newSubmission("Valid App")

	s.Run("unknown kind", func() {
		_, err := s.engine.ApplyTransition(s.ctx, ApplyRequest{
			ResourceID:  r.ID,
			Kind:        models.Kind("bundle"),
			Action:      models.ActionAccept,
			ModeratorID: s.moderatorID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown action", func() {
		_, err := s.engine.ApplyTransition(s.ctx, ApplyRequest{
			ResourceID:  r.ID,
			Kind:        r.Kind,
			Action:      models.Action("archive"),
			ModeratorID: s.moderatorID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing moderator", func() {
		_, err := s.engine.ApplyTransition(s.ctx, ApplyRequest{
			ResourceID: r.ID,
			Kind:       r.Kind,
			Action:     models.ActionAccept,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown resource", func() {
		_, err := s.engine.ApplyTransition(s.ctx, ApplyRequest{
			ResourceID:  id.ResourceID(uuid.New()),
			Kind:        models.KindSubmission,
			Action:      models.ActionAccept,
			ModeratorID: s.moderatorID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("kind mismatch reads as not found", func() {
		account := s.newAccount("Mismatch Inc")
		_, err := s.engine.ApplyTransition(s.ctx, ApplyRequest{
			ResourceID:  account.ID,
			Kind:        models.KindSubmission,
			Action:      models.ActionAccept,
			ModeratorID: s.moderatorID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestConcurrentTransitions drives two moderators at the same pending
// submission. Exactly one decision lands; the loser sees either a conflict or
// an illegal transition from the freshly committed status, and the trail
// records exactly one entry.
func (s *EngineSuite) TestConcurrentTransitions() {
	r := s.newSubmission("Contested App")

	actions := []models.Action{models.ActionAccept, models.ActionActivate}
	errs := make([]error, len(actions))

	var wg sync.WaitGroup
	for i, action := range actions {
		wg.Add(1)
		go func(i int, action models.Action) {
			defer wg.Done()
			_, errs[i] = s.apply(r, action, "")
		}(i, action)
	}
	wg.Wait()

	// Accept always has a legal path (pending->approved). Activate only
	// succeeds if it ran second; either way the store is consistent.
	s.Require().NoError(errs[0])

	stored, err := s.resources.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)

	entries, auditErr := s.audit.ListByResource(s.ctx, r.ID)
	s.Require().NoError(auditErr)

	if errs[1] == nil {
		s.Equal(models.StatusActive, stored.Status)
		s.Len(entries, 2)
	} else {
		s.True(dErrors.HasCode(errs[1], dErrors.CodeInvariantViolation))
		s.Equal(models.StatusApproved, stored.Status)
		s.Len(entries, 1)
	}
	s.Equal(stored.Status, entries[len(entries)-1].ToStatus)
}

// conflictingStore fails UpdateStatus with a version conflict a fixed number
// of times before delegating, simulating a concurrent writer landing between
// the engine's read and commit.
type conflictingStore struct {
	*resourcestore.InMemory
	conflicts int
}

func (c *conflictingStore) UpdateStatus(ctx context.Context, r *models.Resource, expectedVersion int64) error {
	if c.conflicts > 0 {
		c.conflicts--
		return sentinel.ErrConflict
	}
	return c.InMemory.UpdateStatus(ctx, r, expectedVersion)
}

func (s *EngineSuite) TestConflictRetry() {
	s.Run("a single version conflict is retried and committed", func() {
		r := s.newSubmission("Racy App")
		store := &conflictingStore{InMemory: s.resources, conflicts: 1}
		engine := New(store, s.audit, s.tasks, nil)

		result, err := engine.ApplyTransition(s.ctx, ApplyRequest{
			ResourceID:  r.ID,
			Kind:        r.Kind,
			Action:      models.ActionAccept,
			ModeratorID: s.moderatorID,
		})
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, result.Resource.Status)
		s.Zero(store.conflicts)

		stored, err := s.resources.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, stored.Status)
		s.Equal(int64(2), stored.Version)

		entries, err := s.audit.ListByResource(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Len(entries, 1)
	})

	s.Run("a second consecutive conflict is surfaced to the caller", func() {
		r := s.newSubmission("Contended App")
		store := &conflictingStore{InMemory: s.resources, conflicts: 2}
		engine := New(store, s.audit, s.tasks, nil)

		_, err := engine.ApplyTransition(s.ctx, ApplyRequest{
			ResourceID:  r.ID,
			Kind:        r.Kind,
			Action:      models.ActionAccept,
			ModeratorID: s.moderatorID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		stored, err := s.resources.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, stored.Status)
		s.Equal(int64(1), stored.Version)

		entries, err := s.audit.ListByResource(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Empty(entries)
	})
}

func (s *EngineSuite) TestNotificationContent() {
	s.Run("reject note reaches the task body", func() {
		r := s.newSubmission("Notes App")
		_, err := s.apply(r, models.ActionReject, "missing privacy policy")
		s.Require().NoError(err)

		tasks, err := s.tasks.ListByState(s.ctx, models.DeliveryQueued, 0)
		s.Require().NoError(err)
		s.Require().Len(tasks, 1)
		s.Contains(tasks[0].Body, "missing privacy policy")
		s.Contains(tasks[0].Subject, "rejected")
	})

	s.Run("task is due immediately", func() {
		r := s.newSubmission("Prompt App")
		_, err := s.apply(r, models.ActionAccept, "")
		s.Require().NoError(err)

		tasks, err := s.tasks.ListByState(s.ctx, models.DeliveryQueued, 0)
		s.Require().NoError(err)
		for _, task := range tasks {
			s.False(task.NextAttemptAt.After(s.now))
		}
	})
}
