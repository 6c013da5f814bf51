//go:build integration

package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"modgate/internal/moderation/models"
	resourcestore "modgate/internal/moderation/store/resource"
	taskstore "modgate/internal/moderation/store/task"
	id "modgate/pkg/domain"
	"modgate/pkg/testutil/containers"
)

type PostgresTaskSuite struct {
	suite.Suite
	pg        *containers.PostgresContainer
	store     *taskstore.PostgresStore
	resources *resourcestore.PostgresStore
	ctx       context.Context
	now       time.Time
}

func TestPostgresTaskSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTaskSuite))
}

func (s *PostgresTaskSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = taskstore.NewPostgres(s.pg.DB)
	s.resources = resourcestore.NewPostgres(s.pg.DB)
}

func (s *PostgresTaskSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.pg.Truncate(s.ctx, "notification_tasks", "audit_entries", "resources"))
}

// seedResource satisfies the tasks table's foreign key.
func (s *PostgresTaskSuite) seedResource() id.ResourceID {
	r, err := models.NewSubmission(
		id.ResourceID(uuid.New()),
		id.OwnerID(uuid.New()),
		"Task Fixture",
		models.SubmissionMeta{Category: "games"},
		nil,
		s.now,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.resources.Create(s.ctx, r))
	return r.ID
}

func (s *PostgresTaskSuite) newTask(resourceID id.ResourceID, created time.Time) *models.NotificationTask {
	return &models.NotificationTask{
		ID:            id.TaskID(uuid.New()),
		ResourceID:    resourceID,
		Recipient:     uuid.NewString(),
		Channel:       "log",
		Subject:       "status changed",
		Body:          "details inside",
		State:         models.DeliveryQueued,
		NextAttemptAt: created,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func (s *PostgresTaskSuite) TestClaimLeasesTasks() {
	resourceID := s.seedResource()
	t := s.newTask(resourceID, s.now)
	s.Require().NoError(s.store.Enqueue(s.ctx, t))

	claimed, err := s.store.ClaimDue(s.ctx, s.now, 10)
	s.Require().NoError(err)
	s.Require().Len(claimed, 1)
	s.Equal(t.ID, claimed[0].ID)

	// Still queued but leased into the future, so a second claim skips it.
	again, err := s.store.ClaimDue(s.ctx, s.now, 10)
	s.Require().NoError(err)
	s.Empty(again)

	later, err := s.store.ClaimDue(s.ctx, s.now.Add(3*time.Minute), 10)
	s.Require().NoError(err)
	s.Require().Len(later, 1)
	s.Equal(t.ID, later[0].ID)
}

func (s *PostgresTaskSuite) TestSameResourceOrder() {
	resourceID := s.seedResource()
	first := s.newTask(resourceID, s.now)
	second := s.newTask(resourceID, s.now.Add(time.Second))
	s.Require().NoError(s.store.Enqueue(s.ctx, first))
	s.Require().NoError(s.store.Enqueue(s.ctx, second))

	claimed, err := s.store.ClaimDue(s.ctx, s.now.Add(time.Minute), 10)
	s.Require().NoError(err)
	s.Require().Len(claimed, 1)
	s.Equal(first.ID, claimed[0].ID, "only the earliest task per resource is claimable")

	s.Require().NoError(s.store.MarkSent(s.ctx, first.ID, s.now))

	claimed, err = s.store.ClaimDue(s.ctx, s.now.Add(time.Minute), 10)
	s.Require().NoError(err)
	s.Require().Len(claimed, 1)
	s.Equal(second.ID, claimed[0].ID)
}

func (s *PostgresTaskSuite) TestStateBookkeeping() {
	resourceID := s.seedResource()
	t := s.newTask(resourceID, s.now)
	s.Require().NoError(s.store.Enqueue(s.ctx, t))

	next := s.now.Add(30 * time.Second)
	s.Require().NoError(s.store.Reschedule(s.ctx, t.ID, 1, next, s.now))

	queued, err := s.store.ListByState(s.ctx, models.DeliveryQueued, 0)
	s.Require().NoError(err)
	s.Require().Len(queued, 1)
	s.Equal(1, queued[0].Attempts)
	s.True(queued[0].NextAttemptAt.Equal(next))

	s.Require().NoError(s.store.MarkFailed(s.ctx, t.ID, 5, s.now))
	failed, err := s.store.ListByState(s.ctx, models.DeliveryFailed, 0)
	s.Require().NoError(err)
	s.Require().Len(failed, 1)
	s.Equal(5, failed[0].Attempts)
}
