//go:build integration

package resource_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"modgate/internal/moderation/models"
	resourcestore "modgate/internal/moderation/store/resource"
	id "modgate/pkg/domain"
	"modgate/pkg/platform/sentinel"
	"modgate/pkg/testutil/containers"
)

type PostgresResourceSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *resourcestore.PostgresStore
	ctx   context.Context
	now   time.Time
}

func TestPostgresResourceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresResourceSuite))
}

func (s *PostgresResourceSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = resourcestore.NewPostgres(s.pg.DB)
}

func (s *PostgresResourceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.pg.Truncate(s.ctx, "notification_tasks", "audit_entries", "resources"))
}

func (s *PostgresResourceSuite) newSubmission(title string) *models.Resource {
	r, err := models.NewSubmission(
		id.ResourceID(uuid.New()),
		id.OwnerID(uuid.New()),
		title,
		models.SubmissionMeta{Category: "games", Tags: []string{"indie", "puzzle"}, Platform: "linux"},
		[]models.AssetRef{"assets/banner.png"},
		s.now,
	)
	s.Require().NoError(err)
	return r
}

func (s *PostgresResourceSuite) TestRoundTrip() {
	r := s.newSubmission("Postgres App")
	s.Require().NoError(s.store.Create(s.ctx, r))

	found, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.Title, found.Title)
	s.Equal(models.StatusPending, found.Status)
	s.Require().NotNil(found.Meta)
	s.Equal([]string{"indie", "puzzle"}, found.Meta.Tags)
	s.Equal([]models.AssetRef{"assets/banner.png"}, found.Assets)
}

func (s *PostgresResourceSuite) TestUpdateStatusVersionCheck() {
	r := s.newSubmission("Versioned App")
	s.Require().NoError(s.store.Create(s.ctx, r))

	expected := r.Version
	r.ApplyStatus(models.StatusApproved, s.now.Add(time.Minute))
	s.Require().NoError(s.store.UpdateStatus(s.ctx, r, expected))

	// Same expected version again must lose.
	r.ApplyStatus(models.StatusActive, s.now.Add(2*time.Minute))
	err := s.store.UpdateStatus(s.ctx, r, expected)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	ghost := s.newSubmission("Ghost App")
	s.Require().ErrorIs(s.store.UpdateStatus(s.ctx, ghost, 1), sentinel.ErrNotFound)
}

func (s *PostgresResourceSuite) TestStatusCheckIsPerKind() {
	// The schema's own guard: an account row can never hold the
	// submission-only approved status, even if written around the store.
	_, err := s.pg.DB.ExecContext(s.ctx,
		`INSERT INTO resources (id, kind, owner_id, title, status, version, created_at, updated_at)
		 VALUES ($1, 'account', $2, 'Rogue Studio', 'approved', 1, $3, $3)`,
		uuid.New(), uuid.New(), s.now)
	s.Require().Error(err)
	s.Contains(err.Error(), "check constraint")

	_, err = s.pg.DB.ExecContext(s.ctx,
		`INSERT INTO resources (id, kind, owner_id, title, status, version, created_at, updated_at)
		 VALUES ($1, 'submission', $2, 'Approved App', 'approved', 1, $3, $3)`,
		uuid.New(), uuid.New(), s.now)
	s.Require().NoError(err)
}

func (s *PostgresResourceSuite) TestListFilters() {
	a := s.newSubmission("Alpha Tool")
	a.UpdatedAt = s.now.Add(2 * time.Minute)
	b := s.newSubmission("Beta Tool")
	b.Status = models.StatusActive
	b.UpdatedAt = s.now.Add(time.Minute)
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	items, total, err := s.store.List(s.ctx, models.ResourceFilter{
		Kind:     models.KindSubmission,
		Status:   models.StatusPending,
		Page:     1,
		PageSize: 10,
	})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(items, 1)
	s.Equal(a.ID, items[0].ID)

	items, total, err = s.store.List(s.ctx, models.ResourceFilter{
		Kind:     models.KindSubmission,
		Search:   "TOOL",
		Page:     1,
		PageSize: 10,
	})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(items, 2)
	s.Equal(a.ID, items[0].ID, "newest update first")
}
