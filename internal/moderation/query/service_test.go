package query

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"modgate/internal/moderation/models"
	resourcestore "modgate/internal/moderation/store/resource"
	id "modgate/pkg/domain"
	dErrors "modgate/pkg/domain-errors"
)

type QuerySuite struct {
	suite.Suite
	store   *resourcestore.InMemory
	service *Service
	ctx     context.Context
	now     time.Time
}

func (s *QuerySuite) SetupTest() {
	s.store = resourcestore.NewInMemory()
	s.service = New(s.store)
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestQuerySuite(t *testing.T) {
	suite.Run(t, new(QuerySuite))
}

func (s *QuerySuite) seed(title string, status models.Status, updated time.Time) *models.Resource {
	r, err := models.NewSubmission(
		id.ResourceID(uuid.New()),
		id.OwnerID(uuid.New()),
		title,
		models.SubmissionMeta{Category: "games"},
		nil,
		s.now,
	)
	s.Require().NoError(err)
	r.Status = status
	r.UpdatedAt = updated
	s.Require().NoError(s.store.Create(s.ctx, r))
	return r
}

func (s *QuerySuite) TestList() {
	s.seed("Pending One", models.StatusPending, s.now.Add(3*time.Minute))
	s.seed("Active One", models.StatusActive, s.now.Add(2*time.Minute))
	s.seed("Pending Two", models.StatusPending, s.now.Add(time.Minute))

	s.Run("status filter narrows the page", func() {
		result, err := s.service.List(s.ctx, ListParams{Kind: models.KindSubmission, Status: "pending"})
		s.Require().NoError(err)
		s.Equal(2, result.TotalCount)
		s.Len(result.Items, 2)
	})

	s.Run("status all returns everything", func() {
		result, err := s.service.List(s.ctx, ListParams{Kind: models.KindSubmission, Status: "all"})
		s.Require().NoError(err)
		s.Equal(3, result.TotalCount)
	})

	s.Run("empty status behaves like all", func() {
		result, err := s.service.List(s.ctx, ListParams{Kind: models.KindSubmission})
		s.Require().NoError(err)
		s.Equal(3, result.TotalCount)
	})

	s.Run("newest update comes first", func() {
		result, err := s.service.List(s.ctx, ListParams{Kind: models.KindSubmission})
		s.Require().NoError(err)
		s.Require().Len(result.Items, 3)
		s.Equal("Pending One", result.Items[0].Title)
		s.Equal("Pending Two", result.Items[2].Title)
	})

	s.Run("search narrows by title fragment", func() {
		result, err := s.service.List(s.ctx, ListParams{Kind: models.KindSubmission, Search: "pending"})
		s.Require().NoError(err)
		s.Equal(2, result.TotalCount)
	})
}

func (s *QuerySuite) TestValidation() {
	s.Run("unknown kind", func() {
		_, err := s.service.List(s.ctx, ListParams{Kind: models.Kind("bundle")})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("status outside the kind's closed set", func() {
		_, err := s.service.List(s.ctx, ListParams{Kind: models.KindAccount, Status: "approved"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *QuerySuite) TestPagingDefaults() {
	for i := 0; i < 30; i++ {
		s.seed("App", models.StatusPending, s.now.Add(time.Duration(i)*time.Second))
	}

	s.Run("defaults to page 1 with 25 items", func() {
		result, err := s.service.List(s.ctx, ListParams{Kind: models.KindSubmission})
		s.Require().NoError(err)
		s.Equal(1, result.Page)
		s.Equal(25, result.PageSize)
		s.Len(result.Items, 25)
		s.Equal(30, result.TotalCount)
	})

	s.Run("page size is capped", func() {
		result, err := s.service.List(s.ctx, ListParams{Kind: models.KindSubmission, PageSize: 10_000})
		s.Require().NoError(err)
		s.Equal(200, result.PageSize)
	})

	s.Run("empty page still returns a non-nil slice", func() {
		result, err := s.service.List(s.ctx, ListParams{Kind: models.KindSubmission, Page: 50})
		s.Require().NoError(err)
		s.NotNil(result.Items)
		s.Empty(result.Items)
	})
}

type failingLister struct{}

func (failingLister) List(context.Context, models.ResourceFilter) ([]*models.Resource, int, error) {
	return nil, 0, errors.New("connection reset")
}

func (s *QuerySuite) TestStoreFailure() {
	var buf bytes.Buffer
	service := New(failingLister{}, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	_, err := service.List(s.ctx, ListParams{Kind: models.KindSubmission})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Contains(buf.String(), "resource listing failed")
}
