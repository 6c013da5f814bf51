package service

import (
	"github.com/google/uuid"

	"modgate/internal/moderation/models"
	id "modgate/pkg/domain"
	dErrors "modgate/pkg/domain-errors"
)

func (s *EngineSuite) TestCreateSubmission() {
	s.Run("new submission starts pending at version 1", func() {
		r, err := s.engine.CreateSubmission(s.ctx, CreateSubmissionRequest{
			OwnerID: id.OwnerID(uuid.New()),
			Title:   "Rocket Racer",
			Meta:    models.SubmissionMeta{Category: "games", Platform: "linux", Version: "0.9.1"},
		})
		s.Require().NoError(err)
		s.Equal(models.StatusPending, r.Status)
		s.Equal(int64(1), r.Version)
		s.Equal(models.KindSubmission, r.Kind)

		stored, err := s.resources.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(r.ID, stored.ID)
	})

	s.Run("missing title is a validation error", func() {
		_, err := s.engine.CreateSubmission(s.ctx, CreateSubmissionRequest{
			OwnerID: id.OwnerID(uuid.New()),
			Meta:    models.SubmissionMeta{Category: "games"},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing category is a validation error", func() {
		_, err := s.engine.CreateSubmission(s.ctx, CreateSubmissionRequest{
			OwnerID: id.OwnerID(uuid.New()),
			Title:   "No Category",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *EngineSuite) TestCreateAccount() {
	r, err := s.engine.CreateAccount(s.ctx, CreateAccountRequest{
		OwnerID: id.OwnerID(uuid.New()),
		Profile: models.AccountProfile{DisplayName: "Aurora Interactive", Website: "https://aurora.example"},
	})
	s.Require().NoError(err)
	s.Equal(models.KindAccount, r.Kind)
	s.Equal(models.StatusPending, r.Status)
	s.Equal("Aurora Interactive", r.Title)
	s.Require().NotNil(r.Profile)
	s.Equal("https://aurora.example", r.Profile.Website)
}

func (s *EngineSuite) TestGetResource() {
	r := s.newSubmission("Lookup App")

	s.Run("returns the resource for its own kind", func() {
		got, err := s.engine.GetResource(s.ctx, models.KindSubmission, r.ID)
		s.Require().NoError(err)
		s.Equal(r.ID, got.ID)
	})

	s.Run("wrong kind reads as not found", func() {
		_, err := s.engine.GetResource(s.ctx, models.KindAccount, r.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EngineSuite) TestAuditTrail() {
	r := s.newSubmission("Trail App")
	_, err := s.apply(r, models.ActionReject, "first pass")
	s.Require().NoError(err)
	_, err = s.apply(r, models.ActionAccept, "second pass")
	s.Require().NoError(err)

	entries, err := s.engine.AuditTrail(s.ctx, models.KindSubmission, r.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(models.StatusRejected, entries[0].ToStatus)
	s.Equal(models.StatusApproved, entries[1].ToStatus)
}

func (s *EngineSuite) TestAllowedActions() {
	s.Run("pending submission offers accept and reject", func() {
		r := s.newSubmission("Buttons App")
		actions, err := s.engine.AllowedActions(s.ctx, models.KindSubmission, r.ID)
		s.Require().NoError(err)
		s.Equal([]models.Action{models.ActionAccept, models.ActionReject}, actions)
	})

	s.Run("active submission offers only deactivate", func() {
		r := s.newSubmission("Live App")
		for _, a := range []models.Action{models.ActionAccept, models.ActionActivate} {
			_, err := s.apply(r, a, "")
			s.Require().NoError(err)
		}
		actions, err := s.engine.AllowedActions(s.ctx, models.KindSubmission, r.ID)
		s.Require().NoError(err)
		s.Equal([]models.Action{models.ActionDeactivate}, actions)
	})
}
