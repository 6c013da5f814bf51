package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"modgate/internal/moderation/models"
	"modgate/internal/moderation/transitions"
	id "modgate/pkg/domain"
	dErrors "modgate/pkg/domain-errors"
	"modgate/pkg/platform/sentinel"
	"modgate/pkg/requestcontext"
)

// CreateSubmissionRequest carries validated intake data for a new submission.
type CreateSubmissionRequest struct {
	OwnerID id.OwnerID
	Title   string
	Meta    models.SubmissionMeta
	Assets  []models.AssetRef
}

// CreateAccountRequest carries validated intake data for a new publisher account.
type CreateAccountRequest struct {
	OwnerID id.OwnerID
	Profile models.AccountProfile
}

// CreateSubmission is the intake boundary for submissions: the multi-step
// form lives outside this service and posts its validated result here. The
// resource starts in Pending and from then on mutates only through
// ApplyTransition.
func (e *Engine) CreateSubmission(ctx context.Context, req CreateSubmissionRequest) (*models.Resource, error) {
	r, err := models.NewSubmission(id.ResourceID(uuid.New()), req.OwnerID, req.Title, req.Meta, req.Assets, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	return e.create(ctx, r)
}

// CreateAccount is the intake boundary for publisher registrations.
func (e *Engine) CreateAccount(ctx context.Context, req CreateAccountRequest) (*models.Resource, error) {
	r, err := models.NewAccount(id.ResourceID(uuid.New()), req.OwnerID, req.Profile, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	return e.create(ctx, r)
}

func (e *Engine) create(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	if err := e.resources.Create(ctx, r); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create resource")
	}
	e.metrics.IncrementResourcesCreated(string(r.Kind))
	e.logger.InfoContext(ctx, "resource created",
		"request_id", requestcontext.RequestID(ctx),
		"resource_id", r.ID,
		"kind", r.Kind,
		"owner_id", r.OwnerID,
	)
	return r, nil
}

// GetResource loads one resource, scoped by kind.
func (e *Engine) GetResource(ctx context.Context, kind models.Kind, resourceID id.ResourceID) (*models.Resource, error) {
	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown resource kind")
	}
	r, err := e.resources.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "resource not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resource")
	}
	if r.Kind != kind {
		return nil, dErrors.New(dErrors.CodeNotFound, "resource not found")
	}
	return r, nil
}

// AuditTrail returns the resource's transition history, oldest first.
func (e *Engine) AuditTrail(ctx context.Context, kind models.Kind, resourceID id.ResourceID) ([]models.AuditEntry, error) {
	if _, err := e.GetResource(ctx, kind, resourceID); err != nil {
		return nil, err
	}
	entries, err := e.audit.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail")
	}
	return entries, nil
}

// AllowedActions answers "which buttons should this dashboard show" from the
// transition table instead of scattered per-status conditions.
func (e *Engine) AllowedActions(ctx context.Context, kind models.Kind, resourceID id.ResourceID) ([]models.Action, error) {
	r, err := e.GetResource(ctx, kind, resourceID)
	if err != nil {
		return nil, err
	}
	return transitions.Actions(r.Kind, r.Status), nil
}
