package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"modgate/internal/moderation/models"
	"modgate/internal/moderation/transitions"
	"modgate/internal/platform/middleware"
	id "modgate/pkg/domain"
	dErrors "modgate/pkg/domain-errors"
	"modgate/pkg/platform/sentinel"
	"modgate/pkg/requestcontext"
)

var tracer = otel.Tracer("modgate/internal/moderation/service")

// ApplyRequest carries one transition invocation.
type ApplyRequest struct {
	ResourceID  id.ResourceID
	Kind        models.Kind
	Action      models.Action
	ModeratorID id.ModeratorID
	Message     string
}

// TransitionResult is the committed outcome: the updated resource and the
// audit entry recording the transition.
type TransitionResult struct {
	Resource *models.Resource  `json:"resource"`
	Entry    models.AuditEntry `json:"audit_entry"`
}

// ApplyTransition validates the action against the transition table and, when
// legal, commits the new status, the audit entry and the queued notification
// task as one atomic unit. On a version conflict it retries once against the
// fresh status before surfacing Conflict. Failure leaves no trace: no status
// change, no audit entry, no task.
func (e *Engine) ApplyTransition(ctx context.Context, req ApplyRequest) (*TransitionResult, error) {
	if err := validateApplyRequest(req); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "engine.ApplyTransition", trace.WithAttributes(
		attribute.String("resource.kind", string(req.Kind)),
		attribute.String("resource.id", req.ResourceID.String()),
		attribute.String("action", string(req.Action)),
	))
	defer span.End()

	start := time.Now()
	result, err := e.applyOnce(ctx, req)
	if err != nil && dErrors.HasCode(err, dErrors.CodeConflict) {
		// One internal retry against the freshly committed status; a second
		// conflict is surfaced for the caller to resubmit.
		result, err = e.applyOnce(ctx, req)
	}
	e.metrics.ObserveTransitionLatency(time.Since(start))

	if err != nil {
		span.RecordError(err)
		e.metrics.IncrementOutcome(string(req.Kind), string(req.Action), outcomeOf(err))
		e.logger.WarnContext(ctx, "transition rejected",
			"request_id", requestcontext.RequestID(ctx),
			"resource_id", req.ResourceID,
			"kind", req.Kind,
			"action", req.Action,
			"moderator_id", req.ModeratorID,
			"error", err,
		)
		return nil, err
	}

	e.metrics.IncrementOutcome(string(req.Kind), string(req.Action), "applied")
	e.logger.InfoContext(ctx, "transition applied",
		"request_id", requestcontext.RequestID(ctx),
		"resource_id", req.ResourceID,
		"kind", req.Kind,
		"action", req.Action,
		"from_status", result.Entry.FromStatus,
		"to_status", result.Entry.ToStatus,
		"moderator_id", req.ModeratorID,
		"client_ip", requestcontext.ClientIP(ctx),
		"browser", middleware.BrowserLabel(requestcontext.UserAgent(ctx)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (e *Engine) applyOnce(ctx context.Context, req ApplyRequest) (*TransitionResult, error) {
	var result *TransitionResult

	err := e.tx.RunInTx(withTxResource(ctx, req.ResourceID), func(txCtx context.Context) error {
		r, err := e.resources.FindByID(txCtx, req.ResourceID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "resource not found")
			}
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load resource")
		}
		// An ID that exists under a different kind is indistinguishable from
		// absent to the caller of this kind's endpoint.
		if r.Kind != req.Kind {
			return dErrors.New(dErrors.CodeNotFound, "resource not found")
		}

		next, ok := transitions.Lookup(r.Kind, r.Status, req.Action)
		if !ok {
			return dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("action %s is not allowed from status %s", req.Action, r.Status))
		}

		now := requestcontext.Now(txCtx)
		from := r.Status
		expected := r.Version
		r.ApplyStatus(next, now)

		if err := e.resources.UpdateStatus(txCtx, r, expected); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "resource changed concurrently")
			}
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "resource not found")
			}
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to commit status")
		}

		entry := models.AuditEntry{
			ID:          id.EntryID(uuid.New()),
			ResourceID:  r.ID,
			Kind:        r.Kind,
			FromStatus:  from,
			ToStatus:    next,
			Action:      req.Action,
			ModeratorID: req.ModeratorID,
			Message:     req.Message,
			CreatedAt:   now,
		}
		if err := e.audit.Append(txCtx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to append audit entry")
		}

		if err := e.tasks.Enqueue(txCtx, e.buildTask(r, entry, now)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to enqueue notification task")
		}

		result = &TransitionResult{Resource: r, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// buildTask composes the outbound notification for a committed transition.
// The recipient is the owning publisher; address resolution is the channel's
// concern, the engine records only the opaque owner identity.
func (e *Engine) buildTask(r *models.Resource, entry models.AuditEntry, now time.Time) *models.NotificationTask {
	var subject, body string
	switch entry.Action {
	case models.ActionAccept:
		subject = fmt.Sprintf("Your %s %q was approved", r.Kind, r.Title)
		body = fmt.Sprintf("A moderator approved your %s. New status: %s.", r.Kind, entry.ToStatus)
	case models.ActionReject:
		subject = fmt.Sprintf("Your %s %q was rejected", r.Kind, r.Title)
		body = fmt.Sprintf("A moderator rejected your %s.", r.Kind)
	case models.ActionActivate:
		subject = fmt.Sprintf("Your %s %q is now live", r.Kind, r.Title)
		body = fmt.Sprintf("Your %s is active and visible in the marketplace.", r.Kind)
	case models.ActionDeactivate:
		subject = fmt.Sprintf("Your %s %q was deactivated", r.Kind, r.Title)
		body = fmt.Sprintf("Your %s is no longer visible in the marketplace.", r.Kind)
	}
	if entry.Message != "" {
		body += " Moderator note: " + entry.Message
	}

	return &models.NotificationTask{
		ID:            id.TaskID(uuid.New()),
		ResourceID:    r.ID,
		Recipient:     r.OwnerID.String(),
		Channel:       e.channel,
		Subject:       subject,
		Body:          body,
		State:         models.DeliveryQueued,
		Attempts:      0,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func validateApplyRequest(req ApplyRequest) error {
	if !req.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown resource kind")
	}
	if !req.Action.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown action")
	}
	if req.ResourceID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "resource id is required")
	}
	if req.ModeratorID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "moderator identity is required")
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return "illegal"
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		return "not_found"
	case dErrors.HasCode(err, dErrors.CodeConflict):
		return "conflict"
	default:
		return "error"
	}
}
