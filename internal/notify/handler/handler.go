package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"modgate/internal/moderation/models"
	dErrors "modgate/pkg/domain-errors"
	"modgate/pkg/platform/httputil"
)

// TaskLister is the slice of the task store the operator view needs.
type TaskLister interface {
	ListByState(ctx context.Context, state models.DeliveryState, limit int) ([]*models.NotificationTask, error)
}

const (
	defaultTaskLimit = 50
	maxTaskLimit     = 500
)

// Handler exposes the notification task operator view.
type Handler struct {
	tasks  TaskLister
	logger *slog.Logger
}

// New constructs a notification task handler.
func New(tasks TaskLister, logger *slog.Logger) *Handler {
	return &Handler{tasks: tasks, logger: logger}
}

// Register mounts task endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tasks", h.HandleList)
}

// TaskResponse is the HTTP representation of a notification task.
type TaskResponse struct {
	ID            string    `json:"id"`
	ResourceID    string    `json:"resource_id"`
	Recipient     string    `json:"recipient"`
	Channel       string    `json:"channel"`
	Subject       string    `json:"subject"`
	State         string    `json:"state"`
	Attempts      int       `json:"attempts"`
	NextAttemptAt time.Time `json:"next_attempt_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListTasksResponse is the HTTP response for GET /tasks.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// HandleList handles GET /tasks?state=&limit= operator queries.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state := models.DeliveryState(r.URL.Query().Get("state"))
	if state == "" {
		state = models.DeliveryQueued
	}
	switch state {
	case models.DeliveryQueued, models.DeliverySent, models.DeliveryFailed:
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "unknown task state: "+string(state)))
		return
	}

	limit := defaultTaskLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	if limit > maxTaskLimit {
		limit = maxTaskLimit
	}

	tasks, err := h.tasks.ListByState(ctx, state, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notification tasks",
			"state", state,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tasks"))
		return
	}

	resp := &ListTasksResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, TaskResponse{
			ID:            t.ID.String(),
			ResourceID:    t.ResourceID.String(),
			Recipient:     t.Recipient,
			Channel:       t.Channel,
			Subject:       t.Subject,
			State:         string(t.State),
			Attempts:      t.Attempts,
			NextAttemptAt: t.NextAttemptAt,
			CreatedAt:     t.CreatedAt,
			UpdatedAt:     t.UpdatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
