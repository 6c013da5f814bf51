// Package service houses the lifecycle engine: the sole authority for
// mutating resource status. Everything else (handlers, dashboards, the
// dispatcher) either calls through here or only reads.
package service

import (
	"context"
	"log/slog"
	"time"

	modmetrics "modgate/internal/moderation/metrics"
	"modgate/internal/moderation/models"
	id "modgate/pkg/domain"
)

// ResourceStore is the durable record of each resource and its status.
type ResourceStore interface {
	Create(ctx context.Context, r *models.Resource) error
	FindByID(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error)
	UpdateStatus(ctx context.Context, r *models.Resource, expectedVersion int64) error
}

// AuditStore is the append-only transition trail.
type AuditStore interface {
	Append(ctx context.Context, entry models.AuditEntry) error
	ListByResource(ctx context.Context, resourceID id.ResourceID) ([]models.AuditEntry, error)
}

// TaskEnqueuer accepts notification tasks produced by the engine. The
// dispatcher side of the queue lives in internal/notify.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, t *models.NotificationTask) error
}

// StoreTx provides the transactional boundary for engine mutations.
// Implementations may wrap a database transaction or, in-memory, sharded
// per-resource locks; either way the status update, audit append and task
// enqueue inside one fn commit or fail together.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Engine applies validated transitions atomically.
type Engine struct {
	resources ResourceStore
	audit     AuditStore
	tasks     TaskEnqueuer
	tx        StoreTx

	logger  *slog.Logger
	metrics *modmetrics.Metrics
	channel string
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *modmetrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithNotificationChannel sets the channel name stamped on queued tasks.
func WithNotificationChannel(name string) Option {
	return func(e *Engine) { e.channel = name }
}

// New constructs an Engine. When no StoreTx is supplied the engine falls back
// to sharded in-memory locking, which matches the in-memory stores.
func New(resources ResourceStore, audit AuditStore, tasks TaskEnqueuer, tx StoreTx, opts ...Option) *Engine {
	if tx == nil {
		tx = newShardedTx()
	}
	e := &Engine{
		resources: resources,
		audit:     audit,
		tasks:     tasks,
		tx:        tx,
		logger:    slog.Default(),
		channel:   "email",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
