// Package notify delivers queued notification tasks produced by the
// lifecycle engine. It is fully decoupled from the write path: a transition
// commits without waiting on any network call here, and nothing in this
// package can revert or re-queue a committed transition.
package notify

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"modgate/internal/moderation/models"
	notifymetrics "modgate/internal/notify/metrics"
	id "modgate/pkg/domain"
)

var tracer = otel.Tracer("modgate/internal/notify")

// Queue is the dispatcher's view of the durable task store.
type Queue interface {
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.NotificationTask, error)
	MarkSent(ctx context.Context, taskID id.TaskID, now time.Time) error
	MarkFailed(ctx context.Context, taskID id.TaskID, attempts int, now time.Time) error
	Reschedule(ctx context.Context, taskID id.TaskID, attempts int, nextAttemptAt, now time.Time) error
}

// Config bounds the dispatcher's retry behavior.
type Config struct {
	Workers        int
	PollInterval   time.Duration
	ClaimBatch     int
	AttemptTimeout time.Duration
	MaxAttempts    int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// DefaultConfig returns the settings used when an env override is absent.
func DefaultConfig() Config {
	return Config{
		Workers:        4,
		PollInterval:   2 * time.Second,
		ClaimBatch:     16,
		AttemptTimeout: 10 * time.Second,
		MaxAttempts:    5,
		BackoffInitial: DefaultBackoffInitial,
		BackoffMax:     DefaultBackoffMax,
	}
}

// Dispatcher runs a worker pool over the task queue.
type Dispatcher struct {
	queue   Queue
	channel Channel
	cfg     Config

	logger  *slog.Logger
	metrics *notifymetrics.Metrics
	now     func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

func WithMetrics(m *notifymetrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New constructs a Dispatcher. Zero-valued Config fields fall back to
// DefaultConfig.
func New(queue Queue, channel Channel, cfg Config, opts ...Option) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ClaimBatch <= 0 {
		cfg.ClaimBatch = def.ClaimBatch
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = def.BackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = def.BackoffMax
	}

	d := &Dispatcher{
		queue:   queue,
		channel: channel,
		cfg:     cfg,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run polls the queue and fans claimed tasks out to the worker pool until the
// context is cancelled. It returns ctx.Err() on shutdown.
func (d *Dispatcher) Run(ctx context.Context) error {
	inbox := make(chan *models.NotificationTask)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case task := <-inbox:
					d.deliver(ctx, task)
				}
			}
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(d.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				tasks, err := d.queue.ClaimDue(ctx, d.now(), d.cfg.ClaimBatch)
				if err != nil {
					d.logger.ErrorContext(ctx, "failed to claim notification tasks", "error", err)
					continue
				}
				for _, task := range tasks {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case inbox <- task:
					}
				}
			}
		}
	})

	return g.Wait()
}

// deliver runs one delivery attempt. Failures only touch the task's own
// bookkeeping: reschedule with backoff while attempts remain, mark failed
// once exhausted. Resource state is never involved.
func (d *Dispatcher) deliver(ctx context.Context, task *models.NotificationTask) {
	ctx, span := tracer.Start(ctx, "notify.deliver", trace.WithAttributes(
		attribute.String("task.id", task.ID.String()),
		attribute.String("channel", task.Channel),
		attribute.Int("attempt", task.Attempts+1),
	))
	defer span.End()

	d.metrics.AddInFlight(1)
	defer d.metrics.AddInFlight(-1)

	attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
	start := time.Now()
	err := d.channel.Send(attemptCtx, task.Recipient, task.Subject, task.Body)
	cancel()
	d.metrics.ObserveAttemptLatency(time.Since(start))

	now := d.now()
	attempts := task.Attempts + 1

	if err == nil {
		if markErr := d.queue.MarkSent(ctx, task.ID, now); markErr != nil {
			// The message went out but the ack write failed; the task will be
			// re-claimed and re-sent. At-least-once, by contract.
			d.logger.ErrorContext(ctx, "failed to mark task sent", "task_id", task.ID, "error", markErr)
			return
		}
		d.metrics.IncrementResult(task.Channel, "sent")
		d.logger.InfoContext(ctx, "notification delivered",
			"task_id", task.ID,
			"resource_id", task.ResourceID,
			"channel", task.Channel,
			"attempts", attempts,
		)
		return
	}

	span.RecordError(err)

	if attempts >= d.cfg.MaxAttempts {
		if markErr := d.queue.MarkFailed(ctx, task.ID, attempts, now); markErr != nil {
			d.logger.ErrorContext(ctx, "failed to mark task failed", "task_id", task.ID, "error", markErr)
			return
		}
		d.metrics.IncrementResult(task.Channel, "exhausted")
		d.logger.ErrorContext(ctx, "notification attempts exhausted",
			"task_id", task.ID,
			"resource_id", task.ResourceID,
			"channel", task.Channel,
			"attempts", attempts,
			"error", err,
		)
		return
	}

	next := now.Add(backoffDelay(attempts, d.cfg.BackoffInitial, d.cfg.BackoffMax))
	if resErr := d.queue.Reschedule(ctx, task.ID, attempts, next, now); resErr != nil {
		d.logger.ErrorContext(ctx, "failed to reschedule task", "task_id", task.ID, "error", resErr)
		return
	}
	d.metrics.IncrementResult(task.Channel, "retried")
	d.logger.WarnContext(ctx, "notification attempt failed",
		"task_id", task.ID,
		"resource_id", task.ResourceID,
		"channel", task.Channel,
		"attempts", attempts,
		"next_attempt_at", next,
		"error", err,
	)
}
