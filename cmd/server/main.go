package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	httpapi "modgate/internal/http"
	jwttoken "modgate/internal/jwt_token"
	modmetrics "modgate/internal/moderation/metrics"
	"modgate/internal/moderation/models"
	"modgate/internal/moderation/query"
	"modgate/internal/moderation/service"
	auditstore "modgate/internal/moderation/store/audit"
	idemstore "modgate/internal/moderation/store/idempotency"
	resourcestore "modgate/internal/moderation/store/resource"
	taskstore "modgate/internal/moderation/store/task"
	"modgate/internal/notify"
	kafkachannel "modgate/internal/notify/channel/kafka"
	"modgate/internal/notify/channel/logchannel"
	notifymetrics "modgate/internal/notify/metrics"
	"modgate/internal/platform/config"
	"modgate/internal/platform/httpserver"
	"modgate/internal/platform/logger"
	"modgate/internal/platform/middleware"
	platformredis "modgate/internal/platform/redis"
	"modgate/migrations"

	moderationhandler "modgate/internal/moderation/handler"
	notifyhandler "modgate/internal/notify/handler"
)

// taskQueue is the full surface the task store exposes: the engine enqueues,
// the dispatcher claims and acks, the operator view lists.
type taskQueue interface {
	notify.Queue
	Enqueue(ctx context.Context, t *models.NotificationTask) error
	ListByState(ctx context.Context, state models.DeliveryState, limit int) ([]*models.NotificationTask, error)
}

// resourceStore is the full surface the resource store exposes: the engine
// mutates, the query service lists.
type resourceStore interface {
	service.ResourceStore
	query.Lister
}

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		resources resourceStore
		audit     service.AuditStore
		tasks     taskQueue
		storeTx   service.StoreTx
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.Error("failed to reach database", "error", err)
			os.Exit(1)
		}

		if err := migrations.Apply(ctx, db); err != nil {
			log.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}

		resources = resourcestore.NewPostgres(db)
		audit = auditstore.NewPostgres(db)
		tasks = taskstore.NewPostgres(db)
		storeTx = newModerationPostgresTx(db)
		log.Info("using postgres stores")
	} else {
		resources = resourcestore.NewInMemory()
		audit = auditstore.NewInMemory()
		tasks = taskstore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	// Notification channel: Kafka when brokers are configured, structured log
	// channel otherwise.
	var channel notify.Channel
	if len(cfg.KafkaBrokers) > 0 {
		kc, err := kafkachannel.New(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "brokers", cfg.KafkaBrokers, "error", err)
			os.Exit(1)
		}
		defer kc.Close()
		channel = kc
		log.Info("using kafka notification channel", "topic", cfg.KafkaTopic)
	} else {
		channel = logchannel.New(log)
		log.Warn("KAFKA_BROKERS not set, notifications go to the log channel")
	}

	modMetrics := modmetrics.New()
	engine := service.New(resources, audit, tasks, storeTx,
		service.WithLogger(log),
		service.WithMetrics(modMetrics),
		service.WithNotificationChannel(channel.Name()),
	)
	queries := query.New(resources, query.WithLogger(log))

	dispatcher := notify.New(tasks, channel, notify.Config{
		Workers:        cfg.Dispatcher.Workers,
		PollInterval:   cfg.Dispatcher.PollInterval,
		AttemptTimeout: cfg.Dispatcher.AttemptTimeout,
		MaxAttempts:    cfg.Dispatcher.MaxAttempts,
		BackoffInitial: cfg.Dispatcher.BackoffInitial,
		BackoffMax:     cfg.Dispatcher.BackoffMax,
	},
		notify.WithLogger(log),
		notify.WithMetrics(notifymetrics.New()),
	)

	// Idempotency records: Redis when configured, in-memory otherwise.
	var idempotency moderationhandler.IdempotencyStore
	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("failed to configure redis", "error", err)
			os.Exit(1)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = redisClient.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Error("failed to reach redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		idempotency = idemstore.NewRedisStore(redisClient.Client)
		log.Info("using redis idempotency store")
	} else {
		idempotency = idemstore.NewInMemory()
		log.Warn("REDIS_URL not set, using in-memory idempotency store")
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "modgate", "modgate-api")
	authMiddleware := middleware.RequireModerator(jwttoken.NewMiddlewareAdapter(jwtService), log)

	var rateLimit func(http.Handler) http.Handler
	if cfg.RateLimit.Requests > 0 {
		limiter := middleware.NewSlidingWindowLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		rateLimit = middleware.RateLimit(limiter, log)
	}

	modHandler := moderationhandler.New(engine, queries, log,
		moderationhandler.WithIdempotencyStore(idempotency))
	tasksHandler := notifyhandler.New(tasks, log)

	router := httpapi.NewRouter(modHandler, tasksHandler, authMiddleware, rateLimit)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting modgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
