package task

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"modgate/internal/moderation/models"
	id "modgate/pkg/domain"
	"modgate/pkg/platform/sentinel"
	txcontext "modgate/pkg/platform/tx"
)

// PostgresStore persists notification tasks. Enqueue joins the engine's
// ambient transaction so a task exists exactly when its transition committed.
// Claiming uses FOR UPDATE SKIP LOCKED plus a lease bump on next_attempt_at,
// which lets multiple dispatcher replicas share the queue without a dedicated
// in-flight state; a crashed worker's task resurfaces when the lease lapses.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const taskColumns = `id, resource_id, recipient, channel, subject, body, state, attempts, next_attempt_at, created_at, updated_at`

func (s *PostgresStore) Enqueue(ctx context.Context, t *models.NotificationTask) error {
	query := `
		INSERT INTO notification_tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(t.ID), uuid.UUID(t.ResourceID), t.Recipient, t.Channel, t.Subject, t.Body,
		string(t.State), t.Attempts, t.NextAttemptAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification task: %w", err)
	}
	return nil
}

// ClaimDue leases up to limit due tasks inside one short transaction. The
// NOT EXISTS clause restricts claiming to the earliest queued task per
// resource, preserving same-resource creation order.
func (s *PostgresStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.NotificationTask, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		SELECT ` + taskColumns + ` FROM notification_tasks t
		WHERE t.state = 'queued'
		  AND t.next_attempt_at <= $1
		  AND NOT EXISTS (
			SELECT 1 FROM notification_tasks e
			WHERE e.resource_id = t.resource_id
			  AND e.state = 'queued'
			  AND e.created_at < t.created_at
		  )
		ORDER BY t.next_attempt_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`
	rows, err := tx.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim notification tasks: %w", err)
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, tx.Commit()
	}

	lease := `
		UPDATE notification_tasks
		SET next_attempt_at = $2, updated_at = $3
		WHERE id = $1
	`
	for _, t := range tasks {
		if _, err := tx.ExecContext(ctx, lease, uuid.UUID(t.ID), now.Add(claimLease), now); err != nil {
			return nil, fmt.Errorf("lease notification task: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim tx: %w", err)
	}
	return tasks, nil
}

func (s *PostgresStore) MarkSent(ctx context.Context, taskID id.TaskID, now time.Time) error {
	query := `UPDATE notification_tasks SET state = 'sent', updated_at = $2 WHERE id = $1`
	return s.exec(ctx, query, uuid.UUID(taskID), now)
}

func (s *PostgresStore) MarkFailed(ctx context.Context, taskID id.TaskID, attempts int, now time.Time) error {
	query := `UPDATE notification_tasks SET state = 'failed', attempts = $2, updated_at = $3 WHERE id = $1`
	return s.exec(ctx, query, uuid.UUID(taskID), attempts, now)
}

func (s *PostgresStore) Reschedule(ctx context.Context, taskID id.TaskID, attempts int, nextAttemptAt, now time.Time) error {
	query := `UPDATE notification_tasks SET attempts = $2, next_attempt_at = $3, updated_at = $4 WHERE id = $1`
	return s.exec(ctx, query, uuid.UUID(taskID), attempts, nextAttemptAt, now)
}

func (s *PostgresStore) ListByState(ctx context.Context, state models.DeliveryState, limit int) ([]*models.NotificationTask, error) {
	query := `SELECT ` + taskColumns + ` FROM notification_tasks`
	args := []any{}
	if state != "" {
		query += ` WHERE state = $1`
		args = append(args, string(state))
	}
	query += ` ORDER BY created_at ASC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notification tasks: %w", err)
	}
	return scanTasks(rows)
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.execer(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update notification task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update notification task: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanTasks(rows *sql.Rows) ([]*models.NotificationTask, error) {
	defer rows.Close()

	var out []*models.NotificationTask
	for rows.Next() {
		var (
			t          models.NotificationTask
			taskID     uuid.UUID
			resourceID uuid.UUID
			state      string
		)
		err := rows.Scan(&taskID, &resourceID, &t.Recipient, &t.Channel, &t.Subject, &t.Body,
			&state, &t.Attempts, &t.NextAttemptAt, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification task: %w", err)
		}
		t.ID = id.TaskID(taskID)
		t.ResourceID = id.ResourceID(resourceID)
		t.State = models.DeliveryState(state)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan notification tasks: %w", err)
	}
	return out, nil
}
