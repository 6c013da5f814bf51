package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"modgate/internal/moderation/models"
	id "modgate/pkg/domain"
	txcontext "modgate/pkg/platform/tx"
)

// PostgresStore persists audit entries in the audit_entries table. The table
// is append-only: this store exposes no update or delete, and the schema
// grants none.
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

func (s *PostgresStore) Append(ctx context.Context, entry models.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (id, resource_id, kind, from_status, to_status, action, moderator_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(entry.ID), uuid.UUID(entry.ResourceID), string(entry.Kind),
		string(entry.FromStatus), string(entry.ToStatus), string(entry.Action),
		uuid.UUID(entry.ModeratorID), entry.Message, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByResource returns the trail for one resource, oldest first.
func (s *PostgresStore) ListByResource(ctx context.Context, resourceID id.ResourceID) ([]models.AuditEntry, error) {
	query := `
		SELECT id, resource_id, kind, from_status, to_status, action, moderator_id, message, created_at
		FROM audit_entries
		WHERE resource_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(resourceID))
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var (
			entry       models.AuditEntry
			entryID     uuid.UUID
			resID       uuid.UUID
			moderatorID uuid.UUID
			kind        string
			from        string
			to          string
			action      string
			createdAt   time.Time
		)
		if err := rows.Scan(&entryID, &resID, &kind, &from, &to, &action, &moderatorID, &entry.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ID = id.EntryID(entryID)
		entry.ResourceID = id.ResourceID(resID)
		entry.Kind = models.Kind(kind)
		entry.FromStatus = models.Status(from)
		entry.ToStatus = models.Status(to)
		entry.Action = models.Action(action)
		entry.ModeratorID = id.ModeratorID(moderatorID)
		entry.CreatedAt = createdAt
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return out, nil
}
