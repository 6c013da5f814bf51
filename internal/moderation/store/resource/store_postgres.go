package resource

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"modgate/internal/moderation/models"
	id "modgate/pkg/domain"
	"modgate/pkg/platform/sentinel"
	txcontext "modgate/pkg/platform/tx"
)

// PostgresStore implements the resource store over the resources table.
// Writes join an ambient transaction when one is carried in the context
// (pkg/platform/tx), which is how the engine commits status, audit entry and
// notification task as one unit.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const resourceColumns = `id, kind, owner_id, title, status, meta, profile, assets, version, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.Resource) error {
	meta, profile, assets, err := marshalDocs(r)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO resources (` + resourceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID), string(r.Kind), uuid.UUID(r.OwnerID), r.Title, string(r.Status),
		meta, profile, assets, r.Version, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(resourceID))
	return scanResource(row)
}

// UpdateStatus commits a status change with an optimistic version check.
// The WHERE clause on version makes the check atomic: zero rows affected
// means either a concurrent writer won (conflict) or the row is gone.
func (s *PostgresStore) UpdateStatus(ctx context.Context, r *models.Resource, expectedVersion int64) error {
	query := `
		UPDATE resources
		SET status = $2, version = $3, updated_at = $4
		WHERE id = $1 AND version = $5
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID), string(r.Status), r.Version, r.UpdatedAt, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update resource status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update resource status: %w", err)
	}
	if affected == 0 {
		var exists bool
		check := `SELECT EXISTS (SELECT 1 FROM resources WHERE id = $1)`
		if err := s.execer(ctx).QueryRowContext(ctx, check, uuid.UUID(r.ID)).Scan(&exists); err != nil {
			return fmt.Errorf("check resource existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, f models.ResourceFilter) ([]*models.Resource, int, error) {
	where := []string{"kind = $1"}
	args := []any{string(f.Kind)}

	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if !f.OwnerID.IsNil() {
		args = append(args, uuid.UUID(f.OwnerID))
		where = append(where, "owner_id = $"+strconv.Itoa(len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, "title ILIKE $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM resources WHERE ` + cond
	if err := s.execer(ctx).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count resources: %w", err)
	}

	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	pageQuery := `
		SELECT ` + resourceColumns + ` FROM resources
		WHERE ` + cond + `
		ORDER BY updated_at DESC, id ASC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.execer(ctx).QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var out []*models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (*models.Resource, error) {
	var (
		r          models.Resource
		resourceID uuid.UUID
		ownerID    uuid.UUID
		kind       string
		status     string
		meta       []byte
		profile    []byte
		assets     []byte
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := row.Scan(&resourceID, &kind, &ownerID, &r.Title, &status,
		&meta, &profile, &assets, &r.Version, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan resource: %w", err)
	}

	r.ID = id.ResourceID(resourceID)
	r.OwnerID = id.OwnerID(ownerID)
	r.Kind = models.Kind(kind)
	r.Status = models.Status(status)
	r.CreatedAt = createdAt
	r.UpdatedAt = updatedAt

	if len(meta) > 0 {
		r.Meta = &models.SubmissionMeta{}
		if err := json.Unmarshal(meta, r.Meta); err != nil {
			return nil, fmt.Errorf("unmarshal submission meta: %w", err)
		}
	}
	if len(profile) > 0 {
		r.Profile = &models.AccountProfile{}
		if err := json.Unmarshal(profile, r.Profile); err != nil {
			return nil, fmt.Errorf("unmarshal account profile: %w", err)
		}
	}
	if len(assets) > 0 {
		if err := json.Unmarshal(assets, &r.Assets); err != nil {
			return nil, fmt.Errorf("unmarshal asset refs: %w", err)
		}
	}
	return &r, nil
}

func marshalDocs(r *models.Resource) (meta, profile, assets []byte, err error) {
	if r.Meta != nil {
		if meta, err = json.Marshal(r.Meta); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal submission meta: %w", err)
		}
	}
	if r.Profile != nil {
		if profile, err = json.Marshal(r.Profile); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal account profile: %w", err)
		}
	}
	if len(r.Assets) > 0 {
		if assets, err = json.Marshal(r.Assets); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal asset refs: %w", err)
		}
	}
	return meta, profile, assets, nil
}
