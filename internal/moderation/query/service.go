// Package query is the read-only gateway serving moderator and publisher
// dashboards. It never mutates anything; writes go through the lifecycle
// engine exclusively.
package query

import (
	"context"
	"log/slog"
	"strings"

	"modgate/internal/moderation/models"
	id "modgate/pkg/domain"
	dErrors "modgate/pkg/domain-errors"
	"modgate/pkg/requestcontext"
)

// Lister is the slice of the resource store the gateway needs.
type Lister interface {
	List(ctx context.Context, f models.ResourceFilter) ([]*models.Resource, int, error)
}

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// ListParams narrows a dashboard listing. Status accepts the literal "all"
// (or empty) for no status filtering; Search matches titles case-insensitively.
type ListParams struct {
	Kind     models.Kind
	Status   string
	Search   string
	OwnerID  id.OwnerID
	Page     int
	PageSize int
}

// ListResult is one page of resources plus the total match count.
type ListResult struct {
	Items      []*models.Resource `json:"items"`
	TotalCount int                `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}

// Service answers filtered, paginated dashboard queries.
type Service struct {
	resources Lister
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(resources Lister, opts ...Option) *Service {
	s := &Service{resources: resources, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns resources matching the params, most recently updated first.
// Reads come straight from the store, so a listed status is never older than
// the most recently committed audit entry.
func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	if !p.Kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown resource kind")
	}

	var status models.Status
	if raw := strings.TrimSpace(p.Status); raw != "" && raw != "all" {
		parsed, err := models.ParseStatus(p.Kind, raw)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	pageSize := p.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, total, err := s.resources.List(ctx, models.ResourceFilter{
		Kind:     p.Kind,
		Status:   status,
		Search:   strings.TrimSpace(p.Search),
		OwnerID:  p.OwnerID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "resource listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"kind", p.Kind,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list resources")
	}
	if items == nil {
		items = []*models.Resource{}
	}
	return &ListResult{Items: items, TotalCount: total, Page: page, PageSize: pageSize}, nil
}
