package handler

import (
	"time"

	"modgate/internal/moderation/models"
	"modgate/internal/moderation/query"
	"modgate/internal/moderation/service"
)

// ResourceResponse is the HTTP representation of a moderated resource.
type ResourceResponse struct {
	ID        string                  `json:"id"`
	Kind      string                  `json:"kind"`
	OwnerID   string                  `json:"owner_id"`
	Title     string                  `json:"title"`
	Status    string                  `json:"status"`
	Meta      *SubmissionMetaResponse `json:"meta,omitempty"`
	Profile   *AccountProfileResponse `json:"profile,omitempty"`
	Assets    []string                `json:"assets,omitempty"`
	Version   int64                   `json:"version"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// SubmissionMetaResponse is the metadata portion of a submission resource.
type SubmissionMetaResponse struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Platform string   `json:"platform"`
	Version  string   `json:"version"`
}

// AccountProfileResponse is the profile portion of an account resource.
type AccountProfileResponse struct {
	DisplayName string `json:"display_name"`
	Website     string `json:"website,omitempty"`
	Contact     string `json:"contact,omitempty"`
}

// FromResource converts a domain resource to its HTTP representation.
func FromResource(r *models.Resource) *ResourceResponse {
	resp := &ResourceResponse{
		ID:        r.ID.String(),
		Kind:      string(r.Kind),
		OwnerID:   r.OwnerID.String(),
		Title:     r.Title,
		Status:    string(r.Status),
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Meta != nil {
		resp.Meta = &SubmissionMetaResponse{
			Category: r.Meta.Category,
			Tags:     r.Meta.Tags,
			Platform: r.Meta.Platform,
			Version:  r.Meta.Version,
		}
	}
	if r.Profile != nil {
		resp.Profile = &AccountProfileResponse{
			DisplayName: r.Profile.DisplayName,
			Website:     r.Profile.Website,
			Contact:     r.Profile.Contact,
		}
	}
	for _, a := range r.Assets {
		resp.Assets = append(resp.Assets, string(a))
	}
	return resp
}

// AuditEntryResponse is the HTTP representation of one audit trail entry.
type AuditEntryResponse struct {
	ID          string    `json:"id"`
	ResourceID  string    `json:"resource_id"`
	Kind        string    `json:"kind"`
	FromStatus  string    `json:"from_status"`
	ToStatus    string    `json:"to_status"`
	Action      string    `json:"action"`
	ModeratorID string    `json:"moderator_id"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromAuditEntry converts a domain audit entry to its HTTP representation.
func FromAuditEntry(e models.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:          e.ID.String(),
		ResourceID:  e.ResourceID.String(),
		Kind:        string(e.Kind),
		FromStatus:  string(e.FromStatus),
		ToStatus:    string(e.ToStatus),
		Action:      string(e.Action),
		ModeratorID: e.ModeratorID.String(),
		Message:     e.Message,
		CreatedAt:   e.CreatedAt,
	}
}

// TransitionResponse is the HTTP response for a committed transition.
type TransitionResponse struct {
	Resource   *ResourceResponse  `json:"resource"`
	AuditEntry AuditEntryResponse `json:"audit_entry"`
}

// FromTransitionResult converts a committed transition outcome.
func FromTransitionResult(result *service.TransitionResult) *TransitionResponse {
	return &TransitionResponse{
		Resource:   FromResource(result.Resource),
		AuditEntry: FromAuditEntry(result.Entry),
	}
}

// AuditTrailResponse is the HTTP response for a resource's audit trail.
type AuditTrailResponse struct {
	Entries []AuditEntryResponse `json:"entries"`
}

// FromAuditTrail converts an audit trail, oldest first.
func FromAuditTrail(entries []models.AuditEntry) *AuditTrailResponse {
	resp := &AuditTrailResponse{Entries: make([]AuditEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, FromAuditEntry(e))
	}
	return resp
}

// ActionsResponse is the HTTP response listing legal actions for a resource.
type ActionsResponse struct {
	Actions []string `json:"actions"`
}

// FromActions converts the legal action set.
func FromActions(actions []models.Action) *ActionsResponse {
	resp := &ActionsResponse{Actions: make([]string, 0, len(actions))}
	for _, a := range actions {
		resp.Actions = append(resp.Actions, string(a))
	}
	return resp
}

// ListResponse is the HTTP response for a dashboard listing.
type ListResponse struct {
	Items      []*ResourceResponse `json:"items"`
	TotalCount int                 `json:"total_count"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
}

// FromListResult converts one page of resources.
func FromListResult(result *query.ListResult) *ListResponse {
	resp := &ListResponse{
		Items:      make([]*ResourceResponse, 0, len(result.Items)),
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
	}
	for _, r := range result.Items {
		resp.Items = append(resp.Items, FromResource(r))
	}
	return resp
}
