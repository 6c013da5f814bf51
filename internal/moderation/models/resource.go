package models

import (
	"strings"
	"time"

	id "modgate/pkg/domain"
	dErrors "modgate/pkg/domain-errors"
)

// AssetRef is an opaque reference into the external asset store (logo,
// package binary, screenshot, video). The engine stores and forwards these
// without interpreting them.
type AssetRef string

// SubmissionMeta holds the declared metadata collected by intake for a
// package submission. Nil on account resources.
type SubmissionMeta struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Platform string   `json:"platform"`
	Version  string   `json:"version"`
}

// AccountProfile holds the publisher profile fields. Nil on submissions.
type AccountProfile struct {
	DisplayName string `json:"display_name"`
	Website     string `json:"website,omitempty"`
	Contact     string `json:"contact,omitempty"`
}

// Resource is the aggregate root for anything subject to the moderation
// lifecycle.
//
// Invariants:
//   - Title is non-empty and at most 256 characters
//   - Status is always a member of the closed set for Kind
//   - Status changes only through the lifecycle engine; the current status
//     always equals the ToStatus of the most recent audit entry (or
//     StatusPending when no entry exists)
//   - Resources are never deleted; deactivation is a status value
//   - Version increments on every committed status change and backs the
//     optimistic concurrency check in the stores
type Resource struct {
	ID        id.ResourceID   `json:"id"`
	Kind      Kind            `json:"kind"`
	OwnerID   id.OwnerID      `json:"owner_id"`
	Title     string          `json:"title"`
	Status    Status          `json:"status"`
	Meta      *SubmissionMeta `json:"meta,omitempty"`
	Profile   *AccountProfile `json:"profile,omitempty"`
	Assets    []AssetRef      `json:"assets,omitempty"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewSubmission constructs a submission in its initial Pending status.
// Intake calls this with already-validated field data; the constructor
// re-checks the invariants it owns.
func NewSubmission(resourceID id.ResourceID, ownerID id.OwnerID, title string, meta SubmissionMeta, assets []AssetRef, now time.Time) (*Resource, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submission owner is required")
	}
	if strings.TrimSpace(meta.Category) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submission category is required")
	}
	return &Resource{
		ID:        resourceID,
		Kind:      KindSubmission,
		OwnerID:   ownerID,
		Title:     title,
		Status:    StatusPending,
		Meta:      &meta,
		Assets:    assets,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewAccount constructs a publisher account record in Pending status.
func NewAccount(resourceID id.ResourceID, ownerID id.OwnerID, profile AccountProfile, now time.Time) (*Resource, error) {
	if err := validateTitle(profile.DisplayName); err != nil {
		return nil, err
	}
	return &Resource{
		ID:        resourceID,
		Kind:      KindAccount,
		OwnerID:   ownerID,
		Title:     profile.DisplayName,
		Status:    StatusPending,
		Profile:   &profile,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyStatus records a committed transition on the aggregate. Must only be
// called by the lifecycle engine after the transition table allowed it.
func (r *Resource) ApplyStatus(next Status, now time.Time) {
	r.Status = next
	r.Version++
	r.UpdatedAt = now
}

func (r *Resource) IsActive() bool { return r.Status == StatusActive }

// Clone returns a deep copy so stores never alias caller-held memory.
func (r *Resource) Clone() *Resource {
	cp := *r
	if r.Meta != nil {
		meta := *r.Meta
		meta.Tags = append([]string(nil), r.Meta.Tags...)
		cp.Meta = &meta
	}
	if r.Profile != nil {
		profile := *r.Profile
		cp.Profile = &profile
	}
	cp.Assets = append([]AssetRef(nil), r.Assets...)
	return &cp
}

// ResourceFilter narrows a dashboard listing. Zero values mean "no filter":
// an empty Status matches every status, a nil OwnerID matches every owner,
// and an empty Search disables text matching.
type ResourceFilter struct {
	Kind     Kind
	Status   Status
	Search   string
	OwnerID  id.OwnerID
	Page     int
	PageSize int
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "title cannot be empty")
	}
	if len(title) > 256 {
		return dErrors.New(dErrors.CodeInvariantViolation, "title must be 256 characters or less")
	}
	return nil
}
