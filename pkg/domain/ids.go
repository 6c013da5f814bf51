// Package domain holds typed identifiers shared across modules.
//
// Each ID is a distinct type over uuid.UUID so the compiler rejects mixing a
// ModeratorID where a ResourceID is expected. Construct IDs from external
// input via the Parse helpers, which enforce non-nil, well-formed UUIDs at
// trust boundaries; direct casting bypasses validation and is reserved for
// internal code that already holds a valid UUID.
package domain

import (
	"github.com/google/uuid"

	dErrors "modgate/pkg/domain-errors"
)

type (
	// ResourceID identifies a moderated resource (submission or account).
	ResourceID uuid.UUID

	// ModeratorID identifies the authenticated actor applying a transition.
	ModeratorID uuid.UUID

	// OwnerID identifies the publisher that owns a resource.
	OwnerID uuid.UUID

	// TaskID identifies a notification task.
	TaskID uuid.UUID

	// EntryID identifies an audit entry.
	EntryID uuid.UUID
)

func (i ResourceID) String() string  { return uuid.UUID(i).String() }
func (i ModeratorID) String() string { return uuid.UUID(i).String() }
func (i OwnerID) String() string     { return uuid.UUID(i).String() }
func (i TaskID) String() string      { return uuid.UUID(i).String() }
func (i EntryID) String() string     { return uuid.UUID(i).String() }

func (i ResourceID) IsNil() bool  { return uuid.UUID(i) == uuid.Nil }
func (i ModeratorID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i OwnerID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }
func (i TaskID) IsNil() bool      { return uuid.UUID(i) == uuid.Nil }
func (i EntryID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }

// ParseResourceID parses external input into a ResourceID.
func ParseResourceID(s string) (ResourceID, error) {
	u, err := parseUUID(s, "resource id")
	return ResourceID(u), err
}

// ParseModeratorID parses external input into a ModeratorID.
func ParseModeratorID(s string) (ModeratorID, error) {
	u, err := parseUUID(s, "moderator id")
	return ModeratorID(u), err
}

// ParseOwnerID parses external input into an OwnerID.
func ParseOwnerID(s string) (OwnerID, error) {
	u, err := parseUUID(s, "owner id")
	return OwnerID(u), err
}

// ParseTaskID parses external input into a TaskID.
func ParseTaskID(s string) (TaskID, error) {
	u, err := parseUUID(s, "task id")
	return TaskID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil UUID")
	}
	return u, nil
}
