package models

import (
	"time"

	id "modgate/pkg/domain"
)

// AuditEntry records exactly one committed transition. Entries are immutable
// and append-only; the trail for a resource is strictly ordered by creation.
type AuditEntry struct {
	ID          id.EntryID     `json:"id"`
	ResourceID  id.ResourceID  `json:"resource_id"`
	Kind        Kind           `json:"kind"`
	FromStatus  Status         `json:"from_status"`
	ToStatus    Status         `json:"to_status"`
	Action      Action         `json:"action"`
	ModeratorID id.ModeratorID `json:"moderator_id"`
	Message     string         `json:"message,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
