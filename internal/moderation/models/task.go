package models

import (
	"time"

	id "modgate/pkg/domain"
)

// DeliveryState tracks a notification task through the dispatcher.
type DeliveryState string

const (
	DeliveryQueued DeliveryState = "queued"
	DeliverySent   DeliveryState = "sent"
	DeliveryFailed DeliveryState = "failed"
)

// NotificationTask is a durable, independently retryable unit of outbound
// messaging tied to one transition. Created atomically with its audit entry;
// only the delivery bookkeeping fields (State, Attempts, NextAttemptAt,
// UpdatedAt) change afterwards.
type NotificationTask struct {
	ID            id.TaskID     `json:"id"`
	ResourceID    id.ResourceID `json:"resource_id"`
	Recipient     string        `json:"recipient"`
	Channel       string        `json:"channel"`
	Subject       string        `json:"subject"`
	Body          string        `json:"body"`
	State         DeliveryState `json:"state"`
	Attempts      int           `json:"attempts"`
	NextAttemptAt time.Time     `json:"next_attempt_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
