package models

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationTypeStaleLead        NotificationType = "stale_lead"
	NotificationTypeNoCalls          NotificationType = "no_calls"
	NotificationTypeInactiveSalesman NotificationType = "inactive_salesman"
)

// GeneratedNotificationTypes are the types owned by the regeneration pass.
// Rows of these types are replaced wholesale on every pass.
var GeneratedNotificationTypes = []NotificationType{
	NotificationTypeStaleLead,
	NotificationTypeNoCalls,
}

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypeStaleLead, NotificationTypeNoCalls, NotificationTypeInactiveSalesman:
		return true
	}
	return false
}

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
)

type Notification struct {
	ID         string               `json:"id" db:"id"`
	Type       NotificationType     `json:"type" db:"type"`
	Priority   NotificationPriority `json:"priority" db:"priority"`
	SalesmanID *string              `json:"salesman_id,omitempty" db:"salesman_id"`
	Title      string               `json:"title" db:"title"`
	Message    string               `json:"message" db:"message"`
	Payload    json.RawMessage      `json:"payload,omitempty" db:"payload"`
	IsRead     bool                 `json:"is_read" db:"is_read"`
	CreatedAt  time.Time            `json:"created_at" db:"created_at"`
}
