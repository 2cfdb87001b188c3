package models

import (
	"encoding/json"
	"time"
)

type ActivityAction string

const (
	ActivityActionLogin      ActivityAction = "login"
	ActivityActionLogout     ActivityAction = "logout"
	ActivityActionHeartbeat  ActivityAction = "heartbeat"
	ActivityActionLeadUpdate ActivityAction = "lead_update"
	ActivityActionCallLogged ActivityAction = "call_logged"
)

func (a ActivityAction) IsValid() bool {
	switch a {
	case ActivityActionLogin, ActivityActionLogout, ActivityActionHeartbeat,
		ActivityActionLeadUpdate, ActivityActionCallLogged:
		return true
	}
	return false
}

type ActivityLog struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Action    ActivityAction  `json:"action" db:"action"`
	Details   json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// SalesmanActivity is the raw input for status classification: the newest
// activity timestamp and whether a login is still open.
type SalesmanActivity struct {
	SalesmanID   string
	LastActivity *time.Time
	LastLogin    *time.Time
	LastLogout   *time.Time
}

// HasSession reports whether the latest login has not been closed by a logout.
func (a SalesmanActivity) HasSession() bool {
	if a.LastLogin == nil {
		return false
	}
	if a.LastLogout == nil {
		return true
	}
	return a.LastLogin.After(*a.LastLogout)
}
