package activity

import "time"

type Status string

const (
	StatusOnline  Status = "online"
	StatusIdle    Status = "idle"
	StatusAFK     Status = "afk"
	StatusOffline Status = "offline"
)

const (
	DefaultOnlineWithin = 5 * time.Minute
	DefaultIdleWithin   = 10 * time.Minute
	DefaultAFKWithin    = 30 * time.Minute
)

type Thresholds struct {
	OnlineWithin time.Duration
	IdleWithin   time.Duration
	AFKWithin    time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		OnlineWithin: DefaultOnlineWithin,
		IdleWithin:   DefaultIdleWithin,
		AFKWithin:    DefaultAFKWithin,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.OnlineWithin <= 0 {
		t.OnlineWithin = d.OnlineWithin
	}
	if t.IdleWithin <= 0 {
		t.IdleWithin = d.IdleWithin
	}
	if t.AFKWithin <= 0 {
		t.AFKWithin = d.AFKWithin
	}
	return t
}

// Classify is ClassifyWith using the default thresholds.
func Classify(lastActivity *time.Time, hasSession bool, now time.Time) Status {
	return ClassifyWith(DefaultThresholds(), lastActivity, hasSession, now)
}

// ClassifyWith maps the recency of a salesman's last activity to a status.
//
// The ladder is not monotonic: a salesman who is still logged in but has been
// silent past the AFK window reads as idle again, never offline. Offline is
// reserved for salesmen without an open session or without any activity.
// Timestamps in the future are treated as activity right now.
func ClassifyWith(t Thresholds, lastActivity *time.Time, hasSession bool, now time.Time) Status {
	t = t.withDefaults()
	if !hasSession || lastActivity == nil || lastActivity.IsZero() {
		return StatusOffline
	}

	elapsed := now.Sub(*lastActivity)
	if elapsed < 0 {
		elapsed = 0
	}

	switch {
	case elapsed < t.OnlineWithin:
		return StatusOnline
	case elapsed < t.IdleWithin:
		return StatusIdle
	case elapsed < t.AFKWithin:
		return StatusAFK
	default:
		return StatusIdle
	}
}
