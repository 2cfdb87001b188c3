package notification

import (
	"fmt"
	"time"

	"github.com/stanstork/leadwatch-api/internal/models"
	"github.com/stanstork/leadwatch-api/internal/repository"
	"github.com/stanstork/leadwatch-api/internal/staleness"
)

// SampleSize caps the lead summaries embedded in one notification payload.
const SampleSize = 10

// LeadSummary is the payload shape for a sampled lead. Missing contact
// details are rendered as empty strings.
type LeadSummary struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Company          string     `json:"company"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Status           string     `json:"status"`
	CallStatus       string     `json:"call_status"`
	LastContact      *time.Time `json:"last_contact"`
	DaysSinceContact int        `json:"days_since_contact"`
}

func summarize(leads []models.Lead, now time.Time) []LeadSummary {
	n := len(leads)
	if n > SampleSize {
		n = SampleSize
	}
	out := make([]LeadSummary, 0, n)
	for _, lead := range leads[:n] {
		out = append(out, LeadSummary{
			ID:               lead.ID,
			Name:             lead.Name,
			Company:          lead.Company,
			Email:            lead.Email,
			Phone:            lead.Phone,
			Status:           string(lead.Status),
			CallStatus:       string(lead.CallStatus),
			LastContact:      lead.LastContact,
			DaysSinceContact: staleness.DaysSince(lead.LastContact, now),
		})
	}
	return out
}

func OverduePriority(count int) models.NotificationPriority {
	switch {
	case count > 20:
		return models.NotificationPriorityHigh
	case count > 10:
		return models.NotificationPriorityMedium
	default:
		return models.NotificationPriorityLow
	}
}

func StalePriority(int) models.NotificationPriority {
	return models.NotificationPriorityHigh
}

func UncalledPriority(count int) models.NotificationPriority {
	switch {
	case count > 5:
		return models.NotificationPriorityHigh
	case count > 2:
		return models.NotificationPriorityMedium
	default:
		return models.NotificationPriorityLow
	}
}

type bucketSpec struct {
	name      string
	kind      models.NotificationType
	adjective string
	priority  func(int) models.NotificationPriority
	message   func(name string, n int, t staleness.Thresholds) string
}

var bucketSpecs = []bucketSpec{
	{
		name:      string(staleness.BucketOverdue),
		kind:      models.NotificationTypeStaleLead,
		adjective: "overdue",
		priority:  OverduePriority,
		message: func(name string, n int, t staleness.Thresholds) string {
			return fmt.Sprintf("%s has %d %s without contact for %s.", name, n, plural(n), orMore(t.OverdueAfter))
		},
	},
	{
		name:      string(staleness.BucketStale),
		kind:      models.NotificationTypeStaleLead,
		adjective: "stale",
		priority:  StalePriority,
		message: func(name string, n int, t staleness.Thresholds) string {
			return fmt.Sprintf("%s has %d %s without contact for %s.", name, n, plural(n), orMore(t.StaleAfter))
		},
	},
	{
		name:      "uncalled",
		kind:      models.NotificationTypeNoCalls,
		adjective: "uncalled",
		priority:  UncalledPriority,
		message: func(name string, n int, t staleness.Thresholds) string {
			return fmt.Sprintf("%s has %d %s that were never called, created %s ago.", name, n, plural(n), orMore(t.UncalledAfter))
		},
	},
}

// BuildNotifications turns one salesman's buckets into notification rows, one
// per non-empty bucket, in a fixed order.
func BuildNotifications(salesman models.User, b staleness.Buckets, now time.Time) []repository.CreateNotificationParams {
	return BuildNotificationsWith(staleness.DefaultThresholds(), salesman, b, now)
}

// BuildNotificationsWith is BuildNotifications with messages worded for the
// thresholds that produced the buckets.
func BuildNotificationsWith(t staleness.Thresholds, salesman models.User, b staleness.Buckets, now time.Time) []repository.CreateNotificationParams {
	t = t.WithDefaults()
	groups := map[string][]models.Lead{
		string(staleness.BucketOverdue): b.Overdue,
		string(staleness.BucketStale):   b.Stale,
		"uncalled":                      b.Uncalled,
	}

	name := salesman.DisplayName()
	salesmanID := salesman.ID

	var out []repository.CreateNotificationParams
	for _, spec := range bucketSpecs {
		leads := groups[spec.name]
		n := len(leads)
		if n == 0 {
			continue
		}
		out = append(out, repository.CreateNotificationParams{
			Type:       spec.kind,
			Priority:   spec.priority(n),
			SalesmanID: &salesmanID,
			Title:      fmt.Sprintf("%d %s %s for %s", n, spec.adjective, plural(n), name),
			Message:    spec.message(name, n, t),
			Payload: map[string]interface{}{
				"bucket":      spec.name,
				"count":       n,
				"salesman_id": salesmanID,
				"leads":       summarize(leads, now),
			},
		})
	}
	return out
}

// orMore renders a threshold as "4 or more days", falling back to hours or
// the raw duration when it is not a whole number of days.
func orMore(d time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case d >= day && d%day == 0:
		return fmt.Sprintf("%d or more days", int(d/day))
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d or more hours", int(d/time.Hour))
	default:
		return d.String() + " or more"
	}
}

func plural(n int) string {
	if n == 1 {
		return "lead"
	}
	return "leads"
}
