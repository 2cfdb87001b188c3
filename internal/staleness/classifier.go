package staleness

import (
	"time"

	"github.com/stanstork/leadwatch-api/internal/models"
)

const (
	DefaultOverdueAfter  = 4 * 24 * time.Hour
	DefaultStaleAfter    = 14 * 24 * time.Hour
	DefaultUncalledAfter = 14 * 24 * time.Hour
)

// Bucket is the contact-recency class of a lead. A lead sits in exactly one.
type Bucket string

const (
	BucketNone    Bucket = "none"
	BucketOverdue Bucket = "overdue"
	BucketStale   Bucket = "stale"
)

type Thresholds struct {
	OverdueAfter  time.Duration
	StaleAfter    time.Duration
	UncalledAfter time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		OverdueAfter:  DefaultOverdueAfter,
		StaleAfter:    DefaultStaleAfter,
		UncalledAfter: DefaultUncalledAfter,
	}
}

// WithDefaults fills zero fields so a partially configured Thresholds still
// behaves like the documented ladder.
func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	if t.OverdueAfter <= 0 {
		t.OverdueAfter = d.OverdueAfter
	}
	if t.StaleAfter <= 0 {
		t.StaleAfter = d.StaleAfter
	}
	if t.UncalledAfter <= 0 {
		t.UncalledAfter = d.UncalledAfter
	}
	return t
}

type Result struct {
	Contact  Bucket
	Uncalled bool
}

type Classifier struct {
	thresholds Thresholds
}

func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t.WithDefaults()}
}

// Thresholds returns the resolved thresholds the classifier applies.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify is Classifier.Classify with the default thresholds.
func Classify(lead models.Lead, now time.Time) Result {
	return NewClassifier(DefaultThresholds()).Classify(lead, now)
}

// Classify places a lead in its contact bucket and flags it as uncalled.
// Missing, zero or future timestamps never raise a flag.
func (c *Classifier) Classify(lead models.Lead, now time.Time) Result {
	res := Result{Contact: BucketNone}
	if lead.Status.IsClosed() {
		return res
	}

	if elapsed, ok := elapsedSince(lead.LastContact, now); ok {
		switch {
		case elapsed >= c.thresholds.StaleAfter:
			res.Contact = BucketStale
		case elapsed >= c.thresholds.OverdueAfter:
			res.Contact = BucketOverdue
		}
	}

	if lead.CallStatus == models.CallStatusNotCalled {
		created := lead.CreatedAt
		if age, ok := elapsedSince(&created, now); ok && age >= c.thresholds.UncalledAfter {
			res.Uncalled = true
		}
	}
	return res
}

func elapsedSince(ts *time.Time, now time.Time) (time.Duration, bool) {
	if ts == nil || ts.IsZero() {
		return 0, false
	}
	elapsed := now.Sub(*ts)
	if elapsed < 0 {
		return 0, false
	}
	return elapsed, true
}

// Buckets groups one salesman's leads by classification.
type Buckets struct {
	Overdue  []models.Lead
	Stale    []models.Lead
	Uncalled []models.Lead
}

func (b Buckets) Empty() bool {
	return len(b.Overdue) == 0 && len(b.Stale) == 0 && len(b.Uncalled) == 0
}

// Partition classifies every lead, preserving input order within each bucket.
func (c *Classifier) Partition(leads []models.Lead, now time.Time) Buckets {
	var b Buckets
	for _, lead := range leads {
		res := c.Classify(lead, now)
		switch res.Contact {
		case BucketStale:
			b.Stale = append(b.Stale, lead)
		case BucketOverdue:
			b.Overdue = append(b.Overdue, lead)
		}
		if res.Uncalled {
			b.Uncalled = append(b.Uncalled, lead)
		}
	}
	return b
}

// DaysSince returns whole days since ts, or -1 when ts is unusable.
func DaysSince(ts *time.Time, now time.Time) int {
	elapsed, ok := elapsedSince(ts, now)
	if !ok {
		return -1
	}
	return int(elapsed / (24 * time.Hour))
}
