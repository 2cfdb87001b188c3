package scheduler

import (
	"context"
	"time"

	"github.com/stanstork/leadwatch-api/internal/activity"
	"github.com/stanstork/leadwatch-api/internal/notification"
)

const (
	JobRegenerate = "regenerate-notifications"
	JobAFKCheck   = "afk-check"
	JobPurge      = "purge-notifications"
)

type AFKChecker interface {
	CheckAFK(ctx context.Context) (activity.CheckResult, error)
}

type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

func RegenerateJob(r notification.Regenerator, every time.Duration) Job {
	return Job{
		Name:     JobRegenerate,
		Interval: every,
		Run: func(ctx context.Context) error {
			_, err := r.Regenerate(ctx)
			return err
		},
	}
}

func AFKCheckJob(c AFKChecker, every time.Duration) Job {
	return Job{
		Name:     JobAFKCheck,
		Interval: every,
		Run: func(ctx context.Context) error {
			_, err := c.CheckAFK(ctx)
			return err
		},
	}
}

func PurgeJob(p Purger, every time.Duration) Job {
	return Job{
		Name:     JobPurge,
		Interval: every,
		Run: func(ctx context.Context) error {
			_, err := p.PurgeExpired(ctx)
			return err
		},
	}
}
