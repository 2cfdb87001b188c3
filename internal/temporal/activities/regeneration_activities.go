package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/stanstork/leadwatch-api/internal/notification"
)

type Activities struct {
	Regenerator notification.Regenerator
}

// RegenerateActivity runs one full regeneration pass on the worker.
func (a *Activities) RegenerateActivity(ctx context.Context) (notification.RegenerateResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Regenerating notifications")

	result, err := a.Regenerator.Regenerate(ctx)
	if err != nil {
		logger.Error("Regeneration failed", "error", err)
		return notification.RegenerateResult{}, err
	}

	logger.Info("Regeneration finished",
		"notificationsCreated", result.NotificationsCreated,
		"salesmenProcessed", result.SalesmenProcessed,
		"salesmenFailed", result.SalesmenFailed,
	)
	return result, nil
}
