package workflows

import (
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/stanstork/leadwatch-api/internal/notification"
	lwtemporal "github.com/stanstork/leadwatch-api/internal/temporal"
	"github.com/stanstork/leadwatch-api/internal/temporal/activities"
)

// RegenerationWorkflow runs a single regeneration pass. The pass is not
// retried: a failure surfaces to whoever triggered it.
func RegenerationWorkflow(ctx workflow.Context, params lwtemporal.RegenerationParams) (notification.RegenerateResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: lwtemporal.DefaultActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	logger := workflow.GetLogger(ctx)
	logger.Info("Starting regeneration workflow", "trigger", params.Trigger)

	var a *activities.Activities
	var result notification.RegenerateResult
	if err := workflow.ExecuteActivity(ctx, a.RegenerateActivity).Get(ctx, &result); err != nil {
		logger.Error("Regeneration activity failed.", "error", err)
		return notification.RegenerateResult{}, err
	}

	logger.Info("Regeneration workflow completed.", "notificationsCreated", result.NotificationsCreated)
	return result, nil
}
