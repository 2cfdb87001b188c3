package dispatch

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/stanstork/leadwatch-api/internal/notification"
	"github.com/stanstork/leadwatch-api/internal/temporal"
	"github.com/stanstork/leadwatch-api/internal/temporal/workflows"
)

// Dispatcher satisfies notification.Regenerator by running the pass as a
// Temporal workflow and waiting for its result.
type Dispatcher struct {
	client    client.Client
	taskQueue string
	trigger   string
	logger    zerolog.Logger
}

var _ notification.Regenerator = (*Dispatcher)(nil)

func NewDispatcher(c client.Client, taskQueue, trigger string, logger zerolog.Logger) *Dispatcher {
	if taskQueue == "" {
		taskQueue = temporal.DefaultTaskQueue
	}
	return &Dispatcher{
		client:    c,
		taskQueue: taskQueue,
		trigger:   trigger,
		logger:    logger.With().Str("component", "regeneration_dispatcher").Logger(),
	}
}

func (d *Dispatcher) Regenerate(ctx context.Context) (notification.RegenerateResult, error) {
	opts := client.StartWorkflowOptions{
		ID:                       temporal.RegenerationWorkflowID,
		TaskQueue:                d.taskQueue,
		WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}

	run, err := d.client.ExecuteWorkflow(ctx, opts, workflows.RegenerationWorkflow, temporal.RegenerationParams{Trigger: d.trigger})
	if err != nil {
		return notification.RegenerateResult{}, errors.Wrap(err, "start regeneration workflow")
	}
	d.logger.Debug().Str("workflow_id", run.GetID()).Str("run_id", run.GetRunID()).Str("trigger", d.trigger).Msg("regeneration dispatched")

	var result notification.RegenerateResult
	if err := run.Get(ctx, &result); err != nil {
		return notification.RegenerateResult{}, errors.Wrap(err, "regeneration workflow failed")
	}
	return result, nil
}
