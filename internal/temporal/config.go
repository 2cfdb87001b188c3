package temporal

import "time"

// DefaultTaskQueue is used when no task queue is configured.
const DefaultTaskQueue = "leadwatch-notifications"

// RegenerationWorkflowID is fixed so that concurrent triggers attach to the
// execution already in flight instead of starting a second pass.
const RegenerationWorkflowID = "leadwatch-regenerate-notifications"

// DefaultActivityTimeout bounds a single regeneration pass.
const DefaultActivityTimeout = 5 * time.Minute

// RegenerationParams is the workflow input.
type RegenerationParams struct {
	Trigger string
}
