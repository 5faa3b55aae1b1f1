package jobs

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskWorkflowRun runs a named workflow graph on a thread.
	TaskWorkflowRun = "workflow:run"
)

// WorkflowRunPayload identifies the graph, the thread whose checkpoints it
// runs against, and the graph-specific input update.
type WorkflowRunPayload struct {
	Graph    string          `json:"graph"`
	ThreadID string          `json:"thread_id"`
	Input    json.RawMessage `json:"input,omitempty"`
}

func (p WorkflowRunPayload) validate() error {
	if p.Graph == "" {
		return errors.New("graph is required")
	}
	if p.ThreadID == "" {
		return errors.New("thread_id is required")
	}
	return nil
}

// NewWorkflowRunTask constructs an Asynq task.
func NewWorkflowRunTask(payload WorkflowRunPayload) (*asynq.Task, error) {
	if err := payload.validate(); err != nil {
		return nil, fmt.Errorf("workflow run task: %w", err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWorkflowRun, data), nil
}
