package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dom/storyverse/internal/workflow"
	"github.com/hibiken/asynq"
)

// Runnable is a workflow graph with its state and input types erased to
// JSON, so graphs of different shapes can share one task type.
type Runnable interface {
	Run(ctx context.Context, threadID string, input json.RawMessage) (json.RawMessage, error)
}

type graphRunnable[S, U any] struct {
	graph *workflow.Graph[S, U]
}

// Bind adapts a compiled graph to Runnable.
func Bind[S, U any](graph *workflow.Graph[S, U]) Runnable {
	return graphRunnable[S, U]{graph: graph}
}

// errBadInput marks input that can never succeed.
var errBadInput = errors.New("invalid workflow input")

func (r graphRunnable[S, U]) Run(ctx context.Context, threadID string, input json.RawMessage) (json.RawMessage, error) {
	var update U
	if len(input) > 0 {
		if err := json.Unmarshal(input, &update); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadInput, err)
		}
	}
	state, err := r.graph.Invoke(ctx, threadID, update)
	if err != nil {
		return nil, err
	}
	return json.Marshal(state)
}

// Runner handles workflow:run tasks by resolving the graph by name.
type Runner struct {
	graphs map[string]Runnable
	logger *slog.Logger
	clock  func() time.Time
}

// NewRunner wires the graphs the worker can execute.
func NewRunner(graphs map[string]Runnable, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		graphs: graphs,
		logger: logger,
		clock:  time.Now,
	}
}

// Handle processes workflow run tasks.
func (r *Runner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload WorkflowRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := payload.validate(); err != nil {
		return fmt.Errorf("workflow run: %v: %w", err, asynq.SkipRetry)
	}
	_, err := r.Run(ctx, payload)
	if errors.Is(err, errBadInput) || errors.Is(err, errUnknownGraph) || errors.Is(err, workflow.ErrRecursionLimit) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

var errUnknownGraph = errors.New("unknown workflow graph")

// Run executes the payload synchronously and returns the final state. Two
// concurrent runs on one thread race on the checkpoint sequence; the loser
// fails with workflow.ErrCheckpointConflict and is retried by the queue.
func (r *Runner) Run(ctx context.Context, payload WorkflowRunPayload) (json.RawMessage, error) {
	graph, ok := r.graphs[payload.Graph]
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownGraph, payload.Graph)
	}

	logger := r.logger.With(
		slog.String("graph", payload.Graph),
		slog.String("thread_id", payload.ThreadID),
	)

	start := r.clock()
	logger.Info("workflow started")
	state, err := graph.Run(ctx, payload.ThreadID, payload.Input)
	if err != nil {
		logger.Error("workflow failed", slog.Any("error", err), slog.Duration("duration", r.clock().Sub(start)))
		return nil, err
	}
	logger.Info("workflow complete", slog.Duration("duration", r.clock().Sub(start)))
	return state, nil
}
