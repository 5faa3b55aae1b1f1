// Package checkpoint provides workflow.Checkpointer implementations.
package checkpoint

import (
	"context"
	"sync"

	"github.com/dom/storyverse/internal/workflow"
)

// Memory keeps checkpoints in process. Useful for tests and one-shot runs.
type Memory struct {
	mu      sync.RWMutex
	threads map[string][]*workflow.Checkpoint
}

func NewMemory() *Memory {
	return &Memory{threads: make(map[string][]*workflow.Checkpoint)}
}

func (m *Memory) Latest(_ context.Context, threadID string) (*workflow.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.threads[threadID]
	if len(history) == 0 {
		return nil, workflow.ErrNoCheckpoint
	}
	return clone(history[len(history)-1]), nil
}

func (m *Memory) Save(_ context.Context, cp *workflow.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.threads[cp.ThreadID]
	if len(history) > 0 && history[len(history)-1].Seq >= cp.Seq {
		return workflow.ErrCheckpointConflict
	}
	m.threads[cp.ThreadID] = append(history, clone(cp))
	return nil
}

func (m *Memory) History(_ context.Context, threadID string) ([]*workflow.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.threads[threadID]
	out := make([]*workflow.Checkpoint, 0, len(history))
	for _, cp := range history {
		out = append(out, clone(cp))
	}
	return out, nil
}

func clone(cp *workflow.Checkpoint) *workflow.Checkpoint {
	c := *cp
	c.State = append([]byte(nil), cp.State...)
	return &c
}
