package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNoCheckpoint is returned by a Checkpointer for a thread it has
	// never seen.
	ErrNoCheckpoint = errors.New("workflow: no checkpoint for thread")
	// ErrCheckpointConflict means another run saved the same step of the
	// thread first.
	ErrCheckpointConflict = errors.New("workflow: checkpoint already exists")
)

// Checkpoint is the state of a thread after one step. Next is End once the
// run has finished.
type Checkpoint struct {
	ThreadID  string          `json:"thread_id"`
	Seq       int             `json:"seq"`
	Node      string          `json:"node"`
	Next      string          `json:"next"`
	State     json.RawMessage `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

func (c *Checkpoint) Finished() bool { return c.Next == End }

// Checkpointer persists checkpoints per thread. Save must reject a second
// checkpoint with the same thread and sequence with ErrCheckpointConflict.
type Checkpointer interface {
	Latest(ctx context.Context, threadID string) (*Checkpoint, error)
	Save(ctx context.Context, cp *Checkpoint) error
	History(ctx context.Context, threadID string) ([]*Checkpoint, error)
}
