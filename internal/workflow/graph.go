// Package workflow runs small state graphs whose progress is checkpointed
// per thread, so a run can be resumed after a crash and a finished thread
// can be continued with new input.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	Start = "__start__"
	End   = "__end__"

	defaultRecursionLimit = 25
)

var ErrRecursionLimit = errors.New("workflow: recursion limit reached")

// Node computes an update from the current state. The update is folded into
// the state by the graph's Reducer.
type Node[S, U any] func(ctx context.Context, state S) (U, error)

// Router picks the next node from the state after a node has run.
type Router[S any] func(state S) string

// Reducer folds an update into the state. A zero update must leave the
// state unchanged.
type Reducer[S, U any] func(state S, update U) S

type Builder[S, U any] struct {
	reducer  Reducer[S, U]
	nodes    map[string]Node[S, U]
	order    []string
	edges    map[string]string
	branches map[string]Router[S]
	errs     []error
}

func NewBuilder[S, U any](reducer Reducer[S, U]) *Builder[S, U] {
	return &Builder[S, U]{
		reducer:  reducer,
		nodes:    make(map[string]Node[S, U]),
		edges:    make(map[string]string),
		branches: make(map[string]Router[S]),
	}
}

func (b *Builder[S, U]) AddNode(name string, fn Node[S, U]) *Builder[S, U] {
	switch {
	case name == "" || name == Start || name == End:
		b.errs = append(b.errs, fmt.Errorf("invalid node name %q", name))
	case fn == nil:
		b.errs = append(b.errs, fmt.Errorf("node %q has no function", name))
	case b.nodes[name] != nil:
		b.errs = append(b.errs, fmt.Errorf("node %q added twice", name))
	default:
		b.nodes[name] = fn
		b.order = append(b.order, name)
	}
	return b
}

// AddEdge connects from to to unconditionally. Use Start as from to set the
// entry node.
func (b *Builder[S, U]) AddEdge(from, to string) *Builder[S, U] {
	if b.hasOutgoing(from) {
		b.errs = append(b.errs, fmt.Errorf("node %q already has an outgoing edge", from))
		return b
	}
	b.edges[from] = to
	return b
}

func (b *Builder[S, U]) AddConditionalEdges(from string, router Router[S]) *Builder[S, U] {
	if router == nil {
		b.errs = append(b.errs, fmt.Errorf("node %q has a nil router", from))
		return b
	}
	if b.hasOutgoing(from) {
		b.errs = append(b.errs, fmt.Errorf("node %q already has an outgoing edge", from))
		return b
	}
	b.branches[from] = router
	return b
}

func (b *Builder[S, U]) hasOutgoing(from string) bool {
	_, edge := b.edges[from]
	_, branch := b.branches[from]
	return edge || branch
}

type Option func(*options)

type options struct {
	recursionLimit int
	logger         *slog.Logger
	now            func() time.Time
}

func WithRecursionLimit(n int) Option {
	return func(o *options) { o.recursionLimit = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Compile validates the graph. Every node needs exactly one outgoing edge
// or router, and static edges must point at known nodes.
func (b *Builder[S, U]) Compile(cp Checkpointer, opts ...Option) (*Graph[S, U], error) {
	errs := append([]error(nil), b.errs...)
	if cp == nil {
		errs = append(errs, errors.New("checkpointer is required"))
	}
	if b.reducer == nil {
		errs = append(errs, errors.New("reducer is required"))
	}

	entry, ok := b.edges[Start]
	switch {
	case !ok:
		errs = append(errs, errors.New("no edge from Start"))
	case b.nodes[entry] == nil:
		errs = append(errs, fmt.Errorf("entry node %q is not defined", entry))
	}
	if _, ok := b.branches[Start]; ok {
		errs = append(errs, errors.New("conditional edges from Start are not supported"))
	}

	for _, name := range b.order {
		if !b.hasOutgoing(name) {
			errs = append(errs, fmt.Errorf("node %q has no outgoing edge", name))
		}
	}
	for from, to := range b.edges {
		if from != Start && b.nodes[from] == nil {
			errs = append(errs, fmt.Errorf("edge from unknown node %q", from))
		}
		if to != End && b.nodes[to] == nil {
			errs = append(errs, fmt.Errorf("edge from %q to unknown node %q", from, to))
		}
	}
	for from := range b.branches {
		if from != Start && b.nodes[from] == nil {
			errs = append(errs, fmt.Errorf("router on unknown node %q", from))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("workflow: compile: %w", errors.Join(errs...))
	}

	o := options{recursionLimit: defaultRecursionLimit, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Graph[S, U]{
		entry:    entry,
		reducer:  b.reducer,
		nodes:    b.nodes,
		edges:    b.edges,
		branches: b.branches,
		cp:       cp,
		opts:     o,
	}, nil
}

// Graph is a compiled, immutable workflow. It is safe for concurrent use
// across different threads; concurrent runs of the same thread race on
// checkpoint sequence numbers and the loser gets ErrCheckpointConflict.
type Graph[S, U any] struct {
	entry    string
	reducer  Reducer[S, U]
	nodes    map[string]Node[S, U]
	edges    map[string]string
	branches map[string]Router[S]
	cp       Checkpointer
	opts     options
}

// Invoke folds input into the thread's state and runs the graph. A thread
// whose last run did not finish continues at the node it stopped before;
// otherwise execution starts at the entry node.
func (g *Graph[S, U]) Invoke(ctx context.Context, threadID string, input U) (S, error) {
	var state S
	if threadID == "" {
		return state, errors.New("workflow: thread id is required")
	}

	next := g.entry
	seq := 0

	latest, err := g.cp.Latest(ctx, threadID)
	switch {
	case errors.Is(err, ErrNoCheckpoint):
	case err != nil:
		return state, fmt.Errorf("workflow: load checkpoint: %w", err)
	default:
		if err := json.Unmarshal(latest.State, &state); err != nil {
			return state, fmt.Errorf("workflow: decode checkpoint: %w", err)
		}
		seq = latest.Seq + 1
		if !latest.Finished() {
			next = latest.Next
		}
	}

	state = g.reducer(state, input)
	if err := g.save(ctx, threadID, seq, Start, next, state); err != nil {
		return state, err
	}

	log := g.opts.logger.With(slog.String("thread_id", threadID))
	for steps := 0; next != End; steps++ {
		if steps >= g.opts.recursionLimit {
			return state, fmt.Errorf("%w (%d steps)", ErrRecursionLimit, g.opts.recursionLimit)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		name := next
		node := g.nodes[name]
		update, err := node(ctx, state)
		if err != nil {
			return state, fmt.Errorf("workflow: node %q: %w", name, err)
		}
		state = g.reducer(state, update)

		next, err = g.route(name, state)
		if err != nil {
			return state, err
		}

		seq++
		if err := g.save(ctx, threadID, seq, name, next, state); err != nil {
			return state, err
		}
		log.Debug("workflow step", slog.String("node", name), slog.String("next", next), slog.Int("seq", seq))
	}

	return state, nil
}

// State returns the thread's latest saved state.
func (g *Graph[S, U]) State(ctx context.Context, threadID string) (S, *Checkpoint, error) {
	var state S
	latest, err := g.cp.Latest(ctx, threadID)
	if err != nil {
		return state, nil, err
	}
	if err := json.Unmarshal(latest.State, &state); err != nil {
		return state, nil, fmt.Errorf("workflow: decode checkpoint: %w", err)
	}
	return state, latest, nil
}

func (g *Graph[S, U]) route(from string, state S) (string, error) {
	if to, ok := g.edges[from]; ok {
		return to, nil
	}
	to := g.branches[from](state)
	if to != End && g.nodes[to] == nil {
		return "", fmt.Errorf("workflow: router on %q chose unknown node %q", from, to)
	}
	return to, nil
}

func (g *Graph[S, U]) save(ctx context.Context, threadID string, seq int, node, next string, state S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("workflow: encode state: %w", err)
	}
	cp := &Checkpoint{
		ThreadID:  threadID,
		Seq:       seq,
		Node:      node,
		Next:      next,
		State:     data,
		CreatedAt: g.opts.now().UTC(),
	}
	if err := g.cp.Save(ctx, cp); err != nil {
		return fmt.Errorf("workflow: save checkpoint: %w", err)
	}
	return nil
}
