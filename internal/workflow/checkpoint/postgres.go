package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/dom/storyverse/internal/workflow"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS workflow_checkpoints (
    thread_id  TEXT        NOT NULL,
    seq        INTEGER     NOT NULL,
    node       TEXT        NOT NULL,
    next       TEXT        NOT NULL,
    state      JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (thread_id, seq)
)`

// Postgres stores checkpoints in the workflow_checkpoints table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Setup creates the checkpoint table if it does not exist yet.
func (p *Postgres) Setup(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("checkpoint setup: %w", err)
	}
	return nil
}

func (p *Postgres) Latest(ctx context.Context, threadID string) (*workflow.Checkpoint, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT thread_id, seq, node, next, state, created_at
		FROM workflow_checkpoints
		WHERE thread_id = $1
		ORDER BY seq DESC
		LIMIT 1`, threadID)

	cp, err := scanCheckpoint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.ErrNoCheckpoint
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint latest: %w", err)
	}
	return cp, nil
}

func (p *Postgres) Save(ctx context.Context, cp *workflow.Checkpoint) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO workflow_checkpoints (thread_id, seq, node, next, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		cp.ThreadID, cp.Seq, cp.Node, cp.Next, []byte(cp.State), cp.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return workflow.ErrCheckpointConflict
		}
		return fmt.Errorf("checkpoint save: %w", err)
	}
	return nil
}

func (p *Postgres) History(ctx context.Context, threadID string) ([]*workflow.Checkpoint, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT thread_id, seq, node, next, state, created_at
		FROM workflow_checkpoints
		WHERE thread_id = $1
		ORDER BY seq`, threadID)
	if err != nil {
		return nil, fmt.Errorf("checkpoint history: %w", err)
	}
	defer rows.Close()

	var out []*workflow.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("checkpoint history: %w", err)
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("checkpoint history: %w", err)
	}
	return out, nil
}

func scanCheckpoint(row pgx.Row) (*workflow.Checkpoint, error) {
	var cp workflow.Checkpoint
	var state []byte
	if err := row.Scan(&cp.ThreadID, &cp.Seq, &cp.Node, &cp.Next, &state, &cp.CreatedAt); err != nil {
		return nil, err
	}
	cp.State = state
	return &cp, nil
}
