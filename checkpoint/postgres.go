package checkpoint

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS protify_checkpoints (
    tic          text PRIMARY KEY,
    run_id       uuid NOT NULL,
    completed_at timestamptz NOT NULL DEFAULT NOW()
)`
	selectDoneSQL = `SELECT tic FROM protify_checkpoints`
	commitSQL     = `INSERT INTO protify_checkpoints (tic, run_id, completed_at)
VALUES ($1, $2, NOW())
ON CONFLICT (tic) DO NOTHING`
)

var _ BatchStore = (*PGStore)(nil)

// PGStore keeps checkpoints in a Postgres table shared by every run.
type PGStore struct {
	pool  *pgxpool.Pool
	runID uuid.UUID
	owned bool
}

// OpenPG connects to databaseURL and creates the checkpoint table if needed.
// Commits are attributed to runID.
func OpenPG(ctx context.Context, databaseURL string, runID uuid.UUID) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: connect: %w", err)
	}
	s, err := NewPGStore(ctx, pool, runID)
	if err != nil {
		pool.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewPGStore wraps an existing pool. The caller keeps ownership of pool.
func NewPGStore(ctx context.Context, pool *pgxpool.Pool, runID uuid.UUID) (*PGStore, error) {
	s := &PGStore{pool: pool, runID: runID}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("checkpoint: create table: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *PGStore) Load(ctx context.Context) (Set, error) {
	rows, err := s.pool.Query(ctx, selectDoneSQL)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load: %w", err)
	}
	return NewSet(ids...), nil
}

// Commit implements Store.
func (s *PGStore) Commit(ctx context.Context, starID string) error {
	if _, err := s.pool.Exec(ctx, commitSQL, NormalizeID(starID), s.runID); err != nil {
		return fmt.Errorf("checkpoint: commit %s: %w", starID, err)
	}
	return nil
}

// CommitBatch implements BatchStore: one round trip for several stars.
func (s *PGStore) CommitBatch(ctx context.Context, starIDs []string) error {
	if len(starIDs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, id := range starIDs {
		batch.Queue(commitSQL, NormalizeID(id), s.runID)
	}
	res := s.pool.SendBatch(ctx, batch)
	defer res.Close()
	for range starIDs {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("checkpoint: commit batch: %w", err)
		}
	}
	return nil
}

// Close releases the pool when the store opened it.
func (s *PGStore) Close() {
	if s.owned {
		s.pool.Close()
	}
}
