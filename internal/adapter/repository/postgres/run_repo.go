package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/cfadjust/internal/domain"
)

// DBTX is the subset of *pgxpool.Pool the journal needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// RunRepository journals adjustment runs in PostgreSQL.
type RunRepository struct {
	db      DBTX
	retrier *Retrier
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(db DBTX, retrier *Retrier) *RunRepository {
	return &RunRepository{db: db, retrier: retrier}
}

const upsertRunQuery = `
	INSERT INTO adjustment_runs (
		id, kind, entry_id, state, last_state, requests,
		created_entries, error, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		state = EXCLUDED.state,
		last_state = EXCLUDED.last_state,
		requests = EXCLUDED.requests,
		created_entries = EXCLUDED.created_entries,
		error = EXCLUDED.error,
		updated_at = EXCLUDED.updated_at
`

const listRunsQuery = `
	SELECT id, kind, entry_id, state, last_state, requests,
	       created_entries, error, created_at, updated_at
	FROM adjustment_runs
	ORDER BY created_at DESC, id DESC
	LIMIT $1 OFFSET $2
`

// Save inserts the run or replaces its mutable columns. A run is saved
// several times as it moves through the pipeline.
func (r *RunRepository) Save(ctx context.Context, run *domain.AdjustmentRun) error {
	requests := run.Requests
	if requests == nil {
		requests = []domain.NewEntryRequest{}
	}
	payload, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("marshal run requests: %w", err)
	}

	return r.retrier.Retry(ctx, func() error {
		_, err := r.db.Exec(ctx, upsertRunQuery,
			run.ID,
			string(run.Kind),
			run.EntryID,
			string(run.State),
			string(run.LastState),
			payload,
			run.CreatedEntries,
			run.Error,
			run.CreatedAt,
			run.UpdatedAt,
		)
		return err
	})
}

// List returns runs newest first.
func (r *RunRepository) List(ctx context.Context, limit, offset int) ([]*domain.AdjustmentRun, error) {
	rows, err := r.db.Query(ctx, listRunsQuery, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.AdjustmentRun, 0)
	for rows.Next() {
		var (
			run               domain.AdjustmentRun
			kind, state, last string
			payload           []byte
		)
		if err := rows.Scan(
			&run.ID,
			&kind,
			&run.EntryID,
			&state,
			&last,
			&payload,
			&run.CreatedEntries,
			&run.Error,
			&run.CreatedAt,
			&run.UpdatedAt,
		); err != nil {
			return nil, err
		}
		run.Kind = domain.WorkflowKind(kind)
		run.State = domain.RunState(state)
		run.LastState = domain.RunState(last)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &run.Requests); err != nil {
				return nil, fmt.Errorf("decode requests of run %s: %w", run.ID, err)
			}
		}
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}
