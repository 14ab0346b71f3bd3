package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

type runRepo struct {
	db *sqlx.DB
}

// NewRunRepo creates a RunRepository over the processing_runs table.
func NewRunRepo(db *sqlx.DB) port.RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Create(ctx context.Context, run *domain.ProcessingRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	query := r.db.Rebind(`INSERT INTO processing_runs (
		id, worker_id, status, claimed, succeeded, failed, skipped,
		permanently_failed, llm_calls, model_name, error, started_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.WorkerID, string(run.Status), run.Claimed, run.Succeeded, run.Failed, run.Skipped,
		run.PermanentlyFailed, run.LLMCalls, run.ModelName, run.Error, run.StartedAt.UTC(), run.FinishedAt)
	if err != nil {
		return fmt.Errorf("runRepo.Create: %w", err)
	}
	return nil
}

func (r *runRepo) Finish(ctx context.Context, run *domain.ProcessingRun) error {
	query := r.db.Rebind(`UPDATE processing_runs SET
		status = ?, claimed = ?, succeeded = ?, failed = ?, skipped = ?,
		permanently_failed = ?, llm_calls = ?, model_name = ?, error = ?, finished_at = ?
	WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query,
		string(run.Status), run.Claimed, run.Succeeded, run.Failed, run.Skipped,
		run.PermanentlyFailed, run.LLMCalls, run.ModelName, run.Error, run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("runRepo.Finish: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("runRepo.Finish rows: %w", err)
	}
	if n == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProcessingRun, error) {
	var run domain.ProcessingRun
	err := r.db.GetContext(ctx, &run, r.db.Rebind("SELECT * FROM processing_runs WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("runRepo.GetByID: %w", err)
	}
	return &run, nil
}

func (r *runRepo) ListRecent(ctx context.Context, limit int) ([]domain.ProcessingRun, error) {
	var runs []domain.ProcessingRun
	err := r.db.SelectContext(ctx, &runs,
		r.db.Rebind("SELECT * FROM processing_runs ORDER BY started_at DESC LIMIT ?"), limit)
	if err != nil {
		return nil, fmt.Errorf("runRepo.ListRecent: %w", err)
	}
	return runs, nil
}
