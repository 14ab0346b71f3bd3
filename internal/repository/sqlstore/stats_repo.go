package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

type statsRepo struct {
	db          *sqlx.DB
	maxAttempts int
}

// NewStatsRepo creates a StatsRepository. maxAttempts is the retry ceiling
// that makes a document count as permanently failed.
func NewStatsRepo(db *sqlx.DB, maxAttempts int) port.StatsRepository {
	return &statsRepo{db: db, maxAttempts: maxAttempts}
}

// exhausted matches documents that will never be claimed again.
const exhausted = `(NOT is_translated AND (permanently_failed OR attempt_count >= ?))`

func (r *statsRepo) GetStats(ctx context.Context) (*domain.Stats, error) {
	query := r.db.Rebind(`SELECT
		COUNT(*) AS total_documents,
		COALESCE(SUM(CASE WHEN is_loaded THEN 1 ELSE 0 END), 0) AS total_loaded,
		COALESCE(SUM(CASE WHEN is_processed THEN 1 ELSE 0 END), 0) AS total_processed,
		COALESCE(SUM(CASE WHEN is_translated THEN 1 ELSE 0 END), 0) AS total_translated,
		COALESCE(SUM(CASE WHEN last_error IS NOT NULL AND NOT ` + exhausted + ` AND NOT is_translated THEN 1 ELSE 0 END), 0) AS total_failed,
		COALESCE(SUM(CASE WHEN ` + exhausted + ` THEN 1 ELSE 0 END), 0) AS total_permanently_failed,
		COALESCE(SUM(CASE WHEN claimed_by IS NOT NULL AND NOT is_translated THEN 1 ELSE 0 END), 0) AS total_in_progress
	FROM documents`)

	var stats domain.Stats
	if err := r.db.GetContext(ctx, &stats, query, r.maxAttempts, r.maxAttempts); err != nil {
		return nil, fmt.Errorf("statsRepo.GetStats: %w", err)
	}
	if err := r.db.GetContext(ctx, &stats.TotalSchemas, "SELECT COUNT(*) FROM schemas"); err != nil {
		return nil, fmt.Errorf("statsRepo.GetStats schemas: %w", err)
	}
	if err := r.db.GetContext(ctx, &stats.TotalSections, "SELECT COUNT(*) FROM sections"); err != nil {
		return nil, fmt.Errorf("statsRepo.GetStats sections: %w", err)
	}
	return &stats, nil
}

func (r *statsRepo) GetStateCoverage(ctx context.Context) ([]domain.StateCoverage, error) {
	query := r.db.Rebind(`SELECT
		state_code,
		COUNT(DISTINCT place_name) AS places,
		COALESCE(SUM(CASE WHEN is_loaded THEN 1 ELSE 0 END), 0) AS loaded,
		COALESCE(SUM(CASE WHEN is_processed THEN 1 ELSE 0 END), 0) AS processed,
		COALESCE(SUM(CASE WHEN is_translated THEN 1 ELSE 0 END), 0) AS translated,
		COALESCE(SUM(CASE WHEN ` + exhausted + ` THEN 1 ELSE 0 END), 0) AS permanently_failed
	FROM documents
	GROUP BY state_code
	ORDER BY state_code`)

	var rows []domain.StateCoverage
	if err := r.db.SelectContext(ctx, &rows, query, r.maxAttempts); err != nil {
		return nil, fmt.Errorf("statsRepo.GetStateCoverage: %w", err)
	}
	return rows, nil
}

func (r *statsRepo) GetTypeCounts(ctx context.Context) ([]domain.TypeCount, error) {
	var rows []domain.TypeCount
	err := r.db.SelectContext(ctx, &rows, `SELECT document_type, COUNT(*) AS count
	FROM normalized_documents
	GROUP BY document_type
	ORDER BY document_type`)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.GetTypeCounts: %w", err)
	}
	return rows, nil
}

func (r *statsRepo) GetSchemaStats(ctx context.Context) ([]domain.SchemaStats, error) {
	var rows []domain.SchemaStats
	err := r.db.SelectContext(ctx, &rows, `SELECT s.*,
		COUNT(d.content_id) AS documents,
		COALESCE(SUM(CASE WHEN d.is_translated THEN 1 ELSE 0 END), 0) AS translated
	FROM schemas s
	LEFT JOIN documents d ON d.assigned_schema = s.signature
	GROUP BY s.signature
	ORDER BY s.sample_count DESC, s.signature`)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.GetSchemaStats: %w", err)
	}
	return rows, nil
}
