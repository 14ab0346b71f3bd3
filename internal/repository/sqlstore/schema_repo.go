package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

type schemaRepo struct {
	db *sqlx.DB
}

// NewSchemaRepo creates a SchemaRepository over the schemas table.
func NewSchemaRepo(db *sqlx.DB) port.SchemaRepository {
	return &schemaRepo{db: db}
}

func (r *schemaRepo) Upsert(ctx context.Context, signature string, features domain.Features, representativeID string) (*domain.SchemaRecord, error) {
	now := time.Now().UTC()
	query := r.db.Rebind(`INSERT INTO schemas (
		signature, sample_count, assigned_strategy, confidence,
		success_count, failure_count, representative_document_id, features,
		created_at, updated_at
	) VALUES (?, 1, ?, 0, 0, 0, ?, ?, ?, ?)
	ON CONFLICT (signature) DO UPDATE SET
		sample_count = schemas.sample_count + 1,
		updated_at = excluded.updated_at
	RETURNING *`)

	var rec domain.SchemaRecord
	err := r.db.GetContext(ctx, &rec, query,
		signature, string(domain.StrategyUnknown), representativeID, features, now, now)
	if err != nil {
		return nil, fmt.Errorf("schemaRepo.Upsert: %w", err)
	}
	return &rec, nil
}

func (r *schemaRepo) GetBySignature(ctx context.Context, signature string) (*domain.SchemaRecord, error) {
	var rec domain.SchemaRecord
	err := r.db.GetContext(ctx, &rec, r.db.Rebind("SELECT * FROM schemas WHERE signature = ?"), signature)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSchemaNotFound
		}
		return nil, fmt.Errorf("schemaRepo.GetBySignature: %w", err)
	}
	return &rec, nil
}

// RecordOutcome bumps one counter and recomputes confidence from the new
// totals in the same statement.
func (r *schemaRepo) RecordOutcome(ctx context.Context, signature string, success bool) error {
	var query string
	if success {
		query = `UPDATE schemas SET
			success_count = success_count + 1,
			confidence = CAST(success_count + 1 AS DOUBLE PRECISION) / (success_count + failure_count + 1),
			updated_at = ?
		WHERE signature = ?`
	} else {
		query = `UPDATE schemas SET
			failure_count = failure_count + 1,
			confidence = CAST(success_count AS DOUBLE PRECISION) / (success_count + failure_count + 1),
			updated_at = ?
		WHERE signature = ?`
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), time.Now().UTC(), signature)
	if err != nil {
		return fmt.Errorf("schemaRepo.RecordOutcome: %w", err)
	}
	return schemaAffected(res, "RecordOutcome")
}

func (r *schemaRepo) AssignStrategy(ctx context.Context, signature string, strategy domain.Strategy) error {
	if !strategy.Valid() {
		return fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidInput, strategy)
	}
	query := r.db.Rebind(`UPDATE schemas SET assigned_strategy = ?, updated_at = ? WHERE signature = ?`)

	res, err := r.db.ExecContext(ctx, query, string(strategy), time.Now().UTC(), signature)
	if err != nil {
		return fmt.Errorf("schemaRepo.AssignStrategy: %w", err)
	}
	return schemaAffected(res, "AssignStrategy")
}

func (r *schemaRepo) List(ctx context.Context) ([]domain.SchemaRecord, error) {
	var recs []domain.SchemaRecord
	err := r.db.SelectContext(ctx, &recs, "SELECT * FROM schemas ORDER BY sample_count DESC, signature")
	if err != nil {
		return nil, fmt.Errorf("schemaRepo.List: %w", err)
	}
	return recs, nil
}

func schemaAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("schemaRepo.%s rows: %w", op, err)
	}
	if n == 0 {
		return domain.ErrSchemaNotFound
	}
	return nil
}
