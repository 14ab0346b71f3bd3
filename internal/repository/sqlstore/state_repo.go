package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

// ClaimPolicy bounds which documents NextPendingBatch may hand out.
type ClaimPolicy struct {
	MaxAttempts  int
	ClaimTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type stateRepo struct {
	db     *sqlx.DB
	policy ClaimPolicy
}

// NewStateRepo creates a StateStore over the documents table.
func NewStateRepo(db *sqlx.DB, policy ClaimPolicy) port.StateStore {
	if policy.Now == nil {
		policy.Now = time.Now
	}
	return &stateRepo{db: db, policy: policy}
}

func (r *stateRepo) now() time.Time {
	return r.policy.Now().UTC()
}

func (r *stateRepo) MarkLoaded(ctx context.Context, doc domain.LoadedDocument) error {
	now := r.now()
	query := r.db.Rebind(`INSERT INTO documents (
		content_id, state_code, place_name, is_loaded, created_at, updated_at
	) VALUES (?, ?, ?, TRUE, ?, ?)
	ON CONFLICT (content_id) DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, query, doc.ContentID, doc.StateCode, doc.PlaceName, now, now); err != nil {
		return fmt.Errorf("stateRepo.MarkLoaded: %w", err)
	}
	return nil
}

func (r *stateRepo) MarkProcessed(ctx context.Context, contentID, schema string, documentType domain.DocumentType) error {
	query := r.db.Rebind(`UPDATE documents SET
		is_processed = TRUE, assigned_schema = ?, document_type = ?, updated_at = ?
	WHERE content_id = ? AND is_loaded`)

	res, err := r.db.ExecContext(ctx, query, schema, string(documentType), r.now(), contentID)
	if err != nil {
		return fmt.Errorf("stateRepo.MarkProcessed: %w", err)
	}
	return r.expectOne(ctx, "MarkProcessed", contentID, res)
}

func (r *stateRepo) MarkTranslated(ctx context.Context, contentID string) error {
	query := r.db.Rebind(`UPDATE documents SET
		is_translated = TRUE, attempt_count = attempt_count + 1,
		last_error = NULL, claimed_by = NULL, claimed_at = NULL, updated_at = ?
	WHERE content_id = ? AND is_processed AND NOT is_translated`)

	res, err := r.db.ExecContext(ctx, query, r.now(), contentID)
	if err != nil {
		return fmt.Errorf("stateRepo.MarkTranslated: %w", err)
	}
	return r.expectOne(ctx, "MarkTranslated", contentID, res)
}

func (r *stateRepo) MarkFailed(ctx context.Context, contentID string, cause error) error {
	msg := errorText(cause)
	var query string
	if domain.IsTerminalInput(cause) {
		query = `UPDATE documents SET
			permanently_failed = TRUE, last_error = ?,
			claimed_by = NULL, claimed_at = NULL, updated_at = ?
		WHERE content_id = ? AND NOT is_translated`
	} else {
		query = `UPDATE documents SET
			attempt_count = attempt_count + 1, last_error = ?,
			claimed_by = NULL, claimed_at = NULL, updated_at = ?
		WHERE content_id = ? AND NOT is_translated`
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), msg, r.now(), contentID)
	if err != nil {
		return fmt.Errorf("stateRepo.MarkFailed: %w", err)
	}
	return r.expectOne(ctx, "MarkFailed", contentID, res)
}

func (r *stateRepo) Release(ctx context.Context, contentID string, cause error) error {
	query := r.db.Rebind(`UPDATE documents SET
		claimed_by = NULL, claimed_at = NULL,
		last_error = COALESCE(?, last_error), updated_at = ?
	WHERE content_id = ?`)

	var msg *string
	if cause != nil {
		s := errorText(cause)
		msg = &s
	}
	res, err := r.db.ExecContext(ctx, query, msg, r.now(), contentID)
	if err != nil {
		return fmt.Errorf("stateRepo.Release: %w", err)
	}
	return r.expectOne(ctx, "Release", contentID, res)
}

const claimableCondition = `is_loaded AND NOT is_translated AND NOT permanently_failed
	AND attempt_count < ?
	AND (claimed_by IS NULL OR claimed_by = ? OR claimed_at < ?)`

func (r *stateRepo) NextPendingBatch(ctx context.Context, workerID string, filter domain.JurisdictionFilter, limit int) ([]domain.ProcessingState, error) {
	if limit <= 0 {
		return nil, nil
	}
	now := r.now()
	staleBefore := now.Add(-r.policy.ClaimTimeout)

	lock := ""
	if isPostgres(r.db) {
		lock = " FOR UPDATE SKIP LOCKED"
	}
	scope := ""
	conds, scopeArgs := jurisdictionConds(filter)
	if len(conds) > 0 {
		scope = " AND " + strings.Join(conds, " AND ")
	}
	query := r.db.Rebind(`UPDATE documents SET claimed_by = ?, claimed_at = ?, updated_at = ?
	WHERE content_id IN (
		SELECT content_id FROM documents
		WHERE ` + claimableCondition + scope + `
		ORDER BY content_id LIMIT ?` + lock + `
	) AND ` + claimableCondition + `
	RETURNING *`)

	args := []interface{}{workerID, now, now, r.policy.MaxAttempts, workerID, staleBefore}
	args = append(args, scopeArgs...)
	args = append(args, limit, r.policy.MaxAttempts, workerID, staleBefore)

	var states []domain.ProcessingState
	err := r.db.SelectContext(ctx, &states, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stateRepo.NextPendingBatch: %w", err)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].ContentID < states[j].ContentID })
	return states, nil
}

func (r *stateRepo) ReleaseClaims(ctx context.Context, workerID string) (int, error) {
	query := r.db.Rebind(`UPDATE documents SET claimed_by = NULL, claimed_at = NULL, updated_at = ?
	WHERE claimed_by = ?`)

	res, err := r.db.ExecContext(ctx, query, r.now(), workerID)
	if err != nil {
		return 0, fmt.Errorf("stateRepo.ReleaseClaims: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stateRepo.ReleaseClaims rows: %w", err)
	}
	return int(n), nil
}

func (r *stateRepo) ResetForReprocessing(ctx context.Context, contentID string) error {
	query := r.db.Rebind(`UPDATE documents SET
		is_processed = FALSE, is_translated = FALSE, permanently_failed = FALSE,
		assigned_schema = '', document_type = '', attempt_count = 0,
		last_error = NULL, claimed_by = NULL, claimed_at = NULL, updated_at = ?
	WHERE content_id = ?`)

	res, err := r.db.ExecContext(ctx, query, r.now(), contentID)
	if err != nil {
		return fmt.Errorf("stateRepo.ResetForReprocessing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("stateRepo.ResetForReprocessing rows: %w", err)
	}
	if n == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *stateRepo) Get(ctx context.Context, contentID string) (*domain.ProcessingState, error) {
	var state domain.ProcessingState
	err := r.db.GetContext(ctx, &state, r.db.Rebind("SELECT * FROM documents WHERE content_id = ?"), contentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("stateRepo.Get: %w", err)
	}
	return &state, nil
}

func (r *stateRepo) ListPermanentlyFailed(ctx context.Context, offset, limit int) ([]domain.ProcessingState, int, error) {
	const where = `WHERE NOT is_translated AND (permanently_failed OR attempt_count >= ?)`

	var total int
	err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) FROM documents "+where), r.policy.MaxAttempts)
	if err != nil {
		return nil, 0, fmt.Errorf("stateRepo.ListPermanentlyFailed count: %w", err)
	}

	var states []domain.ProcessingState
	err = r.db.SelectContext(ctx, &states,
		r.db.Rebind("SELECT * FROM documents "+where+" ORDER BY content_id LIMIT ? OFFSET ?"),
		r.policy.MaxAttempts, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("stateRepo.ListPermanentlyFailed: %w", err)
	}
	return states, total, nil
}

// expectOne turns a zero-row transition into the right error. Transitions
// already applied to a translated document are no-ops.
func (r *stateRepo) expectOne(ctx context.Context, op, contentID string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("stateRepo.%s rows: %w", op, err)
	}
	if n > 0 {
		return nil
	}
	state, err := r.Get(ctx, contentID)
	if err != nil {
		return err
	}
	if state.IsTranslated {
		return nil
	}
	return fmt.Errorf("stateRepo.%s %s: %w: document is %s", op, contentID, domain.ErrInvalidInput, state.Status(r.policy.MaxAttempts))
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
