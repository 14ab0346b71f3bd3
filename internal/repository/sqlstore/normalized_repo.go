package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

const iteratePageSize = 200

type normalizedRow struct {
	DocumentID      string    `db:"document_id"`
	PlaceName       string    `db:"place_name"`
	StateCode       string    `db:"state_code"`
	DocumentType    string    `db:"document_type"`
	Strategy        string    `db:"strategy"`
	SchemaSignature string    `db:"schema_signature"`
	SectionCount    int       `db:"section_count"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (row *normalizedRow) toDomain() domain.NormalizedDocument {
	return domain.NormalizedDocument{
		DocumentID:      row.DocumentID,
		Jurisdiction:    domain.Jurisdiction{PlaceName: row.PlaceName, StateCode: row.StateCode},
		DocumentType:    domain.DocumentType(row.DocumentType),
		Strategy:        domain.Strategy(row.Strategy),
		SchemaSignature: row.SchemaSignature,
		CreatedAt:       row.CreatedAt,
	}
}

type sectionRow struct {
	DocumentID string `db:"document_id"`
	Ordinal    int    `db:"ordinal"`
	domain.Section
}

type normalizedRepo struct {
	db *sqlx.DB
}

// NewNormalizedDocumentRepo creates a NormalizedDocumentRepository over the
// normalized_documents and sections tables.
func NewNormalizedDocumentRepo(db *sqlx.DB) port.NormalizedDocumentRepository {
	return &normalizedRepo{db: db}
}

// Save writes the document and replaces its sections in one transaction.
func (r *normalizedRepo) Save(ctx context.Context, doc *domain.NormalizedDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("normalizedRepo.Save begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO normalized_documents (
		document_id, place_name, state_code, document_type, strategy,
		schema_signature, section_count, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (document_id) DO UPDATE SET
		place_name = excluded.place_name,
		state_code = excluded.state_code,
		document_type = excluded.document_type,
		strategy = excluded.strategy,
		schema_signature = excluded.schema_signature,
		section_count = excluded.section_count,
		updated_at = excluded.updated_at`),
		doc.DocumentID, doc.Jurisdiction.PlaceName, doc.Jurisdiction.StateCode,
		string(doc.DocumentType), string(doc.Strategy), doc.SchemaSignature,
		len(doc.Sections), doc.CreatedAt, now)
	if err != nil {
		return fmt.Errorf("normalizedRepo.Save document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM sections WHERE document_id = ?"), doc.DocumentID); err != nil {
		return fmt.Errorf("normalizedRepo.Save clear sections: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO sections (
		document_id, ordinal, section_id, section_num, section_title, section_text, section_refs
	) VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("normalizedRepo.Save prepare: %w", err)
	}
	defer stmt.Close()

	for i, s := range doc.Sections {
		if _, err := stmt.ExecContext(ctx,
			doc.DocumentID, i+1, s.SectionID, s.SectionNum, s.SectionTitle, s.SectionText, s.SectionRefs); err != nil {
			return fmt.Errorf("normalizedRepo.Save section %s: %w", s.SectionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("normalizedRepo.Save commit: %w", err)
	}
	return nil
}

func (r *normalizedRepo) GetByID(ctx context.Context, documentID string) (*domain.NormalizedDocument, error) {
	var row normalizedRow
	err := r.db.GetContext(ctx, &row,
		r.db.Rebind("SELECT * FROM normalized_documents WHERE document_id = ?"), documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("normalizedRepo.GetByID: %w", err)
	}

	docs, err := r.withSections(ctx, []normalizedRow{row})
	if err != nil {
		return nil, err
	}
	return &docs[0], nil
}

func (r *normalizedRepo) ListByJurisdiction(ctx context.Context, filter domain.JurisdictionFilter, offset, limit int) ([]domain.NormalizedDocument, int, error) {
	conds, args := jurisdictionConds(filter)
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) FROM normalized_documents"+where), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("normalizedRepo.ListByJurisdiction count: %w", err)
	}

	var rows []normalizedRow
	err = r.db.SelectContext(ctx, &rows,
		r.db.Rebind("SELECT * FROM normalized_documents"+where+" ORDER BY document_id LIMIT ? OFFSET ?"),
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("normalizedRepo.ListByJurisdiction: %w", err)
	}

	docs, err := r.withSections(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Iterate pages by document id so no cursor stays open while fn runs.
func (r *normalizedRepo) Iterate(ctx context.Context, fn func(*domain.NormalizedDocument) error) error {
	after := ""
	for {
		var rows []normalizedRow
		err := r.db.SelectContext(ctx, &rows,
			r.db.Rebind("SELECT * FROM normalized_documents WHERE document_id > ? ORDER BY document_id LIMIT ?"),
			after, iteratePageSize)
		if err != nil {
			return fmt.Errorf("normalizedRepo.Iterate: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		docs, err := r.withSections(ctx, rows)
		if err != nil {
			return err
		}
		for i := range docs {
			if err := fn(&docs[i]); err != nil {
				return err
			}
		}
		after = rows[len(rows)-1].DocumentID
	}
}

func (r *normalizedRepo) withSections(ctx context.Context, rows []normalizedRow) ([]domain.NormalizedDocument, error) {
	if len(rows) == 0 {
		return []domain.NormalizedDocument{}, nil
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].DocumentID
	}

	query, args, err := sqlx.In(
		"SELECT * FROM sections WHERE document_id IN (?) ORDER BY document_id, ordinal", ids)
	if err != nil {
		return nil, fmt.Errorf("normalizedRepo.sections query: %w", err)
	}
	var sections []sectionRow
	if err := r.db.SelectContext(ctx, &sections, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("normalizedRepo.sections: %w", err)
	}

	byDoc := make(map[string][]domain.Section, len(rows))
	for _, s := range sections {
		byDoc[s.DocumentID] = append(byDoc[s.DocumentID], s.Section)
	}

	docs := make([]domain.NormalizedDocument, len(rows))
	for i := range rows {
		docs[i] = rows[i].toDomain()
		docs[i].Sections = byDoc[rows[i].DocumentID]
	}
	return docs, nil
}
