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

type citationRepo struct {
	db *sqlx.DB
}

// NewCitationRepo creates a CitationRepository over the citations table.
func NewCitationRepo(db *sqlx.DB) port.CitationRepository {
	return &citationRepo{db: db}
}

func (r *citationRepo) Upsert(ctx context.Context, c *domain.Citation) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	fields := string(c.Fields)
	if fields == "" {
		fields = "{}"
	}

	query := r.db.Rebind(`INSERT INTO citations (content_id, citation_text, citation_fields, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (content_id) DO UPDATE SET
		citation_text = excluded.citation_text,
		citation_fields = excluded.citation_fields`)

	if _, err := r.db.ExecContext(ctx, query, c.ContentID, c.CitationText, fields, c.CreatedAt); err != nil {
		return fmt.Errorf("citationRepo.Upsert: %w", err)
	}
	return nil
}

func (r *citationRepo) GetByContentID(ctx context.Context, contentID string) (*domain.Citation, error) {
	var row struct {
		ContentID    string    `db:"content_id"`
		CitationText string    `db:"citation_text"`
		Fields       string    `db:"citation_fields"`
		CreatedAt    time.Time `db:"created_at"`
	}
	err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT * FROM citations WHERE content_id = ?"), contentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("citationRepo.GetByContentID: %w", err)
	}
	return &domain.Citation{
		ContentID:    row.ContentID,
		CitationText: row.CitationText,
		Fields:       []byte(row.Fields),
		CreatedAt:    row.CreatedAt,
	}, nil
}
