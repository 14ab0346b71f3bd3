package port

import (
	"context"

	"lawnorm/internal/domain"
)

// NormalizedDocumentRepository persists pipeline output.
type NormalizedDocumentRepository interface {
	// Save replaces any previous output for the same document id.
	Save(ctx context.Context, doc *domain.NormalizedDocument) error
	GetByID(ctx context.Context, documentID string) (*domain.NormalizedDocument, error)
	ListByJurisdiction(ctx context.Context, filter domain.JurisdictionFilter, offset, limit int) ([]domain.NormalizedDocument, int, error)
	// Iterate calls fn for every stored document in document id order and stops at the first error.
	Iterate(ctx context.Context, fn func(*domain.NormalizedDocument) error) error
}

// CitationRepository stores citation metadata attached to source documents.
type CitationRepository interface {
	Upsert(ctx context.Context, citation *domain.Citation) error
	GetByContentID(ctx context.Context, contentID string) (*domain.Citation, error)
}
