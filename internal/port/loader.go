package port

import (
	"context"

	"lawnorm/internal/domain"
)

// DocumentLoader supplies raw documents from the corpus.
type DocumentLoader interface {
	// Fetch returns domain.ErrNotFound when the content id does not exist.
	Fetch(ctx context.Context, contentID string) (*domain.RawDocument, error)
	ListPending(ctx context.Context, filter domain.JurisdictionFilter) ([]string, error)
}
