package port

import (
	"context"

	"lawnorm/internal/domain"
)

// StateStore persists per-document processing progress. Flags only move
// forward; ResetForReprocessing is the single operation that clears them.
type StateStore interface {
	MarkLoaded(ctx context.Context, doc domain.LoadedDocument) error
	MarkProcessed(ctx context.Context, contentID, schema string, documentType domain.DocumentType) error
	MarkTranslated(ctx context.Context, contentID string) error
	MarkFailed(ctx context.Context, contentID string, cause error) error
	// Release returns a claimed document to pending without consuming an attempt.
	Release(ctx context.Context, contentID string, cause error) error
	// NextPendingBatch claims up to limit documents for workerID, ordered by
	// content id. A non-empty filter restricts claims to one jurisdiction.
	NextPendingBatch(ctx context.Context, workerID string, filter domain.JurisdictionFilter, limit int) ([]domain.ProcessingState, error)
	ReleaseClaims(ctx context.Context, workerID string) (int, error)
	ResetForReprocessing(ctx context.Context, contentID string) error
	Get(ctx context.Context, contentID string) (*domain.ProcessingState, error)
	ListPermanentlyFailed(ctx context.Context, offset, limit int) ([]domain.ProcessingState, int, error)
}
