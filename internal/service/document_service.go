package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

// DocumentService answers per-document queries and handles explicit
// reprocessing requests.
type DocumentService interface {
	GetNormalized(ctx context.Context, documentID string) (*domain.NormalizedDocument, error)
	ListNormalized(ctx context.Context, filter domain.JurisdictionFilter, offset, limit int) ([]domain.NormalizedDocument, int, error)
	GetState(ctx context.Context, contentID string) (*domain.ProcessingState, error)
	ListFailures(ctx context.Context, offset, limit int) ([]domain.ProcessingState, int, error)
	Reprocess(ctx context.Context, contentID string) (*domain.ProcessingState, error)
}

type documentService struct {
	states port.StateStore
	output port.NormalizedDocumentRepository
	logger *zap.Logger
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(states port.StateStore, output port.NormalizedDocumentRepository, logger *zap.Logger) DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &documentService{states: states, output: output, logger: logger}
}

func (s *documentService) GetNormalized(ctx context.Context, documentID string) (*domain.NormalizedDocument, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	return s.output.GetByID(ctx, documentID)
}

func (s *documentService) ListNormalized(ctx context.Context, filter domain.JurisdictionFilter, offset, limit int) ([]domain.NormalizedDocument, int, error) {
	return s.output.ListByJurisdiction(ctx, filter, offset, limit)
}

func (s *documentService) GetState(ctx context.Context, contentID string) (*domain.ProcessingState, error) {
	return s.states.Get(ctx, contentID)
}

func (s *documentService) ListFailures(ctx context.Context, offset, limit int) ([]domain.ProcessingState, int, error) {
	return s.states.ListPermanentlyFailed(ctx, offset, limit)
}

// Reprocess clears a document's progress so the next run picks it up again.
// Its previous output stays in place until the new run replaces it.
func (s *documentService) Reprocess(ctx context.Context, contentID string) (*domain.ProcessingState, error) {
	if strings.TrimSpace(contentID) == "" {
		return nil, fmt.Errorf("%w: content id is required", domain.ErrInvalidInput)
	}
	if err := s.states.ResetForReprocessing(ctx, contentID); err != nil {
		return nil, err
	}
	s.logger.Info("documentService.Reprocess: reset", zap.String("content_id", contentID))
	return s.states.Get(ctx, contentID)
}
