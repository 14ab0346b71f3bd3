package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

// LoadSummary counts what one Load pass did.
type LoadSummary struct {
	Listed    int `json:"listed"`
	Loaded    int `json:"loaded"`
	Citations int `json:"citations"`
	Failed    int `json:"failed"`
}

// IngestService registers corpus documents with the state store.
type IngestService interface {
	Load(ctx context.Context, filter domain.JurisdictionFilter) (*LoadSummary, error)
	LoadOne(ctx context.Context, contentID string) error
}

type ingestService struct {
	loader    port.DocumentLoader
	states    port.StateStore
	citations port.CitationRepository
	logger    *zap.Logger
}

// NewIngestService creates an IngestService. citations may be nil, in which
// case citation metadata is ignored.
func NewIngestService(loader port.DocumentLoader, states port.StateStore, citations port.CitationRepository, logger *zap.Logger) IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ingestService{loader: loader, states: states, citations: citations, logger: logger}
}

// Load marks every listed document loaded. A document the loader cannot
// read is counted and skipped; a state store failure stops the pass.
func (s *ingestService) Load(ctx context.Context, filter domain.JurisdictionFilter) (*LoadSummary, error) {
	ids, err := s.loader.ListPending(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ingest.Load: list: %w", err)
	}
	sum := &LoadSummary{Listed: len(ids)}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		hasCitation, err := s.load(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrPersistence) {
				return sum, err
			}
			sum.Failed++
			s.logger.Warn("ingest.Load: skipping document", zap.String("content_id", id), zap.Error(err))
			continue
		}
		sum.Loaded++
		if hasCitation {
			sum.Citations++
		}
	}

	s.logger.Info("ingest.Load: done",
		zap.Int("listed", sum.Listed),
		zap.Int("loaded", sum.Loaded),
		zap.Int("citations", sum.Citations),
		zap.Int("failed", sum.Failed))
	return sum, nil
}

func (s *ingestService) LoadOne(ctx context.Context, contentID string) error {
	_, err := s.load(ctx, contentID)
	return err
}

func (s *ingestService) load(ctx context.Context, id string) (bool, error) {
	raw, err := s.loader.Fetch(ctx, id)
	if err != nil {
		return false, fmt.Errorf("fetch %s: %w", id, err)
	}
	if err := s.states.MarkLoaded(ctx, domain.LoadedDocument{
		ContentID: raw.ContentID,
		StateCode: raw.StateCode,
		PlaceName: raw.PlaceName,
	}); err != nil {
		return false, fmt.Errorf("%w: mark loaded %s: %v", domain.ErrPersistence, id, err)
	}

	if s.citations == nil || len(raw.CitationMetadata) == 0 {
		return false, nil
	}
	citation := &domain.Citation{
		ContentID:    raw.ContentID,
		CitationText: citationText(raw.CitationMetadata),
		Fields:       raw.CitationMetadata,
	}
	if err := s.citations.Upsert(ctx, citation); err != nil {
		return false, fmt.Errorf("%w: store citation %s: %v", domain.ErrPersistence, id, err)
	}
	return true, nil
}

// citationText picks the human-readable citation out of the metadata.
func citationText(meta json.RawMessage) string {
	var fields map[string]any
	if err := json.Unmarshal(meta, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"bluebook_citation", "citation", "citation_text"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
