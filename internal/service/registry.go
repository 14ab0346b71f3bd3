package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

// SchemaRegistry clusters documents by structural signature and tracks how
// well each schema's strategy performs. It satisfies llmextract.OutcomeRecorder.
type SchemaRegistry interface {
	LookupOrCreate(ctx context.Context, sig domain.SchemaSignature, representativeID string) (*domain.SchemaRecord, error)
	Get(ctx context.Context, signature string) (*domain.SchemaRecord, error)
	RecordOutcome(ctx context.Context, signature string, success bool) error
	AssignStrategy(ctx context.Context, signature string, strategy domain.Strategy) error
	List(ctx context.Context) ([]domain.SchemaRecord, error)
}

type schemaRegistry struct {
	repo   port.SchemaRepository
	logger *zap.Logger
}

// NewSchemaRegistry creates a SchemaRegistry backed by repo. Storage errors
// come back wrapped in domain.ErrPersistence.
func NewSchemaRegistry(repo port.SchemaRepository, logger *zap.Logger) SchemaRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &schemaRegistry{repo: repo, logger: logger}
}

func (r *schemaRegistry) LookupOrCreate(ctx context.Context, sig domain.SchemaSignature, representativeID string) (*domain.SchemaRecord, error) {
	if sig.Hash == "" {
		return nil, fmt.Errorf("%w: empty schema signature", domain.ErrInvalidInput)
	}
	rec, err := r.repo.Upsert(ctx, sig.Hash, sig.Features, representativeID)
	if err != nil {
		return nil, persistence("upsert schema", err)
	}
	if rec.SampleCount == 1 {
		r.logger.Info("registry.LookupOrCreate: new schema",
			zap.String("signature", rec.Signature),
			zap.String("representative", representativeID))
	}
	return rec, nil
}

func (r *schemaRegistry) Get(ctx context.Context, signature string) (*domain.SchemaRecord, error) {
	rec, err := r.repo.GetBySignature(ctx, signature)
	if err != nil {
		return nil, persistence("get schema", err)
	}
	return rec, nil
}

func (r *schemaRegistry) RecordOutcome(ctx context.Context, signature string, success bool) error {
	if err := r.repo.RecordOutcome(ctx, signature, success); err != nil {
		return persistence("record outcome", err)
	}
	return nil
}

func (r *schemaRegistry) AssignStrategy(ctx context.Context, signature string, strategy domain.Strategy) error {
	if err := r.repo.AssignStrategy(ctx, signature, strategy); err != nil {
		return persistence("assign strategy", err)
	}
	r.logger.Debug("registry.AssignStrategy",
		zap.String("signature", signature),
		zap.String("strategy", string(strategy)))
	return nil
}

func (r *schemaRegistry) List(ctx context.Context) ([]domain.SchemaRecord, error) {
	recs, err := r.repo.List(ctx)
	if err != nil {
		return nil, persistence("list schemas", err)
	}
	return recs, nil
}

// persistence wraps storage failures so callers can tell them apart from
// the not-found and invalid-input sentinels, which pass through.
func persistence(op string, err error) error {
	if errors.Is(err, domain.ErrSchemaNotFound) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}
