// Package llmextract normalizes documents through a text generation service
// when no rule strategy applies.
package llmextract

import (
	"context"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"lawnorm/internal/domain"
	"lawnorm/internal/llm"
	"lawnorm/internal/port"
)

// OutcomeRecorder receives the per-schema result of an extraction.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, signature string, success bool) error
}

// Config bounds prompt size and validation retries.
type Config struct {
	MaxPromptChars        int
	MaxValidationAttempts int
}

// Input is everything the extractor knows about one document.
type Input struct {
	DocumentID   string
	Jurisdiction domain.Jurisdiction
	DocumentType domain.DocumentType
	Signature    *domain.SchemaSignature
	Markup       string
	// Fallback marks a retry after a rule strategy came back empty. The
	// schema already holds the rule's failure, so this result is not recorded.
	Fallback bool
}

// Extractor turns generator replies into validated NormalizedDocuments.
type Extractor struct {
	gen         port.TextGenerator
	outcomes    OutcomeRecorder
	schema      *jsonschema.Schema
	maxChars    int
	maxAttempts int
	logger      *zap.Logger
}

// New creates an Extractor. outcomes may be nil.
func New(gen port.TextGenerator, outcomes OutcomeRecorder, cfg Config, logger *zap.Logger) (*Extractor, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if cfg.MaxValidationAttempts <= 0 {
		cfg.MaxValidationAttempts = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		gen:         gen,
		outcomes:    outcomes,
		schema:      schema,
		maxChars:    cfg.MaxPromptChars,
		maxAttempts: cfg.MaxValidationAttempts,
		logger:      logger,
	}, nil
}

// Extract makes up to MaxValidationAttempts generator calls, each with a
// smaller prompt, until a reply validates. Generator errors other than
// truncation are returned unchanged.
func (e *Extractor) Extract(ctx context.Context, in Input) (*domain.NormalizedDocument, error) {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		opts := optionsFor(attempt, e.maxChars)
		reply, err := e.gen.Generate(ctx, buildPrompt(in, opts))
		if err != nil && !errors.Is(err, llm.ErrTruncated) {
			return nil, err
		}
		if err == nil {
			var doc *domain.NormalizedDocument
			doc, err = e.parse(in, reply, opts.includeRefs)
			if err == nil {
				doc.Strategy = domain.StrategyLLM
				if in.Signature != nil {
					doc.SchemaSignature = in.Signature.Hash
				}
				if recErr := e.record(ctx, in, true); recErr != nil {
					return nil, recErr
				}
				return doc, nil
			}
		}
		lastErr = err
		e.logger.Warn("llmextract.Extract: reply rejected",
			zap.String("content_id", in.DocumentID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	if recErr := e.record(ctx, in, false); recErr != nil {
		return nil, recErr
	}
	return nil, fmt.Errorf("%s after %d attempts: %w: %v", in.DocumentID, e.maxAttempts, domain.ErrLLMValidation, lastErr)
}

func (e *Extractor) record(ctx context.Context, in Input, success bool) error {
	if e.outcomes == nil || in.Signature == nil || in.Fallback {
		return nil
	}
	if err := e.outcomes.RecordOutcome(ctx, in.Signature.Hash, success); err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			return err
		}
		return fmt.Errorf("%w: record outcome: %v", domain.ErrPersistence, err)
	}
	return nil
}
