package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lawnorm/internal/classifier"
	"lawnorm/internal/config"
	"lawnorm/internal/domain"
	"lawnorm/internal/extractor/llmextract"
	"lawnorm/internal/extractor/rules"
	"lawnorm/internal/fingerprint"
	"lawnorm/internal/llm"
	"lawnorm/internal/metrics"
	"lawnorm/internal/port"
	"lawnorm/internal/strategy"
)

// errLLMBudgetExhausted is returned by the call budget once a run has spent
// its MaxLLMCalls.
var errLLMBudgetExhausted = errors.New("llm call budget exhausted for this run")

// PipelineDeps are the collaborators of a Pipeline. Archiver, Notifier and
// Metrics are optional.
type PipelineDeps struct {
	Loader     port.DocumentLoader
	States     port.StateStore
	Registry   SchemaRegistry
	Selector   *strategy.Selector
	Rules      *rules.Extractor
	Classifier *classifier.Classifier
	Generator  port.TextGenerator
	Output     port.NormalizedDocumentRepository
	Runs       port.RunRepository
	Archiver   Archiver
	Notifier   port.EmailSender
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// PipelineConfig bounds a single run.
type PipelineConfig struct {
	WorkerID             string
	MaxBatchSize         int
	Concurrency          int
	MaxAttempts          int
	MaxLLMCalls          int // <= 0 means unlimited
	MaxTransientFailures int
	DocumentTimeout      time.Duration
	Extraction           llmextract.Config
	// Scope limits claims to one jurisdiction; the zero value claims any.
	Scope domain.JurisdictionFilter
}

// PipelineConfigFrom maps application configuration onto a PipelineConfig.
func PipelineConfigFrom(cfg *config.Config) PipelineConfig {
	return PipelineConfig{
		MaxBatchSize:         cfg.Pipeline.MaxBatchSize,
		Concurrency:          cfg.Pipeline.Concurrency,
		MaxAttempts:          cfg.Pipeline.MaxAttempts,
		MaxLLMCalls:          cfg.Pipeline.MaxLLMCalls,
		MaxTransientFailures: cfg.Pipeline.MaxTransientFailures,
		DocumentTimeout:      cfg.Pipeline.DocumentTimeout,
		Scope: domain.JurisdictionFilter{
			StateCode: cfg.Pipeline.StateCode,
			PlaceName: cfg.Pipeline.PlaceName,
		},
		Extraction: llmextract.Config{
			MaxPromptChars:        cfg.LLM.MaxPromptChars,
			MaxValidationAttempts: cfg.LLM.MaxValidationAttempts,
		},
	}
}

// Pipeline claims batches of loaded documents and normalizes them.
type Pipeline struct {
	deps   PipelineDeps
	cfg    PipelineConfig
	budget *callBudget
	llm    *llmextract.Extractor
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex // one Run at a time
}

// NewPipeline validates deps and builds the LLM extractor behind the
// per-run call budget.
func NewPipeline(deps PipelineDeps, cfg PipelineConfig) (*Pipeline, error) {
	switch {
	case deps.Loader == nil, deps.States == nil, deps.Registry == nil, deps.Output == nil, deps.Runs == nil:
		return nil, fmt.Errorf("%w: pipeline requires loader, state store, registry, output and run repositories", domain.ErrInvalidInput)
	case deps.Selector == nil, deps.Rules == nil, deps.Classifier == nil, deps.Generator == nil:
		return nil, fmt.Errorf("%w: pipeline requires selector, rule extractor, classifier and text generator", domain.ErrInvalidInput)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.WorkerID == "" {
		cfg.WorkerID = uuid.NewString()
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.MaxTransientFailures <= 0 {
		cfg.MaxTransientFailures = 10
	}
	if cfg.DocumentTimeout <= 0 {
		cfg.DocumentTimeout = 5 * time.Minute
	}

	budget := &callBudget{next: deps.Metrics.InstrumentGenerator(deps.Generator), max: int64(cfg.MaxLLMCalls)}
	extractor, err := llmextract.New(budget, deps.Registry, cfg.Extraction, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: build llm extractor: %w", err)
	}

	return &Pipeline{
		deps:   deps,
		cfg:    cfg,
		budget: budget,
		llm:    extractor,
		logger: deps.Logger,
		now:    time.Now,
	}, nil
}

// WorkerID is the claim owner used for every batch this pipeline takes.
func (p *Pipeline) WorkerID() string {
	return p.cfg.WorkerID
}

// docResult is the outcome of one document. A non-nil abort stops the run.
type docResult struct {
	outcome  string
	strategy domain.Strategy
	abort    error
}

// runState accumulates per-document results while workers are running.
type runState struct {
	mu         sync.Mutex
	run        *domain.ProcessingRun
	abort      error
	transients int
	cancel     context.CancelFunc
}

func (s *runState) add(r docResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.outcome {
	case metrics.OutcomeTranslated:
		s.run.Succeeded++
	case metrics.OutcomePermanentlyFailed:
		s.run.Failed++
		s.run.PermanentlyFailed++
	case metrics.OutcomeFailed:
		s.run.Failed++
	case metrics.OutcomeSkipped:
		s.run.Skipped++
	}
	if r.abort != nil && s.abort == nil {
		s.abort = r.abort
		s.cancel()
	}
}

// transient counts one transient failure and reports whether the run has
// gone over its budget.
func (s *runState) transient(max int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transients++
	return s.transients > max
}

// Run claims one batch and processes it. Per-document failures are recorded
// on the documents; only persistence failures and an exhausted transient
// budget end the run early, and both are returned as the error. Canceling
// ctx stops new documents from starting; in-flight ones finish.
func (p *Pipeline) Run(ctx context.Context) (*domain.ProcessingRun, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.budget.reset()
	started := p.now()
	run := &domain.ProcessingRun{
		ID:        uuid.New(),
		WorkerID:  p.cfg.WorkerID,
		Status:    domain.RunStatusRunning,
		ModelName: p.deps.Generator.Model(),
		StartedAt: started.UTC(),
	}
	if err := p.deps.Runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("%w: create run: %v", domain.ErrPersistence, err)
	}

	log := p.logger.With(zap.String("run_id", run.ID.String()), zap.String("worker_id", p.cfg.WorkerID))

	batch, err := p.deps.States.NextPendingBatch(ctx, p.cfg.WorkerID, p.cfg.Scope, p.cfg.MaxBatchSize)
	if err != nil {
		abort := fmt.Errorf("%w: claim batch: %v", domain.ErrPersistence, err)
		if ctx.Err() != nil {
			abort = nil
		}
		return p.finish(run, abort, ctx.Err() != nil, started, log)
	}
	run.Claimed = len(batch)
	log.Info("pipeline.Run: batch claimed",
		zap.Int("claimed", len(batch)),
		zap.String("state_code", p.cfg.Scope.StateCode),
		zap.String("place_name", p.cfg.Scope.PlaceName))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	state := &runState{run: run, cancel: cancel}

	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup

	next := 0
	for ; next < len(batch); next++ {
		select {
		case <-runCtx.Done():
		case sem <- struct{}{}: // acquire
		}
		if runCtx.Err() != nil {
			break
		}

		doc := batch[next] // copy for goroutine
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }() // release

			// Detached from runCtx so a started document always completes.
			docCtx, docCancel := context.WithTimeout(context.Background(), p.cfg.DocumentTimeout)
			defer docCancel()

			state.add(p.process(docCtx, &doc, state))
		}()
	}
	wg.Wait()

	if next < len(batch) {
		p.releaseUnstarted(batch[next:], state, log)
	}

	canceled := ctx.Err() != nil
	return p.finish(run, state.abort, canceled, started, log)
}

// releaseUnstarted returns claimed documents that never started to pending.
func (p *Pipeline) releaseUnstarted(docs []domain.ProcessingState, state *runState, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for i := range docs {
		if err := p.deps.States.Release(ctx, docs[i].ContentID, nil); err != nil {
			log.Error("pipeline.Run: release unstarted document failed",
				zap.String("content_id", docs[i].ContentID), zap.Error(err))
		}
		state.add(docResult{outcome: metrics.OutcomeSkipped})
	}
	log.Info("pipeline.Run: released unstarted documents", zap.Int("count", len(docs)))
}

// finish records the run outcome. It uses its own context so the audit
// record is written even when the caller's context is already canceled.
func (p *Pipeline) finish(run *domain.ProcessingRun, abort error, canceled bool, started time.Time, log *zap.Logger) (*domain.ProcessingRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch {
	case abort != nil:
		run.Status = domain.RunStatusFailed
		msg := abort.Error()
		run.Error = &msg
	case canceled:
		run.Status = domain.RunStatusCanceled
	default:
		run.Status = domain.RunStatusCompleted
	}
	run.LLMCalls = int(p.budget.used())
	finished := p.now().UTC()
	run.FinishedAt = &finished

	if n, err := p.deps.States.ReleaseClaims(ctx, p.cfg.WorkerID); err != nil {
		log.Error("pipeline.Run: release claims failed", zap.Error(err))
	} else if n > 0 {
		log.Warn("pipeline.Run: released leftover claims", zap.Int("count", n))
	}

	if err := p.deps.Runs.Finish(ctx, run); err != nil {
		log.Error("pipeline.Run: finish run record failed", zap.Error(err))
		if abort == nil {
			abort = fmt.Errorf("%w: finish run: %v", domain.ErrPersistence, err)
		}
	}

	p.deps.Metrics.RecordRun(run.Status, finished.Sub(started.UTC()))
	log.Info("pipeline.Run: finished",
		zap.String("status", string(run.Status)),
		zap.Int("claimed", run.Claimed),
		zap.Int("succeeded", run.Succeeded),
		zap.Int("failed", run.Failed),
		zap.Int("skipped", run.Skipped),
		zap.Int("permanently_failed", run.PermanentlyFailed),
		zap.Int("llm_calls", run.LLMCalls))

	if p.deps.Notifier != nil && run.Claimed > 0 {
		if err := p.deps.Notifier.SendRunSummary(ctx, run); err != nil {
			log.Warn("pipeline.Run: run summary notification failed", zap.Error(err))
		}
	}
	return run, abort
}

// process takes one claimed document through the whole pipeline.
func (p *Pipeline) process(ctx context.Context, st *domain.ProcessingState, state *runState) docResult {
	id := st.ContentID

	raw, err := p.deps.Loader.Fetch(ctx, id)
	if err != nil {
		return p.fail(ctx, st, "", fmt.Errorf("fetch: %w", err), state)
	}

	analysis, err := fingerprint.Analyze(raw.RawMarkup)
	if err != nil {
		return p.fail(ctx, st, "", err, state)
	}
	sig := analysis.Signature
	class := p.deps.Classifier.Classify(analysis.Text, sig.Features.HasTable)

	rec, err := p.lookupSchema(ctx, st, sig)
	if err != nil {
		return p.fail(ctx, st, "", err, state)
	}
	if err := p.deps.States.MarkProcessed(ctx, id, sig.Hash, class.Type); err != nil {
		return p.fail(ctx, st, "", fmt.Errorf("%w: mark processed: %v", domain.ErrPersistence, err), state)
	}

	strat := p.deps.Selector.Select(rec)
	if strat != rec.AssignedStrategy {
		if err := p.deps.Registry.AssignStrategy(ctx, sig.Hash, strat); err != nil {
			return p.fail(ctx, st, strat, err, state)
		}
	}

	var doc *domain.NormalizedDocument
	fallback := false
	if strat.IsRule() {
		sections, err := p.deps.Rules.Extract(strat, id, raw.RawMarkup)
		switch {
		case err == nil:
			if err := p.deps.Registry.RecordOutcome(ctx, sig.Hash, true); err != nil {
				return p.fail(ctx, st, strat, err, state)
			}
			doc = &domain.NormalizedDocument{
				DocumentID:   id,
				Jurisdiction: raw.Jurisdiction(),
				DocumentType: class.Type,
				Sections:     sections,
				Strategy:     strat,
			}
		case errors.Is(err, domain.ErrStructuralExtractionEmpty):
			if err := p.deps.Registry.RecordOutcome(ctx, sig.Hash, false); err != nil {
				return p.fail(ctx, st, strat, err, state)
			}
			p.deps.Metrics.RecordRuleFallback()
			p.logger.Info("pipeline.process: rule extraction empty, falling back to llm",
				zap.String("content_id", id), zap.String("strategy", string(strat)))
			fallback = true
		default:
			return p.fail(ctx, st, strat, err, state)
		}
	}

	if doc == nil {
		strat = domain.StrategyLLM
		doc, err = p.llm.Extract(ctx, llmextract.Input{
			DocumentID:   id,
			Jurisdiction: raw.Jurisdiction(),
			DocumentType: class.Type,
			Signature:    &sig,
			Markup:       raw.RawMarkup,
			Fallback:     fallback,
		})
		if err != nil {
			return p.fail(ctx, st, strat, err, state)
		}
	}

	doc.SchemaSignature = sig.Hash
	doc.CreatedAt = p.now().UTC()
	if err := doc.Validate(); err != nil {
		return p.fail(ctx, st, strat, err, state)
	}
	if err := p.deps.Output.Save(ctx, doc); err != nil {
		return p.fail(ctx, st, strat, fmt.Errorf("%w: save output: %v", domain.ErrPersistence, err), state)
	}
	if p.deps.Archiver != nil {
		if err := p.deps.Archiver.Archive(ctx, doc); err != nil {
			p.logger.Warn("pipeline.process: archive failed", zap.String("content_id", id), zap.Error(err))
		}
	}
	if err := p.deps.States.MarkTranslated(ctx, id); err != nil {
		return p.fail(ctx, st, strat, fmt.Errorf("%w: mark translated: %v", domain.ErrPersistence, err), state)
	}

	p.deps.Metrics.RecordDocument(metrics.OutcomeTranslated, strat)
	p.logger.Info("pipeline.process: translated",
		zap.String("content_id", id),
		zap.String("strategy", string(strat)),
		zap.String("document_type", string(doc.DocumentType)),
		zap.Int("sections", len(doc.Sections)))
	return docResult{outcome: metrics.OutcomeTranslated, strategy: strat}
}

// lookupSchema reuses the schema already recorded for a retried document
// instead of counting it as a second sample.
func (p *Pipeline) lookupSchema(ctx context.Context, st *domain.ProcessingState, sig domain.SchemaSignature) (*domain.SchemaRecord, error) {
	if st.AssignedSchema == sig.Hash {
		rec, err := p.deps.Registry.Get(ctx, sig.Hash)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrSchemaNotFound) {
			return nil, err
		}
	}
	return p.deps.Registry.LookupOrCreate(ctx, sig, st.ContentID)
}

// fail classifies a per-document error and records it on the document.
func (p *Pipeline) fail(ctx context.Context, st *domain.ProcessingState, strat domain.Strategy, cause error, state *runState) docResult {
	id := st.ContentID
	log := p.logger.With(zap.String("content_id", id), zap.String("strategy", string(strat)))
	// A fresh context so the outcome is stored even after a document timeout.
	storeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if errors.Is(cause, domain.ErrPersistence) {
		log.Error("pipeline.process: persistence failure, aborting run", zap.Error(cause))
		return docResult{outcome: metrics.OutcomeFailed, strategy: strat, abort: cause}
	}

	if errors.Is(cause, errLLMBudgetExhausted) {
		if err := p.deps.States.Release(storeCtx, id, nil); err != nil {
			return p.storeFailure(log, err)
		}
		p.deps.Metrics.RecordDocument(metrics.OutcomeSkipped, strat)
		log.Info("pipeline.process: llm call budget spent, document left pending")
		return docResult{outcome: metrics.OutcomeSkipped, strategy: strat}
	}

	// Provider faults, retryable or not, release the claim without charging
	// an attempt; enough of them end the run.
	if llm.IsServiceFault(cause) || errors.Is(cause, context.DeadlineExceeded) {
		if err := p.deps.States.Release(storeCtx, id, cause); err != nil {
			return p.storeFailure(log, err)
		}
		p.deps.Metrics.RecordDocument(metrics.OutcomeSkipped, strat)
		log.Warn("pipeline.process: service failure, document released",
			zap.Bool("retryable", llm.IsTransient(cause)), zap.Error(cause))
		res := docResult{outcome: metrics.OutcomeSkipped, strategy: strat}
		if state.transient(p.cfg.MaxTransientFailures) {
			res.abort = fmt.Errorf("%w: more than %d service failures", domain.ErrServiceBudgetExhausted, p.cfg.MaxTransientFailures)
		}
		return res
	}

	if err := p.deps.States.MarkFailed(storeCtx, id, cause); err != nil {
		return p.storeFailure(log, err)
	}

	outcome := metrics.OutcomeFailed
	if domain.IsTerminalInput(cause) || st.AttemptCount+1 >= p.cfg.MaxAttempts {
		outcome = metrics.OutcomePermanentlyFailed
	}
	p.deps.Metrics.RecordDocument(outcome, strat)
	log.Warn("pipeline.process: document failed",
		zap.String("outcome", outcome),
		zap.Int("attempt", st.AttemptCount+1),
		zap.Error(cause))
	return docResult{outcome: outcome, strategy: strat}
}

func (p *Pipeline) storeFailure(log *zap.Logger, err error) docResult {
	abort := fmt.Errorf("%w: record document outcome: %v", domain.ErrPersistence, err)
	log.Error("pipeline.process: could not record outcome, aborting run", zap.Error(err))
	return docResult{outcome: metrics.OutcomeFailed, abort: abort}
}

// callBudget caps the number of generator calls made during one run.
type callBudget struct {
	next  port.TextGenerator
	max   int64
	calls atomic.Int64
}

func (b *callBudget) Model() string {
	return b.next.Model()
}

func (b *callBudget) Generate(ctx context.Context, prompt string) (string, error) {
	if n := b.calls.Add(1); b.max > 0 && n > b.max {
		b.calls.Add(-1)
		return "", errLLMBudgetExhausted
	}
	return b.next.Generate(ctx, prompt)
}

func (b *callBudget) reset() {
	b.calls.Store(0)
}

func (b *callBudget) used() int64 {
	return b.calls.Load()
}
