package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"lawnorm/internal/domain"
)

// Runner is one orchestrator run.
type Runner interface {
	Run(ctx context.Context) (*domain.ProcessingRun, error)
}

// PipelineWorkerConfig holds settings for the background pipeline worker.
type PipelineWorkerConfig struct {
	PollInterval time.Duration
}

// PipelineWorker runs the pipeline repeatedly until its context is canceled.
type PipelineWorker struct {
	runner Runner
	cfg    PipelineWorkerConfig
	logger *zap.Logger
}

// NewPipelineWorker creates a new PipelineWorker.
func NewPipelineWorker(runner Runner, cfg PipelineWorkerConfig, logger *zap.Logger) *PipelineWorker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineWorker{runner: runner, cfg: cfg, logger: logger}
}

// Start runs the pipeline until ctx is canceled. A run that claimed a full
// batch is followed immediately by the next one; otherwise the worker waits
// one poll interval. Persistence failures stop the worker and are returned.
func (w *PipelineWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.logger.Info("pipelineWorker: started", zap.Duration("poll", w.cfg.PollInterval))

	for {
		run, err := w.runner.Run(ctx)
		switch {
		case errors.Is(err, domain.ErrPersistence):
			w.logger.Error("pipelineWorker: stopping after persistence failure", zap.Error(err))
			return err
		case err != nil:
			w.logger.Warn("pipelineWorker: run ended early", zap.Error(err))
		}

		if ctx.Err() != nil {
			w.logger.Info("pipelineWorker: shutdown complete")
			return nil
		}
		if err == nil && run != nil && run.Claimed > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			w.logger.Info("pipelineWorker: shutdown complete")
			return nil
		case <-ticker.C:
		}
	}
}
