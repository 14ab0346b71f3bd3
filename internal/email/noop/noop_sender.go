package noop

import (
	"context"

	"go.uber.org/zap"

	"lawnorm/internal/domain"
	"lawnorm/internal/email"
	"lawnorm/internal/port"
)

type noopSender struct {
	logger *zap.Logger
}

// NewNoopSender creates an EmailSender that only logs the summary subject.
func NewNoopSender(logger *zap.Logger) port.EmailSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &noopSender{logger: logger}
}

func (s *noopSender) SendRunSummary(_ context.Context, run *domain.ProcessingRun) error {
	s.logger.Info("[NOOP EMAIL] run summary", zap.String("subject", email.Subject(run)))
	return nil
}
