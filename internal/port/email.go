package port

import (
	"context"

	"lawnorm/internal/domain"
)

// EmailSender defines the contract for sending emails.
type EmailSender interface {
	SendRunSummary(ctx context.Context, run *domain.ProcessingRun) error
}
