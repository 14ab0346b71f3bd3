package port

import (
	"context"

	"github.com/google/uuid"

	"lawnorm/internal/domain"
)

// RunRepository records orchestrator runs for auditing.
type RunRepository interface {
	Create(ctx context.Context, run *domain.ProcessingRun) error
	Finish(ctx context.Context, run *domain.ProcessingRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ProcessingRun, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ProcessingRun, error)
}
