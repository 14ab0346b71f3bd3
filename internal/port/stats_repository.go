package port

import (
	"context"

	"lawnorm/internal/domain"
)

// StatsRepository provides aggregate statistics queries.
type StatsRepository interface {
	GetStats(ctx context.Context) (*domain.Stats, error)
	GetStateCoverage(ctx context.Context) ([]domain.StateCoverage, error)
	GetTypeCounts(ctx context.Context) ([]domain.TypeCount, error)
	GetSchemaStats(ctx context.Context) ([]domain.SchemaStats, error)
}
