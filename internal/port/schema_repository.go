package port

import (
	"context"

	"lawnorm/internal/domain"
)

// SchemaRepository stores the schema registry. Records are never deleted.
type SchemaRepository interface {
	// Upsert inserts the signature or increments its sample count.
	Upsert(ctx context.Context, signature string, features domain.Features, representativeID string) (*domain.SchemaRecord, error)
	GetBySignature(ctx context.Context, signature string) (*domain.SchemaRecord, error)
	RecordOutcome(ctx context.Context, signature string, success bool) error
	AssignStrategy(ctx context.Context, signature string, strategy domain.Strategy) error
	List(ctx context.Context) ([]domain.SchemaRecord, error)
}
