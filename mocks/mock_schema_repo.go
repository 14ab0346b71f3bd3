package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lawnorm/internal/domain"
)

// MockSchemaRepo is a mock implementation of port.SchemaRepository.
type MockSchemaRepo struct {
	mock.Mock
}

func (m *MockSchemaRepo) Upsert(ctx context.Context, signature string, features domain.Features, representativeID string) (*domain.SchemaRecord, error) {
	args := m.Called(ctx, signature, features, representativeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SchemaRecord), args.Error(1)
}

func (m *MockSchemaRepo) GetBySignature(ctx context.Context, signature string) (*domain.SchemaRecord, error) {
	args := m.Called(ctx, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SchemaRecord), args.Error(1)
}

func (m *MockSchemaRepo) RecordOutcome(ctx context.Context, signature string, success bool) error {
	args := m.Called(ctx, signature, success)
	return args.Error(0)
}

func (m *MockSchemaRepo) AssignStrategy(ctx context.Context, signature string, strategy domain.Strategy) error {
	args := m.Called(ctx, signature, strategy)
	return args.Error(0)
}

func (m *MockSchemaRepo) List(ctx context.Context) ([]domain.SchemaRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SchemaRecord), args.Error(1)
}
