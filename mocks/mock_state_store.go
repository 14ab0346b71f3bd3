package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lawnorm/internal/domain"
)

// MockStateStore is a mock implementation of port.StateStore.
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) MarkLoaded(ctx context.Context, doc domain.LoadedDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockStateStore) MarkProcessed(ctx context.Context, contentID, schema string, documentType domain.DocumentType) error {
	args := m.Called(ctx, contentID, schema, documentType)
	return args.Error(0)
}

func (m *MockStateStore) MarkTranslated(ctx context.Context, contentID string) error {
	args := m.Called(ctx, contentID)
	return args.Error(0)
}

func (m *MockStateStore) MarkFailed(ctx context.Context, contentID string, cause error) error {
	args := m.Called(ctx, contentID, cause)
	return args.Error(0)
}

func (m *MockStateStore) Release(ctx context.Context, contentID string, cause error) error {
	args := m.Called(ctx, contentID, cause)
	return args.Error(0)
}

func (m *MockStateStore) NextPendingBatch(ctx context.Context, workerID string, filter domain.JurisdictionFilter, limit int) ([]domain.ProcessingState, error) {
	args := m.Called(ctx, workerID, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProcessingState), args.Error(1)
}

func (m *MockStateStore) ReleaseClaims(ctx context.Context, workerID string) (int, error) {
	args := m.Called(ctx, workerID)
	return args.Int(0), args.Error(1)
}

func (m *MockStateStore) ResetForReprocessing(ctx context.Context, contentID string) error {
	args := m.Called(ctx, contentID)
	return args.Error(0)
}

func (m *MockStateStore) Get(ctx context.Context, contentID string) (*domain.ProcessingState, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessingState), args.Error(1)
}

func (m *MockStateStore) ListPermanentlyFailed(ctx context.Context, offset, limit int) ([]domain.ProcessingState, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ProcessingState), args.Int(1), args.Error(2)
}
