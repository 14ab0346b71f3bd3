package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lawnorm/internal/domain"
)

// MockDocumentService is a mock implementation of service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) GetNormalized(ctx context.Context, documentID string) (*domain.NormalizedDocument, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NormalizedDocument), args.Error(1)
}

func (m *MockDocumentService) ListNormalized(ctx context.Context, filter domain.JurisdictionFilter, offset, limit int) ([]domain.NormalizedDocument, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.NormalizedDocument), args.Int(1), args.Error(2)
}

func (m *MockDocumentService) GetState(ctx context.Context, contentID string) (*domain.ProcessingState, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessingState), args.Error(1)
}

func (m *MockDocumentService) ListFailures(ctx context.Context, offset, limit int) ([]domain.ProcessingState, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ProcessingState), args.Int(1), args.Error(2)
}

func (m *MockDocumentService) Reprocess(ctx context.Context, contentID string) (*domain.ProcessingState, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessingState), args.Error(1)
}
