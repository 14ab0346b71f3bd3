package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lawnorm/internal/domain"
)

// MockDocumentLoader is a mock implementation of port.DocumentLoader.
type MockDocumentLoader struct {
	mock.Mock
}

func (m *MockDocumentLoader) Fetch(ctx context.Context, contentID string) (*domain.RawDocument, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RawDocument), args.Error(1)
}

func (m *MockDocumentLoader) ListPending(ctx context.Context, filter domain.JurisdictionFilter) ([]string, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
