package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lawnorm/internal/domain"
)

// MockNormalizedDocumentRepo is a mock implementation of port.NormalizedDocumentRepository.
type MockNormalizedDocumentRepo struct {
	mock.Mock
}

func (m *MockNormalizedDocumentRepo) Save(ctx context.Context, doc *domain.NormalizedDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockNormalizedDocumentRepo) GetByID(ctx context.Context, documentID string) (*domain.NormalizedDocument, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NormalizedDocument), args.Error(1)
}

func (m *MockNormalizedDocumentRepo) ListByJurisdiction(ctx context.Context, filter domain.JurisdictionFilter, offset, limit int) ([]domain.NormalizedDocument, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.NormalizedDocument), args.Int(1), args.Error(2)
}

// Iterate replays the documents given as the first return value through fn.
func (m *MockNormalizedDocumentRepo) Iterate(ctx context.Context, fn func(*domain.NormalizedDocument) error) error {
	args := m.Called(ctx, fn)
	if docs, ok := args.Get(0).([]domain.NormalizedDocument); ok {
		for i := range docs {
			if err := fn(&docs[i]); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}

// MockCitationRepo is a mock implementation of port.CitationRepository.
type MockCitationRepo struct {
	mock.Mock
}

func (m *MockCitationRepo) Upsert(ctx context.Context, citation *domain.Citation) error {
	args := m.Called(ctx, citation)
	return args.Error(0)
}

func (m *MockCitationRepo) GetByContentID(ctx context.Context, contentID string) (*domain.Citation, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Citation), args.Error(1)
}
