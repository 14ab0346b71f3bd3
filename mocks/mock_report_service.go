package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lawnorm/internal/domain"
)

// MockReportService is a mock implementation of service.ReportService.
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Stats(ctx context.Context) (*domain.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stats), args.Error(1)
}

func (m *MockReportService) StateCoverage(ctx context.Context) ([]domain.StateCoverage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StateCoverage), args.Error(1)
}

func (m *MockReportService) TypeCounts(ctx context.Context) ([]domain.TypeCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TypeCount), args.Error(1)
}

func (m *MockReportService) SchemaStats(ctx context.Context) ([]domain.SchemaStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SchemaStats), args.Error(1)
}

func (m *MockReportService) RecentRuns(ctx context.Context, limit int) ([]domain.ProcessingRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProcessingRun), args.Error(1)
}

func (m *MockReportService) Report(ctx context.Context) (*domain.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}
