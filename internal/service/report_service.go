package service

import (
	"context"
	"time"

	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

const defaultRecentRuns = 20

// ReportService provides processing statistics and coverage reporting.
type ReportService interface {
	Stats(ctx context.Context) (*domain.Stats, error)
	StateCoverage(ctx context.Context) ([]domain.StateCoverage, error)
	TypeCounts(ctx context.Context) ([]domain.TypeCount, error)
	SchemaStats(ctx context.Context) ([]domain.SchemaStats, error)
	RecentRuns(ctx context.Context, limit int) ([]domain.ProcessingRun, error)
	// Report gathers everything above into one snapshot.
	Report(ctx context.Context) (*domain.Report, error)
}

type reportService struct {
	statsRepo port.StatsRepository
	runRepo   port.RunRepository
}

func NewReportService(statsRepo port.StatsRepository, runRepo port.RunRepository) ReportService {
	return &reportService{statsRepo: statsRepo, runRepo: runRepo}
}

func (s *reportService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.statsRepo.GetStats(ctx)
}

func (s *reportService) StateCoverage(ctx context.Context) ([]domain.StateCoverage, error) {
	return s.statsRepo.GetStateCoverage(ctx)
}

func (s *reportService) TypeCounts(ctx context.Context) ([]domain.TypeCount, error) {
	return s.statsRepo.GetTypeCounts(ctx)
}

func (s *reportService) SchemaStats(ctx context.Context) ([]domain.SchemaStats, error) {
	return s.statsRepo.GetSchemaStats(ctx)
}

func (s *reportService) RecentRuns(ctx context.Context, limit int) ([]domain.ProcessingRun, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultRecentRuns
	}
	return s.runRepo.ListRecent(ctx, limit)
}

func (s *reportService) Report(ctx context.Context) (*domain.Report, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	states, err := s.StateCoverage(ctx)
	if err != nil {
		return nil, err
	}
	types, err := s.TypeCounts(ctx)
	if err != nil {
		return nil, err
	}
	schemas, err := s.SchemaStats(ctx)
	if err != nil {
		return nil, err
	}
	runs, err := s.RecentRuns(ctx, defaultRecentRuns)
	if err != nil {
		return nil, err
	}
	return &domain.Report{
		GeneratedAt: time.Now().UTC(),
		Stats:       *stats,
		States:      states,
		Types:       types,
		Schemas:     schemas,
		Runs:        runs,
	}, nil
}
