package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawnorm/internal/domain"
	"lawnorm/internal/service"
	"lawnorm/mocks"
)

func TestDocumentService_Reprocess(t *testing.T) {
	states := new(mocks.MockStateStore)
	ctx := context.Background()
	states.On("ResetForReprocessing", ctx, "doc-1").Return(nil)
	states.On("Get", ctx, "doc-1").Return(&domain.ProcessingState{ContentID: "doc-1", IsLoaded: true}, nil)

	svc := service.NewDocumentService(states, new(mocks.MockNormalizedDocumentRepo), nil)
	st, err := svc.Reprocess(ctx, "doc-1")

	require.NoError(t, err)
	assert.True(t, st.IsLoaded)
	assert.False(t, st.IsTranslated)
	states.AssertExpectations(t)
}

func TestDocumentService_ReprocessUnknown(t *testing.T) {
	states := new(mocks.MockStateStore)
	states.On("ResetForReprocessing", context.Background(), "nope").Return(domain.ErrDocumentNotFound)

	svc := service.NewDocumentService(states, new(mocks.MockNormalizedDocumentRepo), nil)
	_, err := svc.Reprocess(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentService_RejectsBlankIDs(t *testing.T) {
	svc := service.NewDocumentService(new(mocks.MockStateStore), new(mocks.MockNormalizedDocumentRepo), nil)

	_, err := svc.Reprocess(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.GetNormalized(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReportService_Report(t *testing.T) {
	stats := new(mocks.MockStatsRepo)
	runs := new(mocks.MockRunRepo)
	ctx := context.Background()

	stats.On("GetStats", ctx).Return(&domain.Stats{TotalDocuments: 4, TotalTranslated: 3}, nil)
	stats.On("GetStateCoverage", ctx).Return([]domain.StateCoverage{{StateCode: "IL", Loaded: 4, Translated: 3}}, nil)
	stats.On("GetTypeCounts", ctx).Return([]domain.TypeCount{{DocumentType: "Code", Count: 3}}, nil)
	stats.On("GetSchemaStats", ctx).Return([]domain.SchemaStats{}, nil)
	runs.On("ListRecent", ctx, 20).Return([]domain.ProcessingRun{{Succeeded: 3}}, nil)

	rep, err := service.NewReportService(stats, runs).Report(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, rep.Stats.TotalTranslated)
	assert.Len(t, rep.States, 1)
	assert.Len(t, rep.Runs, 1)
	assert.False(t, rep.GeneratedAt.IsZero())
}

func TestReportService_RecentRunsClampsLimit(t *testing.T) {
	runs := new(mocks.MockRunRepo)
	runs.On("ListRecent", context.Background(), 20).Return([]domain.ProcessingRun{}, nil)

	_, err := service.NewReportService(new(mocks.MockStatsRepo), runs).RecentRuns(context.Background(), 1000)
	require.NoError(t, err)
	runs.AssertExpectations(t)
}
