package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"lawnorm/internal/domain"
	"lawnorm/internal/handler"
	"lawnorm/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, target, http.NoBody)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrDocumentNotFound, http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
		{fmt.Errorf("wrapped: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{domain.ErrPersistence, http.StatusServiceUnavailable, "PERSISTENCE_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		status, code, _ := handler.MapDomainError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestStatsHandler_GetStats(t *testing.T) {
	svc := new(mocks.MockReportService)
	h := handler.NewStatsHandler(svc, zap.NewNop())
	svc.On("Stats", mock.Anything).Return(&domain.Stats{TotalLoaded: 12, TotalTranslated: 9}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/stats")
	h.GetStats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.EqualValues(t, 9, data["total_translated"])
	svc.AssertExpectations(t)
}

func TestStatsHandler_GetStats_Error(t *testing.T) {
	svc := new(mocks.MockReportService)
	h := handler.NewStatsHandler(svc, zap.NewNop())
	svc.On("Stats", mock.Anything).Return(nil, errors.New("db down"))

	c, w := newContext(http.MethodGet, "/api/v1/stats")
	h.GetStats(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
}

func TestStatsHandler_Breakdowns(t *testing.T) {
	svc := new(mocks.MockReportService)
	h := handler.NewStatsHandler(svc, zap.NewNop())
	svc.On("StateCoverage", mock.Anything).Return([]domain.StateCoverage{{StateCode: "TX", Loaded: 3}}, nil)
	svc.On("TypeCounts", mock.Anything).Return([]domain.TypeCount{{DocumentType: "Ordinance", Count: 2}}, nil)
	svc.On("SchemaStats", mock.Anything).Return([]domain.SchemaStats{{SchemaRecord: domain.SchemaRecord{Signature: "abc"}}}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/stats/states")
	h.GetStateCoverage(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state_code":"TX"`)

	c, w = newContext(http.MethodGet, "/api/v1/stats/types")
	h.GetTypeCounts(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"document_type":"Ordinance"`)

	c, w = newContext(http.MethodGet, "/api/v1/stats/schemas")
	h.GetSchemaStats(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"signature":"abc"`)

	svc.AssertExpectations(t)
}

func TestStatsHandler_ListRuns_PassesLimit(t *testing.T) {
	svc := new(mocks.MockReportService)
	h := handler.NewStatsHandler(svc, zap.NewNop())
	svc.On("RecentRuns", mock.Anything, 5).Return([]domain.ProcessingRun{{WorkerID: "w1"}}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/runs?limit=5")
	h.ListRuns(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"worker_id":"w1"`)
	svc.AssertExpectations(t)
}

func TestStatsHandler_CoverageWorkbook(t *testing.T) {
	svc := new(mocks.MockReportService)
	h := handler.NewStatsHandler(svc, zap.NewNop())
	svc.On("Report", mock.Anything).Return(&domain.Report{
		Stats:  domain.Stats{TotalLoaded: 4},
		States: []domain.StateCoverage{{StateCode: "OH", Loaded: 4, Translated: 1}},
	}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/reports/coverage.xlsx")
	h.CoverageWorkbook(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "coverage_")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "States")
}

func TestDocumentHandler_GetByID(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(svc, 3, zap.NewNop())
	doc := &domain.NormalizedDocument{
		DocumentID:   "ord-1",
		DocumentType: domain.DocumentTypeOrdinance,
		Sections:     []domain.Section{{SectionID: "ord-1-s001", SectionText: "Text."}},
	}
	svc.On("GetNormalized", mock.Anything, "ord-1").Return(doc, nil)

	c, w := newContext(http.MethodGet, "/api/v1/documents/ord-1")
	c.Params = gin.Params{{Key: "id", Value: "ord-1"}}
	h.GetByID(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"section_id":"ord-1-s001"`)
	svc.AssertExpectations(t)
}

func TestDocumentHandler_GetByID_NotFound(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(svc, 3, zap.NewNop())
	svc.On("GetNormalized", mock.Anything, "nope").Return(nil, domain.ErrDocumentNotFound)

	c, w := newContext(http.MethodGet, "/api/v1/documents/nope")
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	h.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "DOCUMENT_NOT_FOUND", decode(t, w).Error.Code)
}

func TestDocumentHandler_List_NormalizesFilter(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(svc, 3, zap.NewNop())
	filter := domain.JurisdictionFilter{StateCode: "TX", PlaceName: "Austin"}
	svc.On("ListNormalized", mock.Anything, filter, 0, 20).
		Return([]domain.NormalizedDocument{{DocumentID: "a"}}, 1, nil)

	c, w := newContext(http.MethodGet, "/api/v1/documents?state_code=tx&place_name=Austin&limit=500")
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.Total)
	assert.Equal(t, 20, resp.Meta.Limit)
	svc.AssertExpectations(t)
}

func TestDocumentHandler_ListFailures_DerivesStatus(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(svc, 3, zap.NewNop())
	msg := "llm output failed validation"
	states := []domain.ProcessingState{
		{ContentID: "a", LastError: &msg, AttemptCount: 1},
		{ContentID: "b", LastError: &msg, AttemptCount: 3},
	}
	svc.On("ListFailures", mock.Anything, 10, 5).Return(states, 2, nil)

	c, w := newContext(http.MethodGet, "/api/v1/failures?offset=10&limit=5")
	h.ListFailures(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []handler.DocumentStateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, domain.DocumentStatusFailed, resp.Data[0].Status)
	assert.Equal(t, domain.DocumentStatusPermanentlyFailed, resp.Data[1].Status)
}

func TestDocumentHandler_GetState(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(svc, 3, zap.NewNop())
	svc.On("GetState", mock.Anything, "a").Return(&domain.ProcessingState{ContentID: "a", IsLoaded: true, IsTranslated: true}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/documents/a/state")
	c.Params = gin.Params{{Key: "id", Value: "a"}}
	h.GetState(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"translated"`)
}

func TestDocumentHandler_Reprocess(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(svc, 3, zap.NewNop())
	svc.On("Reprocess", mock.Anything, "a").Return(&domain.ProcessingState{ContentID: "a", IsLoaded: true}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/documents/a/reprocess")
	c.Params = gin.Params{{Key: "id", Value: "a"}}
	h.Reprocess(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"loaded"`)
	svc.AssertExpectations(t)
}

func TestDocumentHandler_Reprocess_InvalidID(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	h := handler.NewDocumentHandler(svc, 3, zap.NewNop())
	svc.On("Reprocess", mock.Anything, "").Return(nil, domain.ErrInvalidInput)

	c, w := newContext(http.MethodPost, "/api/v1/documents//reprocess")
	h.Reprocess(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	h := handler.NewHealthHandler(stubPinger{})
	c, w := newContext(http.MethodGet, "/readyz")
	h.Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/healthz")
	h.Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = handler.NewHealthHandler(stubPinger{err: errors.New("down")})
	c, w = newContext(http.MethodGet, "/readyz")
	h.Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
