package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lawnorm/internal/auth"
	"lawnorm/internal/config"
	"lawnorm/internal/domain"
	"lawnorm/internal/handler"
	"lawnorm/internal/metrics"
	"lawnorm/internal/router"
	"lawnorm/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type fixture struct {
	engine *gin.Engine
	issuer *auth.Issuer
	report *mocks.MockReportService
	docs   *mocks.MockDocumentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	issuer, err := auth.NewIssuer(config.JWTConfig{Secret: "router-secret", Issuer: "lawnorm", TokenExpiry: time.Hour})
	require.NoError(t, err)

	report := new(mocks.MockReportService)
	docs := new(mocks.MockDocumentService)
	logger := zap.NewNop()

	engine := router.Setup(router.Deps{
		Tokens:    issuer,
		Stats:     handler.NewStatsHandler(report, logger),
		Documents: handler.NewDocumentHandler(docs, 3, logger),
		Health:    handler.NewHealthHandler(okPinger{}),
		Metrics:   metrics.New().Handler(),
		Logger:    logger,
	})
	return &fixture{engine: engine, issuer: issuer, report: report, docs: docs}
}

func (f *fixture) do(t *testing.T, method, path, role string) *httptest.ResponseRecorder {
	t.Helper()
	req, _ := http.NewRequest(method, path, http.NoBody)
	if role != "" {
		tok, err := f.issuer.Mint("tester", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok.Token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicEndpoints(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/readyz", "").Code)

	w := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lawnorm_")
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/stats", "").Code)
}

func TestRouter_StatsWithViewerToken(t *testing.T) {
	f := newFixture(t)
	f.report.On("Stats", mock.Anything).Return(&domain.Stats{TotalLoaded: 1}, nil)

	w := f.do(t, http.MethodGet, "/api/v1/stats", auth.RoleViewer)
	assert.Equal(t, http.StatusOK, w.Code)
	f.report.AssertExpectations(t)
}

func TestRouter_ReprocessRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	f.docs.On("Reprocess", mock.Anything, "ord-9").Return(&domain.ProcessingState{ContentID: "ord-9", IsLoaded: true}, nil)

	w := f.do(t, http.MethodPost, "/api/v1/documents/ord-9/reprocess", auth.RoleViewer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	f.docs.AssertNotCalled(t, "Reprocess", mock.Anything, mock.Anything)

	w = f.do(t, http.MethodPost, "/api/v1/documents/ord-9/reprocess", auth.RoleAdmin)
	assert.Equal(t, http.StatusOK, w.Code)
	f.docs.AssertExpectations(t)
}

func TestRouter_DocumentRoutes(t *testing.T) {
	f := newFixture(t)
	f.docs.On("GetState", mock.Anything, "ord-9").Return(&domain.ProcessingState{ContentID: "ord-9"}, nil)
	f.docs.On("ListNormalized", mock.Anything, domain.JurisdictionFilter{}, 0, 20).Return([]domain.NormalizedDocument{}, 0, nil)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/documents/ord-9/state", auth.RoleViewer).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/documents", auth.RoleViewer).Code)
	f.docs.AssertExpectations(t)
}
