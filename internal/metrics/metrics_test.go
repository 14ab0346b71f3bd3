package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lawnorm/internal/domain"
	"lawnorm/internal/llm"
	"lawnorm/internal/metrics"
	"lawnorm/mocks"
)

func TestInstrumentGenerator_CountsResults(t *testing.T) {
	m := metrics.New()
	gen := new(mocks.MockTextGenerator)
	gen.On("Generate", mock.Anything, "ok").Return("{}", nil)
	gen.On("Generate", mock.Anything, "busy").Return("", llm.NewRateLimitError("gemini", errors.New("429"), 1))
	gen.On("Generate", mock.Anything, "bad").Return("", errors.New("boom"))

	wrapped := m.InstrumentGenerator(gen)
	ctx := context.Background()
	_, _ = wrapped.Generate(ctx, "ok")
	_, _ = wrapped.Generate(ctx, "ok")
	_, _ = wrapped.Generate(ctx, "busy")
	_, _ = wrapped.Generate(ctx, "bad")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("error")))
}

func TestRecordDocumentAndRun(t *testing.T) {
	m := metrics.New()
	m.RecordDocument(metrics.OutcomeTranslated, domain.StrategyRuleHeading)
	m.RecordDocument(metrics.OutcomeTranslated, domain.StrategyRuleHeading)
	m.RecordRun(domain.RunStatusCompleted, 3*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsTotal.WithLabelValues("translated", "rule:heading")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("completed")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	m.RecordDocument(metrics.OutcomeFailed, domain.StrategyLLM)
	m.RecordRuleFallback()
	m.RecordRun(domain.RunStatusFailed, time.Second)

	gen := new(mocks.MockTextGenerator)
	assert.Same(t, gen, m.InstrumentGenerator(gen))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := metrics.New()
	m.RecordRuleFallback()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "lawnorm_rule_fallback_total 1")
}
