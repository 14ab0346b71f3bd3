// Package metrics exposes pipeline counters and latencies to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lawnorm/internal/domain"
	"lawnorm/internal/llm"
	"lawnorm/internal/port"
)

// Outcome labels for processed documents.
const (
	OutcomeTranslated        = "translated"
	OutcomeFailed            = "failed"
	OutcomeSkipped           = "skipped"
	OutcomePermanentlyFailed = "permanently_failed"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal    *prometheus.CounterVec
	LLMRequestsTotal  *prometheus.CounterVec
	LLMDuration       prometheus.Histogram
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	RuleFallbackTotal prometheus.Counter
}

// New registers the lawnorm collectors plus the Go and process collectors on
// a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DocumentsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lawnorm_documents_total",
				Help: "Documents finished by the pipeline, by outcome and strategy",
			},
			[]string{"outcome", "strategy"},
		),
		LLMRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lawnorm_llm_requests_total",
				Help: "Text generation calls by result",
			},
			[]string{"result"}, // "ok", "transient", "error"
		),
		LLMDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lawnorm_llm_request_duration_seconds",
				Help:    "Latency of text generation calls",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
			},
		),
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lawnorm_runs_total",
				Help: "Orchestrator runs by final status",
			},
			[]string{"status"},
		),
		RunDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lawnorm_run_duration_seconds",
				Help:    "Wall time of orchestrator runs",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
		),
		RuleFallbackTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "lawnorm_rule_fallback_total",
				Help: "Rule extractions that found no sections and fell back to the LLM",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordDocument(outcome string, strategy domain.Strategy) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(outcome, string(strategy)).Inc()
}

func (m *Metrics) RecordRuleFallback() {
	if m == nil {
		return
	}
	m.RuleFallbackTotal.Inc()
}

func (m *Metrics) RecordRun(status domain.RunStatus, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(string(status)).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}

// InstrumentGenerator wraps gen so every call is counted and timed.
func (m *Metrics) InstrumentGenerator(gen port.TextGenerator) port.TextGenerator {
	if m == nil {
		return gen
	}
	return &instrumentedGenerator{next: gen, m: m}
}

type instrumentedGenerator struct {
	next port.TextGenerator
	m    *Metrics
}

func (g *instrumentedGenerator) Model() string {
	return g.next.Model()
}

func (g *instrumentedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := g.next.Generate(ctx, prompt)
	g.m.LLMDuration.Observe(time.Since(start).Seconds())

	result := "ok"
	switch {
	case err == nil:
	case llm.IsTransient(err):
		result = "transient"
	default:
		result = "error"
	}
	g.m.LLMRequestsTotal.WithLabelValues(result).Inc()
	return out, err
}
