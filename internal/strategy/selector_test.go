package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lawnorm/internal/config"
	"lawnorm/internal/domain"
	"lawnorm/internal/strategy"
)

func record(samples int, confidence float64, f domain.Features) *domain.SchemaRecord {
	return &domain.SchemaRecord{Signature: "sig", SampleCount: samples, Confidence: confidence, Features: f}
}

func TestSelect(t *testing.T) {
	explicit := domain.Features{ExplicitSections: 3, Headings: 3, TextBlocks: 3}
	headings := domain.Features{Headings: 4, TextBlocks: 20}
	paragraphs := domain.Features{Paragraphs: 10, ClassedParagraphs: 8, TextBlocks: 10}
	flat := domain.Features{Paragraphs: 10, TextBlocks: 10}

	tests := []struct {
		name string
		rec  *domain.SchemaRecord
		want domain.Strategy
	}{
		{"nil record", nil, domain.StrategyUnknown},
		{"too few samples", record(4, 1, explicit), domain.StrategyUnknown},
		{"explicit wins ties", record(5, 0.9, explicit), domain.StrategyRuleExplicitSection},
		{"heading", record(10, 0.85, headings), domain.StrategyRuleHeading},
		{"paragraph", record(10, 0.95, paragraphs), domain.StrategyRuleParagraph},
		{"low confidence", record(10, 0.5, explicit), domain.StrategyLLM},
		{"no pattern", record(10, 1, flat), domain.StrategyLLM},
	}
	s := strategy.NewSelector(strategy.DefaultThresholds())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Select(tt.rec))
		})
	}
}

func TestSelect_DemotionIsFinal(t *testing.T) {
	s := strategy.NewSelector(strategy.DefaultThresholds())
	rec := record(20, 0.95, domain.Features{ExplicitSections: 3})

	rec.AssignedStrategy = domain.StrategyRuleExplicitSection
	assert.Equal(t, domain.StrategyRuleExplicitSection, s.Select(rec))

	rec.AssignedStrategy = domain.StrategyLLM
	assert.Equal(t, domain.StrategyLLM, s.Select(rec), "confidence recovered above the gate")

	rec.AssignedStrategy = domain.StrategyUnknown
	assert.Equal(t, domain.StrategyRuleExplicitSection, s.Select(rec))
}

func TestPattern_HeadingDensityThreshold(t *testing.T) {
	s := strategy.NewSelector(strategy.DefaultThresholds())

	_, ok := s.Pattern(domain.Features{Headings: 2, TextBlocks: 100})
	assert.False(t, ok, "density below 0.05")

	got, ok := s.Pattern(domain.Features{Headings: 2, TextBlocks: 30})
	assert.True(t, ok)
	assert.Equal(t, domain.StrategyRuleHeading, got)

	_, ok = s.Pattern(domain.Features{Headings: 1, TextBlocks: 1})
	assert.False(t, ok, "single heading")
}

func TestThresholdsFromConfig(t *testing.T) {
	th := strategy.ThresholdsFromConfig(config.SelectorConfig{MinSamples: 2, MinConfidence: 0.5, MinExplicitSections: 1})
	s := strategy.NewSelector(th)

	assert.Equal(t, domain.StrategyRuleExplicitSection, s.Select(record(2, 0.5, domain.Features{ExplicitSections: 1})))
}
