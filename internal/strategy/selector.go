// Package strategy decides how a schema's documents are parsed.
package strategy

import (
	"lawnorm/internal/config"
	"lawnorm/internal/domain"
)

// Thresholds are the selector's tunables.
type Thresholds struct {
	MinSamples            int
	MinConfidence         float64
	HeadingDensity        float64
	MinHeadings           int
	ParagraphClassDensity float64
	MinParagraphs         int
	MinExplicitSections   int
}

// DefaultThresholds mirrors the configuration defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSamples:            5,
		MinConfidence:         0.85,
		HeadingDensity:        0.05,
		MinHeadings:           2,
		ParagraphClassDensity: 0.5,
		MinParagraphs:         3,
		MinExplicitSections:   1,
	}
}

// ThresholdsFromConfig converts selector configuration.
func ThresholdsFromConfig(cfg config.SelectorConfig) Thresholds {
	return Thresholds{
		MinSamples:            cfg.MinSamples,
		MinConfidence:         cfg.MinConfidence,
		HeadingDensity:        cfg.HeadingDensity,
		MinHeadings:           cfg.MinHeadings,
		ParagraphClassDensity: cfg.ParagraphClassDensity,
		MinParagraphs:         cfg.MinParagraphs,
		MinExplicitSections:   cfg.MinExplicitSections,
	}
}

// Selector is a pure decision function over schema records.
type Selector struct {
	t Thresholds
}

// NewSelector creates a Selector.
func NewSelector(t Thresholds) *Selector {
	return &Selector{t: t}
}

// Pattern returns the highest-priority rule strategy whose structural
// pattern matches f, or false when none does.
func (s *Selector) Pattern(f domain.Features) (domain.Strategy, bool) {
	if s.t.MinExplicitSections > 0 && f.ExplicitSections >= s.t.MinExplicitSections {
		return domain.StrategyRuleExplicitSection, true
	}
	if f.Headings >= s.t.MinHeadings && f.HeadingDensity() >= s.t.HeadingDensity {
		return domain.StrategyRuleHeading, true
	}
	if f.Paragraphs >= s.t.MinParagraphs && f.ParagraphClassDensity() >= s.t.ParagraphClassDensity {
		return domain.StrategyRuleParagraph, true
	}
	return "", false
}

// Select picks the strategy for a schema. Too few samples yields unknown,
// which routes to the LLM extractor. A matching pattern is only trusted once
// the schema's observed success rate reaches MinConfidence. A schema already
// assigned llm keeps it: demotion is final.
func (s *Selector) Select(rec *domain.SchemaRecord) domain.Strategy {
	if rec == nil || rec.SampleCount < s.t.MinSamples {
		return domain.StrategyUnknown
	}
	if rec.AssignedStrategy == domain.StrategyLLM {
		return domain.StrategyLLM
	}
	if pattern, ok := s.Pattern(rec.Features); ok && rec.Confidence >= s.t.MinConfidence {
		return pattern
	}
	return domain.StrategyLLM
}
