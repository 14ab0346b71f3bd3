package domain

import "strings"

// Strategy is the parsing approach assigned to a schema.
type Strategy string

const (
	StrategyRuleExplicitSection Strategy = "rule:explicit-section"
	StrategyRuleHeading         Strategy = "rule:heading"
	StrategyRuleParagraph       Strategy = "rule:paragraph"
	StrategyLLM                 Strategy = "llm"
	StrategyUnknown             Strategy = "unknown"
)

// RuleStrategies lists the rule strategies in tie-break priority order.
var RuleStrategies = []Strategy{
	StrategyRuleExplicitSection,
	StrategyRuleHeading,
	StrategyRuleParagraph,
}

// IsRule reports whether s is one of the deterministic rule strategies.
func (s Strategy) IsRule() bool {
	switch s {
	case StrategyRuleExplicitSection, StrategyRuleHeading, StrategyRuleParagraph:
		return true
	}
	return false
}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s.IsRule() || s == StrategyLLM || s == StrategyUnknown
}

// DocumentType is the legal document category assigned by the classifier.
type DocumentType string

const (
	DocumentTypeOrdinance  DocumentType = "Ordinance"
	DocumentTypeCode       DocumentType = "Code"
	DocumentTypeRegulation DocumentType = "Regulation"
	DocumentTypeCharter    DocumentType = "Charter"
	DocumentTypeUnknown    DocumentType = "Unknown"
)

// DocumentTypes lists the classified types in tie-break priority order,
// followed by Unknown.
var DocumentTypes = []DocumentType{
	DocumentTypeOrdinance,
	DocumentTypeCode,
	DocumentTypeRegulation,
	DocumentTypeCharter,
	DocumentTypeUnknown,
}

// ParseDocumentType matches s case-insensitively against the known types.
func ParseDocumentType(s string) (DocumentType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range DocumentTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return DocumentTypeUnknown, false
}

// DepthBucket is the coarse nesting depth range of a document tree.
type DepthBucket string

const (
	DepthShallow DepthBucket = "shallow"
	DepthMedium  DepthBucket = "medium"
	DepthDeep    DepthBucket = "deep"
)

// DocumentStatus is the reporting view of a ProcessingState.
type DocumentStatus string

const (
	DocumentStatusLoaded            DocumentStatus = "loaded"
	DocumentStatusProcessed         DocumentStatus = "processed"
	DocumentStatusInProgress        DocumentStatus = "in_progress"
	DocumentStatusTranslated        DocumentStatus = "translated"
	DocumentStatusFailed            DocumentStatus = "failed"
	DocumentStatusPermanentlyFailed DocumentStatus = "permanently_failed"
)

// RunStatus represents the lifecycle of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)
