package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Jurisdiction identifies the issuing governmental body.
type Jurisdiction struct {
	PlaceName string `db:"place_name" json:"place_name"`
	StateCode string `db:"state_code" json:"state_code"`
}

// JurisdictionFilter narrows loader listings and document queries. Empty
// fields match everything.
type JurisdictionFilter struct {
	StateCode string
	PlaceName string
}

// Matches reports whether j passes the filter.
func (f JurisdictionFilter) Matches(j Jurisdiction) bool {
	if f.StateCode != "" && !strings.EqualFold(f.StateCode, j.StateCode) {
		return false
	}
	if f.PlaceName != "" && !strings.EqualFold(f.PlaceName, j.PlaceName) {
		return false
	}
	return true
}

// RawDocument is an immutable input document produced by the loader.
type RawDocument struct {
	ContentID        string          `json:"content_id"`
	PlaceName        string          `json:"place_name"`
	StateCode        string          `json:"state_code"`
	RawMarkup        string          `json:"-"`
	CitationMetadata json.RawMessage `json:"citation_metadata,omitempty"`
}

// Jurisdiction returns the document's issuing jurisdiction.
func (d *RawDocument) Jurisdiction() Jurisdiction {
	return Jurisdiction{PlaceName: d.PlaceName, StateCode: d.StateCode}
}

// Features are the structural facts derived while fingerprinting.
type Features struct {
	ExplicitSections  int  `json:"explicit_sections"`
	Headings          int  `json:"headings"`
	Paragraphs        int  `json:"paragraphs"`
	ClassedParagraphs int  `json:"classed_paragraphs"`
	TextBlocks        int  `json:"text_blocks"`
	HasTable          bool `json:"has_table"`
}

// HeadingDensity is the share of headings among all content blocks.
func (f Features) HeadingDensity() float64 {
	total := f.Headings + f.TextBlocks
	if total == 0 {
		return 0
	}
	return float64(f.Headings) / float64(total)
}

// ParagraphClassDensity is the share of paragraphs that carry a class.
func (f Features) ParagraphClassDensity() float64 {
	if f.Paragraphs == 0 {
		return 0
	}
	return float64(f.ClassedParagraphs) / float64(f.Paragraphs)
}

// Value stores Features as a JSON text column.
func (f Features) Value() (driver.Value, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads Features from a JSON text column.
func (f *Features) Scan(src any) error {
	return scanJSON(src, f)
}

// SchemaSignature is the deterministic structural fingerprint of a document.
type SchemaSignature struct {
	Hash       string         `json:"hash"`
	TagBuckets map[string]int `json:"tag_buckets"`
	AttrTokens []string       `json:"attr_tokens"`
	Depth      DepthBucket    `json:"depth"`
	Features   Features       `json:"features"`
}

// SchemaRecord is the registry entry for one distinct signature.
type SchemaRecord struct {
	Signature                string    `db:"signature" json:"signature"`
	SampleCount              int       `db:"sample_count" json:"sample_count"`
	AssignedStrategy         Strategy  `db:"assigned_strategy" json:"assigned_strategy"`
	Confidence               float64   `db:"confidence" json:"confidence"`
	SuccessCount             int       `db:"success_count" json:"success_count"`
	FailureCount             int       `db:"failure_count" json:"failure_count"`
	RepresentativeDocumentID string    `db:"representative_document_id" json:"representative_document_id"`
	Features                 Features  `db:"features" json:"features"`
	CreatedAt                time.Time `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time `db:"updated_at" json:"updated_at"`
}

// LoadedDocument carries what the state store records when a document is loaded.
type LoadedDocument struct {
	ContentID string
	StateCode string
	PlaceName string
}

// ProcessingState is the durable per-document pipeline progress record.
type ProcessingState struct {
	ContentID         string     `db:"content_id" json:"content_id"`
	StateCode         string     `db:"state_code" json:"state_code"`
	PlaceName         string     `db:"place_name" json:"place_name"`
	IsLoaded          bool       `db:"is_loaded" json:"is_loaded"`
	IsProcessed       bool       `db:"is_processed" json:"is_processed"`
	IsTranslated      bool       `db:"is_translated" json:"is_translated"`
	PermanentlyFailed bool       `db:"permanently_failed" json:"permanently_failed"`
	AssignedSchema    string     `db:"assigned_schema" json:"assigned_schema,omitempty"`
	DocumentType      string     `db:"document_type" json:"document_type,omitempty"`
	AttemptCount      int        `db:"attempt_count" json:"attempt_count"`
	LastError         *string    `db:"last_error" json:"last_error"`
	ClaimedBy         *string    `db:"claimed_by" json:"claimed_by,omitempty"`
	ClaimedAt         *time.Time `db:"claimed_at" json:"claimed_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Status derives the reporting status. maxAttempts is the retry ceiling;
// documents at or above it count as permanently failed.
func (s *ProcessingState) Status(maxAttempts int) DocumentStatus {
	switch {
	case s.IsTranslated:
		return DocumentStatusTranslated
	case s.PermanentlyFailed || (maxAttempts > 0 && s.AttemptCount >= maxAttempts):
		return DocumentStatusPermanentlyFailed
	case s.ClaimedBy != nil:
		return DocumentStatusInProgress
	case s.LastError != nil:
		return DocumentStatusFailed
	case s.IsProcessed:
		return DocumentStatusProcessed
	default:
		return DocumentStatusLoaded
	}
}

// RefSet is a sorted, duplicate-free set of section identifiers.
type RefSet []string

// NewRefSet builds a RefSet from ids, dropping blanks and duplicates.
func NewRefSet(ids ...string) RefSet {
	seen := make(map[string]struct{}, len(ids))
	out := make(RefSet, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON always emits an array, never null.
func (r RefSet) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(r))
}

// Value stores the set as a JSON text column.
func (r RefSet) Value() (driver.Value, error) {
	b, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads the set from a JSON text column.
func (r *RefSet) Scan(src any) error {
	var ids []string
	if err := scanJSON(src, &ids); err != nil {
		return err
	}
	*r = NewRefSet(ids...)
	return nil
}

// Section is one ordered unit of a normalized document.
type Section struct {
	SectionID    string  `db:"section_id" json:"section_id"`
	SectionNum   *string `db:"section_num" json:"section_num"`
	SectionTitle *string `db:"section_title" json:"section_title"`
	SectionText  string  `db:"section_text" json:"section_text"`
	SectionRefs  RefSet  `db:"section_refs" json:"section_refs"`
}

// NormalizedDocument is the pipeline's output artifact.
type NormalizedDocument struct {
	DocumentID      string       `json:"document_id"`
	Jurisdiction    Jurisdiction `json:"jurisdiction"`
	DocumentType    DocumentType `json:"document_type"`
	Sections        []Section    `json:"sections"`
	Strategy        Strategy     `json:"strategy,omitempty"`
	SchemaSignature string       `json:"schema_signature,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// Validate checks the emitted-document invariants: at least one section,
// no blank section text, unique section ids.
func (d *NormalizedDocument) Validate() error {
	if d.DocumentID == "" {
		return fmt.Errorf("%w: missing document id", ErrInvalidNormalizedDocument)
	}
	if len(d.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidNormalizedDocument)
	}
	ids := make(map[string]struct{}, len(d.Sections))
	for i := range d.Sections {
		s := &d.Sections[i]
		if strings.TrimSpace(s.SectionText) == "" {
			return fmt.Errorf("%w: section %d has empty text", ErrInvalidNormalizedDocument, i)
		}
		if s.SectionID == "" {
			return fmt.Errorf("%w: section %d has no id", ErrInvalidNormalizedDocument, i)
		}
		if _, dup := ids[s.SectionID]; dup {
			return fmt.Errorf("%w: duplicate section id %q", ErrInvalidNormalizedDocument, s.SectionID)
		}
		ids[s.SectionID] = struct{}{}
	}
	return nil
}

// SectionID returns the stable identifier of the ordinal-th (1-based)
// section of a document.
func SectionID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s-s%03d", documentID, ordinal)
}

// Citation is the citation metadata attached to a source document.
type Citation struct {
	ContentID    string          `db:"content_id" json:"content_id"`
	CitationText string          `db:"citation_text" json:"citation_text"`
	Fields       json.RawMessage `db:"citation_fields" json:"citation_fields"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// ProcessingRun is the audit record of one orchestrator run.
type ProcessingRun struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	WorkerID          string     `db:"worker_id" json:"worker_id"`
	Status            RunStatus  `db:"status" json:"status"`
	Claimed           int        `db:"claimed" json:"claimed"`
	Succeeded         int        `db:"succeeded" json:"succeeded"`
	Failed            int        `db:"failed" json:"failed"`
	Skipped           int        `db:"skipped" json:"skipped"`
	PermanentlyFailed int        `db:"permanently_failed" json:"permanently_failed"`
	LLMCalls          int        `db:"llm_calls" json:"llm_calls"`
	ModelName         string     `db:"model_name" json:"model_name"`
	Error             *string    `db:"error" json:"error,omitempty"`
	StartedAt         time.Time  `db:"started_at" json:"started_at"`
	FinishedAt        *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}

func scanJSON(src, dst any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}
