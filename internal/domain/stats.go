package domain

import "time"

// Stats holds corpus-wide processing counters.
type Stats struct {
	TotalDocuments         int `db:"total_documents" json:"total_documents"`
	TotalLoaded            int `db:"total_loaded" json:"total_loaded"`
	TotalProcessed         int `db:"total_processed" json:"total_processed"`
	TotalTranslated        int `db:"total_translated" json:"total_translated"`
	TotalFailed            int `db:"total_failed" json:"total_failed"`
	TotalPermanentlyFailed int `db:"total_permanently_failed" json:"total_permanently_failed"`
	TotalInProgress        int `db:"total_in_progress" json:"total_in_progress"`
	TotalSchemas           int `db:"-" json:"total_schemas"`
	TotalSections          int `db:"-" json:"total_sections"`
}

// StateCoverage is the per-state breakdown of processing progress.
type StateCoverage struct {
	StateCode         string `db:"state_code" json:"state_code"`
	Places            int    `db:"places" json:"places"`
	Loaded            int    `db:"loaded" json:"loaded"`
	Processed         int    `db:"processed" json:"processed"`
	Translated        int    `db:"translated" json:"translated"`
	PermanentlyFailed int    `db:"permanently_failed" json:"permanently_failed"`
}

// TranslatedRatio is the share of loaded documents already translated.
func (c StateCoverage) TranslatedRatio() float64 {
	if c.Loaded == 0 {
		return 0
	}
	return float64(c.Translated) / float64(c.Loaded)
}

// TypeCount is the number of processed documents per classified type.
type TypeCount struct {
	DocumentType string `db:"document_type" json:"document_type"`
	Count        int    `db:"count" json:"count"`
}

// SchemaStats pairs a registry entry with the documents currently assigned to it.
type SchemaStats struct {
	SchemaRecord
	Documents  int `db:"documents" json:"documents"`
	Translated int `db:"translated" json:"translated"`
}

// Report is the full reporting snapshot shown by the CLI and written to the
// coverage workbook.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Stats       Stats           `json:"stats"`
	States      []StateCoverage `json:"states"`
	Types       []TypeCount     `json:"types"`
	Schemas     []SchemaStats   `json:"schemas"`
	Runs        []ProcessingRun `json:"runs"`
}
