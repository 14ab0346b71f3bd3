package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawnorm/internal/domain"
)

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 12)
	assert.Equal(t, "Document ID", row[0])
	assert.Equal(t, "Section Text", row[9])
	assert.Equal(t, "Created At", row[11])
}

func TestWriteDocument_OneRowPerSection(t *testing.T) {
	num := "2-14"
	title := "Noise"
	doc := &domain.NormalizedDocument{
		DocumentID:   "doc-1",
		Jurisdiction: domain.Jurisdiction{PlaceName: "Salem", StateCode: "OR"},
		DocumentType: domain.DocumentTypeCode,
		Strategy:     domain.StrategyRuleExplicitSection,
		CreatedAt:    time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Sections: []domain.Section{
			{SectionID: "doc-1-s001", SectionNum: &num, SectionTitle: &title, SectionText: "Quiet hours, \"10pm\".", SectionRefs: domain.NewRefSet("3", "1")},
			{SectionID: "doc-1-s002", SectionText: "Penalties."},
		},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteDocument(doc))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "OR", rows[0][1])
	assert.Equal(t, "1", rows[0][5])
	assert.Equal(t, "2-14", rows[0][7])
	assert.Equal(t, "Quiet hours, \"10pm\".", rows[0][9])
	assert.Equal(t, "1;3", rows[0][10])
	assert.Equal(t, "2024-05-01T08:00:00Z", rows[0][11])

	assert.Equal(t, "2", rows[1][5])
	assert.Empty(t, rows[1][7])
	assert.Empty(t, rows[1][8])
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Springfield_IL", SanitizeFilename("Springfield, IL"))
	assert.Equal(t, "unknown", SanitizeFilename("///"))
	assert.Len(t, SanitizeFilename(string(bytes.Repeat([]byte("a"), 150))), 100)
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Ordinance_2024-05-01.jsonl", BuildFilename("Ordinance", "jsonl", now))
}
