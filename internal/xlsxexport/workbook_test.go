package xlsxexport_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lawnorm/internal/domain"
	"lawnorm/internal/xlsxexport"
)

func TestWrite(t *testing.T) {
	finished := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	rep := &domain.Report{
		GeneratedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Stats:       domain.Stats{TotalDocuments: 10, TotalTranslated: 7},
		States:      []domain.StateCoverage{{StateCode: "IL", Places: 2, Loaded: 8, Translated: 6}},
		Types:       []domain.TypeCount{{DocumentType: "Ordinance", Count: 5}},
		Schemas: []domain.SchemaStats{{
			SchemaRecord: domain.SchemaRecord{Signature: "abc", SampleCount: 4, AssignedStrategy: domain.StrategyRuleHeading, Confidence: 0.875},
			Documents:    4,
		}},
		Runs: []domain.ProcessingRun{{ID: uuid.New(), Status: domain.RunStatusCompleted, Claimed: 3, FinishedAt: &finished}},
	}

	var buf bytes.Buffer
	require.NoError(t, xlsxexport.Write(&buf, rep))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Summary", "States", "Types", "Schemas", "Runs"}, f.GetSheetList())

	v, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "10", v)

	v, err = f.GetCellValue("States", "G2")
	require.NoError(t, err)
	assert.Equal(t, "75", v)

	v, err = f.GetCellValue("Schemas", "C2")
	require.NoError(t, err)
	assert.Equal(t, "rule:heading", v)

	v, err = f.GetCellValue("Runs", "B2")
	require.NoError(t, err)
	assert.Equal(t, "completed", v)
}
