// Package xlsxexport writes the coverage report as an Excel workbook.
package xlsxexport

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"lawnorm/internal/domain"
)

// Sheet names, in workbook order.
const (
	SheetSummary = "Summary"
	SheetStates  = "States"
	SheetTypes   = "Types"
	SheetSchemas = "Schemas"
	SheetRuns    = "Runs"
)

// Write renders rep as a workbook with one sheet per report section.
func Write(w io.Writer, rep *domain.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// NewFile starts with "Sheet1"; rename it instead of leaving it empty.
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("xlsx rename sheet: %w", err)
	}
	for _, name := range []string{SheetStates, SheetTypes, SheetSchemas, SheetRuns} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx new sheet %s: %w", name, err)
		}
	}

	s := rep.Stats
	summary := [][]any{
		{"Metric", "Value"},
		{"Generated At", rep.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Total Documents", s.TotalDocuments},
		{"Loaded", s.TotalLoaded},
		{"Processed", s.TotalProcessed},
		{"Translated", s.TotalTranslated},
		{"Failed", s.TotalFailed},
		{"Permanently Failed", s.TotalPermanentlyFailed},
		{"In Progress", s.TotalInProgress},
		{"Schemas", s.TotalSchemas},
		{"Sections", s.TotalSections},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}

	states := [][]any{{"State", "Places", "Loaded", "Processed", "Translated", "Permanently Failed", "Translated %"}}
	for _, c := range rep.States {
		states = append(states, []any{c.StateCode, c.Places, c.Loaded, c.Processed, c.Translated, c.PermanentlyFailed, percent(c.TranslatedRatio())})
	}
	if err := writeRows(f, SheetStates, states); err != nil {
		return err
	}

	types := [][]any{{"Document Type", "Documents"}}
	for _, t := range rep.Types {
		types = append(types, []any{t.DocumentType, t.Count})
	}
	if err := writeRows(f, SheetTypes, types); err != nil {
		return err
	}

	schemas := [][]any{{"Signature", "Samples", "Strategy", "Confidence", "Successes", "Failures", "Documents", "Translated", "Representative"}}
	for _, sc := range rep.Schemas {
		schemas = append(schemas, []any{
			sc.Signature, sc.SampleCount, string(sc.AssignedStrategy), percent(sc.Confidence),
			sc.SuccessCount, sc.FailureCount, sc.Documents, sc.Translated, sc.RepresentativeDocumentID,
		})
	}
	if err := writeRows(f, SheetSchemas, schemas); err != nil {
		return err
	}

	runs := [][]any{{"Run ID", "Status", "Started", "Finished", "Claimed", "Succeeded", "Failed", "Skipped", "Permanently Failed", "LLM Calls", "Model", "Error"}}
	for _, r := range rep.Runs {
		finished, errText := "", ""
		if r.FinishedAt != nil {
			finished = r.FinishedAt.UTC().Format(time.RFC3339)
		}
		if r.Error != nil {
			errText = *r.Error
		}
		runs = append(runs, []any{
			r.ID.String(), string(r.Status), r.StartedAt.UTC().Format(time.RFC3339), finished,
			r.Claimed, r.Succeeded, r.Failed, r.Skipped, r.PermanentlyFailed, r.LLMCalls, r.ModelName, errText,
		})
	}
	if err := writeRows(f, SheetRuns, runs); err != nil {
		return err
	}

	_ = f.SetColWidth(SheetSummary, "A", "A", 22)
	_ = f.SetColWidth(SheetSchemas, "A", "A", 66)
	_ = f.SetColWidth(SheetRuns, "A", "A", 38)
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// percent rounds a ratio to a percentage with one decimal.
func percent(ratio float64) float64 {
	return float64(int(ratio*1000+0.5)) / 10
}
