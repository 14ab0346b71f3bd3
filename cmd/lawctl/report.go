package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lawnorm/internal/app"
	"lawnorm/internal/domain"
	"lawnorm/internal/xlsxexport"
)

var reportXLSX string

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportXLSX, "xlsx", "", "Also write the coverage workbook to this path")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print processing statistics and coverage",
	Long: `Report prints totals, per-state coverage, per-type counts, schema success
rates and recent runs.

Examples:
  lawctl report
  lawctl report --xlsx coverage.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(runReport)
	},
}

func runReport(ctx context.Context, a *app.App) error {
	rep, err := a.Reports.Report(ctx)
	if err != nil {
		return err
	}

	if reportXLSX != "" {
		f, err := os.Create(reportXLSX)
		if err != nil {
			return fmt.Errorf("creating workbook: %w", err)
		}
		if err := xlsxexport.Write(f, rep); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing workbook: %w", err)
		}
	}

	if outputJSON {
		return printJSON(rep)
	}
	printReport(rep)
	if reportXLSX != "" {
		fmt.Printf("\nworkbook written to %s\n", reportXLSX)
	}
	return nil
}

func printReport(rep *domain.Report) {
	s := rep.Stats
	fmt.Printf("documents %d: loaded %d, processed %d, translated %d, failed %d, permanently failed %d, in progress %d\n",
		s.TotalDocuments, s.TotalLoaded, s.TotalProcessed, s.TotalTranslated, s.TotalFailed, s.TotalPermanentlyFailed, s.TotalInProgress)
	fmt.Printf("schemas %d, sections %d\n\n", s.TotalSchemas, s.TotalSections)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tPLACES\tLOADED\tTRANSLATED\tPERM FAILED\tCOVERAGE")
	for _, c := range rep.States {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.1f%%\n",
			c.StateCode, c.Places, c.Loaded, c.Translated, c.PermanentlyFailed, c.TranslatedRatio()*100)
	}
	_ = w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tCOUNT")
	for _, t := range rep.Types {
		fmt.Fprintf(w, "%s\t%d\n", t.DocumentType, t.Count)
	}
	_ = w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCHEMA\tSTRATEGY\tSAMPLES\tSUCCESS\tFAILURE\tCONFIDENCE")
	for _, sc := range rep.Schemas {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.2f\n",
			short(sc.Signature), sc.AssignedStrategy, sc.SampleCount, sc.SuccessCount, sc.FailureCount, sc.Confidence)
	}
	_ = w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTATUS\tCLAIMED\tSUCCEEDED\tFAILED\tSKIPPED\tSTARTED")
	for _, r := range rep.Runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			short(r.ID.String()), r.Status, r.Claimed, r.Succeeded, r.Failed, r.Skipped, r.StartedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

func short(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
