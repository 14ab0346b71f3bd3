package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lawnorm/internal/app"
	"lawnorm/internal/service"
)

var (
	exportGroupBy string
	exportFormat  string
	exportOut     string
	exportBucket  string
	exportPrefix  string
	exportExpiry  int64
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportGroupBy, "group-by", service.GroupByType, "Group files by type or jurisdiction")
	exportCmd.Flags().StringVar(&exportFormat, "format", service.FormatJSONL, "File format: jsonl or csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output directory (a temp dir when uploading)")
	exportCmd.Flags().StringVar(&exportBucket, "bucket", "", "Upload the files to this S3 bucket")
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "exports/", "Key prefix for uploaded files")
	exportCmd.Flags().Int64Var(&exportExpiry, "link-expiry", -1, "Seconds a presigned download link stays valid (0 disables, -1 uses config)")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export normalized documents grouped into files",
	Long: `Export writes every stored normalized document into one file per group.

Examples:
  # JSON Lines per document type into ./out
  lawctl export --out out

  # CSV sections per jurisdiction, uploaded to S3
  lawctl export --group-by jurisdiction --format csv --bucket lawnorm-exports`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if exportOut == "" && exportBucket == "" {
			return fmt.Errorf("one of --out or --bucket is required")
		}
		return withApp(runExport)
	},
}

func runExport(ctx context.Context, a *app.App) error {
	svc, err := a.Export(exportBucket != "")
	if err != nil {
		return err
	}

	expiry := exportExpiry
	if expiry < 0 {
		expiry = a.Config.S3.PresignExpiry
	}
	files, err := svc.Export(ctx, service.ExportOptions{
		GroupBy:    exportGroupBy,
		Format:     exportFormat,
		Dir:        exportOut,
		Bucket:     exportBucket,
		Prefix:     exportPrefix,
		LinkExpiry: expiry,
	})
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(files)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tDOCUMENTS\tFILE")
	for _, f := range files {
		loc := f.Path
		switch {
		case f.DownloadURL != "":
			loc = f.DownloadURL
		case f.Location != "":
			loc = f.Location
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", f.Group, f.Documents, loc)
	}
	return w.Flush()
}
