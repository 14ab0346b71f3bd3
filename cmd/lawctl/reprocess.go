package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lawnorm/internal/app"
)

func init() {
	rootCmd.AddCommand(reprocessCmd)
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess <content-id>...",
	Short: "Reset documents so the next run normalizes them again",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			for _, id := range args {
				st, err := a.Documents.Reprocess(ctx, id)
				if err != nil {
					return fmt.Errorf("reprocess %s: %w", id, err)
				}
				fmt.Printf("%s: %s\n", st.ContentID, st.Status(a.Config.Pipeline.MaxAttempts))
			}
			return nil
		})
	},
}
