package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lawnorm/internal/app"
	"lawnorm/internal/domain"
	"lawnorm/internal/service"
)

var (
	runLoop  bool
	runPoll  time.Duration
	runState string
	runPlace string
	runLimit int
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runLoop, "loop", false, "Keep running batches until interrupted")
	runCmd.Flags().DurationVar(&runPoll, "poll", 0, "Wait between empty batches in --loop mode (default from config)")
	runCmd.Flags().StringVar(&runState, "state", "", "Only process documents from this state code")
	runCmd.Flags().StringVar(&runPlace, "place", "", "Only process documents from this place")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "Documents claimed per batch (default from config)")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Normalize one batch of loaded documents",
	Long: `Run claims up to one batch of loaded, untranslated documents and normalizes
them. With --loop it keeps claiming batches until interrupted.

Examples:
  lawctl run
  lawctl run --state OH --limit 20
  lawctl run --loop --poll 1m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(runPipeline)
	},
}

// applyRunScope copies the run flags over the pipeline configuration.
func applyRunScope(a *app.App) {
	if runState != "" {
		a.Config.Pipeline.StateCode = strings.ToUpper(runState)
	}
	if runPlace != "" {
		a.Config.Pipeline.PlaceName = runPlace
	}
	if runLimit > 0 {
		a.Config.Pipeline.MaxBatchSize = runLimit
	}
}

func runPipeline(ctx context.Context, a *app.App) error {
	applyRunScope(a)
	p, err := a.Pipeline()
	if err != nil {
		return err
	}

	if runLoop {
		poll := runPoll
		if poll <= 0 {
			poll = a.Config.Pipeline.PollInterval
		}
		return service.NewPipelineWorker(p, service.PipelineWorkerConfig{PollInterval: poll}, a.Logger).Start(ctx)
	}

	run, err := p.Run(ctx)
	if run != nil {
		if outputJSON {
			if perr := printJSON(run); perr != nil {
				return perr
			}
		} else {
			fmt.Printf("run %s %s: claimed %d, succeeded %d, failed %d (permanently %d), skipped %d, llm calls %d\n",
				run.ID, run.Status, run.Claimed, run.Succeeded, run.Failed, run.PermanentlyFailed, run.Skipped, run.LLMCalls)
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if run != nil && run.Status == domain.RunStatusFailed {
		return fmt.Errorf("run %s failed", run.ID)
	}
	return nil
}
