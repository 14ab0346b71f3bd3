package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lawnorm/internal/app"
	"lawnorm/internal/domain"
	"lawnorm/internal/loader"
)

var (
	loadState    string
	loadPlace    string
	loadWatch    bool
	loadDebounce time.Duration
)

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVar(&loadState, "state", "", "Only load documents from this state code")
	loadCmd.Flags().StringVar(&loadPlace, "place", "", "Only load documents from this place")
	loadCmd.Flags().BoolVar(&loadWatch, "watch", false, "Keep running and load files as they appear (dir loader only)")
	loadCmd.Flags().DurationVar(&loadDebounce, "debounce", 250*time.Millisecond, "Quiet period before a changed file is loaded")
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Register raw documents from the corpus with the state store",
	Long: `Load lists the corpus, fetches each document with its citation metadata,
marks it loaded and stores its citation.

Examples:
  # Load everything
  lawctl load

  # Load one state, then keep watching the corpus directory
  lawctl load --state TX --watch`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return runLoad(ctx, a)
		})
	},
}

func runLoad(ctx context.Context, a *app.App) error {
	ingest, err := a.Ingest()
	if err != nil {
		return err
	}

	filter := domain.JurisdictionFilter{StateCode: strings.ToUpper(loadState), PlaceName: loadPlace}
	summary, err := ingest.Load(ctx, filter)
	if err != nil {
		return err
	}
	if outputJSON {
		if err := printJSON(summary); err != nil {
			return err
		}
	} else {
		fmt.Printf("listed %d, loaded %d, citations %d, failed %d\n",
			summary.Listed, summary.Loaded, summary.Citations, summary.Failed)
	}

	if !loadWatch {
		return nil
	}

	l, err := a.Loader()
	if err != nil {
		return err
	}
	dir, ok := l.(*loader.DirLoader)
	if !ok {
		return fmt.Errorf("%w: --watch needs the dir loader", domain.ErrInvalidInput)
	}

	ids, errs, err := dir.Watch(ctx, loadDebounce, a.Logger)
	if err != nil {
		return err
	}
	a.Logger.Info("lawctl.load: watching corpus", zap.String("root", dir.Root()))

	for {
		select {
		case id, ok := <-ids:
			if !ok {
				return nil
			}
			if err := ingest.LoadOne(ctx, id); err != nil {
				if errors.Is(err, domain.ErrPersistence) {
					return err
				}
				a.Logger.Warn("lawctl.load: skipping document", zap.String("content_id", id), zap.Error(err))
				continue
			}
			a.Logger.Info("lawctl.load: document loaded", zap.String("content_id", id))
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			a.Logger.Warn("lawctl.load: watcher error", zap.Error(err))
		case <-ctx.Done():
			return nil
		}
	}
}
