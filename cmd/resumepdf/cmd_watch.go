package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lunapapa-finland/JSON-resume/internal/domain"
	"github.com/lunapapa-finland/JSON-resume/internal/usecase"
	"github.com/lunapapa-finland/JSON-resume/internal/watch"
	infra "github.com/lunapapa-finland/JSON-resume/pkg/infrastructure"
)

var debounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-render whenever the résumé, templates or styles change",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-rendering")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	renderer, err := infra.NewRenderer(cfg.Browser, logger)
	if err != nil {
		return err
	}
	jobs, closeJobs, err := openJobs(ctx)
	if err != nil {
		return err
	}
	defer closeJobs()
	p := usecase.NewProcessor(renderer, jobs, logger)

	render := func(ctx context.Context, changed []string) error {
		job := domain.NewRenderJob(domain.SourceWatch)
		if len(changed) > 0 {
			job.Set("changed", changed)
		}
		res, err := p.Process(ctx, job, usecase.Request{Config: cfg})
		if err != nil {
			return err
		}
		logger.Info("pdf updated", zap.String("path", res.PDFPath), zap.Stringer("info", res.Info))
		return nil
	}

	// a broken first render still leaves the watch running so it can be fixed
	if err := render(ctx, nil); err != nil {
		logger.Error("initial render failed", zap.Error(err))
	}

	w := watch.ForConfig(cfg, logger)
	w.Debounce = debounce
	return w.Run(ctx, render)
}
