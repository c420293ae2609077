package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/lunapapa-finland/JSON-resume/internal/adapter/http"
	"github.com/lunapapa-finland/JSON-resume/internal/usecase"
	infra "github.com/lunapapa-finland/JSON-resume/pkg/infrastructure"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve renders over HTTP",
	Long: `serve exposes the pipeline over HTTP. POST a résumé JSON to /render for a
PDF or to /render/html for the assembled page. Jobs are recorded in Postgres
when JOBS_DATABASE_URL is set and can be listed at /jobs.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
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
	if !jobs.Enabled() {
		logger.Warn("jobs database not configured, job history disabled")
	}

	p := usecase.NewProcessor(renderer, jobs, logger)
	app := httpadapter.NewApp(httpadapter.NewHandler(p, jobs, cfg, logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Server.Port
		logger.Info("listening", zap.String("addr", addr))
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return app.ShutdownWithContext(sctx)
	})
	return g.Wait()
}
