package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lunapapa-finland/JSON-resume/internal/domain"
	"github.com/lunapapa-finland/JSON-resume/internal/usecase"
	infra "github.com/lunapapa-finland/JSON-resume/pkg/infrastructure"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the résumé to PDF once",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

var htmlCmd = &cobra.Command{
	Use:   "html",
	Short: "Assemble the HTML page without starting a browser",
	Long: `html runs the pipeline up to the assembled page and writes the snapshot
to the configured HTML path (html/output.html when none is set).`,
	Args: cobra.NoArgs,
	RunE: runHTML,
}

func runRender(cmd *cobra.Command, args []string) error {
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
	res, err := p.Process(ctx, domain.NewRenderJob(domain.SourceCLI), usecase.Request{Config: cfg})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "PDF successfully generated at %s (%s)\n", res.PDFPath, res.Info)
	return nil
}

func runHTML(cmd *cobra.Command, args []string) error {
	c := cfg
	if c.Output.HTMLPath == "" {
		c.Output.HTMLPath = filepath.Join("html", "output.html")
	}

	p := usecase.NewProcessor(nil, nil, logger)
	if _, err := p.BuildHTML(cmd.Context(), domain.NewRenderJob(domain.SourceCLI), usecase.Request{Config: c}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "HTML written to %s\n", c.Output.HTMLPath)
	return nil
}
