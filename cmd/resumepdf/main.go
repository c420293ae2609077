// Command resumepdf renders a JSON résumé to an A4 PDF through Handlebars
// templates, SCSS and a headless browser.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lunapapa-finland/JSON-resume/internal/adapter/repository"
	"github.com/lunapapa-finland/JSON-resume/internal/config"
	"github.com/lunapapa-finland/JSON-resume/internal/infrastructure/migration"
	"github.com/lunapapa-finland/JSON-resume/internal/logging"
	infra "github.com/lunapapa-finland/JSON-resume/pkg/infrastructure"
)

var (
	// Global flags
	configPath string
	variant    int
	logLevel   string
	logJSON    bool

	dataPath     string
	templatePath string
	stylePath    string
	styleMode    string
	outputPath   string
	htmlPath     string
	engine       string
	chromePath   string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "resumepdf",
	Short: "Render a JSON résumé to PDF",
	Long: `resumepdf reads a résumé in JSON, renders it through a Handlebars template
with partials and custom helpers, styles it with CSS or SCSS and prints the
page to an A4 PDF with a headless Chrome.

Without a subcommand it renders once.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log.Level, cfg.Log.JSON)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runRender,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "YAML or TOML config file")
	pf.IntVar(&variant, "variant", 0, "start from the preset of script variant 1-4 (default: latest)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&logJSON, "log-json", false, "log as JSON")

	pf.StringVar(&dataPath, "data", "", "résumé JSON file")
	pf.StringVar(&templatePath, "template", "", "main Handlebars template")
	pf.StringVar(&stylePath, "style", "", "CSS or SCSS stylesheet")
	pf.StringVar(&styleMode, "style-mode", "", "stylesheet strategy: inject, file, none")
	pf.StringVarP(&outputPath, "output", "o", "", "PDF output path")
	pf.StringVar(&htmlPath, "html", "", "HTML snapshot path")
	pf.StringVar(&engine, "engine", "", "browser engine: chromedp, rod")
	pf.StringVar(&chromePath, "chrome", "", "Chrome or Chromium binary")

	rootCmd.AddCommand(renderCmd, htmlCmd, watchCmd, serveCmd)
}

// loadConfig layers the variant preset, the config file, the environment and
// the flags the user actually set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	base := config.Default()
	if variant != 0 {
		if variant < 1 || variant > 4 {
			return base, fmt.Errorf("variant must be between 1 and 4, got %d", variant)
		}
		base = config.Variant(variant)
	}
	c, err := config.LoadOnto(base, configPath)
	if err != nil {
		return c, err
	}

	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("data", &c.Data.Path, dataPath)
	set("template", &c.Template.Path, templatePath)
	set("style", &c.Style.Path, stylePath)
	set("style-mode", &c.Style.Mode, styleMode)
	set("output", &c.Output.PDFPath, outputPath)
	set("html", &c.Output.HTMLPath, htmlPath)
	set("engine", &c.Browser.Engine, engine)
	set("chrome", &c.Browser.ChromePath, chromePath)
	set("log-level", &c.Log.Level, logLevel)
	if cmd.Flags().Changed("log-json") {
		c.Log.JSON = logJSON
	}

	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// openJobs connects the render-jobs ledger when a database is configured. The
// returned repository is a no-op otherwise.
func openJobs(ctx context.Context) (*repository.JobsRepo, func(), error) {
	pool, err := infra.NewJobsPool(ctx, cfg.Server.JobsDatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if pool == nil {
		return repository.NewJobsRepo(nil), func() {}, nil
	}
	if err := migration.RunMigrations(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.NewJobsRepo(pool), pool.Close, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
