package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/lunapapa-finland/JSON-resume/internal/config"
	"github.com/lunapapa-finland/JSON-resume/internal/domain"
	"github.com/lunapapa-finland/JSON-resume/internal/helpers"
	"github.com/lunapapa-finland/JSON-resume/internal/logging"
	"github.com/lunapapa-finland/JSON-resume/internal/model"
	"github.com/lunapapa-finland/JSON-resume/internal/partials"
	"github.com/lunapapa-finland/JSON-resume/internal/pdfinfo"
	"github.com/lunapapa-finland/JSON-resume/internal/style"
)

// ErrInvalidPDF is returned when the renderer hands back bytes that do not
// parse as a PDF document.
var ErrInvalidPDF = errors.New("invalid pdf output")

// Document is what a Renderer loads into its page.
type Document struct {
	HTML string
	// CSS, when set, is added to the page as a <style> element after the
	// content has loaded.
	CSS string
	// Loaded is called once the page reports ready, before export.
	Loaded func()
}

type Renderer interface {
	RenderHTMLToPDF(ctx context.Context, doc Document) ([]byte, error)
}

type JobsRepo interface {
	Save(ctx context.Context, j *domain.RenderJob) error
}

// Request is one render. Resume, when set, is used instead of reading
// Config.Data.Path.
type Request struct {
	Config config.Config
	Resume model.Resume
}

// Result describes a finished render.
type Result struct {
	PDF      []byte
	Info     pdfinfo.Info
	PDFPath  string
	HTMLPath string
}

// assembly is everything produced before the browser is involved.
type assembly struct {
	html      string
	injectCSS string
	sheet     *style.Stylesheet
}

func (a *assembly) close() error {
	if a == nil {
		return nil
	}
	return a.sheet.Cleanup()
}

type Processor struct {
	renderer Renderer
	repo     JobsRepo
	log      *zap.Logger
}

// NewProcessor wires a pipeline. repo may be nil when jobs are not persisted.
func NewProcessor(r Renderer, repo JobsRepo, log *zap.Logger) *Processor {
	return &Processor{renderer: r, repo: repo, log: logging.OrNop(log)}
}

// Process runs the whole pipeline and writes the PDF to
// Config.Output.PDFPath. Temporary styles are removed whatever the outcome.
func (p *Processor) Process(ctx context.Context, job *domain.RenderJob, req Request) (res *Result, err error) {
	defer func() { p.finish(ctx, job, err) }()
	if p.renderer == nil {
		return nil, errors.New("no renderer configured")
	}

	cfg := req.Config
	asm, err := p.assemble(ctx, job, req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := asm.close(); cerr != nil {
			p.log.Warn("cleanup failed", zap.String("job_id", job.ID.String()), zap.Error(cerr))
		}
	}()

	doc := Document{
		HTML:   asm.html,
		CSS:    asm.injectCSS,
		Loaded: func() { p.transition(job, domain.StatePageLoaded) },
	}
	pdfBytes, info, err := p.export(ctx, job, doc, cfg.Browser.Attempts)
	if err != nil {
		return nil, err
	}
	p.transition(job, domain.StatePDFExported,
		zap.Int("pages", info.Pages),
		zap.Int("bytes", len(pdfBytes)))
	if !info.IsA4() {
		p.log.Warn("pdf page is not A4",
			zap.String("job_id", job.ID.String()),
			zap.Stringer("info", info))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Output.PDFPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(cfg.Output.PDFPath, pdfBytes, 0o644); err != nil {
		return nil, fmt.Errorf("write pdf %s: %w", cfg.Output.PDFPath, err)
	}
	job.Set("pdf_path", cfg.Output.PDFPath)
	job.Set("pages", info.Pages)
	job.Set("pdf_bytes", len(pdfBytes))

	return &Result{
		PDF:      pdfBytes,
		Info:     info,
		PDFPath:  cfg.Output.PDFPath,
		HTMLPath: cfg.Output.HTMLPath,
	}, nil
}

// BuildHTML runs the pipeline up to the assembled page, writes the snapshot
// when Config.Output.HTMLPath is set, and returns the page with its stylesheet
// inlined, since the temporary CSS it links to is gone once this returns.
func (p *Processor) BuildHTML(ctx context.Context, job *domain.RenderJob, req Request) (html string, err error) {
	defer func() { p.finish(ctx, job, err) }()

	asm, err := p.assemble(ctx, job, req)
	if err != nil {
		return "", err
	}
	if err := asm.close(); err != nil {
		return "", err
	}
	if asm.sheet != nil {
		return InlineCSS(asm.html, asm.sheet.CSS), nil
	}
	return asm.html, nil
}

func (p *Processor) assemble(ctx context.Context, job *domain.RenderJob, req Request) (_ *assembly, err error) {
	cfg := req.Config
	log := p.log.With(zap.String("job_id", job.ID.String()))
	asm := &assembly{}
	defer func() {
		if err != nil {
			if cerr := asm.close(); cerr != nil {
				log.Warn("cleanup failed", zap.Error(cerr))
			}
		}
	}()

	resume := req.Resume
	if resume == nil {
		if resume, err = model.LoadFile(cfg.Data.Path); err != nil {
			return nil, err
		}
		job.Set("data_path", cfg.Data.Path)
	}
	if cfg.Data.SchemaPath != "" {
		if err := model.ValidateMap(resume, cfg.Data.SchemaPath); err != nil {
			return nil, err
		}
	}
	p.transition(job, domain.StateDataLoaded, zap.Int("sections", len(resume)))

	parts := partials.NewRegistry(log)
	for _, d := range cfg.Template.Partials {
		if _, err := parts.RegisterDir(d.Dir, partials.Options{
			Recursive: d.Recursive,
			Extension: d.Extension,
			Prefix:    d.Prefix,
		}); err != nil {
			return nil, err
		}
	}
	p.transition(job, domain.StatePartialsRegistered, zap.Int("partials", parts.Len()))

	resolver := &style.Resolver{
		OutputStyle:  cfg.Style.OutputStyle,
		IncludePaths: cfg.Style.IncludePaths,
		Log:          log,
	}
	stylesPath := ""
	switch cfg.Style.Mode {
	case config.StyleModeInject:
		if asm.sheet, err = resolver.Resolve(cfg.Style.Path); err != nil {
			return nil, err
		}
		asm.injectCSS = asm.sheet.CSS
		stylesPath = cfg.Style.Path
	case config.StyleModeFile:
		if asm.sheet, err = resolver.Resolve(cfg.Style.Path); err != nil {
			return nil, err
		}
		if err := asm.sheet.WriteTemp(cfg.Style.TempPath); err != nil {
			return nil, err
		}
		// an absolute path works both as a <link> href from the file:// page
		// and as an includeCSS argument
		if stylesPath, err = filepath.Abs(cfg.Style.TempPath); err != nil {
			return nil, fmt.Errorf("styles path: %w", err)
		}
	}
	p.transition(job, domain.StateStyleResolved, zap.String("mode", cfg.Style.Mode))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, err := helpers.Default(helpers.Options{Styles: resolver, Compare: cfg.Template.Compare})
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(cfg.Template.Path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", cfg.Template.Path, err)
	}
	if asm.html, err = RenderHTML(string(src), resume.Context(stylesPath), h, parts); err != nil {
		return nil, fmt.Errorf("render %s: %w", cfg.Template.Path, err)
	}
	p.transition(job, domain.StateHTMLAssembled, zap.Int("bytes", len(asm.html)))

	// saved before export so it survives a failed render
	if path := cfg.Output.HTMLPath; path != "" {
		snapshot := asm.html
		if asm.sheet != nil {
			snapshot = InlineCSS(snapshot, asm.sheet.CSS)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create html dir: %w", err)
		}
		if err := os.WriteFile(path, []byte(snapshot), 0o644); err != nil {
			return nil, fmt.Errorf("write html %s: %w", path, err)
		}
		job.Set("html_path", path)
	}
	return asm, nil
}

// export renders and verifies the PDF, retrying with exponential backoff
// when more than one attempt is allowed.
func (p *Processor) export(ctx context.Context, job *domain.RenderJob, doc Document, attempts int) ([]byte, pdfinfo.Info, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		b, err := p.renderer.RenderHTMLToPDF(ctx, doc)
		if err == nil {
			info, ierr := pdfinfo.Inspect(b)
			if ierr == nil {
				return b, info, nil
			}
			err = fmt.Errorf("%w (len=%d): %v", ErrInvalidPDF, len(b), ierr)
		}
		lastErr = err
		p.log.Warn("render attempt failed",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", i+1),
			zap.Error(err))

		if i < attempts-1 {
			backoff := time.Duration(1<<i) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, pdfinfo.Info{}, ctx.Err()
			}
		}
	}
	return nil, pdfinfo.Info{}, fmt.Errorf("render pdf: %w", lastErr)
}

func (p *Processor) transition(job *domain.RenderJob, s domain.State, fields ...zap.Field) {
	job.Status = s
	job.UpdatedAt = time.Now().UTC()
	fields = append([]zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("state", string(s)),
	}, fields...)
	if s == domain.StateFailed {
		p.log.Error("render state", fields...)
		return
	}
	p.log.Info("render state", fields...)
}

func (p *Processor) finish(ctx context.Context, job *domain.RenderJob, err error) {
	job.Set("duration_ms", time.Since(job.CreatedAt).Milliseconds())
	if err != nil {
		job.Error = err.Error()
		p.transition(job, domain.StateFailed, zap.Error(err))
	} else {
		p.transition(job, domain.StateClosed)
	}

	if p.repo == nil {
		return
	}
	if serr := p.repo.Save(context.WithoutCancel(ctx), job); serr != nil {
		p.log.Warn("save job failed", zap.String("job_id", job.ID.String()), zap.Error(serr))
	}
}
