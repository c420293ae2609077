package http

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lunapapa-finland/JSON-resume/internal/config"
	"github.com/lunapapa-finland/JSON-resume/internal/domain"
	"github.com/lunapapa-finland/JSON-resume/internal/logging"
	"github.com/lunapapa-finland/JSON-resume/internal/model"
	"github.com/lunapapa-finland/JSON-resume/internal/usecase"
)

// JobsStore persists and looks up render jobs.
type JobsStore interface {
	usecase.JobsRepo
	Get(ctx context.Context, id uuid.UUID) (*domain.RenderJob, error)
	List(ctx context.Context, limit int) ([]domain.RenderJob, error)
}

type Handler struct {
	processor *usecase.Processor
	repo      JobsStore
	cfg       config.Config
	log       *zap.Logger
}

// NewHandler serves renders of cfg's template and styles for posted résumés.
func NewHandler(p *usecase.Processor, r JobsStore, cfg config.Config, log *zap.Logger) *Handler {
	return &Handler{processor: p, repo: r, cfg: cfg, log: logging.OrNop(log)}
}

// Register mounts the routes on app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/healthz", h.Health)
	app.Post("/render", h.RenderPDF)
	app.Post("/render/html", h.RenderHTML)
	app.Get("/jobs", h.ListJobs)
	app.Get("/jobs/:id", h.GetJob)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// request builds a per-request configuration whose temporary and output files
// live in a private directory, so concurrent renders never share a path.
func (h *Handler) request(c *fiber.Ctx) (usecase.Request, func(), error) {
	resume, err := model.Decode(bytes.NewReader(c.Body()))
	if err != nil {
		return usecase.Request{}, nil, fiber.NewError(fiber.StatusBadRequest, "invalid resume: "+err.Error())
	}
	dir, err := os.MkdirTemp("", "resume-req-")
	if err != nil {
		return usecase.Request{}, nil, err
	}

	cfg := h.cfg
	cfg.Style.TempPath = filepath.Join(dir, "temp.css")
	cfg.Output.PDFPath = filepath.Join(dir, "resume.pdf")
	cfg.Output.HTMLPath = ""
	return usecase.Request{Config: cfg, Resume: resume}, func() { os.RemoveAll(dir) }, nil
}

func (h *Handler) RenderPDF(c *fiber.Ctx) error {
	req, cleanup, err := h.request(c)
	if err != nil {
		return err
	}
	defer cleanup()

	job := domain.NewRenderJob(domain.SourceHTTP)
	c.Set("X-Job-ID", job.ID.String())
	res, err := h.processor.Process(c.UserContext(), job, req)
	if err != nil {
		h.log.Warn("render request failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"jobId": job.ID.String(), "error": err.Error()})
	}

	c.Set(fiber.HeaderContentDisposition, `inline; filename="resume.pdf"`)
	c.Type("pdf")
	return c.Send(res.PDF)
}

func (h *Handler) RenderHTML(c *fiber.Ctx) error {
	req, cleanup, err := h.request(c)
	if err != nil {
		return err
	}
	defer cleanup()

	job := domain.NewRenderJob(domain.SourceHTTP)
	c.Set("X-Job-ID", job.ID.String())
	html, err := h.processor.BuildHTML(c.UserContext(), job, req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"jobId": job.ID.String(), "error": err.Error()})
	}
	c.Type("html")
	return c.SendString(html)
}

func (h *Handler) GetJob(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid job id"})
	}
	job, err := h.repo.Get(c.UserContext(), id)
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(job)
}

func (h *Handler) ListJobs(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit"})
	}
	jobs, err := h.repo.List(c.UserContext(), limit)
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(fiber.Map{"jobs": jobs})
}

func (h *Handler) storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrJobsDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		h.log.Error("job store", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

// ErrorHandler renders fiber errors as JSON bodies.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// NewApp returns a fiber app with the handler's routes mounted.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
	})
	h.Register(app)
	return app
}
