package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/lunapapa-finland/JSON-resume/internal/config"
	"github.com/lunapapa-finland/JSON-resume/internal/style"
	"github.com/lunapapa-finland/JSON-resume/internal/usecase"
)

// A4: 210mm x 297mm -> inches: 8.27 x 11.69
const (
	paperWidthIn  = 8.27
	paperHeightIn = 11.69
)

const defaultTimeout = 60 * time.Second

// NewRenderer returns the renderer selected by cfg.Engine.
func NewRenderer(cfg config.BrowserConfig, log *zap.Logger) (usecase.Renderer, error) {
	switch cfg.Engine {
	case "", config.EngineChromedp:
		return NewChromedpRenderer(cfg, log), nil
	case config.EngineRod:
		return NewRodRenderer(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", cfg.Engine)
	}
}

// writePage stores html in a fresh temp dir and returns its file:// URL. A
// page opened from disk may load the local stylesheet the template links to.
func writePage(html string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "resume-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		cleanup()
		return "", nil, err
	}
	u, err := style.FileURL(htmlPath)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return u, cleanup, nil
}

func timeoutOr(d config.Duration) time.Duration {
	if d <= 0 {
		return defaultTimeout
	}
	return d.Std()
}
