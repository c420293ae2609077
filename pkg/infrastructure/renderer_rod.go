package infrastructure

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/lunapapa-finland/JSON-resume/internal/config"
	"github.com/lunapapa-finland/JSON-resume/internal/logging"
	"github.com/lunapapa-finland/JSON-resume/internal/usecase"
)

// RodRenderer prints pages through go-rod. Each call launches and tears down
// its own browser.
type RodRenderer struct {
	opts config.BrowserConfig
	log  *zap.Logger
}

func NewRodRenderer(opts config.BrowserConfig, log *zap.Logger) *RodRenderer {
	return &RodRenderer{opts: opts, log: logging.OrNop(log)}
}

func (r *RodRenderer) RenderHTMLToPDF(ctx context.Context, doc usecase.Document) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeoutOr(r.opts.Timeout))
	defer cancel()

	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Set(flags.Flag("disable-gpu")).
		Set(flags.Flag("disable-dev-shm-usage")).
		Context(ctx)
	if r.opts.ChromePath != "" {
		l = l.Bin(r.opts.ChromePath)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	defer browser.Close()

	htmlURL, cleanup, err := writePage(doc.HTML)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := browser.Page(proto.TargetCreateTarget{URL: htmlURL})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	if doc.CSS != "" {
		if _, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
			JS: `(css) => {
				const s = document.createElement('style');
				s.textContent = css;
				document.head.appendChild(s);
				return true;
			}`,
			JSArgs:  []interface{}{doc.CSS},
			ByValue: true,
		}); err != nil {
			return nil, fmt.Errorf("inject style: %w", err)
		}
	}
	if r.opts.WaitForFonts {
		if _, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
			JS:           `() => document.fonts ? document.fonts.ready.then(() => true) : true`,
			ByValue:      true,
			AwaitPromise: true,
		}); err != nil {
			return nil, fmt.Errorf("wait fonts: %w", err)
		}
	}
	if d := r.opts.SettleDelay.Std(); d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if doc.Loaded != nil {
		doc.Loaded()
	}

	start := time.Now()
	w, h := paperWidthIn, paperHeightIn
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:        &w,
		PaperHeight:       &h,
		PrintBackground:   r.opts.PrintBackground,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	b, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf stream: %w", err)
	}
	r.log.Debug("pdf printed",
		zap.String("engine", config.EngineRod),
		zap.Duration("took", time.Since(start)),
		zap.Int("bytes", len(b)))
	return b, nil
}
