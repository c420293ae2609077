package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/lunapapa-finland/JSON-resume/internal/config"
	"github.com/lunapapa-finland/JSON-resume/internal/logging"
	"github.com/lunapapa-finland/JSON-resume/internal/usecase"
)

// readyJS resolves once the document and, when asked, its web fonts are loaded.
const readyJS = `new Promise(resolve => {
	const done = () => (%t && document.fonts ? document.fonts.ready : Promise.resolve()).then(() => resolve(true));
	if (document.readyState === 'complete') { done(); } else { window.addEventListener('load', done, { once: true }); }
})`

const injectStyleJS = `(() => {
	const s = document.createElement('style');
	s.textContent = %s;
	document.head.appendChild(s);
	return true;
})()`

type ChromedpRenderer struct {
	opts config.BrowserConfig
	log  *zap.Logger
}

func NewChromedpRenderer(opts config.BrowserConfig, log *zap.Logger) *ChromedpRenderer {
	return &ChromedpRenderer{opts: opts, log: logging.OrNop(log)}
}

func (r *ChromedpRenderer) RenderHTMLToPDF(ctx context.Context, doc usecase.Document) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.opts.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.opts.ChromePath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	ctx2, cancel2 := context.WithTimeout(cctx, timeoutOr(r.opts.Timeout))
	defer cancel2()

	htmlURL, cleanup, err := writePage(doc.HTML)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	actions := []chromedp.Action{
		chromedp.Navigate(htmlURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if doc.CSS != "" {
		lit, err := json.Marshal(doc.CSS)
		if err != nil {
			return nil, err
		}
		var ok bool
		actions = append(actions, chromedp.Evaluate(fmt.Sprintf(injectStyleJS, lit), &ok))
	}
	var ready bool
	actions = append(actions, chromedp.Evaluate(fmt.Sprintf(readyJS, r.opts.WaitForFonts), &ready,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams { return p.WithAwaitPromise(true) }))
	if d := r.opts.SettleDelay.Std(); d > 0 {
		actions = append(actions, chromedp.Sleep(d))
	}

	var pdfBuf []byte
	actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
		if doc.Loaded != nil {
			doc.Loaded()
		}
		var err error
		pdfBuf, _, err = page.PrintToPDF().WithPrintBackground(r.opts.PrintBackground).
			WithPaperWidth(paperWidthIn).
			WithPaperHeight(paperHeightIn).
			WithPreferCSSPageSize(true).
			Do(ctx)
		return err
	}))

	start := time.Now()
	if err := chromedp.Run(ctx2, actions...); err != nil {
		return nil, fmt.Errorf("chromedp render: %w", err)
	}
	r.log.Debug("pdf printed",
		zap.String("engine", config.EngineChromedp),
		zap.Duration("took", time.Since(start)),
		zap.Int("bytes", len(pdfBuf)))
	return pdfBuf, nil
}
