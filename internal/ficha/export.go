package ficha

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/stwalsh4118/catastro/internal/config"
	"github.com/stwalsh4118/catastro/internal/logger"
)

// A4 portrait, in inches.
const (
	PaperWidth  = 8.27
	PaperHeight = 11.69
	Margin      = 0.5
	ScaleFactor = 2
)

// Viewport of an A4 page at 96 dpi.
const (
	viewportWidth  = 794
	viewportHeight = 1123
)

var (
	// ErrExportDisabled is returned when PDF export is turned off.
	ErrExportDisabled = errors.New("pdf export is disabled")
	// ErrExporterStopped is returned by an exporter that was never started or already stopped.
	ErrExporterStopped = errors.New("pdf exporter is not running")
)

// Exporter converts an HTML document into a PDF.
type Exporter interface {
	Export(ctx context.Context, html string) ([]byte, error)
}

// DisabledExporter refuses every export.
type DisabledExporter struct{}

// Export always returns ErrExportDisabled.
func (DisabledExporter) Export(context.Context, string) ([]byte, error) {
	return nil, ErrExportDisabled
}

// ChromeExporter prints documents with a headless Chrome driven by chromedp.
// The browser is launched by the first export and shared afterwards; every
// export gets its own tab.
type ChromeExporter struct {
	chromePath  string
	settleDelay time.Duration
	timeout     time.Duration
	log         *logger.Logger

	mu            sync.Mutex
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromeExporter creates an exporter from cfg. Call Start before exporting.
func NewChromeExporter(cfg config.PDFConfig, log *logger.Logger) *ChromeExporter {
	return &ChromeExporter{
		chromePath:  cfg.ChromePath,
		settleDelay: cfg.SettleDelay,
		timeout:     cfg.Timeout,
		log:         log.WithComponent("ficha_exporter"),
	}
}

// Start sets up the browser allocator. Chrome itself is launched by the first export.
func (e *ChromeExporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.allocCtx != nil {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
	)
	if e.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(e.chromePath))
	}

	e.allocCtx, e.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	e.log.Info("PDF exporter started", map[string]interface{}{
		"chrome_path": e.chromePath,
	})
	return nil
}

// Stop shuts the browser down.
func (e *ChromeExporter) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browserCancel != nil {
		e.browserCancel()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	e.allocCtx, e.allocCancel = nil, nil
	e.browserCtx, e.browserCancel = nil, nil
}

// browser returns the shared browser context, launching Chrome if needed.
// Tabs must be derived from it: a chromedp context whose parent has no running
// browser starts a browser of its own.
func (e *ChromeExporter) browser() (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.allocCtx == nil {
		return nil, ErrExporterStopped
	}
	if e.browserCtx != nil {
		return e.browserCtx, nil
	}

	ctx, cancel := chromedp.NewContext(e.allocCtx)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("launching chrome: %w", err)
	}
	e.browserCtx, e.browserCancel = ctx, cancel
	e.log.Info("Chrome launched", nil)
	return ctx, nil
}

// Export loads html into a fresh tab, waits for the settle delay so the layout
// is complete, and prints it as an A4 portrait PDF at twice the device scale.
func (e *ChromeExporter) Export(ctx context.Context, html string) ([]byte, error) {
	browserCtx, err := e.browser()
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()
	if e.timeout > 0 {
		tabCtx, cancel = context.WithTimeout(tabCtx, e.timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(viewportWidth, viewportHeight, chromedp.EmulateScale(ScaleFactor)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.Sleep(e.settleDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(false).
				WithPaperWidth(PaperWidth).
				WithPaperHeight(PaperHeight).
				WithMarginTop(Margin).
				WithMarginBottom(Margin).
				WithMarginLeft(Margin).
				WithMarginRight(Margin).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("printing pdf: %w", ctxErr)
		}
		return nil, fmt.Errorf("printing pdf: %w", err)
	}

	e.log.Debug("PDF printed", map[string]interface{}{
		"bytes":       len(pdf),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return pdf, nil
}
