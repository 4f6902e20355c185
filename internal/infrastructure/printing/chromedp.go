package printing

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// A4 in inches, the unit PrintToPDF expects
const (
	a4WidthIn  = 210 / mmPerInch
	a4HeightIn = 297 / mmPerInch
	mmPerInch  = 25.4
)

// ChromedpConfig configures the headless Chrome engine
type ChromedpConfig struct {
	DefaultTimeout time.Duration
	// RemoteURL is the DevTools websocket of a running browser; empty
	// launches a local headless Chrome
	RemoteURL string
	// NoSandbox must be set when the process runs as root in a container
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpRenderer prints documents through the Chrome DevTools Protocol.
// One browser allocator is shared; each render opens its own tab.
type ChromedpRenderer struct {
	cfg    ChromedpConfig
	logger *zap.Logger

	once   sync.Once
	alloc  context.Context
	cancel context.CancelFunc
}

// NewChromedpRenderer never starts Chrome itself; the first Render does
func NewChromedpRenderer(cfg *ChromedpConfig) (*ChromedpRenderer, error) {
	r := &ChromedpRenderer{}
	if cfg != nil {
		r.cfg = *cfg
	}
	if r.cfg.DefaultTimeout <= 0 {
		r.cfg.DefaultTimeout = time.Minute
	}
	r.logger = r.cfg.Logger
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r, nil
}

func (r *ChromedpRenderer) allocator() context.Context {
	r.once.Do(func() {
		if r.cfg.RemoteURL != "" {
			r.alloc, r.cancel = chromedp.NewRemoteAllocator(context.Background(), r.cfg.RemoteURL)
			return
		}
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.DisableGPU,
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("font-render-hinting", "none"),
		)
		if r.cfg.NoSandbox {
			opts = append(opts, chromedp.NoSandbox)
		}
		r.alloc, r.cancel = chromedp.NewExecAllocator(context.Background(), opts...)
	})
	return r.alloc
}

func (r *ChromedpRenderer) Name() string { return "chromedp" }

func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.cfg.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	tab, closeTab := chromedp.NewContext(r.allocator(), chromedp.WithDebugf(func(format string, args ...any) {
		r.logger.Debug(fmt.Sprintf(format, args...))
	}))
	defer closeTab()
	// tabs hang off the shared allocator, so tie this one to the request
	defer context.AfterFunc(ctx, closeTab)()

	var pdf []byte
	err := chromedp.Run(tab,
		chromedp.Navigate("about:blank"),
		loadDocument(buildCompleteHTML(req)),
		chromedp.ActionFunc(func(ctx context.Context) (err error) {
			pdf, _, err = printParams(req).Do(ctx)
			return err
		}),
	)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, contextRenderError(ctx, timeout, err)
	case err != nil:
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome failed to print the document", err)
	case !isPDF(pdf):
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome returned no PDF data", nil)
	}
	return newRenderResult(r.logger, r.Name(), pdf, started), nil
}

// loadDocument replaces the blank page's content with doc
func loadDocument(doc string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
	}
}

// printParams prints on A4 with the request margins converted to inches
func printParams(req *RenderRequest) *page.PrintToPDFParams {
	inches := func(mm int) float64 { return float64(mm) / mmPerInch }
	return page.PrintToPDF().
		WithPaperWidth(a4WidthIn).
		WithPaperHeight(a4HeightIn).
		WithMarginTop(inches(req.Margins.Top)).
		WithMarginRight(inches(req.Margins.Right)).
		WithMarginBottom(inches(req.Margins.Bottom)).
		WithMarginLeft(inches(req.Margins.Left)).
		WithLandscape(req.Landscape).
		WithPrintBackground(true).
		WithPreferCSSPageSize(true)
}

// buildCompleteHTML wraps a fragment in a right-to-left UTF-8 page.
// Documents that already carry a doctype or html element pass through.
func buildCompleteHTML(req *RenderRequest) string {
	head := strings.ToLower(req.HTML[:min(len(req.HTML), 512)])
	if strings.Contains(head, "<!doctype") || strings.Contains(head, "<html") {
		return req.HTML
	}

	var b strings.Builder
	b.Grow(len(req.HTML) + 128)
	b.WriteString(`<!DOCTYPE html><html lang="he" dir="rtl"><head><meta charset="UTF-8">`)
	if req.Title != "" {
		fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(req.Title))
	}
	b.WriteString("</head><body>")
	b.WriteString(req.HTML)
	b.WriteString("</body></html>")
	return b.String()
}

func (r *ChromedpRenderer) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}

var _ Renderer = (*ChromedpRenderer)(nil)
