package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	infraconfig "github.com/advisory/backoffice/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Margins in millimeters
type Margins struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// DefaultMargins are used for every A4 document
var DefaultMargins = Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	// HTML content to render
	HTML string
	// Title for the PDF document metadata
	Title string
	// Landscape switches the A4 page orientation
	Landscape bool
	// Margins in millimeters
	Margins Margins
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// Renderer is a single HTML to PDF engine
type Renderer interface {
	Name() string
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout  = "RENDER_TIMEOUT"
	ErrCodeRenderFailed   = "RENDER_FAILED"
	ErrCodeInvalidHTML    = "INVALID_HTML"
	ErrCodeBinaryNotFound = "BINARY_NOT_FOUND"
	ErrCodeNoRenderer     = "NO_RENDERER"
	ErrCodeTemplate       = "TEMPLATE_FAILED"
	ErrCodePDFInvalid     = "PDF_INVALID"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// validateRequest checks what every engine requires
func validateRequest(req *RenderRequest) error {
	if req == nil {
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(req.HTML) == "" {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	return nil
}

// ChainRenderer tries each engine in order and returns the first PDF.
// It satisfies the application's PDFRenderer port.
type ChainRenderer struct {
	renderers []Renderer
	timeout   time.Duration
	logger    *zap.Logger
	observe   func(engine string, err error, d time.Duration)
}

// ChainOption configures a ChainRenderer
type ChainOption func(*ChainRenderer)

// WithRenderObserver reports every engine attempt, e.g. to metrics
func WithRenderObserver(fn func(engine string, err error, d time.Duration)) ChainOption {
	return func(c *ChainRenderer) {
		c.observe = fn
	}
}

// NewChainRenderer wraps already constructed engines
func NewChainRenderer(logger *zap.Logger, timeout time.Duration, renderers []Renderer, opts ...ChainOption) *ChainRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &ChainRenderer{renderers: renderers, timeout: timeout, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRenderer builds the engines named by the configuration. "auto" uses
// chromedp first and wkhtmltopdf as fallback; engines that cannot start
// are skipped with a warning.
func NewRenderer(cfg *infraconfig.PDFConfig, logger *zap.Logger, opts ...ChainOption) (*ChainRenderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var names []string
	switch cfg.Renderer {
	case infraconfig.RendererChromedp:
		names = []string{infraconfig.RendererChromedp}
	case infraconfig.RendererWkhtmltopdf:
		names = []string{infraconfig.RendererWkhtmltopdf}
	case "", infraconfig.RendererAuto:
		names = []string{infraconfig.RendererChromedp, infraconfig.RendererWkhtmltopdf}
	default:
		return nil, fmt.Errorf("unknown pdf renderer %q", cfg.Renderer)
	}

	var renderers []Renderer
	for _, name := range names {
		var (
			r   Renderer
			err error
		)
		switch name {
		case infraconfig.RendererChromedp:
			r, err = NewChromedpRenderer(&ChromedpConfig{
				DefaultTimeout: cfg.Timeout,
				RemoteURL:      cfg.ChromeRemoteURL,
				NoSandbox:      true,
				Logger:         logger,
			})
		case infraconfig.RendererWkhtmltopdf:
			r, err = NewWkhtmltopdfRenderer(&WkhtmltopdfConfig{
				BinaryPath:     cfg.WkhtmltopdfPath,
				DefaultTimeout: cfg.Timeout,
				Logger:         logger,
			})
		}
		if err != nil {
			logger.Warn("PDF renderer unavailable", zap.String("renderer", name), zap.Error(err))
			continue
		}
		renderers = append(renderers, r)
	}

	return NewChainRenderer(logger, cfg.Timeout, renderers, opts...), nil
}

// Engines lists the active engine names in order
func (c *ChainRenderer) Engines() []string {
	names := make([]string, 0, len(c.renderers))
	for _, r := range c.renderers {
		names = append(names, r.Name())
	}
	return names
}

// Render runs the request through the chain
func (c *ChainRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if len(c.renderers) == 0 {
		return nil, NewRenderError(ErrCodeNoRenderer, "no PDF renderer available", nil)
	}
	if req.Timeout == 0 {
		req.Timeout = c.timeout
	}

	var errs []error
	for _, r := range c.renderers {
		start := time.Now()
		result, err := r.Render(ctx, req)
		if c.observe != nil {
			c.observe(r.Name(), err, time.Since(start))
		}
		if err == nil {
			return result, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		if ctx.Err() != nil {
			break
		}
		c.logger.Warn("PDF renderer failed, trying next",
			zap.String("renderer", r.Name()),
			zap.Error(err))
	}
	return nil, NewRenderError(ErrCodeRenderFailed, "all PDF renderers failed", errors.Join(errs...))
}

// RenderPDF renders an A4 portrait document with default margins
func (c *ChainRenderer) RenderPDF(ctx context.Context, html []byte, title string) ([]byte, error) {
	result, err := c.Render(ctx, &RenderRequest{
		HTML:    string(html),
		Title:   title,
		Margins: DefaultMargins,
	})
	if err != nil {
		return nil, err
	}
	return result.PDFData, nil
}

// Close releases every engine
func (c *ChainRenderer) Close() error {
	var errs []error
	for _, r := range c.renderers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ appshared.PDFRenderer = (*ChainRenderer)(nil)
