package printing

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// stderrLimit bounds how much tool output ends up in errors and logs
const stderrLimit = 4000

// WkhtmltopdfConfig configures the wkhtmltopdf engine
type WkhtmltopdfConfig struct {
	// BinaryPath is an absolute path or a name looked up in PATH
	BinaryPath     string
	DefaultTimeout time.Duration
	Logger         *zap.Logger
}

// WkhtmltopdfRenderer pipes the document through the wkhtmltopdf CLI.
// HTML goes in on stdin and the PDF is read back from stdout.
type WkhtmltopdfRenderer struct {
	binary  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewWkhtmltopdfRenderer fails with ErrCodeBinaryNotFound when the tool is
// not installed
func NewWkhtmltopdfRenderer(cfg *WkhtmltopdfConfig) (*WkhtmltopdfRenderer, error) {
	if cfg == nil {
		cfg = &WkhtmltopdfConfig{}
	}
	name := cmp.Or(cfg.BinaryPath, "wkhtmltopdf")

	binary, err := lookupBinary(name)
	if err != nil {
		return nil, NewRenderError(ErrCodeBinaryNotFound, "wkhtmltopdf not found at "+name, err)
	}

	r := &WkhtmltopdfRenderer{
		binary:  binary,
		timeout: cfg.DefaultTimeout,
		logger:  cfg.Logger,
	}
	if r.timeout <= 0 {
		r.timeout = time.Minute
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r, nil
}

func lookupBinary(name string) (string, error) {
	if !filepath.IsAbs(name) {
		return exec.LookPath(name)
	}
	info, err := os.Stat(name)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", name)
	}
	return name, nil
}

func (r *WkhtmltopdfRenderer) Name() string { return "wkhtmltopdf" }

func (r *WkhtmltopdfRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	args := wkhtmltopdfArgs(req)
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdin = strings.NewReader(buildCompleteHTML(req))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("Running wkhtmltopdf", zap.String("binary", r.binary), zap.Strings("args", args))
	runErr := cmd.Run()
	pdf := stdout.Bytes()

	switch {
	case runErr == nil:
	case ctx.Err() != nil:
		return nil, contextRenderError(ctx, timeout, runErr)
	case isPDF(pdf):
		// exit code 1 is reported for unreachable assets while the PDF is still complete
		r.logger.Debug("wkhtmltopdf finished with warnings", zap.String("stderr", clipOutput(stderr.String())))
	default:
		return nil, NewRenderError(ErrCodeRenderFailed,
			"wkhtmltopdf failed: "+clipOutput(stderr.String()), runErr)
	}
	if !isPDF(pdf) {
		return nil, NewRenderError(ErrCodeRenderFailed, "wkhtmltopdf produced no PDF output", nil)
	}

	return newRenderResult(r.logger, r.Name(), pdf, started), nil
}

// wkhtmltopdfArgs lays out an A4 page with the requested margins and reads
// from stdin, writing to stdout
func wkhtmltopdfArgs(req *RenderRequest) []string {
	orientation := "Portrait"
	if req.Landscape {
		orientation = "Landscape"
	}
	mm := func(v int) string { return strconv.Itoa(v) + "mm" }

	args := []string{
		"--quiet",
		"--encoding", "UTF-8",
		"--page-size", "A4",
		"--orientation", orientation,
		"-T", mm(req.Margins.Top),
		"-R", mm(req.Margins.Right),
		"-B", mm(req.Margins.Bottom),
		"-L", mm(req.Margins.Left),
		"--disable-javascript",
		"--disable-local-file-access",
		"--load-error-handling", "ignore",
		"--load-media-error-handling", "ignore",
	}
	if req.Title != "" {
		args = append(args, "--title", req.Title)
	}
	return append(args, "-", "-")
}

func (r *WkhtmltopdfRenderer) Close() error { return nil }

// contextRenderError maps a cancelled or expired render to ErrCodeRenderTimeout
func contextRenderError(ctx context.Context, timeout time.Duration, cause error) *RenderError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("rendering exceeded %s", timeout), cause)
	}
	return NewRenderError(ErrCodeRenderTimeout, "rendering cancelled", cause)
}

func newRenderResult(logger *zap.Logger, engine string, pdf []byte, started time.Time) *RenderResult {
	result := &RenderResult{
		PDFData:        pdf,
		PageCount:      estimatePageCount(pdf),
		RenderDuration: time.Since(started),
	}
	logger.Debug("PDF rendered",
		zap.String("renderer", engine),
		zap.Int("bytes", len(pdf)),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration))
	return result
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// estimatePageCount counts page objects, not counting the page tree nodes
func estimatePageCount(pdf []byte) int {
	pages := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	return max(pages, 1)
}

func clipOutput(s string) string {
	if len(s) > stderrLimit {
		return s[:stderrLimit]
	}
	return s
}

var _ Renderer = (*WkhtmltopdfRenderer)(nil)
