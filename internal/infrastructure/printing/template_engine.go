package printing

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

const (
	displayDateLayout     = "02/01/2006"
	displayDateTimeLayout = "02/01/2006 15:04"
	noValue               = "אין נתון"
)

// TemplateEngine renders the HTML documents (client report, advice,
// signing page). Embedded templates are used unless a templates
// directory provides a file with the same name.
type TemplateEngine struct {
	templates    *template.Template
	funcMap      template.FuncMap
	templatesDir string
	clock        clockwork.Clock
	logger       *zap.Logger
	printer      *message.Printer
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithTemplatesDir overrides embedded templates with files from dir
func WithTemplatesDir(dir string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.templatesDir = dir
	}
}

// WithTemplateClock sets the clock behind the "now" template function
func WithTemplateClock(clock clockwork.Clock) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.clock = clock
	}
}

// WithTemplateLogger sets the logger
func WithTemplateLogger(logger *zap.Logger) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.logger = logger
	}
}

// NewTemplateEngine parses the embedded templates and any overrides
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{
		clock:   clockwork.NewRealClock(),
		logger:  zap.NewNop(),
		printer: message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.funcMap = template.FuncMap{
		"formatAmount":   e.formatAmount,
		"formatMoney":    e.formatMoney,
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"formatPercent":  formatPercent,
		"dataURL":        dataURL,
		"default":        defaultString,
		"inc":            func(i int) int { return i + 1 },
		"now":            func() time.Time { return e.clock.Now() },
	}

	root := template.New("documents").Funcs(e.funcMap)
	root, err := root.ParseFS(embeddedTemplates, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplate, "failed to parse embedded templates", err)
	}

	if e.templatesDir != "" {
		if err := e.loadOverrides(root); err != nil {
			return nil, err
		}
	}
	e.templates = root
	return e, nil
}

// loadOverrides replaces embedded templates by same-named files
func (e *TemplateEngine) loadOverrides(root *template.Template) error {
	entries, err := os.ReadDir(e.templatesDir)
	if err != nil {
		if os.IsNotExist(err) {
			e.logger.Warn("Templates directory not found, using embedded templates",
				zap.String("dir", e.templatesDir))
			return nil
		}
		return fmt.Errorf("failed to read templates directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		content, err := fs.ReadFile(os.DirFS(e.templatesDir), entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", entry.Name(), err)
		}
		if _, err := root.New(entry.Name()).Parse(string(content)); err != nil {
			return NewRenderError(ErrCodeTemplate, "failed to parse template "+entry.Name(), err)
		}
		e.logger.Info("Template override loaded",
			zap.String("template", entry.Name()),
			zap.String("path", filepath.Join(e.templatesDir, entry.Name())))
	}
	return nil
}

// Names lists the available templates
func (e *TemplateEngine) Names() []string {
	var names []string
	for _, t := range e.templates.Templates() {
		if strings.HasSuffix(t.Name(), ".html") {
			names = append(names, t.Name())
		}
	}
	sort.Strings(names)
	return names
}

// RenderHTML executes the named template with data
func (e *TemplateEngine) RenderHTML(ctx context.Context, name string, data any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tmpl := e.templates.Lookup(name)
	if tmpl == nil {
		return nil, NewRenderError(ErrCodeTemplate, "unknown template "+name, nil)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, NewRenderError(ErrCodeTemplate, "failed to execute template "+name, err)
	}
	return buf.Bytes(), nil
}

// formatAmount formats a whole amount with thousand separators
// Example: 1234567.8 -> "1,234,568"
func (e *TemplateEngine) formatAmount(v any) string {
	return e.printer.Sprintf("%.0f", toDecimal(v).Round(0).InexactFloat64())
}

// formatMoney formats an amount with two decimals and the shekel sign
// Example: 1234.5 -> "1,234.50 ₪"
func (e *TemplateEngine) formatMoney(v any) string {
	return e.printer.Sprintf("%.2f", toDecimal(v).Round(2).InexactFloat64()) + " ₪"
}

// formatDate renders a date as dd/mm/yyyy
func formatDate(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format(displayDateLayout)
}

func formatDateTime(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format(displayDateTimeLayout)
}

// formatPercent renders a yield, or "no data" when missing
func formatPercent(v any) string {
	switch val := v.(type) {
	case nil:
		return noValue
	case *float64:
		if val == nil {
			return noValue
		}
		return decimal.NewFromFloat(*val).String() + "%"
	case float64:
		return decimal.NewFromFloat(val).String() + "%"
	case string:
		if val == "" {
			return noValue
		}
		return val
	default:
		return toDecimal(v).String() + "%"
	}
}

// dataURL passes through inline images only
func dataURL(s string) template.URL {
	if strings.HasPrefix(s, "data:image/") {
		return template.URL(s)
	}
	return ""
}

func defaultString(def string, val any) string {
	switch v := val.(type) {
	case nil:
		return def
	case string:
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return def
		}
		return *v
	default:
		return fmt.Sprint(v)
	}
}

// toDecimal converts the numeric types used by view models
func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float64:
		return decimal.NewFromFloat(val)
	case *float64:
		if val == nil {
			return decimal.Zero
		}
		return decimal.NewFromFloat(*val)
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// toTime accepts time values and ISO date strings
func toTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val == nil {
			return time.Time{}
		}
		return *val
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", time.DateOnly} {
			if t, err := time.Parse(layout, val); err == nil {
				return t
			}
		}
		return time.Time{}
	case *string:
		if val == nil {
			return time.Time{}
		}
		return toTime(*val)
	default:
		return time.Time{}
	}
}

var _ appshared.HTMLRenderer = (*TemplateEngine)(nil)
