package shared

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// DocumentStore holds the per-client export folders (generated PDFs,
// uploaded edits, signatures). Read returns shared.ErrDocumentNotFound for
// missing files.
type DocumentStore interface {
	Read(ctx context.Context, folder, name string) ([]byte, error)
	Write(ctx context.Context, folder, name string, data []byte) error
	Exists(ctx context.Context, folder, name string) (bool, error)
	Delete(ctx context.Context, folder, name string) error
}

// Content types of generated documents
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Document is a generated or stored file returned to the caller
type Document struct {
	Content     []byte
	ContentType string
	Filename    string
}

// IsPDF reports whether the document is a PDF (not an HTML fallback)
func (d *Document) IsPDF() bool {
	return d.ContentType == ContentTypePDF
}

// HTML template names understood by the HTMLRenderer
const (
	TemplateClientReport = "client_report.html"
	TemplateAdvice       = "advice.html"
	TemplateClientSign   = "client_sign.html"
)

// HTMLRenderer executes a named HTML template
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, name string, data any) ([]byte, error)
}

// PDFRenderer converts a complete HTML document to PDF
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html []byte, title string) ([]byte, error)
}

// Signature placements for overlays. RelativePosition builds the
// "rel:x,y" form where x and y are page fractions from the bottom-left.
const (
	PositionBottomRight = "bottom_right"
	PositionBottomLeft  = "bottom_left"
	PositionTopRight    = "top_right"
	PositionTopLeft     = "top_left"
)

// OverlayOptions describes what to stamp onto an existing PDF. With a
// Position the last page is stamped, otherwise the first.
type OverlayOptions struct {
	Text      string
	Signature []byte // PNG or JPEG
	Position  string
}

// PDFToolkit manipulates finished PDF documents
type PDFToolkit interface {
	// Merge concatenates parts in order, skipping unreadable ones. It
	// fails with ErrNoPagesInPacket when nothing could be merged.
	Merge(ctx context.Context, parts [][]byte) ([]byte, error)
	PageCount(ctx context.Context, pdf []byte) (int, error)
	// RemovePages drops 1-based page numbers, ignoring out of range ones
	RemovePages(ctx context.Context, pdf []byte, pages []int) ([]byte, error)
	// FillForm sets AcroForm fields by name. Checkbox and radio values
	// use "/Yes" and "/Off".
	FillForm(ctx context.Context, template []byte, values map[string]string) ([]byte, error)
	Overlay(ctx context.Context, pdf []byte, opts OverlayOptions) ([]byte, error)
	// StampSignatureFields draws the image into every signature field, or
	// at the bottom-right of the last page when the document has none.
	StampSignatureFields(ctx context.Context, pdf []byte, signature []byte) ([]byte, error)
}

// ReportCache stores serialized read models such as the CRM summary
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// CRMCachePrefix namespaces every cached CRM aggregate
const CRMCachePrefix = "crm:"

// CachedJSON returns the cached value under key, or computes, stores and
// returns it. Cache failures are logged and never fail the call.
func CachedJSON[T any](ctx context.Context, cache ReportCache, log *zap.Logger, key string, compute func() (T, error)) (T, error) {
	if cache != nil {
		if raw, ok, err := cache.Get(ctx, key); err != nil {
			log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				return v, nil
			}
		}
	}

	v, err := compute()
	if err != nil {
		return v, err
	}

	if cache != nil {
		raw, err := json.Marshal(v)
		if err == nil {
			err = cache.Set(ctx, key, raw)
		}
		if err != nil {
			log.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return v, nil
}

// InvalidateCRM drops every cached CRM aggregate after data changed
func InvalidateCRM(ctx context.Context, cache ReportCache, log *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.DeletePrefix(ctx, CRMCachePrefix); err != nil {
		log.Warn("Cache invalidation failed", zap.String("prefix", CRMCachePrefix), zap.Error(err))
	}
}
