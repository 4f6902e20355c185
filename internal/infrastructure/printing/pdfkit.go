package printing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg" // signature images
	_ "image/png"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/form"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"
)

// Stamp geometry in PDF points
const (
	overlayTextLeft   = 40.0
	overlayTextBottom = 60.0
	overlayLineHeight = 14.0
	overlayMaxLines   = 8
	overlayFontSize   = 11

	signatureMaxWidth  = 180.0
	signatureMaxHeight = 80.0
	signatureMarginH   = 40.0
	signatureMarginV   = 60.0

	defaultOverlayFont = "Helvetica"
)

// PDFKit implements PDF merging, trimming, form filling and stamping on pdfcpu
type PDFKit struct {
	fontName string
	logger   *zap.Logger
}

// PDFKitOption configures a PDFKit
type PDFKitOption func(*PDFKit)

// WithPDFKitLogger sets the logger
func WithPDFKitLogger(logger *zap.Logger) PDFKitOption {
	return func(k *PDFKit) {
		k.logger = logger
	}
}

// NewPDFKit creates the toolkit. A TrueType overlay font is installed into
// pdfcpu's font directory so stamped text can use non-Latin glyphs.
func NewPDFKit(overlayFont string, opts ...PDFKitOption) (*PDFKit, error) {
	k := &PDFKit{fontName: defaultOverlayFont, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(k)
	}
	if overlayFont != "" {
		if err := api.InstallFonts([]string{overlayFont}); err != nil {
			return nil, fmt.Errorf("failed to install overlay font %s: %w", overlayFont, err)
		}
		k.fontName = strings.TrimSuffix(filepath.Base(overlayFont), filepath.Ext(overlayFont))
	}
	return k, nil
}

// config returns a fresh configuration; pdfcpu mutates it per command
func (k *PDFKit) config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Merge concatenates the readable parts in order
func (k *PDFKit) Merge(ctx context.Context, parts [][]byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var valid [][]byte
	for i, part := range parts {
		if len(part) == 0 {
			continue
		}
		if _, err := api.PageCount(bytes.NewReader(part), k.config()); err != nil {
			k.logger.Warn("Skipping unreadable PDF part", zap.Int("part", i), zap.Error(err))
			continue
		}
		valid = append(valid, part)
	}

	switch len(valid) {
	case 0:
		return nil, shared.ErrNoPagesInPacket
	case 1:
		return bytes.Clone(valid[0]), nil
	}

	readers := make([]io.ReadSeeker, len(valid))
	for i, part := range valid {
		readers[i] = bytes.NewReader(part)
	}
	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, k.config()); err != nil {
		return nil, fmt.Errorf("failed to merge PDFs: %w", err)
	}
	return out.Bytes(), nil
}

// PageCount returns the number of pages
func (k *PDFKit) PageCount(ctx context.Context, pdf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := api.PageCount(bytes.NewReader(pdf), k.config())
	if err != nil {
		return 0, NewRenderError(ErrCodePDFInvalid, "failed to read PDF", err)
	}
	return n, nil
}

// RemovePages drops the given 1-based pages
func (k *PDFKit) RemovePages(ctx context.Context, pdf []byte, pages []int) ([]byte, error) {
	if len(pages) == 0 {
		return nil, shared.ErrNoPagesSpecified
	}
	total, err := k.PageCount(ctx, pdf)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(pages))
	var selected []string
	for _, p := range pages {
		if p < 1 || p > total || seen[p] {
			continue
		}
		seen[p] = true
		selected = append(selected, strconv.Itoa(p))
	}
	if len(selected) == 0 {
		return bytes.Clone(pdf), nil
	}
	if len(selected) >= total {
		return nil, shared.ErrNoPagesLeftAfterTrim
	}

	var out bytes.Buffer
	if err := api.RemovePages(bytes.NewReader(pdf), &out, selected, k.config()); err != nil {
		return nil, fmt.Errorf("failed to remove pages: %w", err)
	}
	return out.Bytes(), nil
}

// fill payload in pdfcpu's form JSON layout
type (
	fillGroup struct {
		Forms []fillForm `json:"forms"`
	}
	fillForm struct {
		TextFields  []fillValue `json:"textfield,omitempty"`
		DateFields  []fillValue `json:"datefield,omitempty"`
		CheckBoxes  []fillCheck `json:"checkbox,omitempty"`
		RadioGroups []fillValue `json:"radiobuttongroup,omitempty"`
		ComboBoxes  []fillValue `json:"combobox,omitempty"`
	}
	fillValue struct {
		Pages []int  `json:"pages,omitempty"`
		ID    string `json:"id"`
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	fillCheck struct {
		Pages []int  `json:"pages,omitempty"`
		ID    string `json:"id"`
		Name  string `json:"name"`
		Value bool   `json:"value"`
	}
)

// FillForm sets the named AcroForm fields. Unknown names are ignored.
func (k *PDFKit) FillForm(ctx context.Context, template []byte, values map[string]string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields, err := api.FormFields(bytes.NewReader(template), k.config())
	if err != nil {
		return nil, NewRenderError(ErrCodePDFInvalid, "failed to read form fields", err)
	}

	var f fillForm
	matched := 0
	for _, field := range fields {
		v, ok := values[field.Name]
		if !ok {
			v, ok = values[field.ID]
		}
		if !ok {
			continue
		}
		fv := fillValue{Pages: field.Pages, ID: field.ID, Name: field.Name, Value: v}
		switch field.Typ {
		case form.FTText:
			f.TextFields = append(f.TextFields, fv)
		case form.FTDate:
			f.DateFields = append(f.DateFields, fv)
		case form.FTCheckBox:
			f.CheckBoxes = append(f.CheckBoxes, fillCheck{Pages: field.Pages, ID: field.ID, Name: field.Name, Value: isChecked(v)})
		case form.FTRadioButtonGroup:
			fv.Value = strings.TrimPrefix(v, "/")
			f.RadioGroups = append(f.RadioGroups, fv)
		case form.FTComboBox:
			f.ComboBoxes = append(f.ComboBoxes, fv)
		default:
			continue
		}
		matched++
	}
	if matched == 0 {
		k.logger.Warn("No form fields matched", zap.Int("fields", len(fields)), zap.Int("values", len(values)))
		return bytes.Clone(template), nil
	}

	payload, err := json.Marshal(fillGroup{Forms: []fillForm{f}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode form values: %w", err)
	}
	var out bytes.Buffer
	if err := api.FillForm(bytes.NewReader(template), bytes.NewReader(payload), &out, k.config()); err != nil {
		return nil, fmt.Errorf("failed to fill form: %w", err)
	}
	k.logger.Debug("Form filled", zap.Int("fields", matched))
	return out.Bytes(), nil
}

func isChecked(v string) bool {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(v), "/")) {
	case "yes", "on", "true", "1", "x":
		return true
	}
	return false
}

// Overlay stamps free text and an optional signature image
func (k *PDFKit) Overlay(ctx context.Context, pdf []byte, opts appshared.OverlayOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dims, err := api.PageDims(bytes.NewReader(pdf), k.config())
	if err != nil || len(dims) == 0 {
		return nil, NewRenderError(ErrCodePDFInvalid, "failed to read page dimensions", err)
	}

	pageNr := 1
	if opts.Position != "" {
		pageNr = len(dims)
	}
	dim := dims[pageNr-1]
	out := pdf

	if text := strings.TrimSpace(opts.Text); text != "" {
		lines := strings.Split(text, "\n")
		for idx, line := range lines {
			if idx >= overlayMaxLines {
				break
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			y := overlayTextBottom + float64(idx)*overlayLineHeight
			if y > dim.Height-40 {
				break
			}
			desc := fmt.Sprintf("font:%s, points:%d, pos:bl, off:%.2f %.2f, scale:1 abs, rot:0, fillc:#000000, op:1",
				k.fontName, overlayFontSize, overlayTextLeft, y)
			wm, err := api.TextWatermark(line, desc, true, false, types.POINTS)
			if err != nil {
				return nil, fmt.Errorf("failed to prepare text stamp: %w", err)
			}
			if out, err = k.stamp(out, pageNr, wm); err != nil {
				return nil, err
			}
		}
	}

	if len(opts.Signature) > 0 {
		w, h, err := imageSize(opts.Signature)
		if err != nil {
			return nil, err
		}
		scale := min(signatureMaxWidth/w, signatureMaxHeight/h, 1.0)
		x, y := placeSignature(opts.Position, dim, w*scale, h*scale)
		if out, err = k.stampImage(out, pageNr, opts.Signature, x, y, scale); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// placeSignature returns the bottom-left corner for a drawn image
func placeSignature(position string, dim types.Dim, drawW, drawH float64) (float64, float64) {
	pos := strings.ToLower(strings.TrimSpace(position))
	if rest, ok := strings.CutPrefix(pos, "rel:"); ok {
		if xs, ys, ok := strings.Cut(rest, ","); ok {
			rx, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
			ry, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
			if errX == nil && errY == nil {
				x := rx*dim.Width - drawW/2
				y := ry*dim.Height - drawH/2
				x = max(signatureMarginH, min(dim.Width-drawW-signatureMarginH, x))
				y = max(signatureMarginV, min(dim.Height-drawH-signatureMarginV, y))
				return x, y
			}
		}
	}

	switch pos {
	case appshared.PositionBottomLeft:
		return signatureMarginH, signatureMarginV
	case appshared.PositionTopLeft:
		return signatureMarginH, dim.Height - drawH - signatureMarginV
	case appshared.PositionTopRight:
		return dim.Width - drawW - signatureMarginH, dim.Height - drawH - signatureMarginV
	default:
		return dim.Width - drawW - signatureMarginH, signatureMarginV
	}
}

// sigRect is a signature widget rectangle on a page
type sigRect struct {
	page                   int
	llx, lly, width, height float64
}

// StampSignatureFields draws the signature into each /Sig widget
func (k *PDFKit) StampSignatureFields(ctx context.Context, pdf []byte, signature []byte) ([]byte, error) {
	if len(signature) == 0 {
		return nil, shared.ErrMissingSignature
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h, err := imageSize(signature)
	if err != nil {
		return nil, err
	}

	rects, err := k.signatureRects(pdf)
	if err != nil {
		k.logger.Warn("Failed to scan signature fields", zap.Error(err))
	}
	if len(rects) == 0 {
		k.logger.Debug("No signature fields, stamping bottom-right of last page")
		return k.Overlay(ctx, pdf, appshared.OverlayOptions{
			Signature: signature,
			Position:  appshared.PositionBottomRight,
		})
	}

	out := pdf
	for _, r := range rects {
		scale := min(r.width/w, r.height/h, 1.0)
		drawW, drawH := w*scale, h*scale
		x := r.llx + (r.width-drawW)/2
		y := r.lly + (r.height-drawH)/2
		if out, err = k.stampImage(out, r.page, signature, x, y, scale); err != nil {
			return nil, err
		}
	}
	k.logger.Debug("Signature stamped", zap.Int("fields", len(rects)))
	return out, nil
}

// signatureRects finds widgets whose field type (own or inherited) is /Sig
func (k *PDFKit) signatureRects(pdf []byte) ([]sigRect, error) {
	pctx, err := api.ReadAndValidate(bytes.NewReader(pdf), k.config())
	if err != nil {
		return nil, err
	}

	var rects []sigRect
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		pageDict, _, _, err := pctx.PageDict(pageNr, false)
		if err != nil || pageDict == nil {
			continue
		}
		obj, found := pageDict.Find("Annots")
		if !found {
			continue
		}
		annots, err := pctx.DereferenceArray(obj)
		if err != nil {
			continue
		}
		for _, a := range annots {
			annot, err := pctx.DereferenceDict(a)
			if err != nil || annot == nil || !isSignatureField(pctx, annot) {
				continue
			}
			rectObj, found := annot.Find("Rect")
			if !found {
				continue
			}
			arr, err := pctx.DereferenceArray(rectObj)
			if err != nil || len(arr) != 4 {
				continue
			}
			rect, err := pctx.RectForArray(arr)
			if err != nil {
				continue
			}
			rects = append(rects, sigRect{
				page:   pageNr,
				llx:    rect.LL.X,
				lly:    rect.LL.Y,
				width:  max(rect.Width(), 1),
				height: max(rect.Height(), 1),
			})
		}
	}
	sort.SliceStable(rects, func(i, j int) bool { return rects[i].page < rects[j].page })
	return rects, nil
}

func isSignatureField(pctx *model.Context, annot types.Dict) bool {
	if ft := annot.NameEntry("FT"); ft != nil && *ft == "Sig" {
		return true
	}
	parentObj, found := annot.Find("Parent")
	if !found {
		return false
	}
	parent, err := pctx.DereferenceDict(parentObj)
	if err != nil || parent == nil {
		return false
	}
	ft := parent.NameEntry("FT")
	return ft != nil && *ft == "Sig"
}

func (k *PDFKit) stampImage(pdf []byte, pageNr int, img []byte, x, y, scale float64) ([]byte, error) {
	desc := fmt.Sprintf("pos:bl, off:%.2f %.2f, scale:%.4f abs, rot:0, op:1", x, y, scale)
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(img), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare image stamp: %w", err)
	}
	return k.stamp(pdf, pageNr, wm)
}

func (k *PDFKit) stamp(pdf []byte, pageNr int, wm *model.Watermark) ([]byte, error) {
	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(pdf), &out, []string{strconv.Itoa(pageNr)}, wm, k.config()); err != nil {
		return nil, fmt.Errorf("failed to stamp page %d: %w", pageNr, err)
	}
	return out.Bytes(), nil
}

// imageSize decodes only the image header
func imageSize(data []byte) (float64, float64, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, shared.NewDomainError("INVALID_INPUT", "signature is not a PNG or JPEG image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, shared.NewDomainError("INVALID_INPUT", "signature image is empty")
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

var _ appshared.PDFToolkit = (*PDFKit)(nil)
