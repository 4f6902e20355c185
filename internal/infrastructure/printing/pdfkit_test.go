package printing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPDF builds an A4 document with the given number of blank pages. With
// withSigField the last page carries a /Sig widget at [100 100 300 180].
func testPDF(pages int, withSigField bool) []byte {
	var objects []string
	// 1 catalog, 2 page tree, then page/content pairs, then the widget
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i*2)
	}
	sigObj := 3 + pages*2

	catalog := "<< /Type /Catalog /Pages 2 0 R >>"
	if withSigField {
		catalog = fmt.Sprintf("<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [%d 0 R] >> >>", sigObj)
	}
	objects = append(objects, catalog)
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		annots := ""
		if withSigField && i == pages-1 {
			annots = fmt.Sprintf(" /Annots [%d 0 R]", sigObj)
		}
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << >> /Contents %d 0 R%s >>",
			4+i*2, annots))
		objects = append(objects, "<< /Length 3 >>\nstream\nq Q\nendstream")
	}
	if withSigField {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Annot /Subtype /Widget /FT /Sig /T (client) /F 4 /Rect [100 100 300 180] /P %d 0 R >>",
			3+(pages-1)*2))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestKit(t *testing.T) *PDFKit {
	t.Helper()
	kit, err := NewPDFKit("")
	require.NoError(t, err)
	return kit
}

func TestPDFKit_PageCount(t *testing.T) {
	kit := newTestKit(t)

	n, err := kit.PageCount(context.Background(), testPDF(3, false))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = kit.PageCount(context.Background(), []byte("not a pdf"))
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodePDFInvalid, renderErr.Code)
}

func TestPDFKit_Merge(t *testing.T) {
	kit := newTestKit(t)
	ctx := context.Background()

	t.Run("concatenates readable parts", func(t *testing.T) {
		merged, err := kit.Merge(ctx, [][]byte{testPDF(2, false), nil, []byte("garbage"), testPDF(1, false)})
		require.NoError(t, err)

		n, err := kit.PageCount(ctx, merged)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("single part is returned as is", func(t *testing.T) {
		part := testPDF(1, false)
		merged, err := kit.Merge(ctx, [][]byte{part, nil})
		require.NoError(t, err)
		assert.Equal(t, part, merged)
	})

	t.Run("nothing readable", func(t *testing.T) {
		_, err := kit.Merge(ctx, [][]byte{nil, []byte("garbage")})
		assert.ErrorIs(t, err, shared.ErrNoPagesInPacket)

		_, err = kit.Merge(ctx, nil)
		assert.ErrorIs(t, err, shared.ErrNoPagesInPacket)
	})
}

func TestPDFKit_RemovePages(t *testing.T) {
	kit := newTestKit(t)
	ctx := context.Background()
	doc := testPDF(4, false)

	t.Run("removes selected pages", func(t *testing.T) {
		out, err := kit.RemovePages(ctx, doc, []int{2, 4, 4, 9})
		require.NoError(t, err)
		n, err := kit.PageCount(ctx, out)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("out of range only leaves the document unchanged", func(t *testing.T) {
		out, err := kit.RemovePages(ctx, doc, []int{0, 7})
		require.NoError(t, err)
		assert.Equal(t, doc, out)
	})

	t.Run("empty selection", func(t *testing.T) {
		_, err := kit.RemovePages(ctx, doc, nil)
		assert.ErrorIs(t, err, shared.ErrNoPagesSpecified)
	})

	t.Run("removing every page", func(t *testing.T) {
		_, err := kit.RemovePages(ctx, doc, []int{1, 2, 3, 4})
		assert.ErrorIs(t, err, shared.ErrNoPagesLeftAfterTrim)
	})
}

func TestPDFKit_Overlay(t *testing.T) {
	kit := newTestKit(t)
	ctx := context.Background()
	doc := testPDF(2, false)

	out, err := kit.Overlay(ctx, doc, appshared.OverlayOptions{
		Text:      "Signed\nby client",
		Signature: testPNG(t, 400, 100),
		Position:  appshared.PositionBottomLeft,
	})
	require.NoError(t, err)
	assert.NotEqual(t, doc, out)

	n, err := kit.PageCount(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPDFKit_Overlay_InvalidSignature(t *testing.T) {
	kit := newTestKit(t)
	_, err := kit.Overlay(context.Background(), testPDF(1, false), appshared.OverlayOptions{
		Signature: []byte("not an image"),
		Position:  appshared.PositionBottomRight,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPDFKit_SignatureRects(t *testing.T) {
	kit := newTestKit(t)

	rects, err := kit.signatureRects(testPDF(2, true))
	require.NoError(t, err)
	require.Len(t, rects, 1)
	assert.Equal(t, 2, rects[0].page)
	assert.InDelta(t, 100, rects[0].llx, 0.01)
	assert.InDelta(t, 100, rects[0].lly, 0.01)
	assert.InDelta(t, 200, rects[0].width, 0.01)
	assert.InDelta(t, 80, rects[0].height, 0.01)

	rects, err = kit.signatureRects(testPDF(2, false))
	require.NoError(t, err)
	assert.Empty(t, rects)
}

func TestPDFKit_StampSignatureFields(t *testing.T) {
	kit := newTestKit(t)
	ctx := context.Background()
	sig := testPNG(t, 300, 120)

	for _, withField := range []bool{true, false} {
		t.Run(fmt.Sprintf("with field %v", withField), func(t *testing.T) {
			doc := testPDF(2, withField)
			out, err := kit.StampSignatureFields(ctx, doc, sig)
			require.NoError(t, err)
			assert.NotEqual(t, doc, out)

			n, err := kit.PageCount(ctx, out)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}

	_, err := kit.StampSignatureFields(ctx, testPDF(1, false), nil)
	assert.ErrorIs(t, err, shared.ErrMissingSignature)
}

func TestPlaceSignature(t *testing.T) {
	a4 := types.Dim{Width: 595, Height: 842}

	tests := []struct {
		name     string
		position string
		wantX    float64
		wantY    float64
	}{
		{name: "default", position: "", wantX: 595 - 180 - 40, wantY: 60},
		{name: "bottom right", position: appshared.PositionBottomRight, wantX: 375, wantY: 60},
		{name: "bottom left", position: appshared.PositionBottomLeft, wantX: 40, wantY: 60},
		{name: "top left", position: appshared.PositionTopLeft, wantX: 40, wantY: 842 - 80 - 60},
		{name: "top right", position: "TOP_RIGHT", wantX: 375, wantY: 702},
		{name: "relative center", position: "rel:0.5,0.5", wantX: 297.5 - 90, wantY: 421 - 40},
		{name: "relative clamped", position: "rel:1.2,-1", wantX: 375, wantY: 60},
		{name: "malformed relative", position: "rel:abc", wantX: 375, wantY: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := placeSignature(tt.position, a4, 180, 80)
			assert.InDelta(t, tt.wantX, x, 0.001)
			assert.InDelta(t, tt.wantY, y, 0.001)
		})
	}
}

func TestIsChecked(t *testing.T) {
	for _, v := range []string{"/Yes", "yes", "ON", "true", "1", "x", " X "} {
		assert.True(t, isChecked(v), v)
	}
	for _, v := range []string{"/Off", "", "no", "0", "false"} {
		assert.False(t, isChecked(v), v)
	}
}

func TestImageSize(t *testing.T) {
	w, h, err := imageSize(testPNG(t, 320, 90))
	require.NoError(t, err)
	assert.Equal(t, 320.0, w)
	assert.Equal(t, 90.0, h)

	_, _, err = imageSize([]byte("plain text"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
