package justification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type documentFixture struct {
	svc    *DocumentService
	repos  *testRepos
	store  *memoryStore
	html   *MockHTMLRenderer
	pdf    *MockPDFRenderer
	kit    *MockPDFToolkit
	client *client.Client
	folder string
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	repos, all := newTestRepos()
	f := &documentFixture{
		repos: repos,
		store: newMemoryStore(),
		html:  new(MockHTMLRenderer),
		pdf:   new(MockPDFRenderer),
		kit:   new(MockPDFToolkit),
	}
	assets := Assets{
		Kits: fstest.MapFS{
			"fnx/" + kitTemplateNames[justification.FundTypeGemel]: {Data: []byte("FNX-GEMEL")},
			"fnx/other.pdf":    {Data: []byte("FNX-OTHER")},
			"a_generic.pdf":    {Data: []byte("ROOT-KIT")},
			"readme.txt":       {Data: []byte("ignored")},
			"unused/empty.txt": {Data: []byte("")},
		},
		Static: fstest.MapFS{
			"logo.png": {Data: []byte("LOGO")},
			"sign.jpg": {Data: []byte("ADVISOR")},
		},
		B1:     fstest.MapFS{"b1.pdf": {Data: []byte("B1-TEMPLATE")}},
		B1Name: "b1.pdf",
	}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	f.svc = NewDocumentService(all, f.store, f.html, f.pdf, f.kit, assets, clock, nil)

	f.client = newTestClient(7, "דנה", "כהן", "012345678")
	f.client.AddressStreet = client.StringPtr("הרצל")
	f.client.AddressHouseNumber = client.StringPtr("5")
	f.client.AddressApartment = client.StringPtr("2")
	f.client.AddressCity = client.StringPtr("תל אביב")
	f.client.Gender = client.StringPtr("נקבה")
	f.folder = ClientFolder(f.client)

	repos.clients.On("FindByID", mock.Anything, uint(7)).Return(f.client, nil)
	return f
}

func TestClientFolderAndFileNames(t *testing.T) {
	c := newTestClient(7, "דנה", "כהן", "012345678")
	assert.Equal(t, "7_דנה_כהן", ClientFolder(c))
	assert.Equal(t, "יפוי כח עבור דנה כהן.pdf", b1AutoFile(c))
	assert.Equal(t, "justification_"+strings.Repeat("_", 7)+".pdf", adviceFile(c))
	assert.Equal(t, "012345678", asciiIDPart(c))

	c.IDNumber = nil
	assert.Equal(t, "7", asciiIDPart(c))

	latin := newTestClient(8, "Dana", "Cohen", "")
	assert.Equal(t, "justification_Dana_Cohen.pdf", adviceFile(latin))
}

func TestDocumentService_B1(t *testing.T) {
	ctx := context.Background()

	t.Run("generate fills and stores the form", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.kit.On("FillForm", ctx, []byte("B1-TEMPLATE"), mock.MatchedBy(func(v map[string]string) bool {
			return v["Today"] == "01/05/2024" &&
				v["ClientID"] == "012345678" &&
				v["ClientAddress"] == "הרצל, 5/2, תל אביב"
		})).Return([]byte("B1-FILLED"), nil)

		doc, err := f.svc.B1PDF(ctx, 7, true)
		require.NoError(t, err)
		assert.Equal(t, "b1_012345678.pdf", doc.Filename)
		assert.True(t, doc.IsPDF())

		stored, ok := f.store.get(f.folder, b1AutoFile(f.client))
		require.True(t, ok)
		assert.Equal(t, "B1-FILLED", stored)
	})

	t.Run("view prefers the edited copy", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.store.put(f.folder, b1AutoFile(f.client), "AUTO")
		f.store.put(f.folder, b1EditedFile, "EDITED")

		doc, err := f.svc.B1PDF(ctx, 7, false)
		require.NoError(t, err)
		assert.Equal(t, []byte("EDITED"), doc.Content)
	})

	t.Run("view without files", func(t *testing.T) {
		f := newDocumentFixture(t)
		_, err := f.svc.B1PDF(ctx, 7, false)
		assert.ErrorIs(t, err, shared.ErrDocumentNotFound)
	})

	t.Run("overlay stamps the first page", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.store.put(f.folder, b1EditedFile, "EDITED")
		f.kit.On("Overlay", ctx, []byte("EDITED"), appshared.OverlayOptions{
			Text:      "הערה",
			Signature: []byte("sig"),
		}).Return([]byte("STAMPED"), nil)

		doc, err := f.svc.B1Overlay(ctx, 7, OverlayRequest{
			FreeText:          "הערה",
			SignatureDataURL:  "data:image/png;base64,c2ln",
			SignaturePosition: appshared.PositionTopLeft,
		})
		require.NoError(t, err)
		assert.Equal(t, "b1_overlay_012345678.pdf", doc.Filename)
		assert.Equal(t, []byte("STAMPED"), doc.Content)
	})

	t.Run("upload validation", func(t *testing.T) {
		f := newDocumentFixture(t)

		_, err := f.svc.UploadB1(ctx, 7, "application/pdf", nil)
		assert.ErrorIs(t, err, shared.ErrEmptyUpload)

		_, err = f.svc.UploadB1(ctx, 7, "image/png", []byte("x"))
		assert.ErrorIs(t, err, shared.ErrUnsupportedUploadType)

		_, err = f.svc.UploadB1(ctx, 7, "application/octet-stream", []byte("%PDF"))
		require.NoError(t, err)
		stored, _ := f.store.get(f.folder, b1EditedFile)
		assert.Equal(t, "%PDF", stored)
	})
}

func TestAssets_KitTemplate(t *testing.T) {
	f := newDocumentFixture(t)

	path, data, err := f.svc.assets.KitTemplate("הפניקס חברה לביטוח", justification.FundTypeGemel)
	require.NoError(t, err)
	assert.Equal(t, "fnx/"+kitTemplateNames[justification.FundTypeGemel], path)
	assert.Equal(t, []byte("FNX-GEMEL"), data)

	path, _, err = f.svc.assets.KitTemplate("הפניקס", justification.FundTypeHishtalmut)
	require.NoError(t, err)
	assert.Equal(t, "fnx/other.pdf", path)

	path, _, err = f.svc.assets.KitTemplate("מגדל", justification.FundTypeGemel)
	require.NoError(t, err)
	assert.Equal(t, "a_generic.pdf", path)

	empty := Assets{Kits: fstest.MapFS{"readme.txt": {Data: []byte("x")}}}
	_, _, err = empty.KitTemplate("מגדל", justification.FundTypeGemel)
	assert.ErrorIs(t, err, shared.ErrNoTemplateFound)
}

func TestDocumentService_KitPDF(t *testing.T) {
	ctx := context.Background()
	proposed := &justification.NewProduct{
		ID:                10,
		ClientID:          7,
		ExistingProductID: uintPtr(3),
		FundInfo: justification.FundInfo{
			FundType:    justification.FundTypeGemel,
			CompanyName: "הפניקס חברה לביטוח",
			FundName:    "הפניקס גמל",
			FundCode:    "200",
		},
		PersonalNumber: stringPtr("999"),
		Holding: justification.Holding{
			EmploymentStatus:        stringPtr("שכיר"),
			HasRegularContributions: boolPtr(false),
		},
	}

	t.Run("generate fills the company kit", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.repos.newProds.On("FindByID", ctx, uint(10)).Return(proposed, nil)
		f.repos.existing.On("FindByID", ctx, uint(3)).Return(&justification.ExistingProduct{
			ID: 3, ClientID: 7, FundInfo: gemel("100"), PersonalNumber: "555",
		}, nil)
		f.kit.On("FillForm", ctx, []byte("FNX-GEMEL"), mock.MatchedBy(func(v map[string]string) bool {
			return v["ClientID"] == "012345678" &&
				v["female"] == checkOn && v["male"] == checkOff &&
				v["employ"] == checkOn && v["indipendent"] == checkOff &&
				v["depno"] == checkOn && v["depyes"] == checkOff &&
				v["new_personal_number"] == "999" &&
				v["personal_number"] == "555" &&
				v["today"] == "01/05/2024"
		})).Return([]byte("KIT"), nil)
		f.repos.forms.On("Save", ctx, mock.MatchedBy(func(fi *justification.FormInstance) bool {
			return fi.NewProductID == 10 && fi.Status == justification.DefaultFormStatus
		})).Return(nil)

		doc, err := f.svc.KitPDF(ctx, 7, 10, true)
		require.NoError(t, err)
		assert.Equal(t, "kit_7_10.pdf", doc.Filename)
		stored, ok := f.store.get(f.folder, "kit_7_10.pdf")
		require.True(t, ok)
		assert.Equal(t, "KIT", stored)
		f.repos.forms.AssertExpectations(t)
	})

	t.Run("form record failures do not fail generation", func(t *testing.T) {
		f := newDocumentFixture(t)
		standalone := *proposed
		standalone.ExistingProductID = nil
		f.repos.newProds.On("FindByID", ctx, uint(10)).Return(&standalone, nil)
		f.kit.On("FillForm", ctx, mock.Anything, mock.Anything).Return([]byte("KIT"), nil)
		f.repos.forms.On("Save", ctx, mock.Anything).Return(errors.New("db down"))

		_, err := f.svc.KitPDF(ctx, 7, 10, true)
		require.NoError(t, err)
	})

	t.Run("product of another client", func(t *testing.T) {
		f := newDocumentFixture(t)
		other := *proposed
		other.ClientID = 8
		f.repos.newProds.On("FindByID", ctx, uint(10)).Return(&other, nil)

		_, err := f.svc.KitPDF(ctx, 7, 10, true)
		assert.ErrorIs(t, err, shared.ErrProductNotOwned)
	})

	t.Run("unsupported fund type", func(t *testing.T) {
		f := newDocumentFixture(t)
		pension := *proposed
		pension.FundType = "פנסיה"
		f.repos.newProds.On("FindByID", ctx, uint(10)).Return(&pension, nil)

		_, err := f.svc.KitPDF(ctx, 7, 10, true)
		assert.ErrorIs(t, err, shared.ErrUnsupportedFundType)
	})

	t.Run("view prefers the edited kit", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.repos.newProds.On("FindByID", ctx, uint(10)).Return(proposed, nil)
		f.store.put(f.folder, "kit_7_10.pdf", "AUTO")
		f.store.put(f.folder, "kit_10_edited.pdf", "EDITED")

		doc, err := f.svc.KitPDF(ctx, 7, 10, false)
		require.NoError(t, err)
		assert.Equal(t, []byte("EDITED"), doc.Content)
	})
}

func TestDocumentService_BuildPacket(t *testing.T) {
	ctx := context.Background()

	t.Run("merges documents in order", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.store.put(f.folder, adviceFile(f.client), "ADVICE")
		f.store.put(f.folder, b1AutoFile(f.client), "B1-AUTO")
		f.store.put(f.folder, b1EditedFile, "B1-EDITED")
		f.store.put(f.folder, "kit_7_10.pdf", "KIT10")
		f.store.put(f.folder, "kit_11_edited.pdf", "KIT11")
		f.store.put(f.folder, "kit_12_edited.pdf", "KIT12-EDITED")
		f.store.put(f.folder, "kit_7_12.pdf", "KIT12")

		f.repos.newProds.On("FindByClient", ctx, uint(7)).Return([]justification.NewProduct{
			{ID: 12, ClientID: 7},
			{ID: 11, ClientID: 7, ExistingProductID: uintPtr(1)},
			{ID: 10, ClientID: 7, ExistingProductID: uintPtr(1)},
			{ID: 13, ClientID: 7},
		}, nil)
		f.kit.On("Merge", ctx, [][]byte{
			[]byte("ADVICE"), []byte("B1-EDITED"), []byte("KIT10"), []byte("KIT12-EDITED"),
		}).Return([]byte("PACKET"), nil)

		doc, err := f.svc.PacketPDF(ctx, 7, true)
		require.NoError(t, err)
		assert.Equal(t, "packet_012345678.pdf", doc.Filename)
		stored, ok := f.store.get(f.folder, "packet_7.pdf")
		require.True(t, ok)
		assert.Equal(t, "PACKET", stored)
	})

	t.Run("nothing to merge", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.repos.newProds.On("FindByClient", ctx, uint(7)).Return([]justification.NewProduct{}, nil)

		_, err := f.svc.PacketPDF(ctx, 7, true)
		assert.ErrorIs(t, err, shared.ErrNoPDFsForPacket)
	})

	t.Run("view without packet", func(t *testing.T) {
		f := newDocumentFixture(t)
		_, err := f.svc.PacketPDF(ctx, 7, false)
		assert.ErrorIs(t, err, shared.ErrPacketNotFound)
	})
}

func TestDocumentService_TrimPacket(t *testing.T) {
	ctx := context.Background()

	f := newDocumentFixture(t)
	_, err := f.svc.TrimPacket(ctx, 7, nil)
	assert.ErrorIs(t, err, shared.ErrNoPagesSpecified)

	_, err = f.svc.TrimPacket(ctx, 7, []int{1})
	assert.ErrorIs(t, err, shared.ErrPacketNotFound)

	f.store.put(f.folder, "packet_7.pdf", "BASE")
	f.store.put(f.folder, "packet_7_edited.pdf", "EDITED")
	f.kit.On("RemovePages", ctx, []byte("EDITED"), []int{2, 3}).Return([]byte("TRIMMED"), nil)

	resp, err := f.svc.TrimPacket(ctx, 7, []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, "Client packet PDF trimmed", resp.Detail)
	assert.Equal(t, "packet_7_edited.pdf", resp.EditedFilename)
	stored, _ := f.store.get(f.folder, "packet_7_edited.pdf")
	assert.Equal(t, "TRIMMED", stored)
}

func TestDocumentService_Advice(t *testing.T) {
	ctx := context.Background()

	expectProducts := func(f *documentFixture) {
		f.repos.existing.On("FindByClient", ctx, uint(7)).Return([]justification.ExistingProduct{}, nil)
		f.repos.newProds.On("FindByClient", ctx, uint(7)).Return([]justification.NewProduct{}, nil)
	}

	t.Run("html shows the print button", func(t *testing.T) {
		f := newDocumentFixture(t)
		expectProducts(f)
		f.html.On("RenderHTML", ctx, appshared.TemplateAdvice, mock.MatchedBy(func(d *adviceData) bool {
			return d.ShowPrintButton &&
				d.LogoDataURL == "data:image/png;base64,TE9HTw==" &&
				d.AdvisorSignatureDataURL == "data:image/jpeg;base64,QURWSVNPUg==" &&
				d.Client.BirthDate.IsZero()
		})).Return([]byte("<html/>"), nil)

		doc, err := f.svc.AdviceHTML(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, appshared.ContentTypeHTML, doc.ContentType)
	})

	t.Run("generate stamps the stored client signature", func(t *testing.T) {
		f := newDocumentFixture(t)
		expectProducts(f)
		f.store.put(f.folder, clientSignatureFile, "SIG")
		f.html.On("RenderHTML", ctx, appshared.TemplateAdvice, mock.MatchedBy(func(d *adviceData) bool {
			return !d.ShowPrintButton && d.ClientSignatureDataURL == "data:image/png;base64,U0lH"
		})).Return([]byte("<html/>"), nil)
		f.pdf.On("RenderPDF", ctx, []byte("<html/>"), "justification").Return([]byte("PDF"), nil)
		f.kit.On("Overlay", ctx, []byte("PDF"), appshared.OverlayOptions{
			Signature: []byte("SIG"),
			Position:  appshared.PositionBottomRight,
		}).Return([]byte("SIGNED"), nil)

		doc, err := f.svc.AdvicePDF(ctx, 7, true)
		require.NoError(t, err)
		assert.Equal(t, []byte("SIGNED"), doc.Content)
		stored, ok := f.store.get(f.folder, adviceFile(f.client))
		require.True(t, ok)
		assert.Equal(t, "SIGNED", stored)
	})

	t.Run("generate falls back to html", func(t *testing.T) {
		f := newDocumentFixture(t)
		expectProducts(f)
		f.html.On("RenderHTML", ctx, appshared.TemplateAdvice, mock.Anything).Return([]byte("<html/>"), nil)
		f.pdf.On("RenderPDF", ctx, mock.Anything, mock.Anything).Return(nil, errors.New("no engine"))

		doc, err := f.svc.AdvicePDF(ctx, 7, true)
		require.NoError(t, err)
		assert.False(t, doc.IsPDF())
		assert.Empty(t, f.store.names())
	})

	t.Run("view without stored copy", func(t *testing.T) {
		f := newDocumentFixture(t)
		_, err := f.svc.AdvicePDF(ctx, 7, false)
		assert.ErrorIs(t, err, shared.ErrDocumentNotFound)
	})

	t.Run("overlay uses the advisor signature", func(t *testing.T) {
		f := newDocumentFixture(t)
		expectProducts(f)
		f.html.On("RenderHTML", ctx, appshared.TemplateAdvice, mock.Anything).Return([]byte("<html/>"), nil)
		f.pdf.On("RenderPDF", ctx, mock.Anything, "justification").Return([]byte("PDF"), nil)
		f.kit.On("Overlay", ctx, []byte("PDF"), appshared.OverlayOptions{
			Text:      "בהצלחה",
			Signature: []byte("ADVISOR"),
			Position:  appshared.PositionBottomLeft,
		}).Return([]byte("OVERLAID"), nil)

		doc, err := f.svc.AdviceOverlay(ctx, 7, OverlayRequest{FreeText: "בהצלחה", SignaturePosition: appshared.PositionBottomLeft})
		require.NoError(t, err)
		assert.Equal(t, "justification_overlay_7.pdf", doc.Filename)
	})

	t.Run("overlay render failure", func(t *testing.T) {
		f := newDocumentFixture(t)
		expectProducts(f)
		f.html.On("RenderHTML", ctx, appshared.TemplateAdvice, mock.Anything).Return([]byte("<html/>"), nil)
		f.pdf.On("RenderPDF", ctx, mock.Anything, mock.Anything).Return(nil, errors.New("no engine"))

		_, err := f.svc.AdviceOverlay(ctx, 7, OverlayRequest{})
		assert.ErrorIs(t, err, shared.ErrDocumentGenerationFailed)
	})
}

func TestDecodeDataURL(t *testing.T) {
	data, err := DecodeDataURL("data:image/png;base64,c2ln")
	require.NoError(t, err)
	assert.Equal(t, []byte("sig"), data)

	data, err = DecodeDataURL("c2ln")
	require.NoError(t, err)
	assert.Equal(t, []byte("sig"), data)

	data, err = DecodeDataURL("  ")
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = DecodeDataURL("data:image/png;base64,***")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func boolPtr(v bool) *bool { return &v }
