package justification

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"time"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DocumentService produces the client's document set: the advice document,
// the B1 power of attorney, enrollment kits and the merged packet
type DocumentService struct {
	clientRepo   client.ClientRepository
	existingRepo justification.ExistingProductRepository
	newRepo      justification.NewProductRepository
	formRepo     justification.FormInstanceRepository
	store        appshared.DocumentStore
	html         appshared.HTMLRenderer
	pdf          appshared.PDFRenderer
	kit          appshared.PDFToolkit
	assets       Assets
	clock        clockwork.Clock
	logger       *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	repos *appshared.Repositories,
	store appshared.DocumentStore,
	html appshared.HTMLRenderer,
	pdf appshared.PDFRenderer,
	kit appshared.PDFToolkit,
	assets Assets,
	clock clockwork.Clock,
	logger *zap.Logger,
) *DocumentService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		clientRepo:   repos.ClientRepo,
		existingRepo: repos.ExistingProductRepo,
		newRepo:      repos.NewProductRepo,
		formRepo:     repos.FormInstanceRepo,
		store:        store,
		html:         html,
		pdf:          pdf,
		kit:          kit,
		assets:       assets,
		clock:        clock,
		logger:       logger,
	}
}

// jerusalem is the zone of dates printed on forms
var jerusalem = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		return time.UTC
	}
	return loc
}()

const formDateLayout = "02/01/2006"

func (s *DocumentService) today() time.Time {
	return s.clock.Now().In(jerusalem)
}

// readOptional reads a stored file, reporting false when it does not exist
func (s *DocumentService) readOptional(ctx context.Context, folder, name string) ([]byte, bool, error) {
	data, err := s.store.Read(ctx, folder, name)
	if errors.Is(err, shared.ErrDocumentNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, true, nil
}

// readFirst returns the first existing file among names
func (s *DocumentService) readFirst(ctx context.Context, folder string, names ...string) (string, []byte, error) {
	for _, name := range names {
		data, ok, err := s.readOptional(ctx, folder, name)
		if err != nil {
			return "", nil, err
		}
		if ok {
			return name, data, nil
		}
	}
	return "", nil, shared.ErrDocumentNotFound
}

// overlay stamps free text and an optional data-URL signature onto a PDF
func (s *DocumentService) overlay(ctx context.Context, base []byte, req OverlayRequest) ([]byte, error) {
	sig, err := DecodeDataURL(req.SignatureDataURL)
	if err != nil {
		return nil, err
	}
	out, err := s.kit.Overlay(ctx, base, appshared.OverlayOptions{
		Text:      req.FreeText,
		Signature: sig,
		Position:  req.SignaturePosition,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to overlay document: %w", err)
	}
	return out, nil
}

// validateUpload accepts non-empty PDF uploads
func validateUpload(contentType string, data []byte) error {
	if len(data) == 0 {
		return shared.ErrEmptyUpload
	}
	if contentType == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return shared.ErrUnsupportedUploadType
	}
	switch mediaType {
	case appshared.ContentTypePDF, "application/octet-stream":
		return nil
	default:
		return shared.ErrUnsupportedUploadType
	}
}

func pdfDocument(content []byte, filename string) *appshared.Document {
	return &appshared.Document{Content: content, ContentType: appshared.ContentTypePDF, Filename: filename}
}
