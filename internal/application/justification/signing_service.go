package justification

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/logger"
	"github.com/advisory/backoffice/internal/infrastructure/telemetry"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	signPathPrefix = "/api/v1/justification/client-sign/"
	tokenBytes     = 32
)

// adviceArchiver regenerates the stored advice PDF
type adviceArchiver interface {
	SaveAdvicePDF(ctx context.Context, c *client.Client) error
}

// packetBuilder rebuilds the merged packet
type packetBuilder interface {
	BuildPacket(ctx context.Context, c *client.Client) (*appshared.Document, error)
}

// DocumentPipeline is what signing needs from the document service
type DocumentPipeline interface {
	adviceArchiver
	packetBuilder
}

// SigningService issues one-time signing links and applies the client's
// signature to their packet
type SigningService struct {
	clientRepo client.ClientRepository
	signRepo   justification.SignatureRequestRepository
	store      appshared.DocumentStore
	html       appshared.HTMLRenderer
	kit        appshared.PDFToolkit
	documents  DocumentPipeline
	publicBase string
	random     io.Reader
	clock      clockwork.Clock
	logger     *zap.Logger
}

// NewSigningService creates a new SigningService. publicBase prefixes the
// links handed to clients.
func NewSigningService(
	repos *appshared.Repositories,
	store appshared.DocumentStore,
	html appshared.HTMLRenderer,
	kit appshared.PDFToolkit,
	documents DocumentPipeline,
	publicBase string,
	clock clockwork.Clock,
	logger *zap.Logger,
) *SigningService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SigningService{
		clientRepo: repos.ClientRepo,
		signRepo:   repos.SignatureRequestRepo,
		store:      store,
		html:       html,
		kit:        kit,
		documents:  documents,
		publicBase: strings.TrimRight(publicBase, "/"),
		random:     rand.Reader,
		clock:      clock,
		logger:     logger,
	}
}

type signPageData struct {
	ClientName string
	PacketURL  string
	SubmitURL  string
}

// CreateSignRequest opens a signing link for the client's current packet,
// building the packet first when none exists
func (s *SigningService) CreateSignRequest(ctx context.Context, clientID uint) (*SignRequestResponse, error) {
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	packet, err := s.currentPacketName(ctx, c)
	if errors.Is(err, shared.ErrPacketNotFound) {
		if _, err = s.documents.BuildPacket(ctx, c); err == nil {
			packet = packetFile(c.ID)
		}
	}
	if err != nil {
		return nil, err
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}
	req := justification.NewClientSignatureRequest(c.ID, token, packet, s.clock.Now())
	if err := s.signRepo.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save signature request: %w", err)
	}

	url := signPathPrefix + token
	logger.FromContext(ctx, s.logger).Info("Signature request created", zap.Uint("client_id", c.ID), zap.String("packet", packet))
	telemetry.RecordSignatureEvent("created")
	return &SignRequestResponse{Token: token, URL: url, FullURL: s.publicBase + url}, nil
}

// SignPage renders the public signing page of a token
func (s *SigningService) SignPage(ctx context.Context, token string) (*appshared.Document, error) {
	req, c, err := s.openRequest(ctx, token)
	if err != nil {
		return nil, err
	}
	html, err := s.html.RenderHTML(ctx, appshared.TemplateClientSign, signPageData{
		ClientName: signerName(c),
		PacketURL:  signPathPrefix + req.Token + "/packet.pdf",
		SubmitURL:  signPathPrefix + req.Token + "/submit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render signing page: %w", err)
	}
	return &appshared.Document{Content: html, ContentType: appshared.ContentTypeHTML, Filename: "sign.html"}, nil
}

// SignPacket serves the packet an open token was issued for. Used links
// are gone, and only the issued file is served.
func (s *SigningService) SignPacket(ctx context.Context, token string) (*appshared.Document, error) {
	req, c, err := s.openRequest(ctx, token)
	if err != nil {
		return nil, err
	}
	if req.PacketFilename == "" {
		return nil, shared.ErrPacketNotFound
	}
	data, ok, err := s.readOptional(ctx, ClientFolder(c), req.PacketFilename)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrPacketNotFound
	}
	return pdfDocument(data, req.PacketFilename), nil
}

// Submit stores the client's signature, refreshes the advice PDF and the
// packet, stamps the signature into the packet and closes the request
func (s *SigningService) Submit(ctx context.Context, token string, in SubmitSignatureRequest) (*SubmitSignatureResponse, error) {
	if strings.TrimSpace(in.SignatureDataURL) == "" {
		return nil, shared.ErrMissingSignature
	}
	sig, err := DecodeDataURL(in.SignatureDataURL)
	if err != nil || len(sig) == 0 {
		return nil, shared.ErrMissingSignature
	}

	req, c, err := s.openRequest(ctx, token)
	if err != nil {
		return nil, err
	}
	folder := ClientFolder(c)

	if err := s.store.Write(ctx, folder, clientSignatureFile, sig); err != nil {
		return nil, fmt.Errorf("failed to store client signature: %w", err)
	}
	if err := s.documents.SaveAdvicePDF(ctx, c); err != nil {
		logger.FromContext(ctx, s.logger).Warn("Failed to refresh advice PDF after signing", zap.Uint("client_id", c.ID), zap.Error(err))
	}

	packet := req.PacketFilename
	if packet == "" {
		if packet, err = s.currentPacketName(ctx, c); err != nil && !errors.Is(err, shared.ErrPacketNotFound) {
			return nil, err
		}
	}
	if packet == "" || packet == packetFile(c.ID) {
		if _, err := s.documents.BuildPacket(ctx, c); err != nil {
			logger.FromContext(ctx, s.logger).Warn("Failed to rebuild packet after signing", zap.Uint("client_id", c.ID), zap.Error(err))
		}
		packet = packetFile(c.ID)
	}

	data, ok, err := s.readOptional(ctx, folder, packet)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrPacketNotFound
	}
	signed, err := s.kit.StampSignatureFields(ctx, data, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to stamp signature: %w", err)
	}
	signedName := packetSignedFile(c.ID)
	if err := s.store.Write(ctx, folder, signedName, signed); err != nil {
		return nil, fmt.Errorf("failed to store signed packet: %w", err)
	}

	if err := req.Complete(signedName, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.signRepo.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save signature request: %w", err)
	}

	logger.FromContext(ctx, s.logger).Info("Client packet signed", zap.Uint("client_id", c.ID), zap.String("file", signedName))
	telemetry.RecordSignatureEvent("signed")
	return &SubmitSignatureResponse{Detail: "Signature saved", Status: req.Status}, nil
}

func (s *SigningService) openRequest(ctx context.Context, token string) (*justification.ClientSignatureRequest, *client.Client, error) {
	req, err := s.signRepo.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, nil, err
	}
	if !req.IsOpen() {
		return nil, nil, shared.ErrSignatureRequestCompleted
	}
	c, err := s.clientRepo.FindByID(ctx, req.ClientID)
	if err != nil {
		return nil, nil, err
	}
	return req, c, nil
}

func (s *SigningService) currentPacketName(ctx context.Context, c *client.Client) (string, error) {
	for _, name := range []string{packetEditedFile(c.ID), packetFile(c.ID)} {
		ok, err := s.store.Exists(ctx, ClientFolder(c), name)
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", name, err)
		}
		if ok {
			return name, nil
		}
	}
	return "", shared.ErrPacketNotFound
}

func (s *SigningService) readOptional(ctx context.Context, folder, name string) ([]byte, bool, error) {
	data, err := s.store.Read(ctx, folder, name)
	if errors.Is(err, shared.ErrDocumentNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, true, nil
}

func (s *SigningService) newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// signerName is the name greeting the client on the signing page
func signerName(c *client.Client) string {
	if name := client.JoinName(c.FirstName, c.LastName); name != "" {
		return name
	}
	if name := strings.TrimSpace(c.FullName); name != "" {
		return name
	}
	if id := client.Deref(c.IDNumber); id != "" {
		return id
	}
	return "לקוח"
}
