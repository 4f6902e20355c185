package justification

import (
	"context"
	"fmt"
	"time"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

type adviceClient struct {
	FirstName     string
	LastName      string
	IDNumber      string
	BirthDate     time.Time
	MaritalStatus string
}

type adviceData struct {
	Client                  adviceClient
	Today                   time.Time
	ShowPrintButton         bool
	LogoDataURL             string
	AdvisorSignatureDataURL string
	ClientSignatureDataURL  string
	Tables                  [][]AdviceRow
	CoverageTables          [][]CoverageRow
}

// AdviceHTML renders the advice document for the browser, with a print button
func (s *DocumentService) AdviceHTML(ctx context.Context, clientID uint) (*appshared.Document, error) {
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	html, err := s.renderAdvice(ctx, c, true)
	if err != nil {
		return nil, err
	}
	return &appshared.Document{Content: html, ContentType: appshared.ContentTypeHTML, Filename: "justification.html"}, nil
}

// AdvicePDF serves the stored advice PDF, or with generate set renders a
// fresh one, stores it and serves it. Generation falls back to HTML when
// the PDF engine fails.
func (s *DocumentService) AdvicePDF(ctx context.Context, clientID uint, generate bool) (*appshared.Document, error) {
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	filename := adviceFile(c)

	if !generate {
		data, ok, err := s.readOptional(ctx, ClientFolder(c), filename)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, shared.ErrDocumentNotFound
		}
		return pdfDocument(data, filename), nil
	}

	html, err := s.renderAdvice(ctx, c, false)
	if err != nil {
		return nil, err
	}
	pdf, err := s.advicePDF(ctx, c, html)
	if err != nil {
		s.logger.Warn("Advice PDF rendering failed, serving HTML",
			zap.Uint("client_id", clientID), zap.Error(err))
		telemetry.RecordDocument("advice", "html")
		return &appshared.Document{Content: html, ContentType: appshared.ContentTypeHTML, Filename: "justification.html"}, nil
	}
	if err := s.store.Write(ctx, ClientFolder(c), filename, pdf); err != nil {
		s.logger.Warn("Failed to store advice PDF",
			zap.Uint("client_id", clientID), zap.String("file", filename), zap.Error(err))
	}
	telemetry.RecordDocument("advice", "pdf")
	return pdfDocument(pdf, filename), nil
}

// SaveAdvicePDF regenerates and stores the advice PDF
func (s *DocumentService) SaveAdvicePDF(ctx context.Context, c *client.Client) error {
	html, err := s.renderAdvice(ctx, c, false)
	if err != nil {
		return err
	}
	pdf, err := s.advicePDF(ctx, c, html)
	if err != nil {
		return err
	}
	if err := s.store.Write(ctx, ClientFolder(c), adviceFile(c), pdf); err != nil {
		return fmt.Errorf("failed to store advice PDF: %w", err)
	}
	return nil
}

// AdviceOverlay renders the advice PDF and stamps free text onto it. With a
// position the advisor signature is stamped too, unless one is supplied.
func (s *DocumentService) AdviceOverlay(ctx context.Context, clientID uint, req OverlayRequest) (*appshared.Document, error) {
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	html, err := s.renderAdvice(ctx, c, false)
	if err != nil {
		return nil, err
	}
	base, err := s.pdf.RenderPDF(ctx, html, "justification")
	if err != nil {
		s.logger.Error("Advice PDF rendering failed", zap.Uint("client_id", clientID), zap.Error(err))
		return nil, shared.ErrDocumentGenerationFailed
	}

	sig, err := DecodeDataURL(req.SignatureDataURL)
	if err != nil {
		return nil, err
	}
	if len(sig) == 0 && req.SignaturePosition != "" {
		sig = s.assets.AdvisorSignature()
	}
	out, err := s.kit.Overlay(ctx, base, appshared.OverlayOptions{
		Text:      req.FreeText,
		Signature: sig,
		Position:  req.SignaturePosition,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to overlay advice document: %w", err)
	}
	return pdfDocument(out, fmt.Sprintf("justification_overlay_%d.pdf", c.ID)), nil
}

// advicePDF renders html and stamps the client's stored signature, if any,
// at the bottom right
func (s *DocumentService) advicePDF(ctx context.Context, c *client.Client, html []byte) ([]byte, error) {
	pdf, err := s.pdf.RenderPDF(ctx, html, "justification")
	if err != nil {
		return nil, fmt.Errorf("failed to render advice PDF: %w", err)
	}
	sig, ok, err := s.readOptional(ctx, ClientFolder(c), clientSignatureFile)
	if err != nil || !ok {
		return pdf, nil
	}
	signed, err := s.kit.Overlay(ctx, pdf, appshared.OverlayOptions{
		Signature: sig,
		Position:  appshared.PositionBottomRight,
	})
	if err != nil {
		s.logger.Warn("Failed to stamp client signature on advice PDF",
			zap.Uint("client_id", c.ID), zap.Error(err))
		return pdf, nil
	}
	return signed, nil
}

func (s *DocumentService) renderAdvice(ctx context.Context, c *client.Client, printable bool) ([]byte, error) {
	data, err := s.adviceData(ctx, c)
	if err != nil {
		return nil, err
	}
	data.ShowPrintButton = printable
	html, err := s.html.RenderHTML(ctx, appshared.TemplateAdvice, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render advice document: %w", err)
	}
	return html, nil
}

func (s *DocumentService) adviceData(ctx context.Context, c *client.Client) (*adviceData, error) {
	existing, err := s.existingRepo.FindByClient(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing products: %w", err)
	}
	proposed, err := s.newRepo.FindByClient(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load new products: %w", err)
	}

	today := s.today()
	birth := c.BirthDate
	if c.HasPlaceholderBirthDate() {
		birth = time.Time{}
	}
	data := &adviceData{
		Client: adviceClient{
			FirstName:     client.Deref(c.FirstName),
			LastName:      client.Deref(c.LastName),
			IDNumber:      client.Deref(c.IDNumber),
			BirthDate:     birth,
			MaritalStatus: client.Deref(c.MaritalStatus),
		},
		Today:                   today,
		LogoDataURL:             s.assets.LogoDataURL(),
		AdvisorSignatureDataURL: imageDataURL("image/jpeg", s.assets.AdvisorSignature()),
		Tables:                  BuildAdviceTables(c.BirthDate, today, existing, proposed),
		CoverageTables:          BuildCoverageTables(existing, proposed),
	}
	if sig, ok, err := s.readOptional(ctx, ClientFolder(c), clientSignatureFile); err == nil && ok {
		data.ClientSignatureDataURL = imageDataURL("image/png", sig)
	}
	return data, nil
}
