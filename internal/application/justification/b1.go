package justification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// B1PDF serves the client's power of attorney. In view mode the uploaded
// edit wins over the generated copy; generate mode fills the form anew.
func (s *DocumentService) B1PDF(ctx context.Context, clientID uint, generate bool) (*appshared.Document, error) {
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	filename := fmt.Sprintf("b1_%s.pdf", asciiIDPart(c))

	if !generate {
		_, data, err := s.readFirst(ctx, ClientFolder(c), b1EditedFile, b1AutoFile(c))
		if err != nil {
			return nil, err
		}
		return pdfDocument(data, filename), nil
	}

	data, err := s.generateB1(ctx, c)
	if err != nil {
		return nil, err
	}
	return pdfDocument(data, filename), nil
}

// B1Overlay stamps free text and a signature onto the first page of the
// current B1, generating it when none is stored
func (s *DocumentService) B1Overlay(ctx context.Context, clientID uint, req OverlayRequest) (*appshared.Document, error) {
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	base, err := s.currentB1(ctx, c)
	if err != nil {
		return nil, err
	}
	req.SignaturePosition = ""
	out, err := s.overlay(ctx, base, req)
	if err != nil {
		return nil, err
	}
	return pdfDocument(out, fmt.Sprintf("b1_overlay_%s.pdf", asciiIDPart(c))), nil
}

// UploadB1 stores a manually edited B1 that supersedes the generated one
func (s *DocumentService) UploadB1(ctx context.Context, clientID uint, contentType string, data []byte) (*UploadResponse, error) {
	if err := validateUpload(contentType, data); err != nil {
		return nil, err
	}
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(ctx, ClientFolder(c), b1EditedFile, data); err != nil {
		return nil, fmt.Errorf("failed to store edited B1: %w", err)
	}
	s.logger.Info("Edited B1 uploaded", zap.Uint("client_id", clientID), zap.Int("bytes", len(data)))
	return &UploadResponse{Detail: "B1 uploaded"}, nil
}

func (s *DocumentService) currentB1(ctx context.Context, c *client.Client) ([]byte, error) {
	_, data, err := s.readFirst(ctx, ClientFolder(c), b1EditedFile, b1AutoFile(c))
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, shared.ErrDocumentNotFound) {
		return nil, err
	}
	return s.generateB1(ctx, c)
}

func (s *DocumentService) generateB1(ctx context.Context, c *client.Client) ([]byte, error) {
	tmpl, err := s.assets.B1Template()
	if err != nil {
		return nil, fmt.Errorf("failed to load B1 template: %w", err)
	}
	filled, err := s.kit.FillForm(ctx, tmpl, b1Fields(c, s.today().Format(formDateLayout)))
	if err != nil {
		return nil, fmt.Errorf("failed to fill B1 form: %w", err)
	}
	if err := s.store.Write(ctx, ClientFolder(c), b1AutoFile(c), filled); err != nil {
		return nil, fmt.Errorf("failed to store B1: %w", err)
	}
	s.logger.Info("B1 generated", zap.Uint("client_id", c.ID))
	telemetry.RecordDocument("b1", "pdf")
	return filled, nil
}

func b1Fields(c *client.Client, today string) map[string]string {
	return map[string]string{
		"Today":           today,
		"ClientFirstName": client.Deref(c.FirstName),
		"ClientLastName":  client.Deref(c.LastName),
		"ClientID":        client.Deref(c.IDNumber),
		"ClientAddress":   clientAddress(c),
	}
}

// clientAddress renders "street, house/apartment, city", skipping blanks
func clientAddress(c *client.Client) string {
	house := strings.TrimSpace(client.Deref(c.AddressHouseNumber))
	if apt := strings.TrimSpace(client.Deref(c.AddressApartment)); apt != "" {
		if house != "" {
			house += "/" + apt
		} else {
			house = apt
		}
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{strings.TrimSpace(client.Deref(c.AddressStreet)), house, strings.TrimSpace(client.Deref(c.AddressCity))} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
