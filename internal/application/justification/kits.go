package justification

import (
	"context"
	"errors"
	"fmt"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// KitPDF serves the enrollment kit of a new product. In view mode the
// uploaded edit wins over the generated copy; generate mode fills the
// company template anew.
func (s *DocumentService) KitPDF(ctx context.Context, clientID, newProductID uint, generate bool) (*appshared.Document, error) {
	c, np, err := s.ownedProduct(ctx, clientID, newProductID)
	if err != nil {
		return nil, err
	}
	filename := kitAutoFile(c.ID, np.ID)

	if !generate {
		_, data, err := s.readFirst(ctx, ClientFolder(c), kitEditedFile(np.ID), filename)
		if err != nil {
			return nil, err
		}
		return pdfDocument(data, filename), nil
	}

	data, err := s.generateKit(ctx, c, np)
	if err != nil {
		return nil, err
	}
	return pdfDocument(data, filename), nil
}

// KitOverlay stamps free text and a signature onto the current kit,
// generating it when none is stored
func (s *DocumentService) KitOverlay(ctx context.Context, clientID, newProductID uint, req OverlayRequest) (*appshared.Document, error) {
	c, np, err := s.ownedProduct(ctx, clientID, newProductID)
	if err != nil {
		return nil, err
	}
	_, base, err := s.readFirst(ctx, ClientFolder(c), kitEditedFile(np.ID), kitAutoFile(c.ID, np.ID))
	if errors.Is(err, shared.ErrDocumentNotFound) {
		base, err = s.generateKit(ctx, c, np)
	}
	if err != nil {
		return nil, err
	}
	out, err := s.overlay(ctx, base, req)
	if err != nil {
		return nil, err
	}
	return pdfDocument(out, fmt.Sprintf("kit_overlay_%d_%d.pdf", c.ID, np.ID)), nil
}

// UploadKit stores a manually edited kit that supersedes the generated one
func (s *DocumentService) UploadKit(ctx context.Context, clientID, newProductID uint, contentType string, data []byte) (*UploadResponse, error) {
	if err := validateUpload(contentType, data); err != nil {
		return nil, err
	}
	c, np, err := s.ownedProduct(ctx, clientID, newProductID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(ctx, ClientFolder(c), kitEditedFile(np.ID), data); err != nil {
		return nil, fmt.Errorf("failed to store edited kit: %w", err)
	}
	s.logger.Info("Edited kit uploaded",
		zap.Uint("client_id", clientID), zap.Uint("new_product_id", newProductID))
	return &UploadResponse{Detail: "Kit uploaded"}, nil
}

// ownedProduct loads a client and one of its new products
func (s *DocumentService) ownedProduct(ctx context.Context, clientID, newProductID uint) (*client.Client, *justification.NewProduct, error) {
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	np, err := s.newRepo.FindByID(ctx, newProductID)
	if err != nil {
		return nil, nil, err
	}
	if np.ClientID != c.ID {
		return nil, nil, shared.ErrProductNotOwned
	}
	return c, np, nil
}

func (s *DocumentService) generateKit(ctx context.Context, c *client.Client, np *justification.NewProduct) ([]byte, error) {
	if !justification.IsKitSupported(np.FundType) {
		return nil, shared.ErrUnsupportedFundType
	}

	var old *justification.ExistingProduct
	if np.ExistingProductID != nil {
		ex, err := s.existingRepo.FindByID(ctx, *np.ExistingProductID)
		switch {
		case err == nil:
			old = ex
		case errors.Is(err, shared.ErrExistingProductNotFound):
			s.logger.Warn("Linked existing product is gone",
				zap.Uint("new_product_id", np.ID), zap.Uint("existing_product_id", *np.ExistingProductID))
		default:
			return nil, fmt.Errorf("failed to load linked existing product: %w", err)
		}
	}

	templatePath, tmpl, err := s.assets.KitTemplate(np.CompanyName, np.FundType)
	if err != nil {
		return nil, err
	}
	payload := buildKitPayload(c, np, old, s.today().Format(formDateLayout))
	filled, err := s.kit.FillForm(ctx, tmpl, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to fill kit %s: %w", templatePath, err)
	}

	output := kitAutoFile(c.ID, np.ID)
	if err := s.store.Write(ctx, ClientFolder(c), output, filled); err != nil {
		return nil, fmt.Errorf("failed to store kit: %w", err)
	}
	s.recordForm(ctx, np.ID, templatePath, payload, ClientFolder(c)+"/"+output)
	telemetry.RecordDocument("kit", "pdf")

	s.logger.Info("Kit generated",
		zap.Uint("client_id", c.ID),
		zap.Uint("new_product_id", np.ID),
		zap.String("template", templatePath))
	return filled, nil
}

// recordForm keeps a form instance for a generated kit; failures are logged
func (s *DocumentService) recordForm(ctx context.Context, newProductID uint, templatePath string, payload kitPayload, outputPath string) {
	if s.formRepo == nil {
		return
	}
	form, err := justification.NewFormInstance(newProductID, templatePath, "", payload.asMap(), &outputPath, s.clock.Now())
	if err == nil {
		err = s.formRepo.Save(ctx, form)
	}
	if err != nil {
		s.logger.Warn("Failed to record kit form instance",
			zap.Uint("new_product_id", newProductID), zap.Error(err))
	}
}
