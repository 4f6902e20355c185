package justification

import (
	"context"
	"errors"
	"fmt"
	"sort"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PacketPDF serves the client's merged packet. View mode prefers the
// edited packet; generate mode rebuilds it from the current documents.
func (s *DocumentService) PacketPDF(ctx context.Context, clientID uint, generate bool) (*appshared.Document, error) {
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if generate {
		return s.BuildPacket(ctx, c)
	}
	data, err := s.currentPacket(ctx, c)
	if err != nil {
		return nil, err
	}
	return pdfDocument(data, packetHeaderName(c)), nil
}

// BuildPacket merges the advice PDF, the B1 and one kit per replaced fund
// (plus every standalone kit) into packet_<id>.pdf
func (s *DocumentService) BuildPacket(ctx context.Context, c *client.Client) (*appshared.Document, error) {
	folder := ClientFolder(c)
	var parts [][]byte

	if data, ok, err := s.readOptional(ctx, folder, adviceFile(c)); err != nil {
		return nil, err
	} else if ok {
		parts = append(parts, data)
	}

	if _, data, err := s.readFirst(ctx, folder, b1EditedFile, b1AutoFile(c)); err == nil {
		parts = append(parts, data)
	} else if !errors.Is(err, shared.ErrDocumentNotFound) {
		return nil, err
	}

	products, err := s.newRepo.FindByClient(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load new products: %w", err)
	}
	for _, np := range packetProducts(products) {
		_, data, err := s.readFirst(ctx, folder, kitEditedFile(np.ID), kitAutoFile(c.ID, np.ID))
		if errors.Is(err, shared.ErrDocumentNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		parts = append(parts, data)
	}

	if len(parts) == 0 {
		return nil, shared.ErrNoPDFsForPacket
	}
	merged, err := s.kit.Merge(ctx, parts)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(ctx, folder, packetFile(c.ID), merged); err != nil {
		return nil, fmt.Errorf("failed to store packet: %w", err)
	}
	s.logger.Info("Client packet built", zap.Uint("client_id", c.ID), zap.Int("parts", len(parts)))
	telemetry.RecordDocument("packet", "pdf")
	return pdfDocument(merged, packetHeaderName(c)), nil
}

// UploadPacket stores a manually edited packet
func (s *DocumentService) UploadPacket(ctx context.Context, clientID uint, contentType string, data []byte) (*UploadResponse, error) {
	if err := validateUpload(contentType, data); err != nil {
		return nil, err
	}
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(ctx, ClientFolder(c), packetEditedFile(c.ID), data); err != nil {
		return nil, fmt.Errorf("failed to store edited packet: %w", err)
	}
	s.logger.Info("Edited packet uploaded", zap.Uint("client_id", clientID), zap.Int("bytes", len(data)))
	return &UploadResponse{Detail: "Client packet uploaded"}, nil
}

// TrimPacket removes 1-based pages from the current packet and stores the
// result as the edited packet
func (s *DocumentService) TrimPacket(ctx context.Context, clientID uint, pages []int) (*TrimPacketResponse, error) {
	if len(pages) == 0 {
		return nil, shared.ErrNoPagesSpecified
	}
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	data, err := s.currentPacket(ctx, c)
	if err != nil {
		return nil, err
	}
	trimmed, err := s.kit.RemovePages(ctx, data, pages)
	if err != nil {
		return nil, err
	}
	edited := packetEditedFile(c.ID)
	if err := s.store.Write(ctx, ClientFolder(c), edited, trimmed); err != nil {
		return nil, fmt.Errorf("failed to store trimmed packet: %w", err)
	}
	s.logger.Info("Client packet trimmed", zap.Uint("client_id", clientID), zap.Ints("pages", pages))
	return &TrimPacketResponse{Detail: "Client packet PDF trimmed", EditedFilename: edited}, nil
}

// SignedPacket serves the packet signed by the client
func (s *DocumentService) SignedPacket(ctx context.Context, clientID uint) (*appshared.Document, error) {
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	data, ok, err := s.readOptional(ctx, ClientFolder(c), packetSignedFile(c.ID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrDocumentNotFound
	}
	return pdfDocument(data, fmt.Sprintf("packet_%s_signed_client.pdf", asciiIDPart(c))), nil
}

// currentPacket reads the edited packet, else the built one
func (s *DocumentService) currentPacket(ctx context.Context, c *client.Client) ([]byte, error) {
	_, data, err := s.readFirst(ctx, ClientFolder(c), packetEditedFile(c.ID), packetFile(c.ID))
	if errors.Is(err, shared.ErrDocumentNotFound) {
		return nil, shared.ErrPacketNotFound
	}
	return data, err
}

// packetProducts orders new products by id and keeps the first one per
// replaced fund together with every standalone product
func packetProducts(products []justification.NewProduct) []justification.NewProduct {
	sorted := make([]justification.NewProduct, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	seen := make(map[uint]bool)
	out := make([]justification.NewProduct, 0, len(sorted))
	for _, np := range sorted {
		if np.ExistingProductID != nil {
			if seen[*np.ExistingProductID] {
				continue
			}
			seen[*np.ExistingProductID] = true
		}
		out = append(out, np)
	}
	return out
}

func packetHeaderName(c *client.Client) string {
	return fmt.Sprintf("packet_%s.pdf", asciiIDPart(c))
}
