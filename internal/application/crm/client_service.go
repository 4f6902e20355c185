package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ClientService handles client CRUD and beneficiaries
type ClientService struct {
	clientRepo      client.ClientRepository
	beneficiaryRepo client.BeneficiaryRepository
	cache           appshared.ReportCache
	logger          *zap.Logger
}

// NewClientService creates a new ClientService
func NewClientService(
	clientRepo client.ClientRepository,
	beneficiaryRepo client.BeneficiaryRepository,
	cache appshared.ReportCache,
	logger *zap.Logger,
) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{
		clientRepo:      clientRepo,
		beneficiaryRepo: beneficiaryRepo,
		cache:           cache,
		logger:          logger,
	}
}

// List returns every client ordered by ID
func (s *ClientService) List(ctx context.Context) ([]ClientResponse, error) {
	clients, err := s.clientRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	items := make([]ClientResponse, len(clients))
	for i := range clients {
		items[i] = ToClientResponse(&clients[i])
	}
	return items, nil
}

// Get returns a single client
func (s *ClientService) Get(ctx context.Context, id uint) (*ClientResponse, error) {
	c, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToClientResponse(c)
	return &resp, nil
}

// Create creates a client. The ID number is normalized, falling back to the
// raw value when normalization leaves nothing.
func (s *ClientService) Create(ctx context.Context, req CreateClientRequest) (*ClientResponse, error) {
	raw := strings.TrimSpace(req.IDNumber)
	idNumber := client.NormalizeIDNumber(raw)
	if idNumber == "" {
		idNumber = raw
	}
	if idNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "ID number is required")
	}

	if _, err := s.clientRepo.FindByIDNumber(ctx, idNumber); err == nil {
		return nil, shared.ErrDuplicateIDNumber
	} else if !errors.Is(err, shared.ErrClientNotFound) {
		return nil, fmt.Errorf("failed to check ID number: %w", err)
	}

	c := &client.Client{
		IDNumberRaw:        client.StringPtr(raw),
		IDNumber:           client.StringPtr(idNumber),
		FullName:           strings.TrimSpace(req.FullName),
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Phone:              req.Phone,
		AddressStreet:      req.AddressStreet,
		AddressCity:        req.AddressCity,
		AddressPostalCode:  req.AddressPostalCode,
		AddressHouseNumber: req.AddressHouseNumber,
		AddressApartment:   req.AddressApartment,
		Gender:             req.Gender,
		MaritalStatus:      req.MaritalStatus,
		BirthCountry:       req.BirthCountry,
		EmployerName:       req.EmployerName,
		EmployerHP:         req.EmployerHP,
		EmployerAddress:    req.EmployerAddress,
		EmployerPhone:      req.EmployerPhone,
		IsActive:           true,
	}
	if req.BirthDate != nil {
		if t, ok := ParseISODate(*req.BirthDate); ok {
			c.BirthDate = t
		}
	}

	if err := c.Prepare(); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, c); err != nil {
		if errors.Is(err, shared.ErrDuplicateIDNumber) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save client: %w", err)
	}
	appshared.InvalidateCRM(ctx, s.cache, s.logger)

	logger.FromContext(ctx, s.logger).Info("Client created", zap.Uint("client_id", c.ID))
	resp := ToClientResponse(c)
	return &resp, nil
}

// Update applies the non-nil fields of req
func (s *ClientService) Update(ctx context.Context, id uint, req UpdateClientRequest) (*ClientResponse, error) {
	c, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	assign := func(dst **string, src *string) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	assign(&c.FirstName, req.FirstName)
	assign(&c.LastName, req.LastName)
	assign(&c.Email, req.Email)
	assign(&c.Phone, req.Phone)
	assign(&c.AddressStreet, req.AddressStreet)
	assign(&c.AddressCity, req.AddressCity)
	assign(&c.AddressPostalCode, req.AddressPostalCode)
	assign(&c.AddressHouseNumber, req.AddressHouseNumber)
	assign(&c.AddressApartment, req.AddressApartment)
	assign(&c.Gender, req.Gender)
	assign(&c.MaritalStatus, req.MaritalStatus)
	assign(&c.BirthCountry, req.BirthCountry)
	assign(&c.EmployerName, req.EmployerName)
	assign(&c.EmployerHP, req.EmployerHP)
	assign(&c.EmployerAddress, req.EmployerAddress)
	assign(&c.EmployerPhone, req.EmployerPhone)

	if req.BirthDate != nil {
		if strings.TrimSpace(*req.BirthDate) == "" {
			c.BirthDate = client.PlaceholderBirthDate
		} else if t, ok := ParseISODate(*req.BirthDate); ok {
			c.BirthDate = t
		}
	}

	if (req.FirstName != nil && *req.FirstName != "") || (req.LastName != nil && *req.LastName != "") {
		if name := client.JoinName(c.FirstName, c.LastName); name != "" {
			c.FullName = name
		}
	}

	if err := c.Prepare(); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	appshared.InvalidateCRM(ctx, s.cache, s.logger)

	resp := ToClientResponse(c)
	return &resp, nil
}

// Delete removes a client with all its dependent data
func (s *ClientService) Delete(ctx context.Context, id uint) error {
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrClientNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}
	appshared.InvalidateCRM(ctx, s.cache, s.logger)
	logger.FromContext(ctx, s.logger).Info("Client deleted", zap.Uint("client_id", id))
	return nil
}

// ListBeneficiaries returns the client's beneficiaries ordered by slot
func (s *ClientService) ListBeneficiaries(ctx context.Context, clientID uint) ([]BeneficiaryDTO, error) {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return nil, err
	}
	items, err := s.beneficiaryRepo.FindByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list beneficiaries: %w", err)
	}
	out := make([]BeneficiaryDTO, len(items))
	for i, b := range items {
		out[i] = toBeneficiaryDTO(b)
	}
	return out, nil
}

// ReplaceBeneficiaries swaps the whole beneficiary set of a client
func (s *ClientService) ReplaceBeneficiaries(ctx context.Context, clientID uint, req ReplaceBeneficiariesRequest) ([]BeneficiaryDTO, error) {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return nil, err
	}

	items := make([]client.ClientBeneficiary, len(req.Beneficiaries))
	for i, b := range req.Beneficiaries {
		items[i] = client.ClientBeneficiary{
			ClientID:   clientID,
			Index:      b.Index,
			FirstName:  client.CleanText(b.FirstName),
			LastName:   client.CleanText(b.LastName),
			IDNumber:   client.CleanText(b.IDNumber),
			BirthDate:  client.CleanText(b.BirthDate),
			Address:    client.CleanText(b.Address),
			Relation:   client.CleanText(b.Relation),
			Percentage: b.Percentage,
		}
	}
	if err := client.ValidateBeneficiaries(items); err != nil {
		return nil, err
	}
	if err := s.beneficiaryRepo.ReplaceForClient(ctx, clientID, items); err != nil {
		return nil, fmt.Errorf("failed to replace beneficiaries: %w", err)
	}

	out := make([]BeneficiaryDTO, len(items))
	for i, b := range items {
		out[i] = toBeneficiaryDTO(b)
	}
	return out, nil
}

// ParseISODate parses the date part of an ISO date or date-time string
func ParseISODate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if len(v) < 10 {
		return time.Time{}, false
	}
	if len(v) > 10 && v[10] != 'T' && v[10] != ' ' {
		return time.Time{}, false
	}
	t, err := time.Parse(client.DateLayout, v[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
