package justification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ProductService manages the products and form instances of the advice workflow
type ProductService struct {
	clientRepo   client.ClientRepository
	savingRepo   justification.SavingProductRepository
	existingRepo justification.ExistingProductRepository
	newRepo      justification.NewProductRepository
	formRepo     justification.FormInstanceRepository
	repos        *appshared.Repositories
	txScope      appshared.TransactionScope
	clock        clockwork.Clock
	logger       *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(repos *appshared.Repositories, txScope appshared.TransactionScope, clock clockwork.Clock, logger *zap.Logger) *ProductService {
	if txScope == nil {
		txScope = appshared.NewNoOpTransactionScope(repos)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		clientRepo:   repos.ClientRepo,
		savingRepo:   repos.SavingProductRepo,
		existingRepo: repos.ExistingProductRepo,
		newRepo:      repos.NewProductRepo,
		formRepo:     repos.FormInstanceRepo,
		repos:        repos,
		txScope:      txScope,
		clock:        clock,
		logger:       logger,
	}
}

// =============================================================================
// Saving Products
// =============================================================================

// ListSavingProducts lists the market fund table
func (s *ProductService) ListSavingProducts(ctx context.Context) ([]SavingProductResponse, error) {
	products, err := s.savingRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list saving products: %w", err)
	}
	out := make([]SavingProductResponse, len(products))
	for i := range products {
		out[i] = ToSavingProductResponse(&products[i])
	}
	return out, nil
}

// =============================================================================
// Existing Products
// =============================================================================

// ListExistingProducts returns the client's persisted products merged with
// the products inferred from CRM snapshots
func (s *ProductService) ListExistingProducts(ctx context.Context, clientID uint) ([]ExistingProductResponse, error) {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return nil, err
	}
	view, err := s.existingView(ctx, s.repos, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]ExistingProductResponse, len(view))
	for i, v := range view {
		out[i] = ToExistingProductViewResponse(v)
	}
	return out, nil
}

// existingView reads everything through repos so it sees, and does not
// block on, an open transaction
func (s *ProductService) existingView(ctx context.Context, repos appshared.TransactionalRepositories, clientID uint) ([]justification.ExistingProductView, error) {
	persisted, err := repos.ExistingProducts().FindByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing products: %w", err)
	}
	snapshots, err := repos.Snapshots().FindActiveByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	var saving []justification.SavingProduct
	if len(snapshots) > 0 {
		if saving, err = repos.SavingProducts().FindAll(ctx); err != nil {
			return nil, fmt.Errorf("failed to list saving products: %w", err)
		}
	}
	return justification.BuildExistingProductsView(clientID, persisted, snapshots, saving), nil
}

// CreateExistingProduct stores a manually entered existing product
func (s *ProductService) CreateExistingProduct(ctx context.Context, clientID uint, req CreateExistingProductRequest) (*ExistingProductResponse, error) {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return nil, err
	}

	product := &justification.ExistingProduct{
		ClientID: clientID,
		FundInfo: justification.FundInfo{
			FundType:    strings.TrimSpace(req.FundType),
			CompanyName: strings.TrimSpace(req.CompanyName),
			FundName:    strings.TrimSpace(req.FundName),
			FundCode:    strings.TrimSpace(req.FundCode),
			Yield1Yr:    req.Yield1Yr,
			Yield3Yr:    req.Yield3Yr,
		},
		PersonalNumber: strings.TrimSpace(req.PersonalNumber),
		Holding:        req.holding(),
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	if err := s.existingRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save existing product: %w", err)
	}

	s.logger.Info("Existing product created",
		zap.Uint("client_id", clientID),
		zap.Uint("product_id", product.ID))

	resp := ToExistingProductResponse(product)
	return &resp, nil
}

// UpdateExistingProduct applies the non-nil fields of req
func (s *ProductService) UpdateExistingProduct(ctx context.Context, id uint, req UpdateExistingProductRequest) (*ExistingProductResponse, error) {
	product, err := s.existingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	setString(&product.FundType, req.FundType)
	setString(&product.CompanyName, req.CompanyName)
	setString(&product.FundName, req.FundName)
	setString(&product.FundCode, req.FundCode)
	setString(&product.PersonalNumber, req.PersonalNumber)
	if req.Yield1Yr != nil {
		product.Yield1Yr = req.Yield1Yr
	}
	if req.Yield3Yr != nil {
		product.Yield3Yr = req.Yield3Yr
	}
	if req.ManagementFeeBalance != nil {
		product.ManagementFeeBalance = req.ManagementFeeBalance
	}
	if req.ManagementFeeContributions != nil {
		product.ManagementFeeContributions = req.ManagementFeeContributions
	}
	if req.AccumulatedAmount != nil {
		product.AccumulatedAmount = req.AccumulatedAmount
	}
	if req.EmploymentStatus != nil {
		product.EmploymentStatus = req.EmploymentStatus
	}
	if req.HasRegularContributions != nil {
		product.HasRegularContributions = req.HasRegularContributions
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}
	if err := s.existingRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update existing product: %w", err)
	}

	resp := ToExistingProductResponse(product)
	return &resp, nil
}

// DeleteExistingProduct removes an existing product
func (s *ProductService) DeleteExistingProduct(ctx context.Context, id uint) error {
	if err := s.existingRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Existing product deleted", zap.Uint("product_id", id))
	return nil
}

// =============================================================================
// New Products
// =============================================================================

// ListNewProducts lists the client's new products, newest first
func (s *ProductService) ListNewProducts(ctx context.Context, clientID uint) ([]NewProductResponse, error) {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return nil, err
	}
	products, err := s.newRepo.FindByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list new products: %w", err)
	}
	out := make([]NewProductResponse, len(products))
	for i := range products {
		out[i] = ToNewProductResponse(&products[i])
	}
	return out, nil
}

// CreateNewProduct stores a proposed product. When it replaces a virtual
// existing product, that row is first persisted so the link points at a
// real record.
func (s *ProductService) CreateNewProduct(ctx context.Context, clientID uint, req CreateNewProductRequest) (*NewProductResponse, error) {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return nil, err
	}

	product := &justification.NewProduct{
		ClientID: clientID,
		FundInfo: justification.FundInfo{
			FundType:    strings.TrimSpace(req.FundType),
			CompanyName: strings.TrimSpace(req.CompanyName),
			FundName:    strings.TrimSpace(req.FundName),
			FundCode:    strings.TrimSpace(req.FundCode),
			Yield1Yr:    req.Yield1Yr,
			Yield3Yr:    req.Yield3Yr,
		},
		PersonalNumber: client.CleanText(trimmedPtr(req.PersonalNumber)),
		Holding:        req.holding(),
		CreatedAt:      s.clock.Now().UTC(),
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		linked, err := s.resolveExistingLink(ctx, repos, clientID, req.ExistingProductID)
		if err != nil {
			return err
		}
		product.ExistingProductID = linked
		if err := repos.NewProducts().Save(ctx, product); err != nil {
			return fmt.Errorf("failed to save new product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("New product created",
		zap.Uint("client_id", clientID),
		zap.Uint("product_id", product.ID))

	resp := ToNewProductResponse(product)
	return &resp, nil
}

// resolveExistingLink maps the requested existing product id to a persisted
// row. Virtual (negative) ids are materialized; an unknown virtual id leaves
// the product unlinked.
func (s *ProductService) resolveExistingLink(ctx context.Context, repos appshared.TransactionalRepositories, clientID uint, requested *int64) (*uint, error) {
	existingRepo := repos.ExistingProducts()
	if requested == nil || *requested == 0 {
		return nil, nil
	}

	if *requested > 0 {
		existing, err := existingRepo.FindByID(ctx, uint(*requested))
		if err != nil {
			return nil, err
		}
		if existing.ClientID != clientID {
			return nil, shared.ErrProductNotOwned
		}
		return &existing.ID, nil
	}

	view, err := s.existingView(ctx, repos, clientID)
	if err != nil {
		return nil, err
	}
	for _, item := range view {
		if item.ID != *requested {
			continue
		}

		// a previous materialization may already hold this personal number
		found, err := existingRepo.FindByPersonalNumber(ctx, item.PersonalNumber)
		switch {
		case err == nil && found.ClientID == clientID:
			return &found.ID, nil
		case err == nil:
			return nil, shared.ErrProductNotOwned
		case !errors.Is(err, shared.ErrExistingProductNotFound):
			return nil, fmt.Errorf("failed to look up personal number: %w", err)
		}

		row := item.ToExistingProduct()
		if err := existingRepo.Save(ctx, row); err != nil {
			return nil, fmt.Errorf("failed to materialize existing product: %w", err)
		}
		s.logger.Info("Virtual existing product materialized",
			zap.Uint("client_id", clientID),
			zap.Int64("virtual_id", item.ID),
			zap.Uint("product_id", row.ID))
		return &row.ID, nil
	}

	s.logger.Warn("Virtual existing product not found, creating unlinked new product",
		zap.Uint("client_id", clientID),
		zap.Int64("virtual_id", *requested))
	return nil, nil
}

// DeleteNewProduct removes a new product with its form instances
func (s *ProductService) DeleteNewProduct(ctx context.Context, id uint) error {
	if err := s.newRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("New product deleted", zap.Uint("product_id", id))
	return nil
}

// =============================================================================
// Form Instances
// =============================================================================

// ListFormInstances lists a new product's forms, newest first
func (s *ProductService) ListFormInstances(ctx context.Context, newProductID uint) ([]FormInstanceResponse, error) {
	if _, err := s.newRepo.FindByID(ctx, newProductID); err != nil {
		return nil, err
	}
	forms, err := s.formRepo.FindByNewProduct(ctx, newProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to list form instances: %w", err)
	}
	out := make([]FormInstanceResponse, len(forms))
	for i := range forms {
		out[i] = ToFormInstanceResponse(&forms[i])
	}
	return out, nil
}

// CreateFormInstance records a filled form for a new product
func (s *ProductService) CreateFormInstance(ctx context.Context, newProductID uint, req CreateFormInstanceRequest) (*FormInstanceResponse, error) {
	if _, err := s.newRepo.FindByID(ctx, newProductID); err != nil {
		return nil, err
	}
	form, err := justification.NewFormInstance(newProductID, req.TemplateFilename, req.Status, req.FilledData, req.FileOutputPath, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.formRepo.Save(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to save form instance: %w", err)
	}
	resp := ToFormInstanceResponse(form)
	return &resp, nil
}

// DeleteFormInstance removes a form instance
func (s *ProductService) DeleteFormInstance(ctx context.Context, id uint) error {
	return s.formRepo.Delete(ctx, id)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
