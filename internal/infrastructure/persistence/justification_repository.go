package persistence

import (
	"context"

	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSavingProductRepository implements SavingProductRepository using GORM
type GormSavingProductRepository struct {
	db *gorm.DB
}

// NewGormSavingProductRepository creates a new GormSavingProductRepository
func NewGormSavingProductRepository(db *gorm.DB) *GormSavingProductRepository {
	return &GormSavingProductRepository{db: db}
}

// FindAll lists saving products ordered by company and fund name
func (r *GormSavingProductRepository) FindAll(ctx context.Context) ([]justification.SavingProduct, error) {
	var rows []models.SavingProductModel
	if err := r.db.WithContext(ctx).
		Order("company_name ASC").Order("fund_name ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]justification.SavingProduct, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// FindByKey finds the row with the given (type, company, name, code) key
func (r *GormSavingProductRepository) FindByKey(ctx context.Context, key [4]string) (*justification.SavingProduct, error) {
	var model models.SavingProductModel
	if err := r.db.WithContext(ctx).
		Where("fund_type = ? AND company_name = ? AND fund_name = ? AND fund_code = ?", key[0], key[1], key[2], key[3]).
		Order("id ASC").
		First(&model).Error; err != nil {
		return nil, notFoundAs(err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a saving product
func (r *GormSavingProductRepository) Save(ctx context.Context, product *justification.SavingProduct) error {
	model := models.SavingProductModelFromDomain(product)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	product.ID = model.ID
	return nil
}

// DeleteAll removes every row and returns the number removed
func (r *GormSavingProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.SavingProductModel{})
	return result.RowsAffected, result.Error
}

// GormExistingProductRepository implements ExistingProductRepository using GORM
type GormExistingProductRepository struct {
	db *gorm.DB
}

// NewGormExistingProductRepository creates a new GormExistingProductRepository
func NewGormExistingProductRepository(db *gorm.DB) *GormExistingProductRepository {
	return &GormExistingProductRepository{db: db}
}

// FindByID finds an existing product by its ID
func (r *GormExistingProductRepository) FindByID(ctx context.Context, id uint) (*justification.ExistingProduct, error) {
	var model models.ExistingProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, shared.ErrExistingProductNotFound)
	}
	return model.ToDomain(), nil
}

// FindByClient lists a client's existing products ordered by company and fund name
func (r *GormExistingProductRepository) FindByClient(ctx context.Context, clientID uint) ([]justification.ExistingProduct, error) {
	var rows []models.ExistingProductModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("company_name ASC").Order("fund_name ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]justification.ExistingProduct, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// FindByPersonalNumber finds the product holding the given personal number
func (r *GormExistingProductRepository) FindByPersonalNumber(ctx context.Context, personalNumber string) (*justification.ExistingProduct, error) {
	var model models.ExistingProductModel
	if err := r.db.WithContext(ctx).Where("personal_number = ?", personalNumber).First(&model).Error; err != nil {
		return nil, notFoundAs(err, shared.ErrExistingProductNotFound)
	}
	return model.ToDomain(), nil
}

// Save creates or updates an existing product
func (r *GormExistingProductRepository) Save(ctx context.Context, product *justification.ExistingProduct) error {
	model := models.ExistingProductModelFromDomain(product)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "personal number already in use")
		}
		return err
	}
	product.ID = model.ID
	return nil
}

// Delete removes an existing product together with its new products and their forms
func (r *GormExistingProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		newProductIDs := tx.Model(&models.NewProductModel{}).Select("id").Where("existing_product_id = ?", id)
		if err := tx.Where("new_product_id IN (?)", newProductIDs).Delete(&models.FormInstanceModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("existing_product_id = ?", id).Delete(&models.NewProductModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ExistingProductModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrExistingProductNotFound
		}
		return nil
	})
}

// DeleteAll removes every row and returns the number removed
func (r *GormExistingProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.ExistingProductModel{})
	return result.RowsAffected, result.Error
}

// GormNewProductRepository implements NewProductRepository using GORM
type GormNewProductRepository struct {
	db *gorm.DB
}

// NewGormNewProductRepository creates a new GormNewProductRepository
func NewGormNewProductRepository(db *gorm.DB) *GormNewProductRepository {
	return &GormNewProductRepository{db: db}
}

// FindByID finds a new product by its ID
func (r *GormNewProductRepository) FindByID(ctx context.Context, id uint) (*justification.NewProduct, error) {
	var model models.NewProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, shared.ErrNewProductNotFound)
	}
	return model.ToDomain(), nil
}

// FindByClient lists a client's new products, newest first
func (r *GormNewProductRepository) FindByClient(ctx context.Context, clientID uint) ([]justification.NewProduct, error) {
	var rows []models.NewProductModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]justification.NewProduct, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// FindByPersonalNumber finds the product holding the given personal number
func (r *GormNewProductRepository) FindByPersonalNumber(ctx context.Context, personalNumber string) (*justification.NewProduct, error) {
	var model models.NewProductModel
	if err := r.db.WithContext(ctx).Where("personal_number = ?", personalNumber).First(&model).Error; err != nil {
		return nil, notFoundAs(err, shared.ErrNewProductNotFound)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a new product
func (r *GormNewProductRepository) Save(ctx context.Context, product *justification.NewProduct) error {
	model := models.NewProductModelFromDomain(product)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "personal number already in use")
		}
		return err
	}
	product.ID = model.ID
	product.CreatedAt = model.CreatedAt
	return nil
}

// Delete removes a new product together with its form instances
func (r *GormNewProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("new_product_id = ?", id).Delete(&models.FormInstanceModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.NewProductModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNewProductNotFound
		}
		return nil
	})
}

// DeleteAll removes every row and returns the number removed
func (r *GormNewProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.NewProductModel{})
	return result.RowsAffected, result.Error
}

// GormFormInstanceRepository implements FormInstanceRepository using GORM
type GormFormInstanceRepository struct {
	db *gorm.DB
}

// NewGormFormInstanceRepository creates a new GormFormInstanceRepository
func NewGormFormInstanceRepository(db *gorm.DB) *GormFormInstanceRepository {
	return &GormFormInstanceRepository{db: db}
}

// FindByID finds a form instance by its ID
func (r *GormFormInstanceRepository) FindByID(ctx context.Context, id uint) (*justification.FormInstance, error) {
	var model models.FormInstanceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, shared.ErrFormInstanceNotFound)
	}
	return model.ToDomain(), nil
}

// FindByNewProduct lists a product's form instances, newest first
func (r *GormFormInstanceRepository) FindByNewProduct(ctx context.Context, newProductID uint) ([]justification.FormInstance, error) {
	var rows []models.FormInstanceModel
	if err := r.db.WithContext(ctx).
		Where("new_product_id = ?", newProductID).
		Order("generated_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	forms := make([]justification.FormInstance, len(rows))
	for i := range rows {
		forms[i] = *rows[i].ToDomain()
	}
	return forms, nil
}

// Save creates or updates a form instance
func (r *GormFormInstanceRepository) Save(ctx context.Context, form *justification.FormInstance) error {
	model := models.FormInstanceModelFromDomain(form)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	form.ID = model.ID
	return nil
}

// Delete removes a form instance
func (r *GormFormInstanceRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.FormInstanceModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrFormInstanceNotFound
	}
	return nil
}

// DeleteAll removes every row and returns the number removed
func (r *GormFormInstanceRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.FormInstanceModel{})
	return result.RowsAffected, result.Error
}

// GormSignatureRequestRepository implements SignatureRequestRepository using GORM
type GormSignatureRequestRepository struct {
	db *gorm.DB
}

// NewGormSignatureRequestRepository creates a new GormSignatureRequestRepository
func NewGormSignatureRequestRepository(db *gorm.DB) *GormSignatureRequestRepository {
	return &GormSignatureRequestRepository{db: db}
}

// FindByToken finds a request by its URL token
func (r *GormSignatureRequestRepository) FindByToken(ctx context.Context, token string) (*justification.ClientSignatureRequest, error) {
	var model models.ClientSignatureRequestModel
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&model).Error; err != nil {
		return nil, notFoundAs(err, shared.ErrSignatureRequestNotFound)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a request
func (r *GormSignatureRequestRepository) Save(ctx context.Context, request *justification.ClientSignatureRequest) error {
	model := models.ClientSignatureRequestModelFromDomain(request)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	request.ID = model.ID
	return nil
}

var (
	_ justification.SavingProductRepository    = (*GormSavingProductRepository)(nil)
	_ justification.ExistingProductRepository  = (*GormExistingProductRepository)(nil)
	_ justification.NewProductRepository       = (*GormNewProductRepository)(nil)
	_ justification.FormInstanceRepository     = (*GormFormInstanceRepository)(nil)
	_ justification.SignatureRequestRepository = (*GormSignatureRequestRepository)(nil)
)
