package justification

import "context"

// SavingProductRepository defines the interface for the market fund table
type SavingProductRepository interface {
	// FindAll lists saving products ordered by company and fund name
	FindAll(ctx context.Context) ([]SavingProduct, error)

	// FindByKey finds the row with the given (type, company, name, code) key
	FindByKey(ctx context.Context, key [4]string) (*SavingProduct, error)

	// Save creates or updates a saving product
	Save(ctx context.Context, product *SavingProduct) error

	// DeleteAll removes every row and returns the number removed
	DeleteAll(ctx context.Context) (int64, error)
}

// ExistingProductRepository defines the interface for existing product persistence
type ExistingProductRepository interface {
	// FindByID finds an existing product by its ID
	FindByID(ctx context.Context, id uint) (*ExistingProduct, error)

	// FindByClient lists a client's existing products ordered by company and fund name
	FindByClient(ctx context.Context, clientID uint) ([]ExistingProduct, error)

	// FindByPersonalNumber finds the product holding the given personal number
	FindByPersonalNumber(ctx context.Context, personalNumber string) (*ExistingProduct, error)

	// Save creates or updates an existing product
	Save(ctx context.Context, product *ExistingProduct) error

	// Delete removes an existing product together with its new products
	Delete(ctx context.Context, id uint) error

	// DeleteAll removes every row and returns the number removed
	DeleteAll(ctx context.Context) (int64, error)
}

// NewProductRepository defines the interface for new product persistence
type NewProductRepository interface {
	// FindByID finds a new product by its ID
	FindByID(ctx context.Context, id uint) (*NewProduct, error)

	// FindByClient lists a client's new products, newest first
	FindByClient(ctx context.Context, clientID uint) ([]NewProduct, error)

	// FindByPersonalNumber finds the product holding the given personal number
	FindByPersonalNumber(ctx context.Context, personalNumber string) (*NewProduct, error)

	// Save creates or updates a new product
	Save(ctx context.Context, product *NewProduct) error

	// Delete removes a new product together with its form instances
	Delete(ctx context.Context, id uint) error

	// DeleteAll removes every row and returns the number removed
	DeleteAll(ctx context.Context) (int64, error)
}

// FormInstanceRepository defines the interface for form instance persistence
type FormInstanceRepository interface {
	// FindByID finds a form instance by its ID
	FindByID(ctx context.Context, id uint) (*FormInstance, error)

	// FindByNewProduct lists a product's form instances, newest first
	FindByNewProduct(ctx context.Context, newProductID uint) ([]FormInstance, error)

	// Save creates or updates a form instance
	Save(ctx context.Context, form *FormInstance) error

	// Delete removes a form instance
	Delete(ctx context.Context, id uint) error

	// DeleteAll removes every row and returns the number removed
	DeleteAll(ctx context.Context) (int64, error)
}

// SignatureRequestRepository defines the interface for signing link persistence
type SignatureRequestRepository interface {
	// FindByToken finds a request by its URL token
	FindByToken(ctx context.Context, token string) (*ClientSignatureRequest, error)

	// Save creates or updates a request
	Save(ctx context.Context, request *ClientSignatureRequest) error
}
