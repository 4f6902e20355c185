package persistence

import (
	"context"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/advisory/backoffice/internal/domain/justification"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appshared.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Clients() client.ClientRepository {
	return NewGormClientRepository(r.tx)
}

func (r *gormTransactionalRepositories) Notes() client.NoteRepository {
	return NewGormNoteRepository(r.tx)
}

func (r *gormTransactionalRepositories) Beneficiaries() client.BeneficiaryRepository {
	return NewGormBeneficiaryRepository(r.tx)
}

func (r *gormTransactionalRepositories) Snapshots() crm.SnapshotRepository {
	return NewGormSnapshotRepository(r.tx)
}

func (r *gormTransactionalRepositories) SavingProducts() justification.SavingProductRepository {
	return NewGormSavingProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) ExistingProducts() justification.ExistingProductRepository {
	return NewGormExistingProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) NewProducts() justification.NewProductRepository {
	return NewGormNewProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) FormInstances() justification.FormInstanceRepository {
	return NewGormFormInstanceRepository(r.tx)
}

func (r *gormTransactionalRepositories) SignatureRequests() justification.SignatureRequestRepository {
	return NewGormSignatureRequestRepository(r.tx)
}

// Repositories builds the non-transactional repository bundle over db
func Repositories(db *gorm.DB) *appshared.Repositories {
	return &appshared.Repositories{
		ClientRepo:           NewGormClientRepository(db),
		NoteRepo:             NewGormNoteRepository(db),
		BeneficiaryRepo:      NewGormBeneficiaryRepository(db),
		SnapshotRepo:         NewGormSnapshotRepository(db),
		SavingProductRepo:    NewGormSavingProductRepository(db),
		ExistingProductRepo:  NewGormExistingProductRepository(db),
		NewProductRepo:       NewGormNewProductRepository(db),
		FormInstanceRepo:     NewGormFormInstanceRepository(db),
		SignatureRequestRepo: NewGormSignatureRequestRepository(db),
	}
}

// Ensure GormTransactionScope implements TransactionScope
var _ appshared.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appshared.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
