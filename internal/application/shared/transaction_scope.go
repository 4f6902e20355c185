// Package shared holds application-layer contracts used by more than one
// bounded context.
package shared

import (
	"context"

	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/advisory/backoffice/internal/domain/justification"
)

// TransactionScope defines an interface for executing operations within a transaction.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	Clients() client.ClientRepository
	Notes() client.NoteRepository
	Beneficiaries() client.BeneficiaryRepository
	Snapshots() crm.SnapshotRepository
	SavingProducts() justification.SavingProductRepository
	ExistingProducts() justification.ExistingProductRepository
	NewProducts() justification.NewProductRepository
	FormInstances() justification.FormInstanceRepository
	SignatureRequests() justification.SignatureRequestRepository
}

// Repositories is a plain bundle of repositories.
type Repositories struct {
	ClientRepo           client.ClientRepository
	NoteRepo             client.NoteRepository
	BeneficiaryRepo      client.BeneficiaryRepository
	SnapshotRepo         crm.SnapshotRepository
	SavingProductRepo    justification.SavingProductRepository
	ExistingProductRepo  justification.ExistingProductRepository
	NewProductRepo       justification.NewProductRepository
	FormInstanceRepo     justification.FormInstanceRepository
	SignatureRequestRepo justification.SignatureRequestRepository
}

// Clients returns the ClientRepo
func (r *Repositories) Clients() client.ClientRepository {
	return r.ClientRepo
}

// Notes returns the NoteRepo
func (r *Repositories) Notes() client.NoteRepository {
	return r.NoteRepo
}

// Beneficiaries returns the BeneficiaryRepo
func (r *Repositories) Beneficiaries() client.BeneficiaryRepository {
	return r.BeneficiaryRepo
}

// Snapshots returns the SnapshotRepo
func (r *Repositories) Snapshots() crm.SnapshotRepository {
	return r.SnapshotRepo
}

// SavingProducts returns the SavingProductRepo
func (r *Repositories) SavingProducts() justification.SavingProductRepository {
	return r.SavingProductRepo
}

// ExistingProducts returns the ExistingProductRepo
func (r *Repositories) ExistingProducts() justification.ExistingProductRepository {
	return r.ExistingProductRepo
}

// NewProducts returns the NewProductRepo
func (r *Repositories) NewProducts() justification.NewProductRepository {
	return r.NewProductRepo
}

// FormInstances returns the FormInstanceRepo
func (r *Repositories) FormInstances() justification.FormInstanceRepository {
	return r.FormInstanceRepo
}

// SignatureRequests returns the SignatureRequestRepo
func (r *Repositories) SignatureRequests() justification.SignatureRequestRepository {
	return r.SignatureRequestRepo
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos *Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(repos *Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*Repositories)(nil)
