package justification

import (
	"context"
	"sort"
	"sync"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockClientRepository is a mock implementation of ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, id uint) (*client.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Client), args.Error(1)
}

func (m *MockClientRepository) FindByIDNumber(ctx context.Context, idNumber string) (*client.Client, error) {
	args := m.Called(ctx, idNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Client), args.Error(1)
}

func (m *MockClientRepository) FindAll(ctx context.Context) ([]client.Client, error) {
	args := m.Called(ctx)
	return args.Get(0).([]client.Client), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, c *client.Client) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

// MockSnapshotRepository is a mock implementation of SnapshotRepository
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) FindByClient(ctx context.Context, clientID uint) ([]crm.Snapshot, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]crm.Snapshot), args.Error(1)
}

func (m *MockSnapshotRepository) FindActive(ctx context.Context) ([]crm.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).([]crm.Snapshot), args.Error(1)
}

func (m *MockSnapshotRepository) FindActiveByClient(ctx context.Context, clientID uint) ([]crm.Snapshot, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]crm.Snapshot), args.Error(1)
}

func (m *MockSnapshotRepository) FindByClientAndFund(ctx context.Context, clientID uint, fundNumber string) ([]crm.Snapshot, error) {
	args := m.Called(ctx, clientID, fundNumber)
	return args.Get(0).([]crm.Snapshot), args.Error(1)
}

func (m *MockSnapshotRepository) FindByKey(ctx context.Context, key crm.SnapshotKey) (*crm.Snapshot, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Snapshot), args.Error(1)
}

func (m *MockSnapshotRepository) Save(ctx context.Context, snapshot *crm.Snapshot) error {
	return m.Called(ctx, snapshot).Error(0)
}

func (m *MockSnapshotRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockSavingProductRepository is a mock implementation of SavingProductRepository
type MockSavingProductRepository struct {
	mock.Mock
}

func (m *MockSavingProductRepository) FindAll(ctx context.Context) ([]justification.SavingProduct, error) {
	args := m.Called(ctx)
	return args.Get(0).([]justification.SavingProduct), args.Error(1)
}

func (m *MockSavingProductRepository) FindByKey(ctx context.Context, key [4]string) (*justification.SavingProduct, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*justification.SavingProduct), args.Error(1)
}

func (m *MockSavingProductRepository) Save(ctx context.Context, p *justification.SavingProduct) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockSavingProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockExistingProductRepository is a mock implementation of ExistingProductRepository
type MockExistingProductRepository struct {
	mock.Mock
}

func (m *MockExistingProductRepository) FindByID(ctx context.Context, id uint) (*justification.ExistingProduct, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*justification.ExistingProduct), args.Error(1)
}

func (m *MockExistingProductRepository) FindByClient(ctx context.Context, clientID uint) ([]justification.ExistingProduct, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]justification.ExistingProduct), args.Error(1)
}

func (m *MockExistingProductRepository) FindByPersonalNumber(ctx context.Context, personalNumber string) (*justification.ExistingProduct, error) {
	args := m.Called(ctx, personalNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*justification.ExistingProduct), args.Error(1)
}

func (m *MockExistingProductRepository) Save(ctx context.Context, p *justification.ExistingProduct) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockExistingProductRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockExistingProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockNewProductRepository is a mock implementation of NewProductRepository
type MockNewProductRepository struct {
	mock.Mock
}

func (m *MockNewProductRepository) FindByID(ctx context.Context, id uint) (*justification.NewProduct, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*justification.NewProduct), args.Error(1)
}

func (m *MockNewProductRepository) FindByClient(ctx context.Context, clientID uint) ([]justification.NewProduct, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]justification.NewProduct), args.Error(1)
}

func (m *MockNewProductRepository) FindByPersonalNumber(ctx context.Context, personalNumber string) (*justification.NewProduct, error) {
	args := m.Called(ctx, personalNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*justification.NewProduct), args.Error(1)
}

func (m *MockNewProductRepository) Save(ctx context.Context, p *justification.NewProduct) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockNewProductRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockNewProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockFormInstanceRepository is a mock implementation of FormInstanceRepository
type MockFormInstanceRepository struct {
	mock.Mock
}

func (m *MockFormInstanceRepository) FindByID(ctx context.Context, id uint) (*justification.FormInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*justification.FormInstance), args.Error(1)
}

func (m *MockFormInstanceRepository) FindByNewProduct(ctx context.Context, newProductID uint) ([]justification.FormInstance, error) {
	args := m.Called(ctx, newProductID)
	return args.Get(0).([]justification.FormInstance), args.Error(1)
}

func (m *MockFormInstanceRepository) Save(ctx context.Context, f *justification.FormInstance) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockFormInstanceRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockFormInstanceRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockSignatureRequestRepository is a mock implementation of SignatureRequestRepository
type MockSignatureRequestRepository struct {
	mock.Mock
}

func (m *MockSignatureRequestRepository) FindByToken(ctx context.Context, token string) (*justification.ClientSignatureRequest, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*justification.ClientSignatureRequest), args.Error(1)
}

func (m *MockSignatureRequestRepository) Save(ctx context.Context, r *justification.ClientSignatureRequest) error {
	return m.Called(ctx, r).Error(0)
}

// =============================================================================
// Mock Renderers
// =============================================================================

// MockHTMLRenderer is a mock implementation of HTMLRenderer
type MockHTMLRenderer struct {
	mock.Mock
}

func (m *MockHTMLRenderer) RenderHTML(ctx context.Context, name string, data any) ([]byte, error) {
	args := m.Called(ctx, name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockPDFRenderer is a mock implementation of PDFRenderer
type MockPDFRenderer struct {
	mock.Mock
}

func (m *MockPDFRenderer) RenderPDF(ctx context.Context, html []byte, title string) ([]byte, error) {
	args := m.Called(ctx, html, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockPDFToolkit is a mock implementation of PDFToolkit
type MockPDFToolkit struct {
	mock.Mock
}

func (m *MockPDFToolkit) bytesResult(args mock.Arguments) ([]byte, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPDFToolkit) Merge(ctx context.Context, parts [][]byte) ([]byte, error) {
	return m.bytesResult(m.Called(ctx, parts))
}

func (m *MockPDFToolkit) PageCount(ctx context.Context, pdf []byte) (int, error) {
	args := m.Called(ctx, pdf)
	return args.Int(0), args.Error(1)
}

func (m *MockPDFToolkit) RemovePages(ctx context.Context, pdf []byte, pages []int) ([]byte, error) {
	return m.bytesResult(m.Called(ctx, pdf, pages))
}

func (m *MockPDFToolkit) FillForm(ctx context.Context, template []byte, values map[string]string) ([]byte, error) {
	return m.bytesResult(m.Called(ctx, template, values))
}

func (m *MockPDFToolkit) Overlay(ctx context.Context, pdf []byte, opts appshared.OverlayOptions) ([]byte, error) {
	return m.bytesResult(m.Called(ctx, pdf, opts))
}

func (m *MockPDFToolkit) StampSignatureFields(ctx context.Context, pdf []byte, signature []byte) ([]byte, error) {
	return m.bytesResult(m.Called(ctx, pdf, signature))
}

// =============================================================================
// In-memory document store
// =============================================================================

type memoryStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: map[string][]byte{}}
}

func (s *memoryStore) Read(_ context.Context, folder, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[folder+"/"+name]
	if !ok {
		return nil, shared.ErrDocumentNotFound
	}
	return data, nil
}

func (s *memoryStore) Write(_ context.Context, folder, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[folder+"/"+name] = data
	return nil
}

func (s *memoryStore) Exists(_ context.Context, folder, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[folder+"/"+name]
	return ok, nil
}

func (s *memoryStore) Delete(_ context.Context, folder, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, folder+"/"+name)
	return nil
}

func (s *memoryStore) put(folder, name, content string) {
	s.files[folder+"/"+name] = []byte(content)
}

func (s *memoryStore) get(folder, name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[folder+"/"+name]
	return string(data), ok
}

func (s *memoryStore) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for k := range s.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// Fixtures
// =============================================================================

type testRepos struct {
	clients   *MockClientRepository
	snapshots *MockSnapshotRepository
	saving    *MockSavingProductRepository
	existing  *MockExistingProductRepository
	newProds  *MockNewProductRepository
	forms     *MockFormInstanceRepository
	signs     *MockSignatureRequestRepository
}

func newTestRepos() (*testRepos, *appshared.Repositories) {
	r := &testRepos{
		clients:   new(MockClientRepository),
		snapshots: new(MockSnapshotRepository),
		saving:    new(MockSavingProductRepository),
		existing:  new(MockExistingProductRepository),
		newProds:  new(MockNewProductRepository),
		forms:     new(MockFormInstanceRepository),
		signs:     new(MockSignatureRequestRepository),
	}
	return r, &appshared.Repositories{
		ClientRepo:           r.clients,
		SnapshotRepo:         r.snapshots,
		SavingProductRepo:    r.saving,
		ExistingProductRepo:  r.existing,
		NewProductRepo:       r.newProds,
		FormInstanceRepo:     r.forms,
		SignatureRequestRepo: r.signs,
	}
}

func newTestClient(id uint, first, last, idNumber string) *client.Client {
	return &client.Client{
		ID:        id,
		FirstName: client.StringPtr(first),
		LastName:  client.StringPtr(last),
		FullName:  first + " " + last,
		IDNumber:  client.StringPtr(idNumber),
		BirthDate: client.PlaceholderBirthDate,
	}
}

func floatPtr(v float64) *float64 { return &v }

func uintPtr(v uint) *uint { return &v }

func int64Ptr(v int64) *int64 { return &v }
