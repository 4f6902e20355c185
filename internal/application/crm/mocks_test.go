package crm

import (
	"context"
	"strings"
	"sync"

	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/crm"
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
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockNoteRepository is a mock implementation of NoteRepository
type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) FindByID(ctx context.Context, id uint) (*client.ClientNote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.ClientNote), args.Error(1)
}

func (m *MockNoteRepository) FindByClient(ctx context.Context, clientID uint) ([]client.ClientNote, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]client.ClientNote), args.Error(1)
}

func (m *MockNoteRepository) FindPendingReminders(ctx context.Context) ([]client.ClientNote, error) {
	args := m.Called(ctx)
	return args.Get(0).([]client.ClientNote), args.Error(1)
}

func (m *MockNoteRepository) Save(ctx context.Context, note *client.ClientNote) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockNoteRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNoteRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockBeneficiaryRepository is a mock implementation of BeneficiaryRepository
type MockBeneficiaryRepository struct {
	mock.Mock
}

func (m *MockBeneficiaryRepository) FindByClient(ctx context.Context, clientID uint) ([]client.ClientBeneficiary, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]client.ClientBeneficiary), args.Error(1)
}

func (m *MockBeneficiaryRepository) ReplaceForClient(ctx context.Context, clientID uint, items []client.ClientBeneficiary) error {
	args := m.Called(ctx, clientID, items)
	return args.Error(0)
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
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
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

// memoryCache is a map-backed ReportCache
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memoryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
