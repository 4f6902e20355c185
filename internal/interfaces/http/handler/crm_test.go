package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	crmapp "github.com/advisory/backoffice/internal/application/crm"
	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClientService implements ClientService for testing
type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) List(ctx context.Context) ([]crmapp.ClientResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]crmapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) Get(ctx context.Context, id uint) (*crmapp.ClientResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crmapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) Create(ctx context.Context, req crmapp.CreateClientRequest) (*crmapp.ClientResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crmapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) Update(ctx context.Context, id uint, req crmapp.UpdateClientRequest) (*crmapp.ClientResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crmapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockClientService) ListBeneficiaries(ctx context.Context, clientID uint) ([]crmapp.BeneficiaryDTO, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]crmapp.BeneficiaryDTO), args.Error(1)
}

func (m *MockClientService) ReplaceBeneficiaries(ctx context.Context, clientID uint, req crmapp.ReplaceBeneficiariesRequest) ([]crmapp.BeneficiaryDTO, error) {
	args := m.Called(ctx, clientID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crmapp.BeneficiaryDTO), args.Error(1)
}

// MockSnapshotService implements SnapshotService for testing
type MockSnapshotService struct {
	mock.Mock
}

func (m *MockSnapshotService) ListForClient(ctx context.Context, clientID uint) ([]crmapp.SnapshotResponse, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]crmapp.SnapshotResponse), args.Error(1)
}

func (m *MockSnapshotService) Create(ctx context.Context, clientID uint, req crmapp.CreateSnapshotRequest) (*crmapp.SnapshotResponse, error) {
	args := m.Called(ctx, clientID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crmapp.SnapshotResponse), args.Error(1)
}

func (m *MockSnapshotService) Summary(ctx context.Context, month string) (*crmapp.SummaryResponse, error) {
	args := m.Called(ctx, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crmapp.SummaryResponse), args.Error(1)
}

func (m *MockSnapshotService) MonthlyChange(ctx context.Context) ([]crmapp.MonthlyChangePoint, error) {
	args := m.Called(ctx)
	return args.Get(0).([]crmapp.MonthlyChangePoint), args.Error(1)
}

func (m *MockSnapshotService) History(ctx context.Context, clientID uint) ([]crmapp.HistoryPoint, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]crmapp.HistoryPoint), args.Error(1)
}

func (m *MockSnapshotService) FundHistory(ctx context.Context, clientID uint, fundNumber string) ([]crmapp.FundHistoryPoint, error) {
	args := m.Called(ctx, clientID, fundNumber)
	return args.Get(0).([]crmapp.FundHistoryPoint), args.Error(1)
}

func (m *MockSnapshotService) ClientsSummary(ctx context.Context, month string) ([]crmapp.ClientSummaryItem, error) {
	args := m.Called(ctx, month)
	return args.Get(0).([]crmapp.ClientSummaryItem), args.Error(1)
}

// MockNoteService implements NoteService for testing
type MockNoteService struct {
	mock.Mock
}

func (m *MockNoteService) List(ctx context.Context, clientID uint) ([]crmapp.NoteResponse, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]crmapp.NoteResponse), args.Error(1)
}

func (m *MockNoteService) Create(ctx context.Context, clientID uint, req crmapp.CreateNoteRequest) (*crmapp.NoteResponse, error) {
	args := m.Called(ctx, clientID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crmapp.NoteResponse), args.Error(1)
}

func (m *MockNoteService) Dismiss(ctx context.Context, noteID uint) (*crmapp.NoteResponse, error) {
	args := m.Called(ctx, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crmapp.NoteResponse), args.Error(1)
}

func (m *MockNoteService) ClearReminder(ctx context.Context, noteID uint) (*crmapp.NoteResponse, error) {
	args := m.Called(ctx, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crmapp.NoteResponse), args.Error(1)
}

func (m *MockNoteService) Delete(ctx context.Context, noteID uint) error {
	return m.Called(ctx, noteID).Error(0)
}

func (m *MockNoteService) Reminders(ctx context.Context) ([]crmapp.ReminderResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]crmapp.ReminderResponse), args.Error(1)
}

// MockClientReporter implements ClientReporter for testing
type MockClientReporter struct {
	mock.Mock
}

func (m *MockClientReporter) ClientReport(ctx context.Context, clientID uint, month string) (*appshared.Document, error) {
	args := m.Called(ctx, clientID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appshared.Document), args.Error(1)
}

type crmFixture struct {
	clients   *MockClientService
	snapshots *MockSnapshotService
	notes     *MockNoteService
	reports   *MockClientReporter
	router    *gin.Engine
}

func newCRMFixture() *crmFixture {
	f := &crmFixture{
		clients:   new(MockClientService),
		snapshots: new(MockSnapshotService),
		notes:     new(MockNoteService),
		reports:   new(MockClientReporter),
	}
	h := NewCRMHandler(f.clients, f.snapshots, f.notes, f.reports)

	f.router = gin.New()
	g := f.router.Group("/api/v1/crm")
	g.GET("/clients", h.ListClients)
	g.POST("/clients", h.CreateClient)
	g.GET("/clients/:id", h.GetClient)
	g.PUT("/clients/:id", h.UpdateClient)
	g.DELETE("/clients/:id", h.DeleteClient)
	g.PUT("/clients/:id/beneficiaries", h.ReplaceBeneficiaries)
	g.POST("/clients/:id/snapshots", h.CreateSnapshot)
	g.GET("/clients/:id/report.pdf", h.ClientReport)
	g.GET("/summary", h.Summary)
	g.GET("/history", h.History)
	g.GET("/fund-history", h.FundHistory)
	g.POST("/clients/:id/notes", h.CreateNote)
	g.DELETE("/notes/:nid", h.DeleteNote)
	g.GET("/reminders", h.Reminders)
	return f
}

func (f *crmFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCRMHandler_GetClient(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newCRMFixture()
		f.clients.On("Get", mock.Anything, uint(5)).Return(&crmapp.ClientResponse{ID: 5, IDNumber: "12345678", FullName: "דנה כהן"}, nil)

		w := f.do(http.MethodGet, "/api/v1/crm/clients/5", "")

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "12345678", data["idNumber"])
		f.clients.AssertExpectations(t)
	})

	t.Run("missing client is 404", func(t *testing.T) {
		f := newCRMFixture()
		f.clients.On("Get", mock.Anything, uint(9)).Return(nil, shared.ErrClientNotFound)

		w := f.do(http.MethodGet, "/api/v1/crm/clients/9", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "CLIENT_NOT_FOUND", decodeResponse(t, w).Error.Code)
	})

	t.Run("non numeric id is 400", func(t *testing.T) {
		f := newCRMFixture()

		w := f.do(http.MethodGet, "/api/v1/crm/clients/abc", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.clients.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestCRMHandler_CreateClient(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newCRMFixture()
		f.clients.On("Create", mock.Anything, mock.MatchedBy(func(req crmapp.CreateClientRequest) bool {
			return req.IDNumber == "012345678" && req.FirstName != nil && *req.FirstName == "דנה"
		})).Return(&crmapp.ClientResponse{ID: 1, IDNumber: "12345678"}, nil)

		w := f.do(http.MethodPost, "/api/v1/crm/clients", `{"idNumber":"012345678","firstName":"דנה"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		f.clients.AssertExpectations(t)
	})

	t.Run("duplicate id is 409", func(t *testing.T) {
		f := newCRMFixture()
		f.clients.On("Create", mock.Anything, mock.Anything).Return(nil, shared.ErrDuplicateIDNumber)

		w := f.do(http.MethodPost, "/api/v1/crm/clients", `{"idNumber":"12345678"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "DUPLICATE_ID_NUMBER", decodeResponse(t, w).Error.Code)
	})

	t.Run("missing id number fails validation", func(t *testing.T) {
		f := newCRMFixture()

		w := f.do(http.MethodPost, "/api/v1/crm/clients", `{"fullName":"x"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.NotEmpty(t, resp.Error.Details)
		assert.Equal(t, "idNumber", resp.Error.Details[0].Field)
	})
}

func TestCRMHandler_UpdateAndDelete(t *testing.T) {
	f := newCRMFixture()
	f.clients.On("Update", mock.Anything, uint(3), mock.MatchedBy(func(req crmapp.UpdateClientRequest) bool {
		return req.Email != nil && *req.Email == "a@b.co" && req.Phone == nil
	})).Return(&crmapp.ClientResponse{ID: 3}, nil)
	f.clients.On("Delete", mock.Anything, uint(3)).Return(nil)

	w := f.do(http.MethodPut, "/api/v1/crm/clients/3", `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodDelete, "/api/v1/crm/clients/3", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	f.clients.AssertExpectations(t)
}

func TestCRMHandler_ReplaceBeneficiaries(t *testing.T) {
	t.Run("over 100 percent", func(t *testing.T) {
		f := newCRMFixture()
		f.clients.On("ReplaceBeneficiaries", mock.Anything, uint(2), mock.Anything).Return(nil, shared.ErrInvalidBeneficiaries)

		w := f.do(http.MethodPut, "/api/v1/crm/clients/2/beneficiaries",
			`{"beneficiaries":[{"index":1,"percentage":60},{"index":2,"percentage":60}]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_BENEFICIARIES", decodeResponse(t, w).Error.Code)
	})

	t.Run("slot index out of range fails validation", func(t *testing.T) {
		f := newCRMFixture()

		w := f.do(http.MethodPut, "/api/v1/crm/clients/2/beneficiaries", `{"beneficiaries":[{"index":5}]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
		f.clients.AssertNotCalled(t, "ReplaceBeneficiaries", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCRMHandler_CreateSnapshot_InvalidDate(t *testing.T) {
	f := newCRMFixture()

	w := f.do(http.MethodPost, "/api/v1/crm/clients/1/snapshots", `{"fundCode":"123","amount":"10.5","snapshotDate":"01/02/2024"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.NotEmpty(t, resp.Error.Details)
	assert.Equal(t, "snapshotDate", resp.Error.Details[0].Field)
}

func TestCRMHandler_Summary(t *testing.T) {
	t.Run("passes month through", func(t *testing.T) {
		f := newCRMFixture()
		month := "2024-03"
		f.snapshots.On("Summary", mock.Anything, "2024-03").Return(&crmapp.SummaryResponse{Month: &month, Total: 1500.25}, nil)

		w := f.do(http.MethodGet, "/api/v1/crm/summary?month=2024-03", "")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, 1500.25, data["total"])
	})

	t.Run("rejects malformed month", func(t *testing.T) {
		f := newCRMFixture()

		w := f.do(http.MethodGet, "/api/v1/crm/summary?month=March", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.snapshots.AssertNotCalled(t, "Summary", mock.Anything, mock.Anything)
	})
}

func TestCRMHandler_History(t *testing.T) {
	f := newCRMFixture()
	f.snapshots.On("History", mock.Anything, uint(0)).Return([]crmapp.HistoryPoint{{Month: "2024-01", Amount: 10}}, nil)
	f.snapshots.On("FundHistory", mock.Anything, uint(4), "778").Return([]crmapp.FundHistoryPoint{}, nil)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/crm/history", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/crm/history?client_id=x", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/crm/fund-history?client_id=4&fund_number=778", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/crm/fund-history?client_id=4", "").Code)

	f.snapshots.AssertExpectations(t)
}

func TestCRMHandler_Notes(t *testing.T) {
	f := newCRMFixture()
	f.notes.On("Create", mock.Anything, uint(1), crmapp.CreateNoteRequest{Note: "call back"}).
		Return(&crmapp.NoteResponse{ID: 8, ClientID: 1, Note: "call back"}, nil)
	f.notes.On("Delete", mock.Anything, uint(8)).Return(nil)
	f.notes.On("Reminders", mock.Anything).Return([]crmapp.ReminderResponse{}, nil)

	w := f.do(http.MethodPost, "/api/v1/crm/clients/1/notes", `{"note":"call back"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodDelete, "/api/v1/crm/notes/8", "")
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "ok", data["status"])

	w = f.do(http.MethodGet, "/api/v1/crm/reminders", "")
	assert.Equal(t, http.StatusOK, w.Code)

	f.notes.AssertExpectations(t)
}

func TestCRMHandler_ClientReport(t *testing.T) {
	t.Run("pdf", func(t *testing.T) {
		f := newCRMFixture()
		f.reports.On("ClientReport", mock.Anything, uint(2), "2024-05").Return(&appshared.Document{
			Content:     []byte("%PDF-1.7"),
			ContentType: appshared.ContentTypePDF,
			Filename:    "report_2.pdf",
		}, nil)

		w := f.do(http.MethodGet, "/api/v1/crm/clients/2/report.pdf?month=2024-05", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, appshared.ContentTypePDF, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "report_2.pdf")
	})

	t.Run("html fallback keeps its content type", func(t *testing.T) {
		f := newCRMFixture()
		f.reports.On("ClientReport", mock.Anything, uint(2), "").Return(&appshared.Document{
			Content:     []byte("<html></html>"),
			ContentType: appshared.ContentTypeHTML,
			Filename:    "report_2.html",
		}, nil)

		w := f.do(http.MethodGet, "/api/v1/crm/clients/2/report.pdf", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, appshared.ContentTypeHTML, w.Header().Get("Content-Type"))
	})

	t.Run("no rows", func(t *testing.T) {
		f := newCRMFixture()
		f.reports.On("ClientReport", mock.Anything, uint(2), "").Return(nil, shared.ErrDocumentNotFound)

		w := f.do(http.MethodGet, "/api/v1/crm/clients/2/report.pdf", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
