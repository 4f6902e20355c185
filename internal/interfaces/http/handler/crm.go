package handler

import (
	"context"
	"strconv"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	crmapp "github.com/advisory/backoffice/internal/application/crm"
	"github.com/advisory/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ClientService is the client and beneficiary API used by the CRM handler
type ClientService interface {
	List(ctx context.Context) ([]crmapp.ClientResponse, error)
	Get(ctx context.Context, id uint) (*crmapp.ClientResponse, error)
	Create(ctx context.Context, req crmapp.CreateClientRequest) (*crmapp.ClientResponse, error)
	Update(ctx context.Context, id uint, req crmapp.UpdateClientRequest) (*crmapp.ClientResponse, error)
	Delete(ctx context.Context, id uint) error
	ListBeneficiaries(ctx context.Context, clientID uint) ([]crmapp.BeneficiaryDTO, error)
	ReplaceBeneficiaries(ctx context.Context, clientID uint, req crmapp.ReplaceBeneficiariesRequest) ([]crmapp.BeneficiaryDTO, error)
}

// SnapshotService is the snapshot and analytics API used by the CRM handler
type SnapshotService interface {
	ListForClient(ctx context.Context, clientID uint) ([]crmapp.SnapshotResponse, error)
	Create(ctx context.Context, clientID uint, req crmapp.CreateSnapshotRequest) (*crmapp.SnapshotResponse, error)
	Summary(ctx context.Context, month string) (*crmapp.SummaryResponse, error)
	MonthlyChange(ctx context.Context) ([]crmapp.MonthlyChangePoint, error)
	History(ctx context.Context, clientID uint) ([]crmapp.HistoryPoint, error)
	FundHistory(ctx context.Context, clientID uint, fundNumber string) ([]crmapp.FundHistoryPoint, error)
	ClientsSummary(ctx context.Context, month string) ([]crmapp.ClientSummaryItem, error)
}

// NoteService is the notes and reminders API used by the CRM handler
type NoteService interface {
	List(ctx context.Context, clientID uint) ([]crmapp.NoteResponse, error)
	Create(ctx context.Context, clientID uint, req crmapp.CreateNoteRequest) (*crmapp.NoteResponse, error)
	Dismiss(ctx context.Context, noteID uint) (*crmapp.NoteResponse, error)
	ClearReminder(ctx context.Context, noteID uint) (*crmapp.NoteResponse, error)
	Delete(ctx context.Context, noteID uint) error
	Reminders(ctx context.Context) ([]crmapp.ReminderResponse, error)
}

// ClientReporter renders the per-client holdings report
type ClientReporter interface {
	ClientReport(ctx context.Context, clientID uint, month string) (*appshared.Document, error)
}

// CRMHandler handles the mini-CRM endpoints
type CRMHandler struct {
	BaseHandler
	clients   ClientService
	snapshots SnapshotService
	notes     NoteService
	reports   ClientReporter
}

// NewCRMHandler creates a new CRMHandler
func NewCRMHandler(clients ClientService, snapshots SnapshotService, notes NoteService, reports ClientReporter) *CRMHandler {
	return &CRMHandler{
		clients:   clients,
		snapshots: snapshots,
		notes:     notes,
		reports:   reports,
	}
}

// monthQuery is the optional ?month= filter of the analytics endpoints
type monthQuery struct {
	Month string `form:"month" binding:"omitempty,yearmonth"`
}

// ListClients godoc
// @ID           listCrmClients
// @Summary      List clients
// @Description  Returns every client ordered by id
// @Tags         crm
// @Produce      json
// @Success      200 {object} APIResponse[[]crmapp.ClientResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /crm/clients [get]
func (h *CRMHandler) ListClients(c *gin.Context) {
	clients, err := h.clients.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, clients)
}

// GetClient godoc
// @ID           getCrmClient
// @Summary      Get client
// @Tags         crm
// @Produce      json
// @Param        id path int true "Client ID"
// @Success      200 {object} APIResponse[crmapp.ClientResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /crm/clients/{id} [get]
func (h *CRMHandler) GetClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	client, err := h.clients.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// CreateClient godoc
// @ID           createCrmClient
// @Summary      Create client
// @Description  Creates a client; the national ID is normalized and must be unique
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        request body crmapp.CreateClientRequest true "Client"
// @Success      201 {object} APIResponse[crmapp.ClientResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /crm/clients [post]
func (h *CRMHandler) CreateClient(c *gin.Context) {
	var req crmapp.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	client, err := h.clients.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, client)
}

// UpdateClient godoc
// @ID           updateCrmClient
// @Summary      Update client
// @Description  Partial update; only provided fields change
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id path int true "Client ID"
// @Param        request body crmapp.UpdateClientRequest true "Fields to change"
// @Success      200 {object} APIResponse[crmapp.ClientResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /crm/clients/{id} [put]
func (h *CRMHandler) UpdateClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req crmapp.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	client, err := h.clients.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// DeleteClient godoc
// @ID           deleteCrmClient
// @Summary      Delete client
// @Description  Deletes the client with its snapshots, notes, beneficiaries, products and signature requests
// @Tags         crm
// @Param        id path int true "Client ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /crm/clients/{id} [delete]
func (h *CRMHandler) DeleteClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	if err := h.clients.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListBeneficiaries godoc
// @ID           listCrmBeneficiaries
// @Summary      List beneficiaries
// @Tags         crm
// @Produce      json
// @Param        id path int true "Client ID"
// @Success      200 {object} APIResponse[[]crmapp.BeneficiaryDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /crm/clients/{id}/beneficiaries [get]
func (h *CRMHandler) ListBeneficiaries(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	items, err := h.clients.ListBeneficiaries(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ReplaceBeneficiaries godoc
// @ID           replaceCrmBeneficiaries
// @Summary      Replace beneficiaries
// @Description  Replaces the whole set (up to 4, percentages summing to at most 100)
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id path int true "Client ID"
// @Param        request body crmapp.ReplaceBeneficiariesRequest true "Beneficiaries"
// @Success      200 {object} APIResponse[[]crmapp.BeneficiaryDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /crm/clients/{id}/beneficiaries [put]
func (h *CRMHandler) ReplaceBeneficiaries(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req crmapp.ReplaceBeneficiariesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	items, err := h.clients.ReplaceBeneficiaries(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ListSnapshots godoc
// @ID           listCrmSnapshots
// @Summary      List client snapshots
// @Description  Newest snapshot date first
// @Tags         crm
// @Produce      json
// @Param        id path int true "Client ID"
// @Success      200 {object} APIResponse[[]crmapp.SnapshotResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /crm/clients/{id}/snapshots [get]
func (h *CRMHandler) ListSnapshots(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	items, err := h.snapshots.ListForClient(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// CreateSnapshot godoc
// @ID           createCrmSnapshot
// @Summary      Create snapshot
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id path int true "Client ID"
// @Param        request body crmapp.CreateSnapshotRequest true "Snapshot"
// @Success      201 {object} APIResponse[crmapp.SnapshotResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /crm/clients/{id}/snapshots [post]
func (h *CRMHandler) CreateSnapshot(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req crmapp.CreateSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	snapshot, err := h.snapshots.Create(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, snapshot)
}

// Summary godoc
// @ID           getCrmSummary
// @Summary      Portfolio summary
// @Description  Totals by source and by fund type for a month (latest month by default)
// @Tags         crm
// @Produce      json
// @Param        month query string false "Month (YYYY-MM)"
// @Success      200 {object} APIResponse[crmapp.SummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /crm/summary [get]
func (h *CRMHandler) Summary(c *gin.Context) {
	var q monthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	summary, err := h.snapshots.Summary(c.Request.Context(), q.Month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// MonthlyChange godoc
// @ID           getCrmMonthlyChange
// @Summary      Month-over-month totals
// @Tags         crm
// @Produce      json
// @Success      200 {object} APIResponse[[]crmapp.MonthlyChangePoint]
// @Router       /crm/monthly-change [get]
func (h *CRMHandler) MonthlyChange(c *gin.Context) {
	points, err := h.snapshots.MonthlyChange(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, points)
}

// History godoc
// @ID           getCrmHistory
// @Summary      Balance history
// @Description  Totals per month; client_id 0 or missing means all clients
// @Tags         crm
// @Produce      json
// @Param        client_id query int false "Client ID"
// @Success      200 {object} APIResponse[[]crmapp.HistoryPoint]
// @Failure      400 {object} ErrorResponse
// @Router       /crm/history [get]
func (h *CRMHandler) History(c *gin.Context) {
	clientID, ok := optionalUintQuery(c, "client_id")
	if !ok {
		h.BadRequest(c, "Invalid client_id")
		return
	}

	points, err := h.snapshots.History(c.Request.Context(), clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, points)
}

// FundHistory godoc
// @ID           getCrmFundHistory
// @Summary      Single fund history
// @Tags         crm
// @Produce      json
// @Param        client_id query int true "Client ID"
// @Param        fund_number query string true "Fund number"
// @Success      200 {object} APIResponse[[]crmapp.FundHistoryPoint]
// @Failure      400 {object} ErrorResponse
// @Router       /crm/fund-history [get]
func (h *CRMHandler) FundHistory(c *gin.Context) {
	clientID, ok := optionalUintQuery(c, "client_id")
	if !ok || clientID == 0 {
		h.BadRequest(c, "client_id is required")
		return
	}
	fundNumber := c.Query("fund_number")
	if fundNumber == "" {
		h.BadRequest(c, "fund_number is required")
		return
	}

	points, err := h.snapshots.FundHistory(c.Request.Context(), clientID, fundNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, points)
}

// ClientsSummary godoc
// @ID           getCrmClientsSummary
// @Summary      Per-client totals
// @Tags         crm
// @Produce      json
// @Param        month query string false "Month (YYYY-MM)"
// @Success      200 {object} APIResponse[[]crmapp.ClientSummaryItem]
// @Failure      400 {object} ErrorResponse
// @Router       /crm/clients-summary [get]
func (h *CRMHandler) ClientsSummary(c *gin.Context) {
	var q monthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	items, err := h.snapshots.ClientsSummary(c.Request.Context(), q.Month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ListNotes godoc
// @ID           listCrmNotes
// @Summary      List client notes
// @Tags         crm
// @Produce      json
// @Param        id path int true "Client ID"
// @Success      200 {object} APIResponse[[]crmapp.NoteResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /crm/clients/{id}/notes [get]
func (h *CRMHandler) ListNotes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	notes, err := h.notes.List(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, notes)
}

// CreateNote godoc
// @ID           createCrmNote
// @Summary      Create note
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id path int true "Client ID"
// @Param        request body crmapp.CreateNoteRequest true "Note"
// @Success      201 {object} APIResponse[crmapp.NoteResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /crm/clients/{id}/notes [post]
func (h *CRMHandler) CreateNote(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req crmapp.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	note, err := h.notes.Create(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, note)
}

// DismissNote godoc
// @ID           dismissCrmNote
// @Summary      Dismiss note reminder
// @Tags         crm
// @Produce      json
// @Param        nid path int true "Note ID"
// @Success      200 {object} APIResponse[crmapp.NoteResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /crm/notes/{nid}/dismiss [post]
func (h *CRMHandler) DismissNote(c *gin.Context) {
	id, ok := parseID(c, "nid")
	if !ok {
		h.BadRequest(c, "Invalid note ID")
		return
	}

	note, err := h.notes.Dismiss(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, note)
}

// ClearNoteReminder godoc
// @ID           clearCrmNoteReminder
// @Summary      Clear note reminder
// @Tags         crm
// @Produce      json
// @Param        nid path int true "Note ID"
// @Success      200 {object} APIResponse[crmapp.NoteResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /crm/notes/{nid}/clear-reminder [post]
func (h *CRMHandler) ClearNoteReminder(c *gin.Context) {
	id, ok := parseID(c, "nid")
	if !ok {
		h.BadRequest(c, "Invalid note ID")
		return
	}

	note, err := h.notes.ClearReminder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, note)
}

// DeleteNote godoc
// @ID           deleteCrmNote
// @Summary      Delete note
// @Tags         crm
// @Produce      json
// @Param        nid path int true "Note ID"
// @Success      200 {object} APIResponse[dto.StatusResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /crm/notes/{nid} [delete]
func (h *CRMHandler) DeleteNote(c *gin.Context) {
	id, ok := parseID(c, "nid")
	if !ok {
		h.BadRequest(c, "Invalid note ID")
		return
	}

	if err := h.notes.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.StatusResponse{Status: "ok"})
}

// Reminders godoc
// @ID           listCrmReminders
// @Summary      Due reminders
// @Description  Notes whose reminder date has passed and that were not dismissed
// @Tags         crm
// @Produce      json
// @Success      200 {object} APIResponse[[]crmapp.ReminderResponse]
// @Router       /crm/reminders [get]
func (h *CRMHandler) Reminders(c *gin.Context) {
	items, err := h.notes.Reminders(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ClientReport godoc
// @ID           getCrmClientReport
// @Summary      Client holdings report
// @Description  PDF report of the client's holdings; falls back to HTML when PDF rendering is unavailable
// @Tags         crm
// @Produce      application/pdf,text/html
// @Param        id path int true "Client ID"
// @Param        month query string false "Month (YYYY-MM)"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Router       /crm/clients/{id}/report.pdf [get]
func (h *CRMHandler) ClientReport(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}
	var q monthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.reports.ClientReport(c.Request.Context(), id, q.Month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Document(c, doc)
}

// optionalUintQuery parses a non-negative integer query value; missing is 0
func optionalUintQuery(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
