package handler

import (
	"context"

	importapp "github.com/advisory/backoffice/internal/application/import"
	legacyapp "github.com/advisory/backoffice/internal/application/legacy"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// Importer runs the spreadsheet and XML imports
type Importer interface {
	ImportCRM(ctx context.Context, input importapp.CRMImportInput) (*importapp.CRMImportResult, error)
	ImportGemelnet(ctx context.Context, data []byte) (*importapp.GemelnetImportResult, error)
	ImportLegacyClients(ctx context.Context, upload *importapp.Upload) (*importapp.LegacyClientsResult, error)
}

// LegacyMigrator moves data out of the legacy sqlite databases
type LegacyMigrator interface {
	MigrateMiniCRM(ctx context.Context) (*legacyapp.MiniCRMResult, error)
	MigrateJustification(ctx context.Context) (*legacyapp.JustificationResult, error)
	MigrateJustificationClients(ctx context.Context) (*legacyapp.ClientsResult, error)
	ClearCRMData(ctx context.Context) (*legacyapp.ClearCRMResult, error)
	ClearJustificationData(ctx context.Context) (*legacyapp.ClearJustificationResult, error)
}

// Imports bundles the three import services behind the Importer interface
type Imports struct {
	CRM           *importapp.CRMImportService
	Gemelnet      *importapp.GemelnetImportService
	LegacyClients *importapp.LegacyClientsImportService
}

// ImportCRM delegates to the CRM import service
func (i Imports) ImportCRM(ctx context.Context, input importapp.CRMImportInput) (*importapp.CRMImportResult, error) {
	return i.CRM.ImportCRM(ctx, input)
}

// ImportGemelnet delegates to the Gemelnet import service
func (i Imports) ImportGemelnet(ctx context.Context, data []byte) (*importapp.GemelnetImportResult, error) {
	return i.Gemelnet.ImportGemelnet(ctx, data)
}

// ImportLegacyClients delegates to the Clients.xlsx back-fill service
func (i Imports) ImportLegacyClients(ctx context.Context, upload *importapp.Upload) (*importapp.LegacyClientsResult, error) {
	return i.LegacyClients.ImportLegacyClients(ctx, upload)
}

// AdminHandler handles imports, legacy migrations and data wipes
type AdminHandler struct {
	BaseHandler
	importer Importer
	migrator LegacyMigrator
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(importer Importer, migrator LegacyMigrator) *AdminHandler {
	return &AdminHandler{
		importer: importer,
		migrator: migrator,
	}
}

// ImportCRMExcel godoc
// @ID           importCrmExcel
// @Summary      Import provider balances
// @Description  Imports an .xlsx or .csv balance report as snapshots dated the 1st of snapshot_month
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Spreadsheet (.xlsx or .csv)"
// @Param        snapshot_month formData string true "YYYY-MM or YYYY-MM-DD"
// @Param        company_code formData string false "Provider code (inferred from the filename when empty)"
// @Success      200 {object} APIResponse[importapp.CRMImportResult]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/import-crm-excel [post]
func (h *AdminHandler) ImportCRMExcel(c *gin.Context) {
	header, data, err := readUpload(c, "file")
	if err != nil {
		h.uploadError(c, err, shared.ErrEmptyUpload)
		return
	}

	result, err := h.importer.ImportCRM(c.Request.Context(), importapp.CRMImportInput{
		Filename:      header.Filename,
		Data:          data,
		SnapshotMonth: c.PostForm("snapshot_month"),
		CompanyCode:   c.PostForm("company_code"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ImportGemelnetXML godoc
// @ID           importGemelnetXml
// @Summary      Import the market fund table
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Gemel-net XML export"
// @Success      200 {object} APIResponse[importapp.GemelnetImportResult]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/import-gemelnet-xml [post]
func (h *AdminHandler) ImportGemelnetXML(c *gin.Context) {
	_, data, err := readUpload(c, "file")
	if err != nil {
		h.uploadError(c, err, shared.ErrEmptyUpload)
		return
	}

	result, err := h.importer.ImportGemelnet(c.Request.Context(), data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// MigrateLegacyCRMClients godoc
// @ID           migrateLegacyCrmClients
// @Summary      Back-fill clients from Clients.xlsx
// @Description  Uses the uploaded file, or the configured legacy path when no file is sent. Never creates clients.
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file false "Clients.xlsx"
// @Success      200 {object} APIResponse[importapp.LegacyClientsResult]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/migrate-legacy-crm-clients [post]
func (h *AdminHandler) MigrateLegacyCRMClients(c *gin.Context) {
	var upload *importapp.Upload
	if header, data, err := readUpload(c, "file"); err == nil {
		upload = &importapp.Upload{Filename: header.Filename, Data: data}
	}

	result, err := h.importer.ImportLegacyClients(c.Request.Context(), upload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// MigrateMiniCRM godoc
// @ID           migrateMiniCrm
// @Summary      Migrate the legacy mini CRM
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[legacyapp.MiniCRMResult]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/migrate-mini-crm [post]
func (h *AdminHandler) MigrateMiniCRM(c *gin.Context) {
	result, err := h.migrator.MigrateMiniCRM(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// MigrateJustification godoc
// @ID           migrateJustification
// @Summary      Migrate the legacy justification database
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[legacyapp.JustificationResult]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/migrate-justification [post]
func (h *AdminHandler) MigrateJustification(c *gin.Context) {
	result, err := h.migrator.MigrateJustification(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// MigrateJustificationClients godoc
// @ID           migrateJustificationClients
// @Summary      Back-fill clients from the justification database
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[legacyapp.ClientsResult]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/migrate-justification-clients [post]
func (h *AdminHandler) MigrateJustificationClients(c *gin.Context) {
	result, err := h.migrator.MigrateJustificationClients(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ClearCRMData godoc
// @ID           clearCrmData
// @Summary      Delete all snapshots and notes
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[legacyapp.ClearCRMResult]
// @Security     BearerAuth
// @Router       /admin/clear-crm-data [delete]
func (h *AdminHandler) ClearCRMData(c *gin.Context) {
	result, err := h.migrator.ClearCRMData(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ClearJustificationData godoc
// @ID           clearJustificationData
// @Summary      Delete all products and form instances
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[legacyapp.ClearJustificationResult]
// @Security     BearerAuth
// @Router       /admin/clear-justification-data [delete]
func (h *AdminHandler) ClearJustificationData(c *gin.Context) {
	result, err := h.migrator.ClearJustificationData(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
