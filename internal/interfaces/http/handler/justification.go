package handler

import (
	"context"

	justapp "github.com/advisory/backoffice/internal/application/justification"
	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// ProductService is the product catalogue API used by the justification handler
type ProductService interface {
	ListSavingProducts(ctx context.Context) ([]justapp.SavingProductResponse, error)
	ListExistingProducts(ctx context.Context, clientID uint) ([]justapp.ExistingProductResponse, error)
	CreateExistingProduct(ctx context.Context, clientID uint, req justapp.CreateExistingProductRequest) (*justapp.ExistingProductResponse, error)
	UpdateExistingProduct(ctx context.Context, id uint, req justapp.UpdateExistingProductRequest) (*justapp.ExistingProductResponse, error)
	DeleteExistingProduct(ctx context.Context, id uint) error
	ListNewProducts(ctx context.Context, clientID uint) ([]justapp.NewProductResponse, error)
	CreateNewProduct(ctx context.Context, clientID uint, req justapp.CreateNewProductRequest) (*justapp.NewProductResponse, error)
	DeleteNewProduct(ctx context.Context, id uint) error
	ListFormInstances(ctx context.Context, newProductID uint) ([]justapp.FormInstanceResponse, error)
	CreateFormInstance(ctx context.Context, newProductID uint, req justapp.CreateFormInstanceRequest) (*justapp.FormInstanceResponse, error)
	DeleteFormInstance(ctx context.Context, id uint) error
}

// DocumentService generates and serves the advice, B1, kit and packet PDFs
type DocumentService interface {
	AdviceHTML(ctx context.Context, clientID uint) (*appshared.Document, error)
	AdvicePDF(ctx context.Context, clientID uint, generate bool) (*appshared.Document, error)
	AdviceOverlay(ctx context.Context, clientID uint, req justapp.OverlayRequest) (*appshared.Document, error)
	B1PDF(ctx context.Context, clientID uint, generate bool) (*appshared.Document, error)
	B1Overlay(ctx context.Context, clientID uint, req justapp.OverlayRequest) (*appshared.Document, error)
	UploadB1(ctx context.Context, clientID uint, contentType string, data []byte) (*justapp.UploadResponse, error)
	KitPDF(ctx context.Context, clientID, newProductID uint, generate bool) (*appshared.Document, error)
	KitOverlay(ctx context.Context, clientID, newProductID uint, req justapp.OverlayRequest) (*appshared.Document, error)
	UploadKit(ctx context.Context, clientID, newProductID uint, contentType string, data []byte) (*justapp.UploadResponse, error)
	PacketPDF(ctx context.Context, clientID uint, generate bool) (*appshared.Document, error)
	UploadPacket(ctx context.Context, clientID uint, contentType string, data []byte) (*justapp.UploadResponse, error)
	TrimPacket(ctx context.Context, clientID uint, pages []int) (*justapp.TrimPacketResponse, error)
	SignedPacket(ctx context.Context, clientID uint) (*appshared.Document, error)
}

// SigningService runs the remote client-signature flow
type SigningService interface {
	CreateSignRequest(ctx context.Context, clientID uint) (*justapp.SignRequestResponse, error)
	SignPage(ctx context.Context, token string) (*appshared.Document, error)
	SignPacket(ctx context.Context, token string) (*appshared.Document, error)
	Submit(ctx context.Context, token string, in justapp.SubmitSignatureRequest) (*justapp.SubmitSignatureResponse, error)
}

// JustificationHandler handles the justification tool endpoints
type JustificationHandler struct {
	BaseHandler
	products  ProductService
	documents DocumentService
	signing   SigningService
}

// NewJustificationHandler creates a new JustificationHandler
func NewJustificationHandler(products ProductService, documents DocumentService, signing SigningService) *JustificationHandler {
	return &JustificationHandler{
		products:  products,
		documents: documents,
		signing:   signing,
	}
}

// ListSavingProducts godoc
// @ID           listSavingProducts
// @Summary      List market funds
// @Description  Saving products ordered by company and name
// @Tags         justification
// @Produce      json
// @Success      200 {object} APIResponse[[]justapp.SavingProductResponse]
// @Router       /justification/saving-products [get]
func (h *JustificationHandler) ListSavingProducts(c *gin.Context) {
	items, err := h.products.ListSavingProducts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ListExistingProducts godoc
// @ID           listExistingProducts
// @Summary      List existing products
// @Description  Persisted products merged with virtual products derived from CRM snapshots (isVirtual, negative ids)
// @Tags         justification
// @Produce      json
// @Param        id path int true "Client ID"
// @Success      200 {object} APIResponse[[]justapp.ExistingProductResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/existing-products [get]
func (h *JustificationHandler) ListExistingProducts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	items, err := h.products.ListExistingProducts(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// CreateExistingProduct godoc
// @ID           createExistingProduct
// @Summary      Create existing product
// @Tags         justification
// @Accept       json
// @Produce      json
// @Param        id path int true "Client ID"
// @Param        request body justapp.CreateExistingProductRequest true "Product"
// @Success      201 {object} APIResponse[justapp.ExistingProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /justification/clients/{id}/existing-products [post]
func (h *JustificationHandler) CreateExistingProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req justapp.CreateExistingProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.products.CreateExistingProduct(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// UpdateExistingProduct godoc
// @ID           updateExistingProduct
// @Summary      Update existing product
// @Tags         justification
// @Accept       json
// @Produce      json
// @Param        id path int true "Existing product ID"
// @Param        request body justapp.UpdateExistingProductRequest true "Fields to change"
// @Success      200 {object} APIResponse[justapp.ExistingProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /justification/existing-products/{id} [patch]
func (h *JustificationHandler) UpdateExistingProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req justapp.UpdateExistingProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.products.UpdateExistingProduct(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// DeleteExistingProduct godoc
// @ID           deleteExistingProduct
// @Summary      Delete existing product
// @Tags         justification
// @Param        id path int true "Existing product ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /justification/existing-products/{id} [delete]
func (h *JustificationHandler) DeleteExistingProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	if err := h.products.DeleteExistingProduct(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListNewProducts godoc
// @ID           listNewProducts
// @Summary      List proposed products
// @Tags         justification
// @Produce      json
// @Param        id path int true "Client ID"
// @Success      200 {object} APIResponse[[]justapp.NewProductResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/new-products [get]
func (h *JustificationHandler) ListNewProducts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	items, err := h.products.ListNewProducts(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// CreateNewProduct godoc
// @ID           createNewProduct
// @Summary      Create proposed product
// @Description  A negative existingProductId materializes the matching virtual product first
// @Tags         justification
// @Accept       json
// @Produce      json
// @Param        id path int true "Client ID"
// @Param        request body justapp.CreateNewProductRequest true "Product"
// @Success      201 {object} APIResponse[justapp.NewProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/new-products [post]
func (h *JustificationHandler) CreateNewProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req justapp.CreateNewProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.products.CreateNewProduct(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// DeleteNewProduct godoc
// @ID           deleteNewProduct
// @Summary      Delete proposed product
// @Tags         justification
// @Param        id path int true "New product ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /justification/new-products/{id} [delete]
func (h *JustificationHandler) DeleteNewProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	if err := h.products.DeleteNewProduct(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListFormInstances godoc
// @ID           listFormInstances
// @Summary      List generated forms
// @Tags         justification
// @Produce      json
// @Param        id path int true "New product ID"
// @Success      200 {object} APIResponse[[]justapp.FormInstanceResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /justification/new-products/{id}/form-instances [get]
func (h *JustificationHandler) ListFormInstances(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	items, err := h.products.ListFormInstances(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// CreateFormInstance godoc
// @ID           createFormInstance
// @Summary      Record a generated form
// @Tags         justification
// @Accept       json
// @Produce      json
// @Param        id path int true "New product ID"
// @Param        request body justapp.CreateFormInstanceRequest true "Form instance"
// @Success      201 {object} APIResponse[justapp.FormInstanceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /justification/new-products/{id}/form-instances [post]
func (h *JustificationHandler) CreateFormInstance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req justapp.CreateFormInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	form, err := h.products.CreateFormInstance(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, form)
}

// DeleteFormInstance godoc
// @ID           deleteFormInstance
// @Summary      Delete form instance
// @Tags         justification
// @Param        id path int true "Form instance ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /justification/form-instances/{id} [delete]
func (h *JustificationHandler) DeleteFormInstance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid form instance ID")
		return
	}

	if err := h.products.DeleteFormInstance(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AdviceHTML godoc
// @ID           getAdviceHtml
// @Summary      Advice report (HTML)
// @Tags         justification-documents
// @Produce      text/html
// @Param        id path int true "Client ID"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/advice.html [get]
func (h *JustificationHandler) AdviceHTML(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	doc, err := h.documents.AdviceHTML(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Document(c, doc)
}

// AdvicePDF godoc
// @ID           getAdvicePdf
// @Summary      Advice report (PDF)
// @Description  generate=true renders and stores a fresh copy; otherwise the stored copy is served
// @Tags         justification-documents
// @Produce      application/pdf,text/html
// @Param        id path int true "Client ID"
// @Param        generate query bool false "Render a new copy"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/advice.pdf [get]
func (h *JustificationHandler) AdvicePDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	doc, err := h.documents.AdvicePDF(c.Request.Context(), id, queryBool(c, "generate"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Document(c, doc)
}

// AdviceOverlay godoc
// @ID           stampAdvicePdf
// @Summary      Stamp the advice report
// @Description  Adds free text and the advisor signature to the last page
// @Tags         justification-documents
// @Accept       json
// @Produce      application/pdf
// @Param        id path int true "Client ID"
// @Param        request body justapp.OverlayRequest true "Overlay"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/advice-overlay.pdf [post]
func (h *JustificationHandler) AdviceOverlay(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req justapp.OverlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.documents.AdviceOverlay(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Document(c, doc)
}

// B1PDF godoc
// @ID           getB1Pdf
// @Summary      Power of attorney (B1)
// @Description  generate=true fills the B1 form; otherwise the edited or stored copy is served
// @Tags         justification-documents
// @Produce      application/pdf
// @Param        id path int true "Client ID"
// @Param        generate query bool false "Fill a new copy"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/b1.pdf [get]
func (h *JustificationHandler) B1PDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	doc, err := h.documents.B1PDF(c.Request.Context(), id, queryBool(c, "generate"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Document(c, doc)
}

// B1Overlay godoc
// @ID           stampB1Pdf
// @Summary      Stamp the B1 form
// @Tags         justification-documents
// @Accept       json
// @Produce      application/pdf
// @Param        id path int true "Client ID"
// @Param        request body justapp.OverlayRequest true "Overlay"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/b1-overlay.pdf [post]
func (h *JustificationHandler) B1Overlay(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req justapp.OverlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.documents.B1Overlay(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Document(c, doc)
}

// UploadB1 godoc
// @ID           uploadB1Pdf
// @Summary      Upload an edited B1
// @Tags         justification-documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path int true "Client ID"
// @Param        file formData file true "PDF"
// @Success      200 {object} APIResponse[justapp.UploadResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /justification/clients/{id}/b1-upload [post]
func (h *JustificationHandler) UploadB1(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	contentType, data, ok := h.pdfUpload(c)
	if !ok {
		return
	}

	resp, err := h.documents.UploadB1(c.Request.Context(), id, contentType, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// KitPDF godoc
// @ID           getKitPdf
// @Summary      Product-switch kit
// @Tags         justification-documents
// @Produce      application/pdf
// @Param        id path int true "Client ID"
// @Param        npid path int true "New product ID"
// @Param        generate query bool false "Fill a new copy"
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/new-products/{npid}/kit.pdf [get]
func (h *JustificationHandler) KitPDF(c *gin.Context) {
	clientID, productID, ok := h.kitParams(c)
	if !ok {
		return
	}

	doc, err := h.documents.KitPDF(c.Request.Context(), clientID, productID, queryBool(c, "generate"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Document(c, doc)
}

// KitOverlay godoc
// @ID           stampKitPdf
// @Summary      Stamp a kit
// @Tags         justification-documents
// @Accept       json
// @Produce      application/pdf
// @Param        id path int true "Client ID"
// @Param        npid path int true "New product ID"
// @Param        request body justapp.OverlayRequest true "Overlay"
// @Success      200 {file} binary
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/new-products/{npid}/kit-overlay.pdf [post]
func (h *JustificationHandler) KitOverlay(c *gin.Context) {
	clientID, productID, ok := h.kitParams(c)
	if !ok {
		return
	}

	var req justapp.OverlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.documents.KitOverlay(c.Request.Context(), clientID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Document(c, doc)
}

// UploadKit godoc
// @ID           uploadKitPdf
// @Summary      Upload an edited kit
// @Tags         justification-documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path int true "Client ID"
// @Param        npid path int true "New product ID"
// @Param        file formData file true "PDF"
// @Success      200 {object} APIResponse[justapp.UploadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /justification/clients/{id}/new-products/{npid}/kit-upload [post]
func (h *JustificationHandler) UploadKit(c *gin.Context) {
	clientID, productID, ok := h.kitParams(c)
	if !ok {
		return
	}

	contentType, data, ok := h.pdfUpload(c)
	if !ok {
		return
	}

	resp, err := h.documents.UploadKit(c.Request.Context(), clientID, productID, contentType, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PacketPDF godoc
// @ID           getPacketPdf
// @Summary      Client packet
// @Description  Advice report, B1 and kits merged into one PDF
// @Tags         justification-documents
// @Produce      application/pdf
// @Param        id path int true "Client ID"
// @Param        generate query bool false "Rebuild the packet"
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/packet.pdf [get]
func (h *JustificationHandler) PacketPDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	doc, err := h.documents.PacketPDF(c.Request.Context(), id, queryBool(c, "generate"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Document(c, doc)
}

// UploadPacket godoc
// @ID           uploadPacketPdf
// @Summary      Upload an edited packet
// @Tags         justification-documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path int true "Client ID"
// @Param        file formData file true "PDF"
// @Success      200 {object} APIResponse[justapp.UploadResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /justification/clients/{id}/packet-upload [post]
func (h *JustificationHandler) UploadPacket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	contentType, data, ok := h.pdfUpload(c)
	if !ok {
		return
	}

	resp, err := h.documents.UploadPacket(c.Request.Context(), id, contentType, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// TrimPacket godoc
// @ID           trimPacketPdf
// @Summary      Remove packet pages
// @Description  Drops 1-based pages from the packet and stores the edited copy
// @Tags         justification-documents
// @Accept       json
// @Produce      json
// @Param        id path int true "Client ID"
// @Param        request body justapp.TrimPacketRequest true "Pages"
// @Success      200 {object} APIResponse[justapp.TrimPacketResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/packet-trim [post]
func (h *JustificationHandler) TrimPacket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	var req justapp.TrimPacketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.documents.TrimPacket(c.Request.Context(), id, req.PagesToRemove)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SignedPacket godoc
// @ID           getSignedPacketPdf
// @Summary      Client-signed packet
// @Tags         justification-documents
// @Produce      application/pdf
// @Param        id path int true "Client ID"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/packet-signed-client.pdf [get]
func (h *JustificationHandler) SignedPacket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	doc, err := h.documents.SignedPacket(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Document(c, doc)
}

// CreateSignRequest godoc
// @ID           createPacketSignRequest
// @Summary      Create a signing link
// @Tags         justification-signing
// @Produce      json
// @Param        id path int true "Client ID"
// @Success      200 {object} APIResponse[justapp.SignRequestResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /justification/clients/{id}/packet-sign-request [post]
func (h *JustificationHandler) CreateSignRequest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	resp, err := h.signing.CreateSignRequest(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SignPage godoc
// @ID           getClientSignPage
// @Summary      Client signing page
// @Tags         justification-signing
// @Produce      text/html
// @Param        token path string true "Signing token"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Failure      410 {object} ErrorResponse
// @Router       /justification/client-sign/{token} [get]
func (h *JustificationHandler) SignPage(c *gin.Context) {
	doc, err := h.signing.SignPage(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Document(c, doc)
}

// SignPacket godoc
// @ID           getClientSignPacket
// @Summary      Packet being signed
// @Tags         justification-signing
// @Produce      application/pdf
// @Param        token path string true "Signing token"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Failure      410 {object} ErrorResponse
// @Router       /justification/client-sign/{token}/packet.pdf [get]
func (h *JustificationHandler) SignPacket(c *gin.Context) {
	doc, err := h.signing.SignPacket(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Document(c, doc)
}

// SubmitSignature godoc
// @ID           submitClientSignature
// @Summary      Submit the client signature
// @Tags         justification-signing
// @Accept       json
// @Produce      json
// @Param        token path string true "Signing token"
// @Param        request body justapp.SubmitSignatureRequest true "Signature"
// @Success      200 {object} APIResponse[justapp.SubmitSignatureResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      410 {object} ErrorResponse
// @Router       /justification/client-sign/{token}/submit [post]
func (h *JustificationHandler) SubmitSignature(c *gin.Context) {
	var req justapp.SubmitSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.signing.Submit(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *JustificationHandler) kitParams(c *gin.Context) (uint, uint, bool) {
	clientID, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid client ID")
		return 0, 0, false
	}
	productID, ok := parseID(c, "npid")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return 0, 0, false
	}
	return clientID, productID, true
}

// pdfUpload reads the "file" part; the content type is checked by the service
func (h *JustificationHandler) pdfUpload(c *gin.Context) (string, []byte, bool) {
	header, data, err := readUpload(c, "file")
	if err != nil {
		h.uploadError(c, err, errFileFieldRequired)
		return "", nil, false
	}
	if len(data) == 0 {
		h.HandleError(c, shared.ErrEmptyUpload)
		return "", nil, false
	}
	return uploadContentType(header, data), data, true
}
