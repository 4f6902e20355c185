package handler

import (
	"github.com/advisory/backoffice/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// CRMRoutes declares the /crm route group
func CRMRoutes(h *CRMHandler) *router.DomainGroup {
	g := router.NewDomainGroup("crm", "/crm")

	g.GET("/clients", h.ListClients)
	g.POST("/clients", h.CreateClient)
	g.GET("/clients/:id", h.GetClient)
	g.PUT("/clients/:id", h.UpdateClient)
	g.DELETE("/clients/:id", h.DeleteClient)
	g.GET("/clients/:id/beneficiaries", h.ListBeneficiaries)
	g.PUT("/clients/:id/beneficiaries", h.ReplaceBeneficiaries)
	g.GET("/clients/:id/snapshots", h.ListSnapshots)
	g.POST("/clients/:id/snapshots", h.CreateSnapshot)
	g.GET("/clients/:id/notes", h.ListNotes)
	g.POST("/clients/:id/notes", h.CreateNote)
	g.GET("/clients/:id/report.pdf", h.ClientReport)

	g.POST("/notes/:nid/dismiss", h.DismissNote)
	g.POST("/notes/:nid/clear-reminder", h.ClearNoteReminder)
	g.DELETE("/notes/:nid", h.DeleteNote)
	g.GET("/reminders", h.Reminders)

	// Analytics
	g.GET("/summary", h.Summary)
	g.GET("/monthly-change", h.MonthlyChange)
	g.GET("/history", h.History)
	g.GET("/fund-history", h.FundHistory)
	g.GET("/clients-summary", h.ClientsSummary)

	return g
}

// JustificationRoutes declares the /justification route group. signLimit,
// when set, guards the public client-sign routes.
func JustificationRoutes(h *JustificationHandler, signLimit gin.HandlerFunc) *router.DomainGroup {
	g := router.NewDomainGroup("justification", "/justification")

	g.GET("/saving-products", h.ListSavingProducts)
	g.GET("/clients/:id/existing-products", h.ListExistingProducts)
	g.POST("/clients/:id/existing-products", h.CreateExistingProduct)
	g.PATCH("/existing-products/:id", h.UpdateExistingProduct)
	g.DELETE("/existing-products/:id", h.DeleteExistingProduct)
	g.GET("/clients/:id/new-products", h.ListNewProducts)
	g.POST("/clients/:id/new-products", h.CreateNewProduct)
	g.DELETE("/new-products/:id", h.DeleteNewProduct)
	g.GET("/new-products/:id/form-instances", h.ListFormInstances)
	g.POST("/new-products/:id/form-instances", h.CreateFormInstance)
	g.DELETE("/form-instances/:id", h.DeleteFormInstance)

	// Documents
	g.GET("/clients/:id/advice.html", h.AdviceHTML)
	g.GET("/clients/:id/advice.pdf", h.AdvicePDF)
	g.POST("/clients/:id/advice-overlay.pdf", h.AdviceOverlay)
	g.GET("/clients/:id/b1.pdf", h.B1PDF)
	g.POST("/clients/:id/b1-overlay.pdf", h.B1Overlay)
	g.POST("/clients/:id/b1-upload", h.UploadB1)
	g.GET("/clients/:id/new-products/:npid/kit.pdf", h.KitPDF)
	g.POST("/clients/:id/new-products/:npid/kit-overlay.pdf", h.KitOverlay)
	g.POST("/clients/:id/new-products/:npid/kit-upload", h.UploadKit)
	g.GET("/clients/:id/packet.pdf", h.PacketPDF)
	g.POST("/clients/:id/packet-upload", h.UploadPacket)
	g.POST("/clients/:id/packet-trim", h.TrimPacket)
	g.GET("/clients/:id/packet-signed-client.pdf", h.SignedPacket)
	g.POST("/clients/:id/packet-sign-request", h.CreateSignRequest)

	sign := g.Group("client-sign", "/client-sign")
	if signLimit != nil {
		sign.Use(signLimit)
	}
	sign.GET("/:token", h.SignPage)
	sign.GET("/:token/packet.pdf", h.SignPacket)
	sign.POST("/:token/submit", h.SubmitSignature)

	return g
}

// AdminRoutes declares the /admin route group. guard is nil when admin
// auth is disabled.
func AdminRoutes(h *AdminHandler, guard gin.HandlerFunc) *router.DomainGroup {
	g := router.NewDomainGroup("admin", "/admin")
	if guard != nil {
		g.Use(guard)
	}

	g.POST("/import-crm-excel", h.ImportCRMExcel)
	g.POST("/import-gemelnet-xml", h.ImportGemelnetXML)
	g.POST("/migrate-legacy-crm-clients", h.MigrateLegacyCRMClients)
	g.POST("/migrate-mini-crm", h.MigrateMiniCRM)
	g.POST("/migrate-justification", h.MigrateJustification)
	g.POST("/migrate-justification-clients", h.MigrateJustificationClients)
	g.DELETE("/clear-crm-data", h.ClearCRMData)
	g.DELETE("/clear-justification-data", h.ClearJustificationData)

	return g
}

// AuthRoutes declares the /auth route group. Login is throttled by
// loginLimit; logout and me require a valid session.
func AuthRoutes(h *AuthHandler, loginLimit, session gin.HandlerFunc) *router.DomainGroup {
	g := router.NewDomainGroup("auth", "/auth")

	login := []gin.HandlerFunc{h.Login}
	if loginLimit != nil {
		login = append([]gin.HandlerFunc{loginLimit}, login...)
	}
	g.POST("/login", login...)

	g.POST("/logout", session, h.Logout)
	g.GET("/me", session, h.Me)

	return g
}

// SystemRoutes declares the /system route group
func SystemRoutes(h *SystemHandler) *router.DomainGroup {
	g := router.NewDomainGroup("system", "/system")
	g.GET("/info", h.GetSystemInfo)
	return g
}
