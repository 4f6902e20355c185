package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ok(c *gin.Context) { c.String(http.StatusOK, c.FullPath()) }

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouter_MountsGroupsUnderVersion(t *testing.T) {
	engine := gin.New()
	crm := NewDomainGroup("crm", "/crm").
		GET("/clients", ok).
		POST("/clients", ok).
		PUT("/clients/:id", ok).
		PATCH("/clients/:id", ok).
		DELETE("/clients/:id", ok)

	r := NewRouter(engine, WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.Prefix())
	routes := r.Register(crm).Setup()

	assert.Len(t, routes, 5)
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		w := serve(engine, method, "/api/v2/crm/clients/7")
		if method == http.MethodGet {
			assert.Equal(t, http.StatusNotFound, w.Code)
			continue
		}
		assert.Equal(t, http.StatusOK, w.Code, method)
		assert.Equal(t, "/api/v2/crm/clients/:id", w.Body.String())
	}
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/api/v2/crm/clients").Code)
}

func TestDomainGroup_MiddlewareScopedToGroup(t *testing.T) {
	engine := gin.New()
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }

	public := NewDomainGroup("justification", "/justification").GET("/saving-products", ok)
	sign := public.Group("client-sign", "/client-sign").Use(deny)
	sign.GET("/:token", ok)
	admin := NewDomainGroup("admin", "/admin").Use(deny).POST("/import-crm-excel", ok)

	NewRouter(engine).Register(public, admin).Setup()

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/justification/saving-products").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/justification/client-sign/abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodPost, "/api/v1/admin/import-crm-excel").Code)
}

func TestDomainGroup_Routes(t *testing.T) {
	g := NewDomainGroup("justification", "/justification")
	g.GET("/clients/:id/packet.pdf", ok)
	sign := g.Group("client-sign", "/client-sign")
	sign.GET("/:token", ok)
	sign.POST("/:token/submit", ok)
	g.Group("empty", "")

	assert.Equal(t, "justification", g.Name())
	require.Equal(t, []Route{
		{Group: "justification", Method: http.MethodGet, Path: "/justification/clients/:id/packet.pdf"},
		{Group: "justification", Method: http.MethodGet, Path: "/justification/client-sign/:token"},
		{Group: "justification", Method: http.MethodPost, Path: "/justification/client-sign/:token/submit"},
	}, g.Routes())
}

type staticRegistrar struct{}

func (staticRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", ok)
}

func TestRouter_PlainRegistrarNotListed(t *testing.T) {
	engine := gin.New()
	routes := NewRouter(engine).Register(staticRegistrar{}).Setup()

	assert.Empty(t, routes)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/ping").Code)
}

func TestJoinPaths(t *testing.T) {
	assert.Equal(t, "/crm", joinPaths("", "/crm"))
	assert.Equal(t, "/crm/clients", joinPaths("/crm", "clients"))
	assert.Equal(t, "/crm", joinPaths("/crm", ""))
	assert.Equal(t, "/crm/notes", joinPaths("/crm/", "/notes"))
}
