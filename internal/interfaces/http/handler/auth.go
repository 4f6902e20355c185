package handler

import (
	"context"

	"github.com/advisory/backoffice/internal/application/identity"
	"github.com/advisory/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthService is the administrator login API
type AuthService interface {
	Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login godoc
// @ID           login
// @Summary      Administrator login
// @Description  Checks the configured admin credentials and issues an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} APIResponse[TokenResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Username: req.Username,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, TokenResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
		TokenType:   result.TokenType,
		Username:    result.Username,
	})
}

// Logout godoc
// @ID           logout
// @Summary      Administrator logout
// @Description  Revokes the bearer token for the rest of its lifetime
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[LogoutResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}

// Me godoc
// @ID           getCurrentSession
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[CurrentSessionResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	h.Success(c, CurrentSessionResponse{
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt,
	})
}
