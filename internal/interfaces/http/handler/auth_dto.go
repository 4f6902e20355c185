package handler

import "time"

// LoginRequest represents the request body for administrator login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=128"`
}

// TokenResponse represents the issued access token
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type" example:"Bearer"`
	Username    string    `json:"username"`
}

// LogoutResponse represents the logout acknowledgement
type LogoutResponse struct {
	Message string `json:"message"`
}

// CurrentSessionResponse describes the authenticated administrator
type CurrentSessionResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}
