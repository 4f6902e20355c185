package identity

import "time"

// LoginInput contains the input for administrator login
type LoginInput struct {
	Username string
	Password string
	IP       string // client IP, logged with failed attempts
}

// LoginResult contains the issued access token
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	TokenType   string
	Username    string
}

// Session is the validated identity behind an access token
type Session struct {
	Username  string
	TokenID   string
	ExpiresAt time.Time
}
