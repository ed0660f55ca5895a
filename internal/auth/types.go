// Package auth provides single-operator JWT authentication for the API:
// bcrypt-checked login, short-lived access tokens, rotated refresh tokens,
// and the gin middleware that guards protected routes.
package auth

import (
	"time"
)

// OperatorClaims represents the JWT claims for the operator
type OperatorClaims struct {
	Username string `json:"username"`
}

// TokenPair represents an access and refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access token expiry in seconds
	TokenType    string `json:"token_type"` // Always "Bearer"
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Config holds authentication configuration
type Config struct {
	// JWT settings
	JWTSecret            string        `json:"jwt_secret"`
	AccessTokenDuration  time.Duration `json:"access_token_duration"`
	RefreshTokenDuration time.Duration `json:"refresh_token_duration"`

	// Operator credentials. PasswordHash takes precedence; a plaintext
	// Password is hashed at startup for development setups.
	Username     string `json:"username"`
	Password     string `json:"-"`
	PasswordHash string `json:"-"`

	// Session settings
	MaxSessions int `json:"max_sessions"`
}

// DefaultConfig returns default authentication configuration
func DefaultConfig() Config {
	return Config{
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		MaxSessions:          5,
	}
}

func (c Config) withDefaults() Config {
	if c.AccessTokenDuration <= 0 {
		c.AccessTokenDuration = 15 * time.Minute
	}
	if c.RefreshTokenDuration <= 0 {
		c.RefreshTokenDuration = 7 * 24 * time.Hour
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 5
	}
	return c
}

// AuthError is a coded authentication error
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e AuthError) Error() string {
	return e.Message
}

// Common authentication errors
var (
	ErrInvalidCredentials = AuthError{Code: "INVALID_CREDENTIALS", Message: "invalid username or password"}
	ErrInvalidToken       = AuthError{Code: "INVALID_TOKEN", Message: "invalid or expired token"}
	ErrTokenExpired       = AuthError{Code: "TOKEN_EXPIRED", Message: "token has expired"}
	ErrUnauthorized       = AuthError{Code: "UNAUTHORIZED", Message: "unauthorized access"}
	ErrWeakPassword       = AuthError{Code: "WEAK_PASSWORD", Message: "password does not meet requirements"}
)
