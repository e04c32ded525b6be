package model

import "github.com/golang-jwt/jwt/v5"

// User is the authenticated caller, as seen by the core. Ownership
// stamping on jobs is the only thing this layer needs from auth.
type User struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Name     string `json:"name,omitempty"`
}

// UserClaims is the JWT payload for API tokens.
type UserClaims struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
	jwt.RegisteredClaims
}

// LoginResponse is returned by the login endpoint.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
}
