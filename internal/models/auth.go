package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the caller roles recognised by the API.
type UserRole string

const (
	RoleCustomer UserRole = "CUSTOMER"
	RoleWorkshop UserRole = "WORKSHOP"
	RoleAdmin    UserRole = "ADMIN"
)

// JWTClaims represents the JWT payload for access tokens. Tokens are minted
// by the identity service; this API only validates them.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	ProfileID string   `json:"profile_id,omitempty"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
