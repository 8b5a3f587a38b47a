package models

import "github.com/golang-jwt/jwt/v5"

// Role is issued by the upstream auth service and carried in the bearer
// token; this service only checks it.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RolePhotographer Role = "PHOTOGRAPHER"
	RoleParent       Role = "PARENT"
)

// JWTClaims are the claims this service consumes from access tokens.
type JWTClaims struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
