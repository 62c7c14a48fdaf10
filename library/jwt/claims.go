package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims is the payload carried by access tokens
type UserClaims struct {
	jwt.RegisteredClaims
	// UserID numeric user id
	UserID int64 `json:"uid"`
	// Role role name at the time the token was issued
	Role string `json:"role"`
}
