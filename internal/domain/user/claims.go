package user

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of an access token.
// TenantID is omitted for platform admins, who act outside any tenant.
type TokenClaims struct {
	TenantID int64  `json:"tid,omitempty"`
	Email    string `json:"email"`
	Roles    Roles  `json:"roles"`
	jwt.RegisteredClaims
}
