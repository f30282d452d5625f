package auth

import "time"

// ScopeMenuAdmin allows every item write and the admin listings.
const ScopeMenuAdmin = "menu:admin"

// AdminClaims are the decrypted contents of an admin token.
type AdminClaims struct {
	Scope string `json:"scope"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}
