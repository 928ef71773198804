package token

import (
	"github.com/golang-jwt/jwt/v4"
)

// TokenTypeAccess is the only token_type accepted for request
// authentication; refresh tokens are rejected here
const TokenTypeAccess = "access"

// Claims represents the decoded claims of a bearer token issued by the
// identity provider
type Claims struct {
	TokenType string   `json:"token_type,omitempty"`
	Login     string   `json:"login,omitempty"`
	Email     string   `json:"email,omitempty"`
	Name      string   `json:"name,omitempty"`
	Role      string   `json:"role,omitempty"`
	Scopes    []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// Valid intentionally performs no validation. Claim checks run in a fixed
// order with distinct error kinds after signature verification; the
// library's built-in validation would short-circuit with its own error
// shapes and its own ordering.
func (c *Claims) Valid() error {
	return nil
}

// HasAudience reports whether the audience claim contains the expected
// value exactly
func (c *Claims) HasAudience(expected string) bool {
	for _, aud := range c.Audience {
		if aud == expected {
			return true
		}
	}
	return false
}
