// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/lo"
)

// Claims carried by access tokens issued by the identity service.
type Claims struct {
	IdentityID     int64    `json:"identity_id"`
	Roles          []string `json:"roles,omitempty"`
	SessionPurpose string   `json:"session_purpose"`
	jwt.RegisteredClaims
}

// HasRole checks if the claims contain a specific role
func (c *Claims) HasRole(role string) bool {
	return lo.Contains(c.Roles, role)
}

// HasAnyRole checks if the claims contain any of the given roles
func (c *Claims) HasAnyRole(roles ...string) bool {
	return lo.SomeBy(roles, c.HasRole)
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string, required bool) bool {
	if len(c.Audience) == 0 {
		return !required
	}
	return lo.Contains(c.Audience, audience)
}
