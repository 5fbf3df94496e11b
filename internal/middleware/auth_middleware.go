// internal/middleware/auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"dairy-subscription-service/internal/pkg/jwt"
	"dairy-subscription-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// TokenVerifier checks access tokens issued by the identity service.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

type AuthMiddleware struct {
	verifier  TokenVerifier
	adminRole string
}

func NewAuthMiddleware(verifier TokenVerifier, adminRole string) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:  verifier,
		adminRole: adminRole,
	}
}

// Auth is the base authentication middleware that validates JWT tokens
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		// Set user context
		c.Set("identity_id", claims.IdentityID)
		c.Set("jti", claims.ID)
		c.Set("roles", claims.Roles)

		c.Next()
	}
}

// RequireRole middleware that requires user to have at least one of the specified roles
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			response.Error(c, http.StatusForbidden, "no roles found - authentication required", nil)
			return
		}

		if !lo.SomeBy(roles, func(role string) bool { return HasRole(c, role) }) {
			response.Error(c, http.StatusForbidden, "insufficient permissions", nil, map[string]interface{}{
				"required_roles": roles,
			})
			return
		}

		c.Next()
	}
}

// AdminOnly returns middlewares for operator routes (Auth + RequireRole)
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole(m.adminRole),
	}
}

// extractToken extracts Bearer token from Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// GetIdentityID returns the authenticated customer's identity ID.
func GetIdentityID(c *gin.Context) (int64, bool) {
	identityID, exists := c.Get("identity_id")
	if !exists {
		return 0, false
	}

	id, ok := identityID.(int64)
	return id, ok
}

// HasRole reports whether the authenticated user carries role.
func HasRole(c *gin.Context, role string) bool {
	return lo.Contains(GetRoles(c), role)
}
