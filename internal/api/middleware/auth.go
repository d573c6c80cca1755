// server/internal/api/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"care-referral-api-server/internal/auth"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authenticate and read by handlers.
const (
	CtxStaffID    = "user_staff_id"
	CtxRole       = "user_role"
	CtxFacilityID = "user_facility_id"
)

// Authenticate validates the bearer token and puts the caller's identity,
// role and home facility into the request context.
func Authenticate(signer *auth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := signer.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(CtxStaffID, claims.StaffID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxFacilityID, claims.FacilityID)

		c.Next()
	}
}

// Authorize is a middleware factory checking the caller's role against an
// allow list. Authenticate must run first.
func Authorize(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoleInterface, exists := c.Get(CtxRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "User role not found in context"})
			return
		}

		userRole, ok := userRoleInterface.(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "User role has an invalid type"})
			return
		}

		for _, role := range allowedRoles {
			if role == userRole {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
	}
}
