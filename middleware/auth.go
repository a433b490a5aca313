package middleware

import (
	"net/http"
	"strings"

	"slotbook/utils"

	"github.com/gin-gonic/gin"
)

const (
	// ContextActorID and ContextActorRole are set on the request context by the
	// auth middleware; handlers read the acting party from them.
	ContextActorID   = "actorID"
	ContextActorRole = "actorRole"
)

// JWTAuthActor validates the bearer token and requires the given role
// ("customer" or "provider"). An empty requiredRole accepts either.
func JWTAuthActor(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		actorID, role, err := utils.ExtractActorFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}
		if requiredRole != "" && role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Wrong actor role for this action"})
			return
		}

		c.Set(ContextActorID, actorID)
		c.Set(ContextActorRole, role)
		c.Next()
	}
}
