package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const userIDKey = "auth_user_id"

// AuthRequired resolves the authenticated identity. Authentication itself is
// an external collaborator; the trusted edge proxy forwards the identity in
// X-User-ID.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		id, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

func authenticatedUser(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
