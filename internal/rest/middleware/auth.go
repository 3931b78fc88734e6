package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academypay/academypay/internal/types"
)

// UserContextMiddleware resolves the acting user from the gateway-injected
// X-User-ID header and puts it on the request context. The edge gateway has
// already authenticated the session; this service only needs the identity.
func UserContextMiddleware(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		c.Abort()
		return
	}

	c.Request = c.Request.WithContext(types.SetUserID(c.Request.Context(), userID))
	c.Next()
}
