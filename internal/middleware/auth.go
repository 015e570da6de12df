package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parsemybill/internal/domain"
	"parsemybill/internal/service"
)

const ContextKeySession = "session"

// AuthMiddleware returns Gin middleware that validates bearer tokens and
// injects the session. Every route behind it sees an authenticated caller;
// anonymous requests stop here.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		session, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeySession, session)
		c.Next()
	}
}

// GetSession returns the session injected by AuthMiddleware, or nil when the
// request is anonymous.
func GetSession(c *gin.Context) *domain.Session {
	v, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	session, ok := v.(*domain.Session)
	if !ok {
		return nil
	}
	return session
}
