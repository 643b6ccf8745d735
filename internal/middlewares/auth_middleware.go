package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/solacecare/counselcall/internal/utils"
)

const principalKey = "principal_id"

// AuthMiddleware validates the Bearer access token and stores the
// principal id on the request context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := utils.ParseAccessToken(token, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(principalKey, claims.UserID)
		c.Next()
	}
}

// WebSocketAuthMiddleware authenticates upgrade requests. Browsers
// cannot set headers on WebSocket dials, so the token travels as a query
// parameter. Room membership is authorized later, per join-room message.
func WebSocketAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := utils.ParseAccessToken(token, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(principalKey, claims.UserID)
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated principal id set by the
// auth middlewares.
func PrincipalFromContext(c *gin.Context) (uuid.UUID, error) {
	v, exists := c.Get(principalKey)
	if !exists {
		return uuid.Nil, errors.New("principal not in context")
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("invalid principal in context")
	}
	return id, nil
}
