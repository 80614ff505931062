package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// OptionalAuthMiddleware renseigne user_id si un token valide est présent,
// sinon la requête continue en anonyme.
func OptionalAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}

		if userID, err := parseSubject(strings.TrimPrefix(authHeader, "Bearer "), secret); err == nil {
			c.Set(UserIDKey, userID)
		}

		c.Next()
	}
}
