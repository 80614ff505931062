package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/AlexanderUp/hw05-final/internal/authz"
)

// UserIDKey est la clé du contexte gin qui porte l'id de l'utilisateur connecté.
const UserIDKey = "user_id"

// Principal renvoie l'utilisateur de la requête, ou authz.Anonymous.
func Principal(c *gin.Context) authz.Principal {
	return authz.Principal{UserID: c.GetString(UserIDKey)}
}

func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token requis"})
			return
		}

		userID, err := parseSubject(strings.TrimPrefix(authHeader, "Bearer "), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// parseSubject vérifie la signature HS256 et renvoie le claim "sub".
func parseSubject(tokenStr string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		// Vérifie que Supabase a bien utilisé HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("signature invalide")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("token invalide: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("claims invalides")
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID manquant")
	}
	return userID, nil
}
