package middleware

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gin-gonic/gin"
)

// SessionKeyKey est la clé du contexte gin qui porte la dimension de cache.
const SessionKeyKey = "session_key"

// AnonymousSession est la clé partagée par les visiteurs sans cookie ni token.
const AnonymousSession = "anonymous"

// SessionKey calcule la dimension de cache de la requête à partir du header
// Cookie et de l'utilisateur connecté : deux requêtes qui n'ont pas les mêmes
// valeurs ne partagent jamais une page en cache.
// Doit être placé après OptionalAuthMiddleware/AuthMiddleware.
func SessionKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(SessionKeyKey, DeriveSessionKey(c.GetHeader("Cookie"), c.GetString(UserIDKey)))
		c.Next()
	}
}

func DeriveSessionKey(cookie, userID string) string {
	if cookie == "" && userID == "" {
		return AnonymousSession
	}
	sum := sha256.Sum256([]byte(cookie + "\x00" + userID))
	return hex.EncodeToString(sum[:])
}

// CurrentSessionKey renvoie la clé calculée par SessionKey.
func CurrentSessionKey(c *gin.Context) string {
	if key := c.GetString(SessionKeyKey); key != "" {
		return key
	}
	return DeriveSessionKey(c.GetHeader("Cookie"), c.GetString(UserIDKey))
}
