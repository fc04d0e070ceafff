package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/models"
	"github.com/chachabrian/sendit-backend/pkg/utils"
)

const identityKey = "identity"

// bearerToken reads the token from the Authorization header, then from ?token= for websocket clients
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", true
		}
		return strings.TrimSpace(parts[1]), true
	}

	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

func authenticate(c *gin.Context, tokens *utils.TokenService, log *logger.Logger, required bool) {
	tokenString, present := bearerToken(c)
	if !present {
		if required {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header or token query parameter required"})
			return
		}
		c.Next()
		return
	}

	identity, err := tokens.Validate(tokenString)
	if err != nil {
		log.LogSecurity("invalid_token", c.ClientIP(), logger.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	c.Set(identityKey, identity)
	c.Next()
}

// AuthMiddleware rejects requests without a valid bearer token
func AuthMiddleware(tokens *utils.TokenService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, tokens, log, true)
	}
}

// OptionalAuth records the caller when a token is sent; an invalid token is still rejected
func OptionalAuth(tokens *utils.TokenService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, tokens, log, false)
	}
}

// GetIdentity returns the identity stored by the auth middleware
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}
