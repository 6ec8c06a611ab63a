package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maskyy/caketruth/policy"
	"github.com/maskyy/caketruth/utils"
)

// PrincipalKey holds the request's policy.Principal in the gin context.
const PrincipalKey = "principal"

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		p, ok := parseBearer(c, tokens, authHeader)
		if !ok {
			return
		}
		c.Set(PrincipalKey, p)
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through with a zero principal. A
// header that is present but invalid is still rejected.
func OptionalAuth(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(PrincipalKey, policy.Principal{})
			c.Next()
			return
		}
		p, ok := parseBearer(c, tokens, authHeader)
		if !ok {
			return
		}
		c.Set(PrincipalKey, p)
		c.Next()
	}
}

func parseBearer(c *gin.Context, tokens *utils.TokenIssuer, authHeader string) (policy.Principal, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be a bearer token"})
		return policy.Principal{}, false
	}
	claims, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return policy.Principal{}, false
	}
	return policy.Principal{UserID: claims.UserID, Role: claims.Role}, true
}
