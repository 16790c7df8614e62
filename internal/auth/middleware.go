package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// RequireRole enforces bearer JWT access tokens signed with HS256 and, when
// roles are given, that the token carries one of them. Browsers cannot set
// headers on a websocket upgrade, so the token may also come from the
// access_token query parameter.
func RequireRole(signingKey, issuer string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearer(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil || claims.Kind != KindAccess {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims set by RequireRole.
func ClaimsFrom(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

func bearer(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return c.Query("access_token")
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
