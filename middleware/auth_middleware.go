package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/utils"
)

const (
	UserIDKey   = "userID"
	UsernameKey = "username"
)

// TokenVerifier checks an access token without touching storage.
type TokenVerifier interface {
	VerifyAccess(token string) (*utils.Claims, error)
}

// AuthMiddleware reads the access token from the token cookie, or from an
// Authorization Bearer header when the cookie is absent, and aborts with 401
// when it does not verify.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, _ := c.Cookie(utils.AccessCookieName)
		if tokenStr == "" {
			if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
				tokenStr = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			}
		}

		claims, err := verifier.VerifyAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.Message(err)})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}
