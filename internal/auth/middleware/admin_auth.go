package middleware

import (
	"net/http"
	"strings"

	"github.com/campus-radio/songdesk/internal/auth"
	"github.com/campus-radio/songdesk/internal/auth/domain"
	"github.com/gin-gonic/gin"
)

// SessionVerifier checks a session token.
type SessionVerifier interface {
	Verify(token string) (domain.Session, error)
}

// RequireAdmin validates the session token and stores the admin in context.
func RequireAdmin(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": domain.ErrUnauthenticated.Error()})
			c.Abort()
			return
		}

		sess, err := verifier.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": domain.ErrUnauthenticated.Error()})
			c.Abort()
			return
		}

		c.Set(auth.CtxUsername, sess.Username)
		c.Set(auth.CtxRole, sess.Role)
		c.Next()
	}
}

// RequireRole lets through only admins holding one of roles. It must run
// after RequireAdmin.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := auth.Role(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": domain.ErrForbidden.Error()})
		c.Abort()
	}
}

// extractToken reads the Bearer token, falling back to the session cookie.
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	if cookie, err := c.Cookie(auth.CookieName); err == nil {
		return cookie
	}
	return ""
}
