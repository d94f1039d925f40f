package auth

import (
	"strings"

	"github.com/campus-radio/songdesk/internal/auth/domain"
	"github.com/gin-gonic/gin"
)

const (
	CtxUsername = "admin_username"
	CtxRole     = "admin_role"

	// CookieName carries the session token for browser clients.
	CookieName = "admin_token"
)

// Username extracts the signed-in admin from the Gin context.
// This is set by middleware.RequireAdmin
func Username(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUsername))
}

// Role extracts the signed-in admin's role from the Gin context.
func Role(c *gin.Context) domain.Role {
	v, _ := c.Get(CtxRole)
	role, _ := v.(domain.Role)
	return role
}
