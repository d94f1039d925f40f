package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/campus-radio/songdesk/internal/auth"
	"github.com/campus-radio/songdesk/internal/auth/domain"
	"github.com/campus-radio/songdesk/internal/auth/service"
	"github.com/campus-radio/songdesk/internal/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultLanding = "/admin"

// Login checks the credentials, sets the session cookie and returns the
// token for API clients.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	token, sess, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": err.Error()})
			return
		}
		logging.FromContext(c.Request.Context()).Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "login failed"})
		return
	}

	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, maxAge, "/", "", h.secureCookie, true)

	logging.FromContext(c.Request.Context()).Info("admin logged in",
		zap.String("username", sess.Username),
		zap.String("role", string(sess.Role)))

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"token":    token,
		"username": sess.Username,
		"role":     sess.Role,
		"redirect": service.SafeRedirect(req.Next, defaultLanding),
	})
}

// Logout drops the session cookie.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "已退出登录"})
}
