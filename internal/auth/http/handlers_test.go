package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campus-radio/songdesk/internal/auth"
	"github.com/campus-radio/songdesk/internal/auth/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	err error
}

func (f fakeAuth) Login(ctx context.Context, username, password string) (string, domain.Session, error) {
	if f.err != nil {
		return "", domain.Session{}, f.err
	}
	if username != "admin" || password != "admin123" {
		return "", domain.Session{}, domain.ErrInvalidCredentials
	}
	return "tok", domain.Session{Username: "admin", Role: domain.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func newRouter(a Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(a, false).Register(r.Group("/admin"))
	return r
}

func TestLogin(t *testing.T) {
	t.Run("sets cookie and safe redirect", func(t *testing.T) {
		r := newRouter(fakeAuth{})
		body := `{"username":"admin","password":"admin123","next":"//evil.com"}`
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "tok", resp["token"])
		assert.Equal(t, "/admin", resp["redirect"])

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.CookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("form login keeps local next", func(t *testing.T) {
		r := newRouter(fakeAuth{})
		req := httptest.NewRequest(http.MethodPost, "/admin/login",
			strings.NewReader("username=admin&password=admin123&next=%2Fadmin%2Fhistory%2F2025-03-01"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"/admin/history/2025-03-01"`)
	})

	t.Run("wrong password", func(t *testing.T) {
		r := newRouter(fakeAuth{})
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":"admin","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), domain.ErrInvalidCredentials.Error())
	})

	t.Run("store failure", func(t *testing.T) {
		r := newRouter(fakeAuth{err: errors.New("db down")})
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":"admin","password":"admin123"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestLogout(t *testing.T) {
	r := newRouter(fakeAuth{})
	req := httptest.NewRequest(http.MethodGet, "/admin/logout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].MaxAge < 0)
}
