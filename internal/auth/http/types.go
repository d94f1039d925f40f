package http

import (
	"context"

	"github.com/campus-radio/songdesk/internal/auth/domain"
)

// Authenticator signs admins in.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, domain.Session, error)
}

type Handler struct {
	auth         Authenticator
	secureCookie bool
}

func New(auth Authenticator, secureCookie bool) *Handler {
	return &Handler{
		auth:         auth,
		secureCookie: secureCookie,
	}
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Next     string `json:"next" form:"next"`
}
