package domain

import (
	"errors"
	"time"
)

// Role decides which admin pages an account may use.
type Role string

const (
	// RoleAdmin may use every admin operation.
	RoleAdmin Role = "admin"
	// RoleControl runs the broadcast desk: it may view the list, download
	// files and export, nothing else.
	RoleControl Role = "control"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleControl
}

// Account is an admin login.
type Account struct {
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Session is what a signed token proves about its bearer.
type Session struct {
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrWrongPassword      = errors.New("密码错误，操作失败")
	ErrUnauthenticated    = errors.New("请先登录")
	ErrForbidden          = errors.New("您没有权限访问该页面")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidRole        = errors.New("invalid role")
)
