package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campus-radio/songdesk/internal/auth/domain"
	"github.com/campus-radio/songdesk/internal/sanitize"
)

// AccountStore persists admin accounts.
type AccountStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	Create(ctx context.Context, acc *domain.Account) error
	UpdatePassword(ctx context.Context, username, hash string) error
	List(ctx context.Context) ([]domain.Account, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// DefaultAccount is an account created on first start.
type DefaultAccount struct {
	Username string
	Password string
	Role     domain.Role
}

type AuthService struct {
	accounts AccountStore
	hasher   PasswordHasher
	tokens   *TokenSigner
}

func NewAuthService(accounts AccountStore, hasher PasswordHasher, tokens *TokenSigner) *AuthService {
	return &AuthService{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// EnsureDefaults creates every missing default account and returns the
// usernames it created.
func (s *AuthService) EnsureDefaults(ctx context.Context, defaults []DefaultAccount) ([]string, error) {
	var created []string
	for _, d := range defaults {
		_, err := s.accounts.GetByUsername(ctx, d.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return created, fmt.Errorf("lookup %s: %w", d.Username, err)
		}

		if _, err := s.Create(ctx, d.Username, d.Password, d.Role); err != nil {
			if errors.Is(err, domain.ErrAccountExists) {
				continue
			}
			return created, err
		}
		created = append(created, d.Username)
	}
	return created, nil
}

// Create adds an account with a hashed password.
func (s *AuthService) Create(ctx context.Context, username, password string, role domain.Role) (*domain.Account, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acc := &domain.Account{Username: username, PasswordHash: hash, Role: role}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// SetPassword replaces an account's password.
func (s *AuthService) SetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return domain.ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.accounts.UpdatePassword(ctx, username, hash)
}

// Accounts lists every account.
func (s *AuthService) Accounts(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.List(ctx)
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.Account, error) {
	username = strings.TrimSpace(sanitize.Input(username, 50))
	password = sanitize.Truncate(password, 100)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	acc, err := s.accounts.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.hasher.Compare(acc.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return acc, nil
}

// Login authenticates and issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, domain.Session, error) {
	acc, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", domain.Session{}, err
	}
	return s.tokens.Sign(acc)
}

// Verify checks a session token.
func (s *AuthService) Verify(token string) (domain.Session, error) {
	return s.tokens.Parse(token)
}

// SafeRedirect returns next when it is a local path, otherwise fallback.
func SafeRedirect(next, fallback string) string {
	if next == "" || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "http") || !strings.HasPrefix(next, "/") {
		return fallback
	}
	return next
}
