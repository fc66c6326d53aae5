package domain

import (
	"errors"
	"time"
)

// Persisted roles. RoleSecurity never appears in a stored user record — it is
// only recognized by the authorization layer on routes that declared it — so
// code validating a role for persistence must use ValidRole instead.
const (
	RoleAdmin    = "ADMIN"
	RoleUser     = "USER"
	RoleSecurity = "SECURITY"
)

// ValidRole reports whether role is one of the two persistable values.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

var ErrUserExists = errors.New("user already exists")
var ErrInvalidRole = errors.New("invalid role")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrForbidden = errors.New("access forbidden")
var ErrTokenMissing = errors.New("refresh token is required")
var ErrTokenExpired = errors.New("token expired")
var ErrTokenInvalid = errors.New("invalid token")

// User is the authoritative identity record. PasswordHash and RefreshToken
// never leave the process; outward responses go through SafeUser or the
// sanitized search mapping.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	RefreshToken string    `json:"-"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SafeUser is the read-only projection exposed to non-owning callers.
type SafeUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Safe returns the projection of u.
func (u *User) Safe() *SafeUser {
	return &SafeUser{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
	}
}

// Claims is the identity attribute set embedded in signed tokens. Role is
// captured at issuance time; a role change only becomes visible once the
// access token expires.
type Claims struct {
	Subject  string
	Username string
	Email    string
	Role     string
}
