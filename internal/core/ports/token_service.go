package ports

import "github.com/veriton/identity-system/internal/core/domain"

// TokenService signs and verifies the two token kinds with distinct secrets
// and expiry windows. Verify failures are classified: domain.ErrTokenExpired
// for a well-formed token past its window, domain.ErrTokenInvalid for a bad
// signature or malformed token.
type TokenService interface {
	SignAccess(claims domain.Claims) (string, error)
	SignRefresh(claims domain.Claims) (string, error)
	VerifyAccess(token string) (*domain.Claims, error)
	VerifyRefresh(token string) (*domain.Claims, error)
}
