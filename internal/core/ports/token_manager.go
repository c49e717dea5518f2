package ports

import "github.com/vartalang/vartalang-api/internal/core/domain"

// AccessClaims is what a verified access token asserts.
type AccessClaims struct {
	UserID string
	Role   domain.Role
}

// TokenManager issues and verifies the access/refresh pair. Verification
// failures are domain.ErrInvalidToken or domain.ErrTokenExpired.
type TokenManager interface {
	IssuePair(userID string, role domain.Role) (domain.TokenPair, error)
	ParseAccess(token string) (*AccessClaims, error)
	// ParseRefresh returns the user ID the refresh token was issued to.
	ParseRefresh(token string) (string, error)
}
