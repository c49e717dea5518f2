// Package token signs and verifies the access/refresh JWT pair. The two kinds
// use independent secrets so a leaked access secret cannot mint refresh tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vartalang/vartalang-api/internal/core/domain"
	"github.com/vartalang/vartalang-api/internal/core/ports"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	issuer            = "vartalang-api"
)

// Config holds both signing contexts.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	jwt.RegisteredClaims
}

type signer struct {
	secret []byte
	ttl    time.Duration
}

// Manager implements ports.TokenManager.
type Manager struct {
	access  signer
	refresh signer
	now     func() time.Time
}

var _ ports.TokenManager = (*Manager)(nil)

// NewManager validates cfg and builds a Manager. Zero TTLs fall back to the defaults.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Manager{
		access:  signer{secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL},
		refresh: signer{secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
		now:     time.Now,
	}, nil
}

func (m *Manager) registered(userID string, ttl time.Duration) jwt.RegisteredClaims {
	now := m.now().UTC()
	return jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// IssuePair signs a fresh access and refresh token for the user.
func (m *Manager) IssuePair(userID string, role domain.Role) (domain.TokenPair, error) {
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Role:             string(role),
		RegisteredClaims: m.registered(userID, m.access.ttl),
	})
	accessToken, err := access.SignedString(m.access.secret)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		RegisteredClaims: m.registered(userID, m.refresh.ttl),
	})
	refreshToken, err := refresh.SignedString(m.refresh.secret)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ParseAccess verifies an access token against the access secret.
func (m *Manager) ParseAccess(token string) (*ports.AccessClaims, error) {
	claims := &accessClaims{}
	if err := m.parse(token, claims, m.access.secret); err != nil {
		return nil, err
	}
	role := domain.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return nil, domain.ErrInvalidToken
	}
	return &ports.AccessClaims{UserID: claims.Subject, Role: role}, nil
}

// ParseRefresh verifies a refresh token against the refresh secret.
func (m *Manager) ParseRefresh(token string) (string, error) {
	claims := &refreshClaims{}
	if err := m.parse(token, claims, m.refresh.secret); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}

func (m *Manager) parse(token string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ErrTokenExpired
		}
		return domain.ErrInvalidToken
	}
	return nil
}
