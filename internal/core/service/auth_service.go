package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vartalang/vartalang-api/internal/core/domain"
	"github.com/vartalang/vartalang-api/internal/core/ports"
)

// bcryptCost is a variable so tests can lower it.
var bcryptCost = 12

var (
	errInvalidLogin   = domain.NewError(domain.ErrInvalidCredentials, "Invalid email or password.")
	errAccountOff     = domain.NewError(domain.ErrAccountDisabled, "Account deactivated. Contact support.")
	errRefreshMissing = domain.NewError(domain.ErrUnauthenticated, "Refresh token required.")
	errRefreshExpired = domain.NewError(domain.ErrTokenExpired, "Session expired. Please login again.")
	errRefreshInvalid = domain.NewError(domain.ErrInvalidToken, "Invalid or expired refresh token.")
)

// AuthService implements registration, login and the refresh-token lifecycle.
type AuthService struct {
	users  ports.UserRepository
	tokens ports.TokenManager
	logger zerolog.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(users ports.UserRepository, tokens ports.TokenManager, logger zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger, now: time.Now}
}

// hashToken is the stored form of a refresh token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, domain.Validation("Name, email, and password are required.")
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Name:               name,
		Email:              email,
		PasswordHash:       hash,
		Role:               domain.RegistrationRole(input.Role),
		EnrolledCourses:    []string{},
		PreferredLanguages: []string{},
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := s.tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshTokenHash(ctx, user.ID, hashToken(tokens.RefreshToken)); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return &ports.AuthResult{User: user, Tokens: tokens}, nil
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller, including in timing.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Validation("Email and password are required.")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, errInvalidLogin
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errInvalidLogin
	}
	if !user.IsActive {
		return nil, errAccountOff
	}

	tokens, err := s.tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.users.RecordLogin(ctx, user.ID, hashToken(tokens.RefreshToken), now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return &ports.AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// match the one stored for the user; the stored value is then rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	if refreshToken == "" {
		return domain.TokenPair{}, errRefreshMissing
	}

	userID, err := s.tokens.ParseRefresh(refreshToken)
	if errors.Is(err, domain.ErrTokenExpired) {
		return domain.TokenPair{}, errRefreshExpired
	}
	if err != nil {
		return domain.TokenPair{}, errRefreshInvalid
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.TokenPair{}, errRefreshInvalid
	}
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !user.IsActive || user.RefreshTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(user.RefreshTokenHash), []byte(hashToken(refreshToken))) != 1 {
		return domain.TokenPair{}, errRefreshInvalid
	}

	tokens, err := s.tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if err := s.users.SetRefreshTokenHash(ctx, user.ID, hashToken(tokens.RefreshToken)); err != nil {
		return domain.TokenPair{}, err
	}
	return tokens, nil
}

// Logout clears the stored refresh credential. Outstanding access tokens stay
// valid until they expire.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshTokenHash(ctx, userID, ""); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("user logged out")
	return nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("vartalang-timing-guard"), bcryptCost)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to build timing guard hash")
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
