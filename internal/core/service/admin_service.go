package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vartalang/vartalang-api/internal/core/domain"
	"github.com/vartalang/vartalang-api/internal/core/ports"
)

// AdminService implements user management for admins.
type AdminService struct {
	users  ports.UserRepository
	logger zerolog.Logger
}

var _ ports.AdminService = (*AdminService)(nil)

func NewAdminService(users ports.UserRepository, logger zerolog.Logger) *AdminService {
	return &AdminService{users: users, logger: logger}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *AdminService) UpdateRole(ctx context.Context, id, role string) (*domain.User, error) {
	r := domain.Role(role)
	if !r.Valid() {
		return nil, domain.Validation("Role must be one of student, instructor or admin.")
	}
	user, err := s.users.UpdateRole(ctx, id, r)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id).Str("role", role).Msg("user role changed")
	return user, nil
}

// ToggleStatus flips the active flag. A deactivated user loses their refresh token.
func (s *AdminService) ToggleStatus(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.users.SetActive(ctx, id, !user.IsActive)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id).Bool("active", updated.IsActive).Msg("user status toggled")
	return updated, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// EnsureAdmin creates the bootstrap admin account unless the email is taken.
// It reports whether an account was created.
func (s *AdminService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return false, fmt.Errorf("admin email: %w", err)
	}
	if err := domain.ValidatePassword(password); err != nil {
		return false, fmt.Errorf("admin password: %w", err)
	}
	if name == "" {
		name = "Administrator"
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Name:               name,
		Email:              email,
		PasswordHash:       hash,
		Role:               domain.RoleAdmin,
		EnrolledCourses:    []string{},
		PreferredLanguages: []string{},
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if errors.Is(err, domain.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.logger.Info().Str("user_id", user.ID).Str("email", email).Msg("bootstrap admin created")
	return true, nil
}
