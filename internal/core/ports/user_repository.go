package ports

import (
	"context"
	"time"

	"github.com/vartalang/vartalang-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// Create inserts a user and returns it with its ID set. A duplicate email
	// yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail expects an already normalised email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindSummaries(ctx context.Context, ids []string) (map[string]domain.UserSummary, error)
	List(ctx context.Context) ([]*domain.User, error)

	// SetRefreshTokenHash replaces the stored refresh credential; "" clears it.
	SetRefreshTokenHash(ctx context.Context, id, hash string) error
	RecordLogin(ctx context.Context, id, refreshHash string, at time.Time) error

	// AddEnrollment appends courseID to the user's enrollment set only if it is
	// not already present; otherwise it returns domain.ErrAlreadyEnrolled.
	AddEnrollment(ctx context.Context, userID, courseID string) error

	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	// SetActive updates the active flag; deactivation also clears the refresh credential.
	SetActive(ctx context.Context, id string, active bool) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
