package ports

import (
	"context"

	"github.com/vartalang/vartalang-api/internal/core/domain"
)

// AdminService covers account management reserved to admins.
type AdminService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateRole(ctx context.Context, id, role string) (*domain.User, error)
	ToggleStatus(ctx context.Context, id string) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}
