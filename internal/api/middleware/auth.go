package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vartalang/vartalang-api/internal/core/domain"
	"github.com/vartalang/vartalang-api/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextUser   = "user"
	ContextUserID = "user_id"
	ContextRole   = "role"
)

var (
	errNoToken      = domain.NewError(domain.ErrUnauthenticated, "Access denied. Please login.")
	errBadToken     = domain.NewError(domain.ErrInvalidToken, "Invalid token.")
	errExpiredToken = domain.NewError(domain.ErrTokenExpired, "Token expired. Please login again.")
	errNoUser       = domain.NewError(domain.ErrUnauthenticated, "User not found or account deactivated.")
)

// UserLoader is the slice of the user repository the guard needs.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth validates the bearer access token, loads the user it names and
// attaches the user and identity to the context.
func Auth(tokens ports.TokenManager, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return errNoToken
			}

			claims, err := tokens.ParseAccess(raw)
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					return errExpiredToken
				}
				return errBadToken
			}

			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if errors.Is(err, domain.ErrNotFound) {
				return errNoUser
			}
			if err != nil {
				return err
			}
			if !user.IsActive {
				return errNoUser
			}

			c.Set(ContextUser, user)
			c.Set(ContextUserID, user.ID)
			// The stored role wins over the token claim so role changes apply immediately.
			c.Set(ContextRole, user.Role)

			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// CurrentUser returns the user attached by Auth.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(ContextUser).(*domain.User)
	return u, ok && u != nil
}

// IdentityFrom returns the identity attached by Auth.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, _ := c.Get(ContextUserID).(string)
	role, _ := c.Get(ContextRole).(domain.Role)
	if id == "" || role == "" {
		return domain.Identity{}, false
	}
	return domain.Identity{UserID: id, Role: role}, true
}
