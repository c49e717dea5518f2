package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/vartalang/vartalang-api/internal/core/domain"
)

var errNoPermission = domain.NewError(domain.ErrForbidden, "You do not have permission to do this.")

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(domain.Role)
			if _, ok := allowed[role]; !ok {
				return errNoPermission
			}
			return next(c)
		}
	}
}
