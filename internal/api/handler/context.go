package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/vartalang/vartalang-api/internal/api/middleware"
	"github.com/vartalang/vartalang-api/internal/core/domain"
)

var errNoIdentity = domain.NewError(domain.ErrUnauthenticated, "Access denied. Please login.")

// identity returns the caller attached by the Auth middleware. A missing
// identity means the route was registered without the guard.
func identity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, errNoIdentity
	}
	return id, nil
}

func currentUser(c echo.Context) (*domain.User, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, errNoIdentity
	}
	return u, nil
}

// bind decodes and validates the request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Validation("Invalid request body.")
	}
	return c.Validate(req)
}
