package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/baucrew/baucrew/internal/identity"
)

// AdminGuard restricts a route group to admin accounts.
func AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ident, ok := identity.FromContext(c)
		if !ok || ident.Role != identity.RoleAdmin {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin only"})
		}
		return next(c)
	}
}
