package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRoles allows a route only for callers holding one of the given
// roles. Runs after JWTMiddleware, which stores the role on the context;
// requests with no role are treated like any other mismatch.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
		}
	}
}
