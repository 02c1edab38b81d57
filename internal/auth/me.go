package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/baucrew/baucrew/internal/db"
	"github.com/baucrew/baucrew/internal/identity"
)

// Me returns the currently authenticated user's profile
func Me(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var id, name, email, role string
	var company *string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT id, name, company, email, role FROM users WHERE id=$1`, ident.ID).
		Scan(&id, &name, &company, &email, &role)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	companyName := ""
	if company != nil {
		companyName = *company
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":      id,
		"name":    name,
		"company": companyName,
		"email":   email,
		"role":    role,
	})
}
