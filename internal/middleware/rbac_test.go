package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baucrew/baucrew/internal/identity"
)

func runGuard(t *testing.T, mw echo.MiddlewareFunc, userID, role string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
		c.Set("role", role)
	}
	handler := mw(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
	require.NoError(t, handler(c))
	return rec
}

func TestRequireRoles(t *testing.T) {
	guard := RequireRoles(identity.RoleCustomer, identity.RoleBoth, identity.RoleAdmin)

	assert.Equal(t, http.StatusOK, runGuard(t, guard, "u-1", identity.RoleCustomer).Code)
	assert.Equal(t, http.StatusOK, runGuard(t, guard, "u-1", identity.RoleBoth).Code)
	assert.Equal(t, http.StatusOK, runGuard(t, guard, "u-1", identity.RoleAdmin).Code)
	assert.Equal(t, http.StatusForbidden, runGuard(t, guard, "u-1", identity.RoleProvider).Code)

	rec := runGuard(t, guard, "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
	assert.NotContains(t, rec.Body.String(), "success")
}

func TestAdminGuard(t *testing.T) {
	assert.Equal(t, http.StatusOK, runGuard(t, AdminGuard, "u-1", identity.RoleAdmin).Code)
	assert.Equal(t, http.StatusForbidden, runGuard(t, AdminGuard, "u-1", identity.RoleCustomer).Code)
	assert.Equal(t, http.StatusForbidden, runGuard(t, AdminGuard, "u-1", identity.RoleBoth).Code)
	assert.Equal(t, http.StatusForbidden, runGuard(t, AdminGuard, "", "").Code)
}
