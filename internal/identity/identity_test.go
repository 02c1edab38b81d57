package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRoleChecks(t *testing.T) {
	assert.True(t, CanActAsCustomer(RoleCustomer))
	assert.True(t, CanActAsCustomer(RoleBoth))
	assert.True(t, CanActAsCustomer(RoleAdmin))
	assert.False(t, CanActAsCustomer(RoleProvider))

	assert.True(t, CanActAsProvider(RoleProvider))
	assert.True(t, CanActAsProvider(RoleBoth))
	assert.True(t, CanActAsProvider(RoleAdmin))
	assert.False(t, CanActAsProvider(RoleCustomer))

	assert.False(t, CanActAsCustomer(""))
	assert.False(t, CanActAsProvider(""))
}

func TestFromContext(t *testing.T) {
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, ok := FromContext(c)
	assert.False(t, ok)

	c.Set("user_id", "u-1")
	c.Set("role", RoleProvider)
	ident, ok := FromContext(c)
	assert.True(t, ok)
	assert.Equal(t, Identity{ID: "u-1", Role: RoleProvider}, ident)
}
