package identity

import "github.com/labstack/echo/v4"

// Roles a user account can hold. "both" accounts act as customer and provider.
const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
	RoleBoth     = "both"
	RoleAdmin    = "admin"
)

// Identity is the request-scoped caller, extracted once from the JWT
// middleware and passed to services as a value.
type Identity struct {
	ID   string
	Role string
}

// FromContext reads the identity the JWT middleware stored on the echo context.
// The second return is false when the request is unauthenticated.
func FromContext(c echo.Context) (Identity, bool) {
	id, ok := c.Get("user_id").(string)
	if !ok || id == "" {
		return Identity{}, false
	}
	role, _ := c.Get("role").(string)
	return Identity{ID: id, Role: role}, true
}

// CanActAsCustomer reports whether the role may perform customer operations.
func CanActAsCustomer(role string) bool {
	return role == RoleCustomer || role == RoleBoth || role == RoleAdmin
}

// CanActAsProvider reports whether the role may perform provider operations.
func CanActAsProvider(role string) bool {
	return role == RoleProvider || role == RoleBoth || role == RoleAdmin
}
