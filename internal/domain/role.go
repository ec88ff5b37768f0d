package domain

import "fmt"

// Role is the access-level category of an authenticated requester.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Roles lists every known role in ascending privilege order.
var Roles = []Role{RoleEmployee, RoleManager, RoleAdmin}

// ParseRole validates a raw role string coming from an auth token.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleEmployee, RoleManager, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Identity is the authenticated requester attached by the auth layer.
type Identity struct {
	UserID     string `json:"user_id"`
	EmployeeID string `json:"employee_id"`
	Role       Role   `json:"role"`
}
