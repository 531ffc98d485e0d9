package enums

import (
	"fmt"
	"strings"
)

// UserRole distinguishes buyers from farmers selling on the marketplace.
type UserRole string

const (
	UserRoleBuyer  UserRole = "buyer"
	UserRoleFarmer UserRole = "farmer"
)

// IsValid reports whether the value is a known role.
func (r UserRole) IsValid() bool {
	return r == UserRoleBuyer || r == UserRoleFarmer
}

// ParseUserRole normalizes and validates a role string.
func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(strings.ToLower(strings.TrimSpace(value)))
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", value)
	}
	return role, nil
}
