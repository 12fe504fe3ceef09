package enums

import "fmt"

// RaterRole identifies which side of the trade is leaving feedback.
type RaterRole string

const (
	RaterRoleBuyer  RaterRole = "buyer"
	RaterRoleSeller RaterRole = "seller"
)

// String implements fmt.Stringer.
func (r RaterRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RaterRole.
func (r RaterRole) IsValid() bool {
	return r == RaterRoleBuyer || r == RaterRoleSeller
}

// ParseRaterRole converts raw input into a RaterRole.
func ParseRaterRole(value string) (RaterRole, error) {
	role := RaterRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid rater role %q", value)
	}
	return role, nil
}
