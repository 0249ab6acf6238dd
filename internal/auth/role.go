package auth

import (
	"fmt"
	"strings"
)

// Role is a privilege level. The set is closed.
type Role string

const (
	RoleUser     Role = "USER"
	RoleReporter Role = "REPORTER"
	RoleEditor   Role = "EDITOR"
	RoleAdmin    Role = "ADMIN"
)

// AllRoles lists every valid role from least to most privileged.
var AllRoles = []Role{RoleUser, RoleReporter, RoleEditor, RoleAdmin}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	candidate := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, r := range AllRoles {
		if r == candidate {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// In reports whether r is a member of allowed, ignoring case.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if strings.EqualFold(string(r), string(a)) {
			return true
		}
	}
	return false
}

// IsStaff reports whether r can see unpublished content.
func (r Role) IsStaff() bool {
	return r.In(RoleReporter, RoleEditor, RoleAdmin)
}

func (r Role) String() string {
	return string(r)
}
