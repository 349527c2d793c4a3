package domain

import (
	"fmt"
	"strings"
)

// Role is the caller's authorization role.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

func ParseRoleFromString(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: invalid role %q", ErrValidation, s)
	}
	return r, nil
}

// Actor is the authenticated caller of a ledger operation.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanActFor reports whether the actor may operate on records owned by userID.
func (a Actor) CanActFor(userID string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.UserID != "" && a.UserID == userID
}
