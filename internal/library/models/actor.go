// Package models holds types shared by every web module.
package models

import "strings"

// Role user role
type Role string

const (
	// RoleAdministrator may moderate every comment and manage users
	RoleAdministrator Role = "administrator"
	// RoleJournalist may publish articles and upload files
	RoleJournalist Role = "journalist"
	// RoleReader default role of registered users
	RoleReader Role = "reader"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleJournalist, RoleReader:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a role name, unknown names fall back to RoleReader
func ParseRole(name string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(name)))
	if !r.Valid() {
		return RoleReader
	}

	return r
}

// Actor is the authenticated identity performing a request
type Actor struct {
	ID   int64
	Role Role
}

// IsAnonymous reports whether the actor carries no identity
func (a Actor) IsAnonymous() bool {
	return a.ID <= 0
}

// IsAdmin is administrator
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdministrator
}

// HasRole reports whether the actor has any of roles
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}

	return false
}
