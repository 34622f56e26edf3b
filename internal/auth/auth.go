package auth

import (
	"context"
	"fmt"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RolePlayer  Role = "PLAYER"
)

// AllRoles lists every role, most privileged first.
var AllRoles = []Role{RoleAdmin, RoleManager, RolePlayer}

// ParseRole validates s as a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleManager, RolePlayer:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID    string
	Email string
	Role  Role
}

// IsAdmin returns true if the principal has the ADMIN role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// PrincipalLookup resolves a session subject to its current principal, so
// that role changes and deletions take effect before the session expires.
type PrincipalLookup interface {
	LookupPrincipal(ctx context.Context, id string) (*Principal, error)
}

type contextKey int

const principalContextKey contextKey = iota

// ContextWithPrincipal returns a new context carrying the given principal.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext extracts the principal from the context, or nil if the
// request is anonymous.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey).(*Principal)
	return p
}
