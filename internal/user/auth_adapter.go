package user

import (
	"context"

	"github.com/afina/roster/internal/auth"
)

// AuthAdapter adapts a user Repository to the auth.PrincipalLookup interface.
type AuthAdapter struct {
	repo Repository
}

// NewAuthAdapter creates a new AuthAdapter wrapping the given repository.
func NewAuthAdapter(repo Repository) *AuthAdapter {
	return &AuthAdapter{repo: repo}
}

// LookupPrincipal loads the current state of the session subject.
func (a *AuthAdapter) LookupPrincipal(ctx context.Context, id string) (*auth.Principal, error) {
	u, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Principal(), nil
}
