// Package roster implements the Players and Managers services and the
// reconciler that keeps Team.managerId and team memberships consistent when a
// manager's team set or a player's team changes.
package roster

import (
	"context"
	"strings"

	"github.com/afina/roster/internal/apperr"
	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/team"
	"github.com/afina/roster/internal/user"
)

var (
	ErrPlayerNotFound   = apperr.NotFound("Player not found")
	ErrManagerNotFound  = apperr.NotFound("Manager not found")
	ErrUnknownTeam      = apperr.Validation("Team not found")
	ErrManagerOwnsTeams = apperr.New(apperr.KindGuardedDeletion,
		"Cannot delete manager with assigned teams. Please reassign teams first.")
	ErrOwnerRoleChange = apperr.Validation(
		"Cannot change the role of a user who manages teams. Please reassign teams first.")
)

// TeamRepository is the part of the team store the roster services use.
type TeamRepository interface {
	GetByID(ctx context.Context, id string) (*team.Team, error)
	ListByManager(ctx context.Context, managerID string) ([]*team.Team, error)
	ListByIDs(ctx context.Context, ids []string) ([]*team.Team, error)
	SetManager(ctx context.Context, ids []string, managerID string) (int64, error)
	CountByManager(ctx context.Context, managerID string) (int, error)
	AddMember(ctx context.Context, p team.MemberParams) (*team.Member, error)
	RemoveMembersByUser(ctx context.Context, userID string) (int64, error)
	MembershipsByUser(ctx context.Context, userID string) ([]*team.Member, error)
}

// Player is a PLAYER account with its team memberships.
type Player struct {
	*user.User
	TeamMembers []*team.Member `json:"teamMembers"`
}

// Manager is a MANAGER account with the teams it owns.
type Manager struct {
	*user.User
	ManagedTeams []team.Summary `json:"managedTeams"`
}

// PlayerInput creates a player, optionally placing it on a team.
type PlayerInput struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	TeamID   string  `json:"teamId,omitempty"`
	TeamRole *string `json:"teamRole,omitempty"`
}

// PlayerUpdate is a partial player update. A non-nil TeamID replaces the
// player's team; "" removes it from every team.
type PlayerUpdate struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	TeamID   *string `json:"teamId,omitempty"`
	TeamRole *string `json:"teamRole,omitempty"`
}

// ManagerInput creates a manager, optionally taking over teams.
type ManagerInput struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Name     *string  `json:"name,omitempty"`
	Username *string  `json:"username,omitempty"`
	Avatar   *string  `json:"avatar,omitempty"`
	Bio      *string  `json:"bio,omitempty"`
	TeamIDs  []string `json:"teamIds,omitempty"`
}

// ManagerUpdate is a partial manager update. A non-nil TeamIDs becomes the
// manager's complete team set.
type ManagerUpdate struct {
	Email    *string   `json:"email,omitempty"`
	Password *string   `json:"password,omitempty"`
	Name     *string   `json:"name,omitempty"`
	Username *string   `json:"username,omitempty"`
	Avatar   *string   `json:"avatar,omitempty"`
	Bio      *string   `json:"bio,omitempty"`
	TeamIDs  *[]string `json:"teamIds,omitempty"`
}

func createInput(email, password string, name, username, avatar, bio *string, role auth.Role) user.CreateInput {
	return user.CreateInput{
		Email:    email,
		Password: password,
		Name:     name,
		Username: username,
		Role:     string(role),
		Avatar:   avatar,
		Bio:      bio,
	}
}

// uniqueIDs trims ids and drops blanks and repeats, keeping the first
// occurrence order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
