package roster

import (
	"context"
	"errors"
	"log/slog"

	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/database"
	"github.com/afina/roster/internal/team"
	"github.com/afina/roster/internal/user"
)

// Managers manages MANAGER accounts and the teams they own.
type Managers struct {
	users      *user.Service
	teams      TeamRepository
	reconciler *Reconciler
	tx         database.Transactor
}

// NewManagers creates the managers service.
func NewManagers(users *user.Service, teams TeamRepository, reconciler *Reconciler, tx database.Transactor) *Managers {
	return &Managers{users: users, teams: teams, reconciler: reconciler, tx: tx}
}

// List returns every manager with its teams, newest first.
func (s *Managers) List(ctx context.Context) ([]*Manager, error) {
	users, err := s.users.List(ctx, auth.RoleManager)
	if err != nil {
		return nil, err
	}
	out := make([]*Manager, 0, len(users))
	for _, u := range users {
		m, err := s.withTeams(ctx, u)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Get returns the manager id.
func (s *Managers) Get(ctx context.Context, id string) (*Manager, error) {
	u, err := s.manager(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withTeams(ctx, u)
}

// Create stores a new manager and hands it in.TeamIDs.
func (s *Managers) Create(ctx context.Context, in ManagerInput) (*Manager, error) {
	var out *Manager
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.users.Create(ctx, createInput(in.Email, in.Password, in.Name, in.Username, in.Avatar, in.Bio, auth.RoleManager))
		if err != nil {
			return err
		}
		if len(in.TeamIDs) > 0 {
			if _, err := s.reconciler.ReassignManagerTeams(ctx, u.ID, in.TeamIDs); err != nil {
				return err
			}
		}
		out, err = s.withTeams(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial update to the manager id. A non-nil in.TeamIDs is
// reconciled against the teams it currently owns in the same unit of work.
func (s *Managers) Update(ctx context.Context, id string, in ManagerUpdate) (*Manager, error) {
	var out *Manager
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.manager(ctx, id); err != nil {
			return err
		}
		u, err := s.users.Update(ctx, id, user.UpdateInput{
			Email:    in.Email,
			Password: in.Password,
			Name:     in.Name,
			Username: in.Username,
			Avatar:   in.Avatar,
			Bio:      in.Bio,
		})
		if err != nil {
			return err
		}
		if in.TeamIDs != nil {
			res, err := s.reconciler.ReassignManagerTeams(ctx, id, *in.TeamIDs)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "manager teams reconciled",
				"manager_id", id,
				"added", len(res.Added),
				"kept", len(res.Kept),
				"removed", len(res.Removed),
				"unassigned", len(res.Unassigned),
				"fallback_id", res.FallbackID,
			)
		}
		out, err = s.withTeams(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the manager id on behalf of callerID. A manager that still
// owns teams cannot be deleted.
func (s *Managers) Delete(ctx context.Context, callerID, id string) error {
	if callerID == id {
		return user.ErrSelfDelete
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.manager(ctx, id); err != nil {
			return err
		}
		return s.users.Delete(ctx, callerID, id)
	})
}

func (s *Managers) manager(ctx context.Context, id string) (*user.User, error) {
	u, err := s.users.Get(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrManagerNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.Role != auth.RoleManager {
		return nil, ErrManagerNotFound
	}
	return u, nil
}

func (s *Managers) withTeams(ctx context.Context, u *user.User) (*Manager, error) {
	teams, err := s.teams.ListByManager(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	summaries := make([]team.Summary, 0, len(teams))
	for _, t := range teams {
		summaries = append(summaries, t.Summary())
	}
	return &Manager{User: u, ManagedTeams: summaries}, nil
}

// OwnerGuard stops a user who still manages teams from being deleted or
// moved to a role other than MANAGER. Register it on the users service so
// every deletion path honors it.
type OwnerGuard struct {
	teams TeamRepository
}

// NewOwnerGuard creates the guard.
func NewOwnerGuard(teams TeamRepository) *OwnerGuard {
	return &OwnerGuard{teams: teams}
}

func (g *OwnerGuard) BeforeDelete(ctx context.Context, u *user.User) error {
	n, err := g.teams.CountByManager(ctx, u.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrManagerOwnsTeams
	}
	return nil
}

func (g *OwnerGuard) BeforeRoleChange(ctx context.Context, u *user.User, to auth.Role) error {
	if to == auth.RoleManager {
		return nil
	}
	n, err := g.teams.CountByManager(ctx, u.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrOwnerRoleChange
	}
	return nil
}
