package roster

import (
	"context"
	"errors"

	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/database"
	"github.com/afina/roster/internal/user"
)

// Players manages PLAYER accounts and their team placement.
type Players struct {
	users      *user.Service
	teams      TeamRepository
	reconciler *Reconciler
	tx         database.Transactor
}

// NewPlayers creates the players service.
func NewPlayers(users *user.Service, teams TeamRepository, reconciler *Reconciler, tx database.Transactor) *Players {
	return &Players{users: users, teams: teams, reconciler: reconciler, tx: tx}
}

// List returns every player with its memberships, newest first.
func (s *Players) List(ctx context.Context) ([]*Player, error) {
	users, err := s.users.List(ctx, auth.RolePlayer)
	if err != nil {
		return nil, err
	}
	out := make([]*Player, 0, len(users))
	for _, u := range users {
		p, err := s.withMemberships(ctx, u)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Get returns the player id.
func (s *Players) Get(ctx context.Context, id string) (*Player, error) {
	u, err := s.player(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withMemberships(ctx, u)
}

// Create stores a new player and places it on in.TeamID when given.
func (s *Players) Create(ctx context.Context, in PlayerInput) (*Player, error) {
	var out *Player
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.users.Create(ctx, createInput(in.Email, in.Password, in.Name, in.Username, in.Avatar, in.Bio, auth.RolePlayer))
		if err != nil {
			return err
		}
		if in.TeamID != "" {
			if _, err := s.reconciler.ReplacePlayerTeam(ctx, u.ID, in.TeamID, in.TeamRole); err != nil {
				return err
			}
		}
		out, err = s.withMemberships(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial update to the player id. When in.TeamID is set the
// player's team is replaced in the same unit of work.
func (s *Players) Update(ctx context.Context, id string, in PlayerUpdate) (*Player, error) {
	var out *Player
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.player(ctx, id); err != nil {
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
		if in.TeamID != nil {
			if _, err := s.reconciler.ReplacePlayerTeam(ctx, id, *in.TeamID, in.TeamRole); err != nil {
				return err
			}
		}
		out, err = s.withMemberships(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the player id on behalf of callerID.
func (s *Players) Delete(ctx context.Context, callerID, id string) error {
	if callerID == id {
		return user.ErrSelfDelete
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.player(ctx, id); err != nil {
			return err
		}
		return s.users.Delete(ctx, callerID, id)
	})
}

func (s *Players) player(ctx context.Context, id string) (*user.User, error) {
	u, err := s.users.Get(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.Role != auth.RolePlayer {
		return nil, ErrPlayerNotFound
	}
	return u, nil
}

func (s *Players) withMemberships(ctx context.Context, u *user.User) (*Player, error) {
	members, err := s.teams.MembershipsByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &Player{User: u, TeamMembers: members}, nil
}
