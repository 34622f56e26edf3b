// Package seed holds the maintenance operations: database initialization with
// a bootstrap administrator, demo data and wiping all roster data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/database"
	"github.com/afina/roster/internal/game"
	"github.com/afina/roster/internal/team"
	"github.com/afina/roster/internal/tournament"
	"github.com/afina/roster/internal/user"
)

// MigrateFunc brings the schema up to date. It must treat "no change" as
// success.
type MigrateFunc func(ctx context.Context) error

// Admin is the account InitDatabase creates on an empty database.
type Admin struct {
	Email    string
	Password string
}

// Deps are the services and repositories the maintenance operations use.
type Deps struct {
	Users       *user.Service
	Teams       team.Repository
	Games       *game.Service
	GameRepo    game.Repository
	Tournaments *tournament.Service
	TournRepo   tournament.Repository
	Tx          database.Transactor
	// Migrate is optional; the in-memory store has no schema.
	Migrate MigrateFunc
	Admin   Admin
}

// Maintainer runs the maintenance operations.
type Maintainer struct {
	d Deps
}

// New creates a Maintainer.
func New(d Deps) *Maintainer {
	return &Maintainer{d: d}
}

// InitResult reports what InitDatabase did.
type InitResult struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	UserCount int      `json:"userCount,omitempty"`
	Results   []string `json:"results,omitempty"`
}

// InitDatabase applies migrations and creates the bootstrap ADMIN when the
// database holds no users. Running it again is harmless.
func (m *Maintainer) InitDatabase(ctx context.Context) (*InitResult, error) {
	res := &InitResult{}
	if m.d.Migrate != nil {
		if err := m.d.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("applying migrations: %w", err)
		}
		res.Results = append(res.Results, "Migrations applied")
	}

	n, err := m.d.Users.Repository().Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		res.Message = "Database already initialized. Users exist."
		res.UserCount = n
		return res, nil
	}

	if m.d.Admin.Email == "" || m.d.Admin.Password == "" {
		return nil, errors.New("bootstrap admin email and password are required")
	}
	name, username := "Administrator", "admin"
	if _, err := m.d.Users.Create(ctx, user.CreateInput{
		Email:    m.d.Admin.Email,
		Password: m.d.Admin.Password,
		Name:     &name,
		Username: &username,
		Role:     string(auth.RoleAdmin),
	}); err != nil {
		return nil, fmt.Errorf("creating bootstrap admin: %w", err)
	}
	slog.InfoContext(ctx, "bootstrap admin created", "email", m.d.Admin.Email)

	res.Success = true
	res.Message = "Database initialization completed"
	res.Results = append(res.Results, "Admin user created: "+m.d.Admin.Email)
	return res, nil
}

// ClearReport counts the rows ClearData removed.
type ClearReport struct {
	Members     int64 `json:"members"`
	Teams       int64 `json:"teams"`
	Tournaments int64 `json:"tournaments"`
	Games       int64 `json:"games"`
	Users       int64 `json:"users"`
}

// ClearData deletes every membership, team, tournament, game and user except
// keepUserID in one transaction. An empty keepUserID keeps the earliest ADMIN
// so the service stays reachable.
func (m *Maintainer) ClearData(ctx context.Context, keepUserID string) (*ClearReport, error) {
	rep := &ClearReport{}
	err := m.d.Tx.WithinTx(ctx, func(ctx context.Context) error {
		keep := keepUserID
		if keep == "" {
			admin, err := m.d.Users.Repository().FirstByRole(ctx, auth.RoleAdmin)
			if err != nil {
				return err
			}
			if admin != nil {
				keep = admin.ID
			}
		}

		var err error
		if rep.Teams, rep.Members, err = m.d.Teams.DeleteAll(ctx); err != nil {
			return fmt.Errorf("deleting teams: %w", err)
		}
		if rep.Tournaments, err = m.d.TournRepo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("deleting tournaments: %w", err)
		}
		if rep.Games, err = m.d.GameRepo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("deleting games: %w", err)
		}
		if rep.Users, err = m.d.Users.Repository().DeleteAllExcept(ctx, keep); err != nil {
			return fmt.Errorf("deleting users: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "roster data cleared",
		"members", rep.Members,
		"teams", rep.Teams,
		"tournaments", rep.Tournaments,
		"games", rep.Games,
		"users", rep.Users,
	)
	return rep, nil
}
