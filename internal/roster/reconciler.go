package roster

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/database"
	"github.com/afina/roster/internal/team"
	"github.com/afina/roster/internal/user"
)

// FallbackManagerFunc picks the user that takes over teams a manager gives up.
// It returns nil, nil when there is nobody to hand them to.
type FallbackManagerFunc func(ctx context.Context) (*user.User, error)

// FirstByRoleFinder finds the earliest created user with a role.
type FirstByRoleFinder interface {
	FirstByRole(ctx context.Context, role auth.Role) (*user.User, error)
}

// FirstAdmin hands released teams to the earliest created ADMIN.
func FirstAdmin(users FirstByRoleFinder) FallbackManagerFunc {
	return func(ctx context.Context) (*user.User, error) {
		return users.FirstByRole(ctx, auth.RoleAdmin)
	}
}

// Observer is told about reconciliations once their unit of work commits.
type Observer interface {
	TeamsReassigned(added, toFallback, unassigned int)
	PlayerTeamReplaced()
}

type nopObserver struct{}

func (nopObserver) TeamsReassigned(int, int, int) {}
func (nopObserver) PlayerTeamReplaced()           {}

// Reassignment describes the outcome of ReassignManagerTeams.
type Reassignment struct {
	// Added were set to the manager.
	Added []string `json:"added"`
	// Kept were already the manager's and stay so.
	Kept []string `json:"kept"`
	// Removed were handed to the fallback manager.
	Removed []string `json:"removed"`
	// Unassigned were released but stay with the manager because no
	// fallback manager exists.
	Unassigned []string `json:"unassigned"`
	FallbackID string   `json:"fallbackId,omitempty"`
}

// Reconciler applies manager and player team changes. Every multi-step change
// runs in a single unit of work.
type Reconciler struct {
	teams    TeamRepository
	tx       database.Transactor
	fallback FallbackManagerFunc
	observer Observer
}

// NewReconciler creates a reconciler. A nil fallback means released teams are
// never handed over.
func NewReconciler(teams TeamRepository, tx database.Transactor, fallback FallbackManagerFunc) *Reconciler {
	if fallback == nil {
		fallback = func(context.Context) (*user.User, error) { return nil, nil }
	}
	return &Reconciler{teams: teams, tx: tx, fallback: fallback, observer: nopObserver{}}
}

// SetObserver registers o to be told about completed reconciliations.
func (r *Reconciler) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	r.observer = o
}

// ReassignManagerTeams makes newTeams the complete set of teams managed by
// managerID. Teams the manager loses go to the fallback manager before the new
// teams are taken over; if there is no fallback they stay where they are.
// Unknown team ids are rejected before anything is written.
func (r *Reconciler) ReassignManagerTeams(ctx context.Context, managerID string, newTeams []string) (*Reassignment, error) {
	var out *Reassignment
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		wanted := uniqueIDs(newTeams)

		current, err := r.teams.ListByManager(ctx, managerID)
		if err != nil {
			return err
		}
		currentIDs := make(map[string]bool, len(current))
		for _, t := range current {
			currentIDs[t.ID] = true
		}
		wantedIDs := make(map[string]bool, len(wanted))
		for _, id := range wanted {
			wantedIDs[id] = true
		}

		res := &Reassignment{Added: []string{}, Kept: []string{}, Removed: []string{}, Unassigned: []string{}}
		var toRemove []string
		for _, t := range current {
			if !wantedIDs[t.ID] {
				toRemove = append(toRemove, t.ID)
			}
		}
		var toAdd []string
		for _, id := range wanted {
			if currentIDs[id] {
				res.Kept = append(res.Kept, id)
			} else {
				toAdd = append(toAdd, id)
			}
		}

		if len(toAdd) > 0 {
			found, err := r.teams.ListByIDs(ctx, toAdd)
			if err != nil {
				return err
			}
			if len(found) != len(toAdd) {
				return ErrUnknownTeam
			}
		}

		if len(toRemove) > 0 {
			fallback, err := r.fallback(ctx)
			if err != nil {
				return err
			}
			if fallback == nil || fallback.ID == managerID {
				slog.WarnContext(ctx, "no fallback manager, released teams keep their manager",
					"manager_id", managerID, "teams", toRemove)
				res.Unassigned = toRemove
			} else {
				if _, err := r.teams.SetManager(ctx, toRemove, fallback.ID); err != nil {
					return err
				}
				res.Removed = toRemove
				res.FallbackID = fallback.ID
			}
		}

		if len(toAdd) > 0 {
			if _, err := r.teams.SetManager(ctx, toAdd, managerID); err != nil {
				return err
			}
			res.Added = toAdd
		}

		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	database.AfterCommit(ctx, func() {
		r.observer.TeamsReassigned(len(out.Added), len(out.Removed), len(out.Unassigned))
	})
	return out, nil
}

// ReplacePlayerTeam removes userID from every team and, when teamID is not
// blank, adds it to teamID with the optional in-team role. The returned
// membership is nil when the player ends up on no team.
func (r *Reconciler) ReplacePlayerTeam(ctx context.Context, userID, teamID string, teamRole *string) (*team.Member, error) {
	teamID = strings.TrimSpace(teamID)
	var out *team.Member
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		if teamID != "" {
			if _, err := r.teams.GetByID(ctx, teamID); err != nil {
				if errors.Is(err, team.ErrNotFound) {
					return ErrUnknownTeam
				}
				return err
			}
		}
		if _, err := r.teams.RemoveMembersByUser(ctx, userID); err != nil {
			return err
		}
		if teamID == "" {
			return nil
		}
		var role *string
		if teamRole != nil {
			if v := strings.TrimSpace(*teamRole); v != "" {
				role = &v
			}
		}
		m, err := r.teams.AddMember(ctx, team.MemberParams{UserID: userID, TeamID: teamID, Role: role})
		if err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	database.AfterCommit(ctx, r.observer.PlayerTeamReplaced)
	return out, nil
}
