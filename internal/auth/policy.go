package auth

import (
	"slices"

	"github.com/afina/roster/internal/apperr"
)

// Operation names a guarded action.
type Operation string

const (
	OpMe              Operation = "auth.me"
	OpUsersList       Operation = "users.list"
	OpUsersUpdate     Operation = "users.update"
	OpUsersDelete     Operation = "users.delete"
	OpUsersAvatar     Operation = "users.avatar"
	OpGamesList       Operation = "games.list"
	OpGamesWrite      Operation = "games.write"
	OpManagersList    Operation = "managers.list"
	OpManagersWrite   Operation = "managers.write"
	OpManagersDelete  Operation = "managers.delete"
	OpPlayersList     Operation = "players.list"
	OpPlayersWrite    Operation = "players.write"
	OpPlayersDelete   Operation = "players.delete"
	OpTeamsList       Operation = "teams.list"
	OpTeamsWrite      Operation = "teams.write"
	OpTeamsDelete     Operation = "teams.delete"
	OpTournamentsList Operation = "tournaments.list"
	OpTournamentsEdit Operation = "tournaments.write"
	OpAdminRead       Operation = "admin.read"
	OpAdminMaintain   Operation = "admin.maintain"
)

// Rule describes who may perform an operation. Public operations need no
// session. SelfOrAdmin operations are allowed for ADMIN or for the principal
// whose id equals the subject of the request.
type Rule struct {
	Public      bool
	Roles       []Role
	SelfOrAdmin bool
}

var (
	ErrUnauthenticated = apperr.New(apperr.KindUnauthenticated, "Unauthorized")
	ErrForbidden       = apperr.New(apperr.KindForbidden, "Forbidden")
)

var (
	adminOnly     = Rule{Roles: []Role{RoleAdmin}}
	staff         = Rule{Roles: []Role{RoleAdmin, RoleManager}}
	authenticated = Rule{Roles: AllRoles}
	public        = Rule{Public: true}
)

var policy = map[Operation]Rule{
	OpMe:              authenticated,
	OpUsersList:       adminOnly,
	OpUsersUpdate:     adminOnly,
	OpUsersDelete:     adminOnly,
	OpUsersAvatar:     {SelfOrAdmin: true},
	OpGamesList:       public,
	OpGamesWrite:      adminOnly,
	OpManagersList:    adminOnly,
	OpManagersWrite:   adminOnly,
	OpManagersDelete:  adminOnly,
	OpPlayersList:     staff,
	OpPlayersWrite:    staff,
	OpPlayersDelete:   adminOnly,
	OpTeamsList:       authenticated,
	OpTeamsWrite:      staff,
	OpTeamsDelete:     adminOnly,
	OpTournamentsList: public,
	OpTournamentsEdit: staff,
	OpAdminRead:       adminOnly,
	OpAdminMaintain:   adminOnly,
}

// RuleFor returns the rule for op and whether op is known.
func RuleFor(op Operation) (Rule, bool) {
	r, ok := policy[op]
	return r, ok
}

// Operations returns every operation in the policy table.
func Operations() []Operation {
	ops := make([]Operation, 0, len(policy))
	for op := range policy {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}

// Authorize decides op for p, which is nil for anonymous requests. Unknown
// operations are forbidden.
func Authorize(p *Principal, op Operation) error {
	return AuthorizeSubject(p, op, "")
}

// AuthorizeSubject is Authorize for operations that act on a specific user,
// identified by subjectID.
func AuthorizeSubject(p *Principal, op Operation, subjectID string) error {
	rule, ok := policy[op]
	if !ok {
		if p == nil {
			return ErrUnauthenticated
		}
		return ErrForbidden
	}
	if rule.Public {
		return nil
	}
	if p == nil {
		return ErrUnauthenticated
	}
	if rule.SelfOrAdmin {
		if p.IsAdmin() || (subjectID != "" && p.ID == subjectID) {
			return nil
		}
		return ErrForbidden
	}
	if slices.Contains(rule.Roles, p.Role) {
		return nil
	}
	return ErrForbidden
}
