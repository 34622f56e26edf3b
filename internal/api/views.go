package api

import (
	"github.com/afina/roster/internal/displayname"
	"github.com/afina/roster/internal/roster"
	"github.com/afina/roster/internal/team"
	"github.com/afina/roster/internal/user"
)

// userView is a user as the API returns it, with its derived display fields.
type userView struct {
	*user.User
	DisplayName string `json:"displayName"`
	Initial     string `json:"initial"`
}

func newUserView(u *user.User) *userView {
	if u == nil {
		return nil
	}
	s := u.Subject()
	return &userView{User: u, DisplayName: displayname.DisplayName(s), Initial: displayname.Initial(s)}
}

func newUserViews(us []*user.User) []*userView {
	out := make([]*userView, 0, len(us))
	for _, u := range us {
		out = append(out, newUserView(u))
	}
	return out
}

// playerView adds the cleaned name used to pre-fill edit forms.
type playerView struct {
	*roster.Player
	DisplayName string `json:"displayName"`
	Initial     string `json:"initial"`
	CleanName   string `json:"cleanName"`
}

func newPlayerView(p *roster.Player) *playerView {
	s := p.Subject()
	return &playerView{
		Player:      p,
		DisplayName: displayname.DisplayName(s),
		Initial:     displayname.Initial(s),
		CleanName:   displayname.CleanName(s.Name),
	}
}

type managerView struct {
	*roster.Manager
	DisplayName string `json:"displayName"`
	Initial     string `json:"initial"`
}

func newManagerView(m *roster.Manager) *managerView {
	s := m.Subject()
	return &managerView{Manager: m, DisplayName: displayname.DisplayName(s), Initial: displayname.Initial(s)}
}

type memberView struct {
	*team.Member
	User *userView `json:"user"`
}

type teamView struct {
	*team.Team
	Manager *userView    `json:"manager"`
	Members []memberView `json:"members"`
}

func newTeamView(d *team.Detail) *teamView {
	v := &teamView{Team: d.Team, Manager: newUserView(d.Manager), Members: make([]memberView, 0, len(d.Members))}
	for _, m := range d.Members {
		v.Members = append(v.Members, memberView{Member: m.Member, User: newUserView(m.User)})
	}
	return v
}
