package memstore

import (
	"context"
	"slices"
	"time"

	"github.com/afina/roster/internal/team"
)

// Teams implements team.Repository. Memberships live in the same store.
type Teams struct {
	s *Store
}

var _ team.Repository = (*Teams)(nil)

func (r *Teams) find(id string) int {
	for i := range r.s.data.teams {
		if r.s.data.teams[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Teams) tagTaken(tag, excludeID string) bool {
	for _, t := range r.s.data.teams {
		if t.Tag == tag && t.ID != excludeID {
			return true
		}
	}
	return false
}

func (r *Teams) userExists(id string) bool {
	return r.s.Users().find(id) >= 0
}

func (r *Teams) collect(keep func(team.Team) bool) []*team.Team {
	out := []*team.Team{}
	for _, t := range r.s.data.teams {
		if keep(t) {
			out = append(out, &t)
		}
	}
	newestFirst(out, func(t *team.Team) time.Time { return t.CreatedAt })
	return out
}

func (r *Teams) Create(ctx context.Context, p team.CreateParams) (*team.Team, error) {
	defer r.s.lock(ctx)()
	if r.tagTaken(p.Tag, "") {
		return nil, team.ErrTagTaken
	}
	if !r.userExists(p.ManagerID) {
		return nil, team.ErrUnknownReference
	}
	status := p.Status
	if status == "" {
		status = team.StatusActive
	}
	now := r.s.tick()
	t := team.Team{
		ID:          newID(),
		Name:        p.Name,
		Tag:         p.Tag,
		Logo:        nullable(p.Logo),
		Description: nullable(p.Description),
		Status:      status,
		ManagerID:   p.ManagerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.data.teams = append(r.s.data.teams, t)
	return &t, nil
}

func (r *Teams) GetByID(ctx context.Context, id string) (*team.Team, error) {
	defer r.s.lock(ctx)()
	i := r.find(id)
	if i < 0 {
		return nil, team.ErrNotFound
	}
	t := r.s.data.teams[i]
	return &t, nil
}

func (r *Teams) TagTaken(ctx context.Context, tag, excludeID string) (bool, error) {
	defer r.s.lock(ctx)()
	return r.tagTaken(tag, excludeID), nil
}

func (r *Teams) List(ctx context.Context) ([]*team.Team, error) {
	defer r.s.lock(ctx)()
	return r.collect(func(team.Team) bool { return true }), nil
}

func (r *Teams) ListByManager(ctx context.Context, managerID string) ([]*team.Team, error) {
	defer r.s.lock(ctx)()
	return r.collect(func(t team.Team) bool { return t.ManagerID == managerID }), nil
}

func (r *Teams) ListByIDs(ctx context.Context, ids []string) ([]*team.Team, error) {
	defer r.s.lock(ctx)()
	return r.collect(func(t team.Team) bool { return slices.Contains(ids, t.ID) }), nil
}

func (r *Teams) Update(ctx context.Context, id string, ch team.Changes) (*team.Team, error) {
	defer r.s.lock(ctx)()
	i := r.find(id)
	if i < 0 {
		return nil, team.ErrNotFound
	}
	if ch.Tag != nil && r.tagTaken(*ch.Tag, id) {
		return nil, team.ErrTagTaken
	}
	if ch.ManagerID != nil && !r.userExists(*ch.ManagerID) {
		return nil, team.ErrUnknownReference
	}

	t := r.s.data.teams[i]
	changed := false
	if ch.Name != nil {
		t.Name, changed = *ch.Name, true
	}
	if ch.Tag != nil {
		t.Tag, changed = *ch.Tag, true
	}
	if ch.Logo != nil {
		t.Logo, changed = nullable(ch.Logo), true
	}
	if ch.Description != nil {
		t.Description, changed = nullable(ch.Description), true
	}
	if ch.Status != nil {
		t.Status, changed = *ch.Status, true
	}
	if ch.ManagerID != nil {
		t.ManagerID, changed = *ch.ManagerID, true
	}
	if changed {
		t.UpdatedAt = r.s.tick()
		r.s.data.teams[i] = t
	}
	return &t, nil
}

func (r *Teams) SetManager(ctx context.Context, ids []string, managerID string) (int64, error) {
	defer r.s.lock(ctx)()
	if len(ids) == 0 {
		return 0, nil
	}
	if !r.userExists(managerID) {
		return 0, team.ErrUnknownReference
	}
	var n int64
	now := r.s.tick()
	for i := range r.s.data.teams {
		if slices.Contains(ids, r.s.data.teams[i].ID) {
			r.s.data.teams[i].ManagerID = managerID
			r.s.data.teams[i].UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *Teams) CountByManager(ctx context.Context, managerID string) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for _, t := range r.s.data.teams {
		if t.ManagerID == managerID {
			n++
		}
	}
	return n, nil
}

func (r *Teams) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	i := r.find(id)
	if i < 0 {
		return team.ErrNotFound
	}
	r.s.data.teams = append(r.s.data.teams[:i], r.s.data.teams[i+1:]...)
	r.s.data.members = dropMembers(r.s.data.members, func(m team.Member) bool { return m.TeamID == id })
	return nil
}

func (r *Teams) DeleteAll(ctx context.Context) (teams, members int64, err error) {
	defer r.s.lock(ctx)()
	teams, members = int64(len(r.s.data.teams)), int64(len(r.s.data.members))
	r.s.data.teams = nil
	r.s.data.members = nil
	return teams, members, nil
}

func (r *Teams) AddMember(ctx context.Context, p team.MemberParams) (*team.Member, error) {
	defer r.s.lock(ctx)()
	if !r.userExists(p.UserID) || r.find(p.TeamID) < 0 {
		return nil, team.ErrUnknownReference
	}
	for _, m := range r.s.data.members {
		if m.UserID == p.UserID && m.TeamID == p.TeamID {
			return nil, team.ErrAlreadyMember
		}
	}
	m := team.Member{
		ID:       newID(),
		UserID:   p.UserID,
		TeamID:   p.TeamID,
		Role:     nullable(p.Role),
		JoinedAt: r.s.tick(),
	}
	r.s.data.members = append(r.s.data.members, m)
	return &m, nil
}

func (r *Teams) RemoveMembersByUser(ctx context.Context, userID string) (int64, error) {
	defer r.s.lock(ctx)()
	before := len(r.s.data.members)
	r.s.data.members = dropMembers(r.s.data.members, func(m team.Member) bool { return m.UserID == userID })
	return int64(before - len(r.s.data.members)), nil
}

func (r *Teams) MembersByTeam(ctx context.Context, teamID string) ([]*team.Member, error) {
	defer r.s.lock(ctx)()
	return r.members(func(m team.Member) bool { return m.TeamID == teamID }), nil
}

func (r *Teams) MembershipsByUser(ctx context.Context, userID string) ([]*team.Member, error) {
	defer r.s.lock(ctx)()
	return r.members(func(m team.Member) bool { return m.UserID == userID }), nil
}

// members returns matching memberships in join order with team summaries.
func (r *Teams) members(keep func(team.Member) bool) []*team.Member {
	out := []*team.Member{}
	for _, m := range r.s.data.members {
		if !keep(m) {
			continue
		}
		if i := r.find(m.TeamID); i >= 0 {
			summary := r.s.data.teams[i].Summary()
			m.Team = &summary
		}
		out = append(out, &m)
	}
	return out
}

// dropMembers returns members without the rows matched by drop. It always
// allocates so that a snapshot taken by WithinTx is never aliased.
func dropMembers(members []team.Member, drop func(team.Member) bool) []team.Member {
	out := make([]team.Member, 0, len(members))
	for _, m := range members {
		if !drop(m) {
			out = append(out, m)
		}
	}
	return out
}
