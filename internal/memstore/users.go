package memstore

import (
	"context"
	"time"

	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/team"
	"github.com/afina/roster/internal/user"
)

// Users implements user.Repository.
type Users struct {
	s *Store
}

var _ user.Repository = (*Users)(nil)

func (r *Users) find(id string) int {
	for i := range r.s.data.users {
		if r.s.data.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Users) emailTaken(email, excludeID string) bool {
	for _, u := range r.s.data.users {
		if u.Email == email && u.ID != excludeID {
			return true
		}
	}
	return false
}

func (r *Users) usernameTaken(username, excludeID string) bool {
	for _, u := range r.s.data.users {
		if u.Username != nil && *u.Username == username && u.ID != excludeID {
			return true
		}
	}
	return false
}

func (r *Users) Create(ctx context.Context, p user.CreateParams) (*user.User, error) {
	defer r.s.lock(ctx)()

	if r.emailTaken(p.Email, "") {
		return nil, user.ErrEmailTaken
	}
	if p.Username != nil && r.usernameTaken(*p.Username, "") {
		return nil, user.ErrUsernameTaken
	}
	now := r.s.tick()
	u := user.User{
		ID:           newID(),
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Name:         nullable(p.Name),
		Username:     nullable(p.Username),
		Role:         p.Role,
		Avatar:       nullable(p.Avatar),
		Bio:          nullable(p.Bio),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.data.users = append(r.s.data.users, u)
	return &u, nil
}

func (r *Users) GetByID(ctx context.Context, id string) (*user.User, error) {
	defer r.s.lock(ctx)()
	i := r.find(id)
	if i < 0 {
		return nil, user.ErrNotFound
	}
	u := r.s.data.users[i]
	return &u, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *Users) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	defer r.s.lock(ctx)()
	return r.emailTaken(email, excludeID), nil
}

func (r *Users) UsernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	defer r.s.lock(ctx)()
	return r.usernameTaken(username, excludeID), nil
}

func (r *Users) List(ctx context.Context, role auth.Role) ([]*user.User, error) {
	defer r.s.lock(ctx)()
	out := []*user.User{}
	for _, u := range r.s.data.users {
		if role == "" || u.Role == role {
			out = append(out, &u)
		}
	}
	newestFirst(out, func(u *user.User) time.Time { return u.CreatedAt })
	return out, nil
}

func (r *Users) FirstByRole(ctx context.Context, role auth.Role) (*user.User, error) {
	defer r.s.lock(ctx)()
	var first *user.User
	for _, u := range r.s.data.users {
		if u.Role != role {
			continue
		}
		if first == nil || u.CreatedAt.Before(first.CreatedAt) {
			first = &u
		}
	}
	return first, nil
}

func (r *Users) Count(ctx context.Context) (int, error) {
	defer r.s.lock(ctx)()
	return len(r.s.data.users), nil
}

func (r *Users) Update(ctx context.Context, id string, ch user.Changes) (*user.User, error) {
	defer r.s.lock(ctx)()
	i := r.find(id)
	if i < 0 {
		return nil, user.ErrNotFound
	}
	if ch.Empty() {
		u := r.s.data.users[i]
		return &u, nil
	}
	if ch.Email != nil && r.emailTaken(*ch.Email, id) {
		return nil, user.ErrEmailTaken
	}
	if ch.Username != nil && *ch.Username != "" && r.usernameTaken(*ch.Username, id) {
		return nil, user.ErrUsernameTaken
	}

	u := r.s.data.users[i]
	if ch.Email != nil {
		u.Email = *ch.Email
	}
	if ch.PasswordHash != nil {
		u.PasswordHash = *ch.PasswordHash
	}
	if ch.Name != nil {
		u.Name = nullable(ch.Name)
	}
	if ch.Username != nil {
		u.Username = nullable(ch.Username)
	}
	if ch.Role != nil {
		u.Role = *ch.Role
	}
	if ch.Avatar != nil {
		u.Avatar = nullable(ch.Avatar)
	}
	if ch.Bio != nil {
		u.Bio = nullable(ch.Bio)
	}
	u.UpdatedAt = r.s.tick()
	r.s.data.users[i] = u
	return &u, nil
}

func (r *Users) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	i := r.find(id)
	if i < 0 {
		return user.ErrNotFound
	}
	if r.managesTeams(id) {
		return user.ErrStillReferenced
	}
	r.s.data.users = append(r.s.data.users[:i], r.s.data.users[i+1:]...)
	r.s.data.members = dropMembers(r.s.data.members, func(m team.Member) bool { return m.UserID == id })
	return nil
}

func (r *Users) DeleteAllExcept(ctx context.Context, keepID string) (int64, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.data.users {
		if u.ID != keepID && r.managesTeams(u.ID) {
			return 0, user.ErrStillReferenced
		}
	}
	kept := r.s.data.users[:0:0]
	var n int64
	for _, u := range r.s.data.users {
		if u.ID == keepID {
			kept = append(kept, u)
			continue
		}
		n++
	}
	r.s.data.users = kept
	r.s.data.members = dropMembers(r.s.data.members, func(m team.Member) bool { return m.UserID != keepID })
	return n, nil
}

func (r *Users) managesTeams(id string) bool {
	for _, t := range r.s.data.teams {
		if t.ManagerID == id {
			return true
		}
	}
	return false
}
