package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/afina/roster/internal/apperr"
	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/user"
)

var errAvatarRequired = apperr.Validation("Avatar is required")

// listUsers handles GET /api/users.
func (s *server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.List(r.Context(), "")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserViews(users))
}

// updateUser handles PUT /api/users/{id}. An omitted role resets the account
// to PLAYER.
func (s *server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, user.ErrNotFound)
	if !ok {
		return
	}
	var in user.UpdateInput
	if err := readJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if in.Role == nil {
		role := string(auth.RolePlayer)
		in.Role = &role
	}
	change, err := s.stageAvatar(r.Context(), id, in.Avatar)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	u, err := s.deps.Users.Update(r.Context(), id, in)
	s.settleAvatar(r.Context(), change, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "update", "user", id)
	writeJSON(w, http.StatusOK, newUserView(u))
}

// deleteUser handles DELETE /api/users/{id}.
func (s *server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, user.ErrNotFound)
	if !ok {
		return
	}
	caller := auth.PrincipalFromContext(r.Context())

	previous := s.storedAvatar(r.Context(), id)
	if err := s.deps.Users.Delete(r.Context(), caller.ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.deps.Avatars.Release(r.Context(), previous)
	s.recordAudit(r, "delete", "user", id)
	writeSuccess(w)
}

// setAvatar handles PUT /api/users/{id}/avatar.
func (s *server) setAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, user.ErrNotFound)
	if !ok {
		return
	}
	var req struct {
		Avatar string `json:"avatar"`
	}
	if err := readJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Avatar) == "" {
		writeServiceError(w, r, errAvatarRequired)
		return
	}
	value, err := s.deps.Avatars.Normalize(r.Context(), req.Avatar)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.replaceAvatar(w, r, id, value)
}

// clearAvatar handles DELETE /api/users/{id}/avatar.
func (s *server) clearAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, user.ErrNotFound)
	if !ok {
		return
	}
	s.replaceAvatar(w, r, id, "")
}

func (s *server) replaceAvatar(w http.ResponseWriter, r *http.Request, id, value string) {
	u, previous, err := s.deps.Users.SetAvatar(r.Context(), id, value)
	if err != nil {
		// The new object is orphaned if the row could not be updated.
		s.deps.Avatars.Release(r.Context(), value)
		writeServiceError(w, r, err)
		return
	}
	if previous != value {
		s.deps.Avatars.Release(r.Context(), previous)
	}
	s.recordAudit(r, "avatar", "user", id)
	writeJSON(w, http.StatusOK, newUserView(u))
}

// avatarChange is an avatar written by a create or update. Once the write
// has finished, settleAvatar keeps only the object the row points at.
type avatarChange struct {
	previous string
	next     string
	set      bool
}

// stageAvatar rewrites *avatar in place to the value that should be stored,
// uploading inline images. id is the user being updated, or "" on create.
func (s *server) stageAvatar(ctx context.Context, id string, avatar *string) (avatarChange, error) {
	if avatar == nil {
		return avatarChange{}, nil
	}
	var previous string
	if id != "" {
		previous = s.storedAvatar(ctx, id)
	}
	next, err := s.deps.Avatars.Normalize(ctx, *avatar)
	if err != nil {
		return avatarChange{}, err
	}
	*avatar = next
	return avatarChange{previous: previous, next: next, set: true}, nil
}

// settleAvatar releases the new object when the write failed with err, and
// the replaced one when it succeeded.
func (s *server) settleAvatar(ctx context.Context, c avatarChange, err error) {
	if !c.set || c.next == c.previous {
		return
	}
	if err != nil {
		s.deps.Avatars.Release(ctx, c.next)
		return
	}
	s.deps.Avatars.Release(ctx, c.previous)
}

// storedAvatar returns the avatar currently stored for id, or "".
func (s *server) storedAvatar(ctx context.Context, id string) string {
	u, err := s.deps.Users.Get(ctx, id)
	if err != nil || u.Avatar == nil {
		return ""
	}
	return *u.Avatar
}
