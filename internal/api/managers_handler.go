package api

import (
	"net/http"

	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/roster"
)

// listManagers handles GET /api/managers.
func (s *server) listManagers(w http.ResponseWriter, r *http.Request) {
	managers, err := s.deps.Managers.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]*managerView, 0, len(managers))
	for _, m := range managers {
		out = append(out, newManagerView(m))
	}
	writeJSON(w, http.StatusOK, out)
}

// createManager handles POST /api/managers.
func (s *server) createManager(w http.ResponseWriter, r *http.Request) {
	var in roster.ManagerInput
	if err := readJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	change, err := s.stageAvatar(r.Context(), "", in.Avatar)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	m, err := s.deps.Managers.Create(r.Context(), in)
	s.settleAvatar(r.Context(), change, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "create", "manager", m.ID)
	writeJSON(w, http.StatusCreated, newManagerView(m))
}

// updateManager handles PUT /api/managers/{id}. A teamIds array replaces the
// manager's teams; teams it loses go to the fallback manager.
func (s *server) updateManager(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, roster.ErrManagerNotFound)
	if !ok {
		return
	}
	var in roster.ManagerUpdate
	if err := readJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	change, err := s.stageAvatar(r.Context(), id, in.Avatar)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	m, err := s.deps.Managers.Update(r.Context(), id, in)
	s.settleAvatar(r.Context(), change, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "update", "manager", id)
	writeJSON(w, http.StatusOK, newManagerView(m))
}

// deleteManager handles DELETE /api/managers/{id}.
func (s *server) deleteManager(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, roster.ErrManagerNotFound)
	if !ok {
		return
	}
	caller := auth.PrincipalFromContext(r.Context())
	previous := s.storedAvatar(r.Context(), id)
	if err := s.deps.Managers.Delete(r.Context(), caller.ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.deps.Avatars.Release(r.Context(), previous)
	s.recordAudit(r, "delete", "manager", id)
	writeSuccess(w)
}
