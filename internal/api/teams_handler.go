package api

import (
	"net/http"

	"github.com/afina/roster/internal/team"
)

// listTeams handles GET /api/teams.
func (s *server) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.deps.Teams.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// getTeam handles GET /api/teams/{id}.
func (s *server) getTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, team.ErrNotFound)
	if !ok {
		return
	}
	d, err := s.deps.Teams.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTeamView(d))
}

// createTeam handles POST /api/teams.
func (s *server) createTeam(w http.ResponseWriter, r *http.Request) {
	var in team.CreateInput
	if err := readJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	d, err := s.deps.Teams.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "create", "team", d.ID)
	writeJSON(w, http.StatusCreated, newTeamView(d))
}

// updateTeam handles PUT /api/teams/{id}.
func (s *server) updateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, team.ErrNotFound)
	if !ok {
		return
	}
	var in team.UpdateInput
	if err := readJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	d, err := s.deps.Teams.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "update", "team", id)
	writeJSON(w, http.StatusOK, newTeamView(d))
}

// deleteTeam handles DELETE /api/teams/{id}.
func (s *server) deleteTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, team.ErrNotFound)
	if !ok {
		return
	}
	if err := s.deps.Teams.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "delete", "team", id)
	writeSuccess(w)
}
