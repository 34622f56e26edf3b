package api

import (
	"net/http"

	"github.com/afina/roster/internal/tournament"
)

// listTournaments handles GET /api/tournaments.
func (s *server) listTournaments(w http.ResponseWriter, r *http.Request) {
	ts, err := s.deps.Tournaments.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

// createTournament handles POST /api/tournaments.
func (s *server) createTournament(w http.ResponseWriter, r *http.Request) {
	var in tournament.CreateInput
	if err := readJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	t, err := s.deps.Tournaments.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "create", "tournament", t.ID)
	writeJSON(w, http.StatusCreated, t)
}

// updateTournament handles PUT /api/tournaments/{id}.
func (s *server) updateTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, tournament.ErrNotFound)
	if !ok {
		return
	}
	var in tournament.UpdateInput
	if err := readJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	t, err := s.deps.Tournaments.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "update", "tournament", id)
	writeJSON(w, http.StatusOK, t)
}

// deleteTournament handles DELETE /api/tournaments/{id}.
func (s *server) deleteTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, tournament.ErrNotFound)
	if !ok {
		return
	}
	if err := s.deps.Tournaments.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "delete", "tournament", id)
	writeSuccess(w)
}
