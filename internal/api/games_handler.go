package api

import (
	"net/http"

	"github.com/afina/roster/internal/game"
)

// listGames handles GET /api/games.
func (s *server) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.deps.Games.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// createGame handles POST /api/games.
func (s *server) createGame(w http.ResponseWriter, r *http.Request) {
	var in game.CreateInput
	if err := readJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	g, err := s.deps.Games.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "create", "game", g.ID)
	writeJSON(w, http.StatusCreated, g)
}

// updateGame handles PUT /api/games/{id}.
func (s *server) updateGame(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, game.ErrNotFound)
	if !ok {
		return
	}
	var in game.UpdateInput
	if err := readJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	g, err := s.deps.Games.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "update", "game", id)
	writeJSON(w, http.StatusOK, g)
}

// deleteGame handles DELETE /api/games/{id}.
func (s *server) deleteGame(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, game.ErrNotFound)
	if !ok {
		return
	}
	if err := s.deps.Games.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "delete", "game", id)
	writeSuccess(w)
}
