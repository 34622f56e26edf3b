package api

import (
	"net/http"

	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/roster"
)

// listPlayers handles GET /api/players.
func (s *server) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.deps.Players.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]*playerView, 0, len(players))
	for _, p := range players {
		out = append(out, newPlayerView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// createPlayer handles POST /api/players.
func (s *server) createPlayer(w http.ResponseWriter, r *http.Request) {
	var in roster.PlayerInput
	if err := readJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	change, err := s.stageAvatar(r.Context(), "", in.Avatar)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := s.deps.Players.Create(r.Context(), in)
	s.settleAvatar(r.Context(), change, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "create", "player", p.ID)
	writeJSON(w, http.StatusCreated, newPlayerView(p))
}

// updatePlayer handles PUT /api/players/{id}.
func (s *server) updatePlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, roster.ErrPlayerNotFound)
	if !ok {
		return
	}
	var in roster.PlayerUpdate
	if err := readJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	change, err := s.stageAvatar(r.Context(), id, in.Avatar)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := s.deps.Players.Update(r.Context(), id, in)
	s.settleAvatar(r.Context(), change, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "update", "player", id)
	writeJSON(w, http.StatusOK, newPlayerView(p))
}

// deletePlayer handles DELETE /api/players/{id}.
func (s *server) deletePlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, roster.ErrPlayerNotFound)
	if !ok {
		return
	}
	caller := auth.PrincipalFromContext(r.Context())
	previous := s.storedAvatar(r.Context(), id)
	if err := s.deps.Players.Delete(r.Context(), caller.ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.deps.Avatars.Release(r.Context(), previous)
	s.recordAudit(r, "delete", "player", id)
	writeSuccess(w)
}
