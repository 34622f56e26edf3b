package memstore

import (
	"context"
	"time"

	"github.com/afina/roster/internal/game"
)

// Games implements game.Repository.
type Games struct {
	s *Store
}

var _ game.Repository = (*Games)(nil)

func (r *Games) find(id string) int {
	for i := range r.s.data.games {
		if r.s.data.games[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Games) nameTaken(name, excludeID string) bool {
	for _, g := range r.s.data.games {
		if g.Name == name && g.ID != excludeID {
			return true
		}
	}
	return false
}

func (r *Games) Create(ctx context.Context, p game.Params) (*game.Game, error) {
	defer r.s.lock(ctx)()
	if p.Name == nil {
		return nil, game.ErrNameRequired
	}
	if r.nameTaken(*p.Name, "") {
		return nil, game.ErrNameTaken
	}
	size := game.DefaultPlayersPerTeam
	if p.PlayersPerTeam != nil {
		size = *p.PlayersPerTeam
	}
	now := r.s.tick()
	g := game.Game{
		ID:             newID(),
		Name:           *p.Name,
		Description:    nullable(p.Description),
		Icon:           nullable(p.Icon),
		Color:          nullable(p.Color),
		PlayersPerTeam: size,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.s.data.games = append(r.s.data.games, g)
	return &g, nil
}

func (r *Games) GetByID(ctx context.Context, id string) (*game.Game, error) {
	defer r.s.lock(ctx)()
	i := r.find(id)
	if i < 0 {
		return nil, game.ErrNotFound
	}
	g := r.s.data.games[i]
	return &g, nil
}

func (r *Games) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	defer r.s.lock(ctx)()
	return r.nameTaken(name, excludeID), nil
}

func (r *Games) List(ctx context.Context) ([]*game.Game, error) {
	defer r.s.lock(ctx)()
	out := []*game.Game{}
	for _, g := range r.s.data.games {
		out = append(out, &g)
	}
	newestFirst(out, func(g *game.Game) time.Time { return g.CreatedAt })
	return out, nil
}

func (r *Games) Update(ctx context.Context, id string, p game.Params) (*game.Game, error) {
	defer r.s.lock(ctx)()
	i := r.find(id)
	if i < 0 {
		return nil, game.ErrNotFound
	}
	if p.Name != nil && r.nameTaken(*p.Name, id) {
		return nil, game.ErrNameTaken
	}
	g := r.s.data.games[i]
	changed := false
	if p.Name != nil {
		g.Name, changed = *p.Name, true
	}
	if p.Description != nil {
		g.Description, changed = nullable(p.Description), true
	}
	if p.Icon != nil {
		g.Icon, changed = nullable(p.Icon), true
	}
	if p.Color != nil {
		g.Color, changed = nullable(p.Color), true
	}
	if p.PlayersPerTeam != nil {
		g.PlayersPerTeam, changed = *p.PlayersPerTeam, true
	}
	if changed {
		g.UpdatedAt = r.s.tick()
		r.s.data.games[i] = g
	}
	return &g, nil
}

func (r *Games) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	i := r.find(id)
	if i < 0 {
		return game.ErrNotFound
	}
	r.s.data.games = append(r.s.data.games[:i], r.s.data.games[i+1:]...)
	return nil
}

func (r *Games) DeleteAll(ctx context.Context) (int64, error) {
	defer r.s.lock(ctx)()
	n := int64(len(r.s.data.games))
	r.s.data.games = nil
	return n, nil
}
