package memstore

import (
	"context"
	"time"

	"github.com/afina/roster/internal/tournament"
)

// Tournaments implements tournament.Repository.
type Tournaments struct {
	s *Store
}

var _ tournament.Repository = (*Tournaments)(nil)

func (r *Tournaments) find(id string) int {
	for i := range r.s.data.tournaments {
		if r.s.data.tournaments[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Tournaments) Create(ctx context.Context, p tournament.CreateParams) (*tournament.Tournament, error) {
	defer r.s.lock(ctx)()
	status := p.Status
	if status == "" {
		status = tournament.StatusUpcoming
	}
	now := r.s.tick()
	t := tournament.Tournament{
		ID:          newID(),
		Name:        p.Name,
		Description: nullable(p.Description),
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		PrizePool:   p.PrizePool,
		Game:        nullable(p.Game),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.data.tournaments = append(r.s.data.tournaments, t)
	return &t, nil
}

func (r *Tournaments) GetByID(ctx context.Context, id string) (*tournament.Tournament, error) {
	defer r.s.lock(ctx)()
	i := r.find(id)
	if i < 0 {
		return nil, tournament.ErrNotFound
	}
	t := r.s.data.tournaments[i]
	return &t, nil
}

// List orders by start date, latest first, then by creation.
func (r *Tournaments) List(ctx context.Context) ([]*tournament.Tournament, error) {
	defer r.s.lock(ctx)()
	out := []*tournament.Tournament{}
	for _, t := range r.s.data.tournaments {
		out = append(out, &t)
	}
	newestFirst(out, func(t *tournament.Tournament) time.Time { return t.CreatedAt })
	newestFirst(out, func(t *tournament.Tournament) time.Time { return t.StartDate })
	return out, nil
}

func (r *Tournaments) Update(ctx context.Context, id string, ch tournament.Changes) (*tournament.Tournament, error) {
	defer r.s.lock(ctx)()
	i := r.find(id)
	if i < 0 {
		return nil, tournament.ErrNotFound
	}
	t := r.s.data.tournaments[i]
	if ch.Name != nil {
		t.Name = *ch.Name
	}
	if ch.Description != nil {
		t.Description = nullable(ch.Description)
	}
	if ch.StartDate != nil {
		t.StartDate = *ch.StartDate
	}
	switch {
	case ch.ClearEndDate:
		t.EndDate = nil
	case ch.EndDate != nil:
		end := *ch.EndDate
		t.EndDate = &end
	}
	switch {
	case ch.ClearPrizePool:
		t.PrizePool = nil
	case ch.PrizePool != nil:
		pool := *ch.PrizePool
		t.PrizePool = &pool
	}
	if ch.Game != nil {
		t.Game = nullable(ch.Game)
	}
	if ch.Status != nil {
		t.Status = *ch.Status
	}
	t.UpdatedAt = r.s.tick()
	r.s.data.tournaments[i] = t
	return &t, nil
}

func (r *Tournaments) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	i := r.find(id)
	if i < 0 {
		return tournament.ErrNotFound
	}
	r.s.data.tournaments = append(r.s.data.tournaments[:i], r.s.data.tournaments[i+1:]...)
	return nil
}

func (r *Tournaments) DeleteAll(ctx context.Context) (int64, error) {
	defer r.s.lock(ctx)()
	n := int64(len(r.s.data.tournaments))
	r.s.data.tournaments = nil
	return n, nil
}
