package game

import (
	"context"
	"strings"

	"github.com/afina/roster/internal/apperr"
	"github.com/afina/roster/internal/database"
)

var (
	ErrNotFound              = apperr.NotFound("Game not found")
	ErrNameRequired          = apperr.Validation("Name is required")
	ErrInvalidPlayersPerTeam = apperr.Validation("playersPerTeam must be a positive integer")
	ErrNameTaken             = apperr.Conflict("Game with this name already exists")
)

// Repository is the storage the games service depends on.
type Repository interface {
	Create(ctx context.Context, p Params) (*Game, error)
	GetByID(ctx context.Context, id string) (*Game, error)
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)
	List(ctx context.Context) ([]*Game, error)
	Update(ctx context.Context, id string, p Params) (*Game, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Service implements validation and business rules for games.
type Service struct {
	repo Repository
	tx   database.Transactor
}

// NewService creates a new games service.
func NewService(repo Repository, tx database.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

// List returns all games, newest first.
func (s *Service) List(ctx context.Context) ([]*Game, error) {
	return s.repo.List(ctx)
}

// Create validates in and stores a new game.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Game, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	size := DefaultPlayersPerTeam
	if in.PlayersPerTeam != nil {
		size = *in.PlayersPerTeam
	}
	if size <= 0 {
		return nil, ErrInvalidPlayersPerTeam
	}

	var out *Game
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		taken, err := s.repo.NameTaken(ctx, name, "")
		if err != nil {
			return err
		}
		if taken {
			return ErrNameTaken
		}
		out, err = s.repo.Create(ctx, Params{
			Name:           &name,
			Description:    nullable(in.Description),
			Icon:           nullable(in.Icon),
			Color:          nullable(in.Color),
			PlayersPerTeam: &size,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial update. A name change re-checks uniqueness.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Game, error) {
	var out *Game
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		var p Params
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ErrNameRequired
			}
			if name != current.Name {
				taken, err := s.repo.NameTaken(ctx, name, id)
				if err != nil {
					return err
				}
				if taken {
					return ErrNameTaken
				}
				p.Name = &name
			}
		}
		if in.PlayersPerTeam != nil {
			if *in.PlayersPerTeam <= 0 {
				return ErrInvalidPlayersPerTeam
			}
			p.PlayersPerTeam = in.PlayersPerTeam
		}
		p.Description = trimmed(in.Description)
		p.Icon = trimmed(in.Icon)
		p.Color = trimmed(in.Color)

		out, err = s.repo.Update(ctx, id, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a game.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func nullable(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
