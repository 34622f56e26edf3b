package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/afina/roster/internal/database"
)

const gameColumns = `id, name, description, icon, color, players_per_team, created_at, updated_at`

// Store provides Postgres operations for games.
type Store struct {
	db *database.DB
}

// NewStore creates a new game store backed by the given database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

func scanGame(scan func(dest ...any) error) (*Game, error) {
	g := &Game{}
	err := scan(&g.ID, &g.Name, &g.Description, &g.Icon, &g.Color, &g.PlayersPerTeam,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func translate(err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return ErrNameTaken
	case database.IsNotFound(err):
		return ErrNotFound
	}
	return err
}

// Create inserts a new game.
func (s *Store) Create(ctx context.Context, p Params) (*Game, error) {
	g, err := scanGame(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx,
			`INSERT INTO games (name, description, icon, color, players_per_team)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING `+gameColumns,
			p.Name, p.Description, p.Icon, p.Color, p.PlayersPerTeam,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating game: %w", translate(err))
	}
	return g, nil
}

// GetByID retrieves a game by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Game, error) {
	g, err := scanGame(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx,
			`SELECT `+gameColumns+` FROM games WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting game: %w", translate(err))
	}
	return g, nil
}

// NameTaken reports whether a game other than excludeID uses name.
func (s *Store) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var ok bool
	err := s.db.Conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM games WHERE name = $1 AND id::text <> $2)`, name, excludeID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking game name: %w", err)
	}
	return ok, nil
}

// List returns all games, newest first.
func (s *Store) List(ctx context.Context) ([]*Game, error) {
	rows, err := s.db.Conn(ctx).Query(ctx,
		`SELECT `+gameColumns+` FROM games ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	games := []*Game{}
	for rows.Next() {
		g, err := scanGame(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning game row: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Update performs a partial update on the game with the given id.
func (s *Store) Update(ctx context.Context, id string, p Params) (*Game, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if p.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *p.Name)
		argIdx++
	}
	for _, f := range []struct {
		column string
		value  *string
	}{
		{"description", p.Description},
		{"icon", p.Icon},
		{"color", p.Color},
	} {
		if f.value != nil {
			setClauses = append(setClauses, fmt.Sprintf("%s = NULLIF($%d, '')", f.column, argIdx))
			args = append(args, *f.value)
			argIdx++
		}
	}
	if p.PlayersPerTeam != nil {
		setClauses = append(setClauses, fmt.Sprintf("players_per_team = $%d", argIdx))
		args = append(args, *p.PlayersPerTeam)
		argIdx++
	}

	if len(setClauses) == 0 {
		return s.GetByID(ctx, id)
	}
	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE games SET %s WHERE id = $%d RETURNING `+gameColumns,
		strings.Join(setClauses, ", "), argIdx,
	)

	g, err := scanGame(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating game: %w", translate(err))
	}
	return g, nil
}

// Delete removes a game by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Conn(ctx).Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting game: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every game.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.db.Conn(ctx).Exec(ctx, `DELETE FROM games`)
	if err != nil {
		return 0, fmt.Errorf("deleting games: %w", err)
	}
	return tag.RowsAffected(), nil
}
