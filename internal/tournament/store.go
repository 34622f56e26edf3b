package tournament

import (
	"context"
	"fmt"
	"strings"

	"github.com/afina/roster/internal/database"
)

const tournamentColumns = `id, name, description, start_date, end_date, prize_pool, game, status, created_at, updated_at`

// Store provides Postgres operations for tournaments.
type Store struct {
	db *database.DB
}

// NewStore creates a new tournament store backed by the given database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

func scanTournament(scan func(dest ...any) error) (*Tournament, error) {
	t := &Tournament{}
	var status string
	err := scan(&t.ID, &t.Name, &t.Description, &t.StartDate, &t.EndDate, &t.PrizePool,
		&t.Game, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = Status(status)
	return t, nil
}

func translate(err error) error {
	if database.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

// Create inserts a new tournament.
func (s *Store) Create(ctx context.Context, p CreateParams) (*Tournament, error) {
	t, err := scanTournament(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx,
			`INSERT INTO tournaments (name, description, start_date, end_date, prize_pool, game, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+tournamentColumns,
			p.Name, p.Description, p.StartDate, p.EndDate, p.PrizePool, p.Game, string(p.Status),
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating tournament: %w", translate(err))
	}
	return t, nil
}

// GetByID retrieves a tournament by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Tournament, error) {
	t, err := scanTournament(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx,
			`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting tournament: %w", translate(err))
	}
	return t, nil
}

// List returns all tournaments, latest start date first.
func (s *Store) List(ctx context.Context) ([]*Tournament, error) {
	rows, err := s.db.Conn(ctx).Query(ctx,
		`SELECT `+tournamentColumns+` FROM tournaments ORDER BY start_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := []*Tournament{}
	for rows.Next() {
		t, err := scanTournament(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

// Update performs a partial update on the tournament with the given id.
func (s *Store) Update(ctx context.Context, id string, ch Changes) (*Tournament, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	set := func(expr string, value any) {
		setClauses = append(setClauses, fmt.Sprintf(expr, argIdx))
		args = append(args, value)
		argIdx++
	}

	if ch.Name != nil {
		set("name = $%d", *ch.Name)
	}
	if ch.Description != nil {
		set("description = NULLIF($%d, '')", *ch.Description)
	}
	if ch.StartDate != nil {
		set("start_date = $%d", *ch.StartDate)
	}
	switch {
	case ch.ClearEndDate:
		setClauses = append(setClauses, "end_date = NULL")
	case ch.EndDate != nil:
		set("end_date = $%d", *ch.EndDate)
	}
	switch {
	case ch.ClearPrizePool:
		setClauses = append(setClauses, "prize_pool = NULL")
	case ch.PrizePool != nil:
		set("prize_pool = $%d", *ch.PrizePool)
	}
	if ch.Game != nil {
		set("game = NULLIF($%d, '')", *ch.Game)
	}
	if ch.Status != nil {
		set("status = $%d", string(*ch.Status))
	}

	if len(setClauses) == 0 {
		return s.GetByID(ctx, id)
	}
	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE tournaments SET %s WHERE id = $%d RETURNING `+tournamentColumns,
		strings.Join(setClauses, ", "), argIdx,
	)

	t, err := scanTournament(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating tournament: %w", translate(err))
	}
	return t, nil
}

// Delete removes a tournament by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Conn(ctx).Exec(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting tournament: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every tournament.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.db.Conn(ctx).Exec(ctx, `DELETE FROM tournaments`)
	if err != nil {
		return 0, fmt.Errorf("deleting tournaments: %w", err)
	}
	return tag.RowsAffected(), nil
}
