package team

import (
	"context"
	"fmt"
	"strings"

	"github.com/afina/roster/internal/database"
)

const teamColumns = `id, name, tag, logo, description, status, manager_id, created_at, updated_at`

// Store provides Postgres operations for teams and memberships.
type Store struct {
	db *database.DB
}

// NewStore creates a new team store backed by the given database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

func scanTeam(scan func(dest ...any) error) (*Team, error) {
	t := &Team{}
	var status string
	err := scan(&t.ID, &t.Name, &t.Tag, &t.Logo, &t.Description, &status,
		&t.ManagerID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = Status(status)
	return t, nil
}

func translate(err error) error {
	switch {
	case database.IsUniqueViolation(err):
		if strings.Contains(database.ViolatedConstraint(err), "team_members") {
			return ErrAlreadyMember
		}
		return ErrTagTaken
	case database.IsForeignKeyViolation(err):
		return ErrUnknownReference
	case database.IsNotFound(err):
		return ErrNotFound
	}
	return err
}

func (s *Store) queryTeams(ctx context.Context, query string, args ...any) ([]*Team, error) {
	rows, err := s.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	teams := []*Team{}
	for rows.Next() {
		t, err := scanTeam(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// Create inserts a new team.
func (s *Store) Create(ctx context.Context, p CreateParams) (*Team, error) {
	t, err := scanTeam(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx,
			`INSERT INTO teams (name, tag, logo, description, status, manager_id)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING `+teamColumns,
			p.Name, p.Tag, p.Logo, p.Description, string(p.Status), p.ManagerID,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating team: %w", translate(err))
	}
	return t, nil
}

// GetByID retrieves a team by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Team, error) {
	t, err := scanTeam(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx,
			`SELECT `+teamColumns+` FROM teams WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting team: %w", translate(err))
	}
	return t, nil
}

// TagTaken reports whether a team other than excludeID uses tag.
func (s *Store) TagTaken(ctx context.Context, tag, excludeID string) (bool, error) {
	var ok bool
	err := s.db.Conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM teams WHERE tag = $1 AND id::text <> $2)`, tag, excludeID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking team tag: %w", err)
	}
	return ok, nil
}

// List returns all teams, newest first.
func (s *Store) List(ctx context.Context) ([]*Team, error) {
	return s.queryTeams(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY created_at DESC`)
}

// ListByManager returns the teams whose manager is managerID.
func (s *Store) ListByManager(ctx context.Context, managerID string) ([]*Team, error) {
	return s.queryTeams(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE manager_id = $1 ORDER BY created_at DESC`, managerID)
}

// ListByIDs returns the teams with the given ids that exist.
func (s *Store) ListByIDs(ctx context.Context, ids []string) ([]*Team, error) {
	if len(ids) == 0 {
		return []*Team{}, nil
	}
	return s.queryTeams(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id::text = ANY($1) ORDER BY created_at DESC`, ids)
}

// Update performs a partial update on the team with the given id.
func (s *Store) Update(ctx context.Context, id string, ch Changes) (*Team, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	set := func(column string, value any, nullable bool) {
		if nullable {
			setClauses = append(setClauses, fmt.Sprintf("%s = NULLIF($%d, '')", column, argIdx))
		} else {
			setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		}
		args = append(args, value)
		argIdx++
	}

	if ch.Name != nil {
		set("name", *ch.Name, false)
	}
	if ch.Tag != nil {
		set("tag", *ch.Tag, false)
	}
	if ch.Logo != nil {
		set("logo", *ch.Logo, true)
	}
	if ch.Description != nil {
		set("description", *ch.Description, true)
	}
	if ch.Status != nil {
		set("status", string(*ch.Status), false)
	}
	if ch.ManagerID != nil {
		set("manager_id", *ch.ManagerID, false)
	}

	if len(setClauses) == 0 {
		return s.GetByID(ctx, id)
	}
	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE teams SET %s WHERE id = $%d RETURNING `+teamColumns,
		strings.Join(setClauses, ", "), argIdx,
	)

	t, err := scanTeam(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating team: %w", translate(err))
	}
	return t, nil
}

// SetManager points every team in ids at managerID.
func (s *Store) SetManager(ctx context.Context, ids []string, managerID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.db.Conn(ctx).Exec(ctx,
		`UPDATE teams SET manager_id = $1, updated_at = now() WHERE id::text = ANY($2)`,
		managerID, ids)
	if err != nil {
		return 0, fmt.Errorf("reassigning teams: %w", translate(err))
	}
	return tag.RowsAffected(), nil
}

// CountByManager returns how many teams managerID owns.
func (s *Store) CountByManager(ctx context.Context, managerID string) (int, error) {
	var n int
	err := s.db.Conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM teams WHERE manager_id = $1`, managerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting managed teams: %w", err)
	}
	return n, nil
}

// Delete removes a team by id. Memberships cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Conn(ctx).Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting team: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every team and membership, returning the counts.
func (s *Store) DeleteAll(ctx context.Context) (teams, members int64, err error) {
	tag, err := s.db.Conn(ctx).Exec(ctx, `DELETE FROM team_members`)
	if err != nil {
		return 0, 0, fmt.Errorf("deleting members: %w", err)
	}
	members = tag.RowsAffected()
	tag, err = s.db.Conn(ctx).Exec(ctx, `DELETE FROM teams`)
	if err != nil {
		return 0, 0, fmt.Errorf("deleting teams: %w", err)
	}
	return tag.RowsAffected(), members, nil
}

// AddMember inserts a membership.
func (s *Store) AddMember(ctx context.Context, p MemberParams) (*Member, error) {
	m := &Member{}
	err := s.db.Conn(ctx).QueryRow(ctx,
		`INSERT INTO team_members (user_id, team_id, role)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, team_id, role, joined_at`,
		p.UserID, p.TeamID, p.Role,
	).Scan(&m.ID, &m.UserID, &m.TeamID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("adding team member: %w", translate(err))
	}
	return m, nil
}

// RemoveMembersByUser deletes every membership of userID.
func (s *Store) RemoveMembersByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := s.db.Conn(ctx).Exec(ctx, `DELETE FROM team_members WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("removing memberships: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MembersByTeam returns the members of teamID in join order.
func (s *Store) MembersByTeam(ctx context.Context, teamID string) ([]*Member, error) {
	return s.queryMembers(ctx,
		`SELECT m.id, m.user_id, m.team_id, m.role, m.joined_at, t.name, t.tag, t.status
		 FROM team_members m JOIN teams t ON t.id = m.team_id
		 WHERE m.team_id = $1 ORDER BY m.joined_at ASC`, teamID)
}

// MembershipsByUser returns the memberships of userID with team summaries.
func (s *Store) MembershipsByUser(ctx context.Context, userID string) ([]*Member, error) {
	return s.queryMembers(ctx,
		`SELECT m.id, m.user_id, m.team_id, m.role, m.joined_at, t.name, t.tag, t.status
		 FROM team_members m JOIN teams t ON t.id = m.team_id
		 WHERE m.user_id = $1 ORDER BY m.joined_at ASC`, userID)
}

func (s *Store) queryMembers(ctx context.Context, query string, args ...any) ([]*Member, error) {
	rows, err := s.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	members := []*Member{}
	for rows.Next() {
		m := &Member{Team: &Summary{}}
		var status string
		if err := rows.Scan(&m.ID, &m.UserID, &m.TeamID, &m.Role, &m.JoinedAt,
			&m.Team.Name, &m.Team.Tag, &status); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		m.Team.ID = m.TeamID
		m.Team.Status = Status(status)
		members = append(members, m)
	}
	return members, rows.Err()
}
