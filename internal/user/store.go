package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/database"
)

const userColumns = `id, email, password_hash, name, username, role, avatar, bio, created_at, updated_at`

// Store provides Postgres operations for users.
type Store struct {
	db *database.DB
}

// NewStore creates a new user store backed by the given database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

func scanUser(scan func(dest ...any) error) (*User, error) {
	u := &User{}
	var role string
	err := scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Username, &role,
		&u.Avatar, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	return u, nil
}

// translate maps integrity violations to the domain conflicts they stand for.
func translate(err error) error {
	if database.IsUniqueViolation(err) {
		if strings.Contains(database.ViolatedConstraint(err), "username") {
			return ErrUsernameTaken
		}
		return ErrEmailTaken
	}
	if database.IsForeignKeyViolation(err) {
		return ErrStillReferenced
	}
	if database.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

// Create inserts a new user.
func (s *Store) Create(ctx context.Context, p CreateParams) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx,
			`INSERT INTO users (email, password_hash, name, username, role, avatar, bio)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+userColumns,
			p.Email, p.PasswordHash, p.Name, p.Username, string(p.Role), p.Avatar, p.Bio,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", translate(err))
	}
	return u, nil
}

// GetByID retrieves a user by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", translate(err))
	}
	return u, nil
}

// GetByEmail retrieves a user by email address.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", translate(err))
	}
	return u, nil
}

// EmailTaken reports whether another user than excludeID uses email.
func (s *Store) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id::text <> $2)`, email, excludeID)
}

// UsernameTaken reports whether another user than excludeID uses username.
func (s *Store) UsernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id::text <> $2)`, username, excludeID)
}

func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := s.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking user uniqueness: %w", err)
	}
	return ok, nil
}

// List returns users ordered by created_at DESC, optionally filtered by role.
func (s *Store) List(ctx context.Context, role auth.Role) ([]*User, error) {
	rows, err := s.db.Conn(ctx).Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE ($1 = '' OR role = $1)
		 ORDER BY created_at DESC`, string(role))
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// FirstByRole returns the earliest created user with role, or nil if none.
func (s *Store) FirstByRole(ctx context.Context, role auth.Role) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE role = $1
			 ORDER BY created_at ASC, id ASC LIMIT 1`, string(role),
		).Scan(dest...)
	})
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding first %s: %w", role, err)
	}
	return u, nil
}

// Count returns the number of users.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.Conn(ctx).QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// Update performs a partial update on the user with the given id.
func (s *Store) Update(ctx context.Context, id string, ch Changes) (*User, error) {
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

	if ch.Email != nil {
		set("email", *ch.Email, false)
	}
	if ch.PasswordHash != nil {
		set("password_hash", *ch.PasswordHash, false)
	}
	if ch.Name != nil {
		set("name", *ch.Name, true)
	}
	if ch.Username != nil {
		set("username", *ch.Username, true)
	}
	if ch.Role != nil {
		set("role", string(*ch.Role), false)
	}
	if ch.Avatar != nil {
		set("avatar", *ch.Avatar, true)
	}
	if ch.Bio != nil {
		set("bio", *ch.Bio, true)
	}

	if len(setClauses) == 0 {
		return s.GetByID(ctx, id)
	}
	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d RETURNING `+userColumns,
		strings.Join(setClauses, ", "), argIdx,
	)

	u, err := scanUser(func(dest ...any) error {
		return s.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", translate(err))
	}
	return u, nil
}

// Delete removes a user by id. Memberships cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllExcept removes every user but keepID and returns how many went.
func (s *Store) DeleteAllExcept(ctx context.Context, keepID string) (int64, error) {
	tag, err := s.db.Conn(ctx).Exec(ctx, `DELETE FROM users WHERE id::text <> $1`, keepID)
	if err != nil {
		return 0, fmt.Errorf("deleting users: %w", err)
	}
	return tag.RowsAffected(), nil
}
