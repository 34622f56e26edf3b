package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/afina/roster/internal/database"
)

var auditColumns = []string{
	"occurred_at", "actor_id", "actor_email", "actor_role",
	"action", "resource_type", "resource_id", "ip", "request_id",
}

// Store provides Postgres operations for the audit trail.
type Store struct {
	db *database.DB
}

// NewStore creates a new audit store backed by the given database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// BatchInsert copies entries into audit_log. It is a no-op when entries is
// empty.
func (s *Store) BatchInsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	src := pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
		e := entries[i]
		return []any{
			e.OccurredAt, e.ActorID, e.ActorEmail, e.ActorRole,
			e.Action, e.ResourceType, e.ResourceID, e.IP, e.RequestID,
		}, nil
	})
	if _, err := s.db.Conn(ctx).CopyFrom(ctx, pgx.Identifier{"audit_log"}, auditColumns, src); err != nil {
		return fmt.Errorf("copying audit entries: %w", err)
	}
	return nil
}

// List returns a page of entries ordered by id DESC.
func (s *Store) List(ctx context.Context, q Query) ([]*Entry, error) {
	q = q.Normalize()
	rows, err := s.db.Conn(ctx).Query(ctx,
		`SELECT id, occurred_at, actor_id, actor_email, actor_role,
		        action, resource_type, resource_id, ip, request_id
		 FROM audit_log
		 WHERE ($1 = 0 OR id < $1)
		 ORDER BY id DESC
		 LIMIT $2`, q.Before, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.ActorID, &e.ActorEmail, &e.ActorRole,
			&e.Action, &e.ResourceType, &e.ResourceID, &e.IP, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

