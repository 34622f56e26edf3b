package memstore

import (
	"context"

	"github.com/afina/roster/internal/audit"
)

// Audit implements the audit trail store.
type Audit struct {
	s *Store
}

// BatchInsert appends entries and assigns their ids.
func (r *Audit) BatchInsert(ctx context.Context, entries []audit.Entry) error {
	defer r.s.lock(ctx)()
	for _, e := range entries {
		r.s.data.auditSeq++
		e.ID = r.s.data.auditSeq
		r.s.data.audit = append(r.s.data.audit, e)
	}
	return nil
}

// List returns a page of entries, newest first.
func (r *Audit) List(ctx context.Context, q audit.Query) ([]*audit.Entry, error) {
	defer r.s.lock(ctx)()
	q = q.Normalize()
	out := []*audit.Entry{}
	for i := len(r.s.data.audit) - 1; i >= 0 && len(out) < q.Limit; i-- {
		e := r.s.data.audit[i]
		if q.Before != 0 && e.ID >= q.Before {
			continue
		}
		out = append(out, &e)
	}
	return out, nil
}
