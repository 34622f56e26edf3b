// Package memstore keeps every roster repository in process memory. It backs
// the service tests and `roster serve --in-memory`, and mirrors the
// constraints the Postgres schema enforces (unique columns, restricted and
// cascading foreign keys).
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/afina/roster/internal/audit"
	"github.com/afina/roster/internal/database"
	"github.com/afina/roster/internal/game"
	"github.com/afina/roster/internal/team"
	"github.com/afina/roster/internal/tournament"
	"github.com/afina/roster/internal/user"
)

type txKey struct{}

type state struct {
	users       []user.User
	teams       []team.Team
	members     []team.Member
	games       []game.Game
	tournaments []tournament.Tournament
	audit       []audit.Entry
	auditSeq    int64
}

func (st state) clone() state {
	return state{
		users:       append([]user.User(nil), st.users...),
		teams:       append([]team.Team(nil), st.teams...),
		members:     append([]team.Member(nil), st.members...),
		games:       append([]game.Game(nil), st.games...),
		tournaments: append([]tournament.Tournament(nil), st.tournaments...),
		audit:       append([]audit.Entry(nil), st.audit...),
		auditSeq:    st.auditSeq,
	}
}

// Store holds all tables behind a single mutex. A unit of work started with
// WithinTx holds the mutex until it finishes and restores the previous state
// when it fails.
type Store struct {
	mu   sync.Mutex
	data state
	now  func() time.Time
	last time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// WithinTx runs fn with exclusive access to the store. Changes made by fn are
// discarded when it returns an error or panics. A nested call joins the outer
// unit of work.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	ctx, committed := database.WithCommitHooks(ctx)
	if err := s.apply(ctx, fn); err != nil {
		return err
	}
	committed()
	return nil
}

func (s *Store) apply(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	s.mu.Lock()
	snapshot := s.data.clone()
	committed := false
	defer func() {
		if !committed {
			s.data = snapshot
		}
		s.mu.Unlock()
	}()

	if err = fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock acquires the store mutex unless ctx already holds it through WithinTx.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// tick returns a strictly increasing timestamp so that created_at ordering is
// deterministic.
func (s *Store) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func newID() string {
	return uuid.NewString()
}

// nullable maps a pointer to "" onto NULL, as NULLIF does in the SQL stores.
func nullable(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	s := *v
	return &s
}

func newestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}

// Users returns the user repository view.
func (s *Store) Users() *Users { return &Users{s: s} }

// Teams returns the team repository view.
func (s *Store) Teams() *Teams { return &Teams{s: s} }

// Games returns the game repository view.
func (s *Store) Games() *Games { return &Games{s: s} }

// Tournaments returns the tournament repository view.
func (s *Store) Tournaments() *Tournaments { return &Tournaments{s: s} }

// Audit returns the audit trail view.
func (s *Store) Audit() *Audit { return &Audit{s: s} }
