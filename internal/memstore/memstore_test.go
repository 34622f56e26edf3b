package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afina/roster/internal/audit"
	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/database"
	"github.com/afina/roster/internal/team"
	"github.com/afina/roster/internal/user"
)

func ptr[T any](v T) *T { return &v }

func mustUser(t *testing.T, s *Store, email string, role auth.Role) *user.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), user.CreateParams{Email: email, PasswordHash: "x", Role: role})
	require.NoError(t, err)
	return u
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.Users().Create(ctx, user.CreateParams{Email: "a@x.org", PasswordHash: "x", Role: auth.RolePlayer})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	s := New()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, func(ctx context.Context) error {
			_, _ = s.Users().Create(ctx, user.CreateParams{Email: "a@x.org", PasswordHash: "x", Role: auth.RolePlayer})
			panic("boom")
		})
	})

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWithinTx_NestedJoinsOuter(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context) error {
			_, err := s.Users().Create(ctx, user.CreateParams{Email: "a@x.org", PasswordHash: "x", Role: auth.RolePlayer})
			return err
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, _ := s.Users().Count(ctx)
	assert.Zero(t, n, "inner work must roll back with the outer unit")
}

func TestWithinTx_CommitHooksRunAfterOutermostCommit(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	var fired []string
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context) error {
			database.AfterCommit(ctx, func() { fired = append(fired, "inner") })
			return nil
		}))
		assert.Empty(t, fired, "hooks must wait for the outer commit")
		database.AfterCommit(ctx, func() { fired = append(fired, "outer") })
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"inner", "outer"}, fired)

	fired = nil
	err = s.WithinTx(ctx, func(ctx context.Context) error {
		database.AfterCommit(ctx, func() { fired = append(fired, "rolled back") })
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, fired)
}

func TestUsers_UniqueColumns(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Users().Create(ctx, user.CreateParams{Email: "a@x.org", Username: ptr("ace"), Role: auth.RolePlayer})
	require.NoError(t, err)

	_, err = s.Users().Create(ctx, user.CreateParams{Email: "a@x.org", Role: auth.RolePlayer})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	_, err = s.Users().Create(ctx, user.CreateParams{Email: "b@x.org", Username: ptr("ace"), Role: auth.RolePlayer})
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
}

func TestUsers_ListNewestFirstAndFirstByRole(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := mustUser(t, s, "admin1@x.org", auth.RoleAdmin)
	mustUser(t, s, "p@x.org", auth.RolePlayer)
	second := mustUser(t, s, "admin2@x.org", auth.RoleAdmin)

	admins, err := s.Users().List(ctx, auth.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, second.ID, admins[0].ID)

	all, err := s.Users().List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := s.Users().FirstByRole(ctx, auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	none, err := s.Users().FirstByRole(ctx, auth.RoleManager)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUsers_UpdateClearsNullableColumns(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.Users().Create(ctx, user.CreateParams{Email: "a@x.org", Name: ptr("Ann"), Role: auth.RolePlayer})
	require.NoError(t, err)

	got, err := s.Users().Update(ctx, u.ID, user.Changes{Name: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, got.Name)
}

func TestUsers_DeleteRestrictedByManagedTeams(t *testing.T) {
	s := New()
	ctx := context.Background()

	m := mustUser(t, s, "m@x.org", auth.RoleManager)
	p := mustUser(t, s, "p@x.org", auth.RolePlayer)
	tm, err := s.Teams().Create(ctx, team.CreateParams{Name: "Alpha", Tag: "ALP", ManagerID: m.ID})
	require.NoError(t, err)
	_, err = s.Teams().AddMember(ctx, team.MemberParams{UserID: p.ID, TeamID: tm.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Users().Delete(ctx, m.ID), user.ErrStillReferenced)

	require.NoError(t, s.Users().Delete(ctx, p.ID))
	members, err := s.Teams().MembersByTeam(ctx, tm.ID)
	require.NoError(t, err)
	assert.Empty(t, members, "memberships cascade with the user")

	assert.ErrorIs(t, s.Users().Delete(ctx, "missing"), user.ErrNotFound)
}

func TestTeams_MembershipConstraints(t *testing.T) {
	s := New()
	ctx := context.Background()

	m := mustUser(t, s, "m@x.org", auth.RoleManager)
	p := mustUser(t, s, "p@x.org", auth.RolePlayer)

	_, err := s.Teams().Create(ctx, team.CreateParams{Name: "Ghost", Tag: "GST", ManagerID: "nobody"})
	assert.ErrorIs(t, err, team.ErrUnknownReference)

	tm, err := s.Teams().Create(ctx, team.CreateParams{Name: "Alpha", Tag: "ALP", ManagerID: m.ID})
	require.NoError(t, err)
	assert.Equal(t, team.StatusActive, tm.Status)

	_, err = s.Teams().Create(ctx, team.CreateParams{Name: "Other", Tag: "ALP", ManagerID: m.ID})
	assert.ErrorIs(t, err, team.ErrTagTaken)

	_, err = s.Teams().AddMember(ctx, team.MemberParams{UserID: p.ID, TeamID: tm.ID, Role: ptr("Carry")})
	require.NoError(t, err)
	_, err = s.Teams().AddMember(ctx, team.MemberParams{UserID: p.ID, TeamID: tm.ID})
	assert.ErrorIs(t, err, team.ErrAlreadyMember)

	memberships, err := s.Teams().MembershipsByUser(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	require.NotNil(t, memberships[0].Team)
	assert.Equal(t, "ALP", memberships[0].Team.Tag)
	assert.Equal(t, "Carry", *memberships[0].Role)

	require.NoError(t, s.Teams().Delete(ctx, tm.ID))
	memberships, err = s.Teams().MembershipsByUser(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, memberships)
}

func TestTeams_SetManager(t *testing.T) {
	s := New()
	ctx := context.Background()

	m1 := mustUser(t, s, "m1@x.org", auth.RoleManager)
	m2 := mustUser(t, s, "m2@x.org", auth.RoleManager)
	a, _ := s.Teams().Create(ctx, team.CreateParams{Name: "A", Tag: "A", ManagerID: m1.ID})
	b, _ := s.Teams().Create(ctx, team.CreateParams{Name: "B", Tag: "B", ManagerID: m1.ID})

	n, err := s.Teams().SetManager(ctx, []string{a.ID, b.ID, "missing"}, m2.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, err := s.Teams().CountByManager(ctx, m2.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = s.Teams().SetManager(ctx, []string{a.ID}, "nobody")
	assert.ErrorIs(t, err, team.ErrUnknownReference)
}

func TestAudit_ListPages(t *testing.T) {
	s := New()
	ctx := context.Background()

	entries := make([]audit.Entry, 5)
	for i := range entries {
		entries[i] = audit.Entry{Action: "game.create", ResourceType: "game"}
	}
	require.NoError(t, s.Audit().BatchInsert(ctx, entries))

	page, err := s.Audit().List(ctx, audit.Query{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.EqualValues(t, 5, page[0].ID)
	assert.EqualValues(t, 4, page[1].ID)

	page, err = s.Audit().List(ctx, audit.Query{Limit: 10, Before: 4})
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.EqualValues(t, 3, page[0].ID)
}
