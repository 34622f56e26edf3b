package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/afina/roster/internal/apperr"
	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/memstore"
	"github.com/afina/roster/internal/user"
)

func ptr[T any](v T) *T { return &v }

func newService(t *testing.T) (*user.Service, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	return user.NewService(s.Users(), s, user.NewBcryptHasher(bcrypt.MinCost)), s
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		in      user.CreateInput
		wantErr error
	}{
		{"missing email", user.CreateInput{Password: "pw", Role: "PLAYER"}, user.ErrEmailPasswordRequired},
		{"blank email", user.CreateInput{Email: "  ", Password: "pw", Role: "PLAYER"}, user.ErrEmailPasswordRequired},
		{"missing password", user.CreateInput{Email: "a@x.org", Role: "PLAYER"}, user.ErrEmailPasswordRequired},
		{"missing role", user.CreateInput{Email: "a@x.org", Password: "pw"}, user.ErrInvalidRole},
		{"unknown role", user.CreateInput{Email: "a@x.org", Password: "pw", Role: "COACH"}, user.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			_, err := svc.Create(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestCreate_HashesPasswordAndNormalizesFields(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, user.CreateInput{
		Email:    " ann@x.org ",
		Password: "secret",
		Name:     ptr("  "),
		Username: ptr(" ann "),
		Role:     "PLAYER",
	})
	require.NoError(t, err)
	assert.Equal(t, "ann@x.org", u.Email)
	assert.Nil(t, u.Name)
	assert.Equal(t, "ann", *u.Username)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret")))
}

func TestCreate_DuplicateEmailWritesNothing(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.CreateInput{Email: "a@x.org", Password: "pw", Role: "PLAYER"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, user.CreateInput{Email: "a@x.org", Password: "other", Role: "MANAGER"})
	require.ErrorIs(t, err, user.ErrEmailTaken)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdate_PartialSemantics(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, user.CreateInput{Email: "a@x.org", Password: "pw", Name: ptr("Ann"), Bio: ptr("bio"), Role: "PLAYER"})
	require.NoError(t, err)

	got, err := svc.Update(ctx, u.ID, user.UpdateInput{Name: ptr("Anna")})
	require.NoError(t, err)
	assert.Equal(t, "Anna", *got.Name)
	assert.Equal(t, "bio", *got.Bio, "omitted fields are untouched")
	assert.Equal(t, u.PasswordHash, got.PasswordHash)

	got, err = svc.Update(ctx, u.ID, user.UpdateInput{Bio: ptr(""), Password: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, got.Bio, "empty string clears")
	assert.Equal(t, u.PasswordHash, got.PasswordHash, "blank password keeps the hash")

	got, err = svc.Update(ctx, u.ID, user.UpdateInput{Password: ptr("new")})
	require.NoError(t, err)
	assert.NotEqual(t, u.PasswordHash, got.PasswordHash)

	_, err = svc.Update(ctx, u.ID, user.UpdateInput{Email: ptr(" ")})
	assert.ErrorIs(t, err, user.ErrEmailEmpty)

	_, err = svc.Update(ctx, u.ID, user.UpdateInput{Role: ptr("nope")})
	assert.ErrorIs(t, err, user.ErrInvalidRole)

	_, err = svc.Update(ctx, "missing", user.UpdateInput{Name: ptr("x")})
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUpdate_UniquenessExcludesOwnRow(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, user.CreateInput{Email: "a@x.org", Password: "pw", Username: ptr("ace"), Role: "PLAYER"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.CreateInput{Email: "b@x.org", Password: "pw", Username: ptr("bee"), Role: "PLAYER"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, user.UpdateInput{Email: ptr("a@x.org"), Username: ptr("ace")})
	assert.NoError(t, err, "keeping your own email and username is not a conflict")

	_, err = svc.Update(ctx, a.ID, user.UpdateInput{Email: ptr("b@x.org")})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	_, err = svc.Update(ctx, a.ID, user.UpdateInput{Username: ptr("bee")})
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
}

type vetoGuard struct{ err error }

func (g vetoGuard) BeforeDelete(context.Context, *user.User) error { return g.err }
func (g vetoGuard) BeforeRoleChange(context.Context, *user.User, auth.Role) error {
	return g.err
}

func TestDelete_Guards(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, user.CreateInput{Email: "admin@x.org", Password: "pw", Role: "ADMIN"})
	require.NoError(t, err)
	p, err := svc.Create(ctx, user.CreateInput{Email: "p@x.org", Password: "pw", Role: "PLAYER"})
	require.NoError(t, err)

	err = svc.Delete(ctx, admin.ID, admin.ID)
	require.ErrorIs(t, err, user.ErrSelfDelete)
	assert.Equal(t, apperr.KindGuardedDeletion, apperr.KindOf(err))

	veto := apperr.New(apperr.KindGuardedDeletion, "nope")
	svc.AddGuard(vetoGuard{err: veto})
	assert.ErrorIs(t, svc.Delete(ctx, admin.ID, p.ID), veto)
	_, err = svc.Update(ctx, p.ID, user.UpdateInput{Role: ptr("MANAGER")})
	assert.ErrorIs(t, err, veto)

	_, err = svc.Get(ctx, p.ID)
	assert.NoError(t, err)
}

func TestDelete_RemovesUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	admin, _ := svc.Create(ctx, user.CreateInput{Email: "admin@x.org", Password: "pw", Role: "ADMIN"})
	p, _ := svc.Create(ctx, user.CreateInput{Email: "p@x.org", Password: "pw", Role: "PLAYER"})

	require.NoError(t, svc.Delete(ctx, admin.ID, p.ID))
	_, err := svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, admin.ID, p.ID), user.ErrNotFound)
}

func TestSetAvatar_ReturnsPrevious(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, _ := svc.Create(ctx, user.CreateInput{Email: "a@x.org", Password: "pw", Avatar: ptr("https://cdn/a.png"), Role: "PLAYER"})

	got, prev, err := svc.SetAvatar(ctx, u.ID, "https://cdn/b.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.png", prev)
	assert.Equal(t, "https://cdn/b.png", *got.Avatar)

	got, prev, err = svc.SetAvatar(ctx, u.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/b.png", prev)
	assert.Nil(t, got.Avatar)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.CreateInput{Email: "a@x.org", Password: "right", Role: "MANAGER"})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, " a@x.org", "right")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleManager, u.Role)

	_, err = svc.Authenticate(ctx, "a@x.org", "wrong")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@x.org", "right")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestAuthAdapter_LookupPrincipal(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	u, _ := svc.Create(ctx, user.CreateInput{Email: "a@x.org", Password: "pw", Role: "ADMIN"})

	p, err := user.NewAuthAdapter(s.Users()).LookupPrincipal(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, &auth.Principal{ID: u.ID, Email: "a@x.org", Role: auth.RoleAdmin}, p)
	assert.True(t, p.IsAdmin())
}

func TestUser_Subject(t *testing.T) {
	u := &user.User{Email: "a@x.org", Username: ptr("ace")}
	sub := u.Subject()
	assert.Equal(t, "ace", sub.Username)
	assert.Empty(t, sub.Name)
	assert.Equal(t, "a@x.org", sub.Email)
}
