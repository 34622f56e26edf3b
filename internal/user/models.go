package user

import (
	"time"

	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/displayname"
)

// User represents an account of any role.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         *string   `json:"name"`
	Username     *string   `json:"username"`
	Role         auth.Role `json:"role"`
	Avatar       *string   `json:"avatar"`
	Bio          *string   `json:"bio"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Subject returns the fields the display name normalizer reads.
func (u *User) Subject() displayname.Subject {
	return displayname.Subject{
		Username: deref(u.Username),
		Name:     deref(u.Name),
		Email:    u.Email,
	}
}

// Principal returns the auth view of the user.
func (u *User) Principal() *auth.Principal {
	return &auth.Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

// CreateInput holds the fields accepted when creating a user.
type CreateInput struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Role     string  `json:"role"`
	Avatar   *string `json:"avatar,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

// UpdateInput holds optional fields for a partial user update. A nil field is
// left unchanged; an empty string clears a nullable field.
type UpdateInput struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Role     *string `json:"role,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

// CreateParams is a validated user ready to be stored.
type CreateParams struct {
	Email        string
	PasswordHash string
	Name         *string
	Username     *string
	Role         auth.Role
	Avatar       *string
	Bio          *string
}

// Changes is a validated partial update. Nil fields are left unchanged and a
// pointer to "" stores NULL in a nullable column.
type Changes struct {
	Email        *string
	PasswordHash *string
	Name         *string
	Username     *string
	Role         *auth.Role
	Avatar       *string
	Bio          *string
}

// Empty reports whether the changes touch no column.
func (c Changes) Empty() bool {
	return c.Email == nil && c.PasswordHash == nil && c.Name == nil && c.Username == nil &&
		c.Role == nil && c.Avatar == nil && c.Bio == nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
