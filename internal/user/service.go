package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/afina/roster/internal/apperr"
	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/database"
)

var (
	ErrNotFound              = apperr.NotFound("User not found")
	ErrEmailPasswordRequired = apperr.Validation("Email and password are required")
	ErrEmailEmpty            = apperr.Validation("Email cannot be empty")
	ErrInvalidRole           = apperr.Validation("Role must be one of ADMIN, MANAGER, PLAYER")
	ErrEmailTaken            = apperr.Conflict("User with this email already exists")
	ErrUsernameTaken         = apperr.Conflict("User with this username already exists")
	ErrSelfDelete            = apperr.New(apperr.KindGuardedDeletion, "Cannot delete your own account")
	ErrStillReferenced       = apperr.New(apperr.KindGuardedDeletion, "User still manages teams")
	ErrInvalidCredentials    = apperr.New(apperr.KindUnauthenticated, "Invalid email or password")
)

// Repository is the storage the users service depends on.
type Repository interface {
	Create(ctx context.Context, p CreateParams) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)
	List(ctx context.Context, role auth.Role) ([]*User, error)
	FirstByRole(ctx context.Context, role auth.Role) (*User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id string, ch Changes) (*User, error)
	Delete(ctx context.Context, id string) error
	DeleteAllExcept(ctx context.Context, keepID string) (int64, error)
}

// Guard vetoes destructive changes to a user. Guards run inside the same
// transaction as the change they inspect.
type Guard interface {
	BeforeDelete(ctx context.Context, u *User) error
	BeforeRoleChange(ctx context.Context, u *User, to auth.Role) error
}

// Service implements validation and business rules for users.
type Service struct {
	repo   Repository
	tx     database.Transactor
	hasher Hasher
	guards []Guard
}

// NewService creates a new users service.
func NewService(repo Repository, tx database.Transactor, hasher Hasher) *Service {
	return &Service{repo: repo, tx: tx, hasher: hasher}
}

// AddGuard registers g to run before deletions and role changes.
func (s *Service) AddGuard(g Guard) {
	s.guards = append(s.guards, g)
}

// Repository returns the underlying repository.
func (s *Service) Repository() Repository {
	return s.repo
}

// List returns users with the given role, or all users when role is empty.
func (s *Service) List(ctx context.Context, role auth.Role) ([]*User, error) {
	return s.repo.List(ctx, role)
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in, checks uniqueness and stores a new user with a hashed
// password.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	role, err := auth.ParseRole(in.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	if err := s.checkUnique(ctx, &email, in.Username, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	return s.repo.Create(ctx, CreateParams{
		Email:        email,
		PasswordHash: hash,
		Name:         nullable(in.Name),
		Username:     nullable(in.Username),
		Role:         role,
		Avatar:       nullable(in.Avatar),
		Bio:          nullable(in.Bio),
	})
}

// Update applies a partial update. The password is rehashed only when a new
// non-empty value is supplied.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*User, error) {
	var out *User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		ch, err := s.changes(ctx, current, in)
		if err != nil {
			return err
		}

		out, err = s.repo.Update(ctx, id, ch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) changes(ctx context.Context, current *User, in UpdateInput) (Changes, error) {
	var ch Changes

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return ch, ErrEmailEmpty
		}
		if email != current.Email {
			ch.Email = &email
		}
	}
	if ch.Email != nil || in.Username != nil {
		if err := s.checkUnique(ctx, ch.Email, in.Username, current.ID); err != nil {
			return ch, err
		}
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return ch, fmt.Errorf("hashing password: %w", err)
		}
		ch.PasswordHash = &hash
	}
	if in.Role != nil {
		role, err := auth.ParseRole(*in.Role)
		if err != nil {
			return ch, ErrInvalidRole
		}
		if role != current.Role {
			for _, g := range s.guards {
				if err := g.BeforeRoleChange(ctx, current, role); err != nil {
					return ch, err
				}
			}
			ch.Role = &role
		}
	}
	ch.Name = trimmed(in.Name)
	ch.Username = trimmed(in.Username)
	ch.Avatar = trimmed(in.Avatar)
	ch.Bio = trimmed(in.Bio)
	return ch, nil
}

func (s *Service) checkUnique(ctx context.Context, email, username *string, excludeID string) error {
	if email != nil {
		taken, err := s.repo.EmailTaken(ctx, *email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
	}
	if username != nil {
		if u := strings.TrimSpace(*username); u != "" {
			taken, err := s.repo.UsernameTaken(ctx, u, excludeID)
			if err != nil {
				return err
			}
			if taken {
				return ErrUsernameTaken
			}
		}
	}
	return nil
}

// SetAvatar replaces the avatar of id; "" clears it. It returns the updated
// user and the previous avatar value.
func (s *Service) SetAvatar(ctx context.Context, id, avatar string) (*User, string, error) {
	var out *User
	var previous string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		previous = deref(current.Avatar)
		out, err = s.repo.Update(ctx, id, Changes{Avatar: &avatar})
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return out, previous, nil
}

// Delete removes the user id on behalf of callerID. Deleting oneself is
// rejected, as is anything a registered guard vetoes.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	if callerID == id {
		return ErrSelfDelete
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		for _, g := range s.guards {
			if err := g.BeforeDelete(ctx, u); err != nil {
				return err
			}
		}
		return s.repo.Delete(ctx, id)
	})
}

// Authenticate checks an email and password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		// Hash anyway so unknown emails take as long as wrong passwords.
		_, _ = s.hasher.Hash(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Compare(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// nullable trims s and maps blank values to nil.
func nullable(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// trimmed trims s but keeps "" so that it clears the column.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
