package team

import (
	"context"
	"errors"
	"strings"

	"github.com/afina/roster/internal/apperr"
	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/database"
	"github.com/afina/roster/internal/user"
)

var (
	ErrNotFound         = apperr.NotFound("Team not found")
	ErrRequired         = apperr.Validation("Name, tag, and managerId are required")
	ErrNameEmpty        = apperr.Validation("Name cannot be empty")
	ErrTagEmpty         = apperr.Validation("Tag cannot be empty")
	ErrInvalidStatus    = apperr.Validation("Status must be one of ACTIVE, INACTIVE, DISBANDED")
	ErrNotAManager      = apperr.Validation("Manager not found or user is not a manager")
	ErrUnknownPlayer    = apperr.Validation("Player not found")
	ErrUnknownReference = apperr.Validation("Referenced user or team does not exist")
	ErrTagTaken         = apperr.Conflict("Team with this tag already exists")
	ErrAlreadyMember    = apperr.Conflict("User is already a member of this team")
)

// Repository is the storage the teams service depends on.
type Repository interface {
	Create(ctx context.Context, p CreateParams) (*Team, error)
	GetByID(ctx context.Context, id string) (*Team, error)
	TagTaken(ctx context.Context, tag, excludeID string) (bool, error)
	List(ctx context.Context) ([]*Team, error)
	ListByManager(ctx context.Context, managerID string) ([]*Team, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Team, error)
	Update(ctx context.Context, id string, ch Changes) (*Team, error)
	SetManager(ctx context.Context, ids []string, managerID string) (int64, error)
	CountByManager(ctx context.Context, managerID string) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (teams, members int64, err error)
	AddMember(ctx context.Context, p MemberParams) (*Member, error)
	RemoveMembersByUser(ctx context.Context, userID string) (int64, error)
	MembersByTeam(ctx context.Context, teamID string) ([]*Member, error)
	MembershipsByUser(ctx context.Context, userID string) ([]*Member, error)
}

// UserLookup resolves the users a team refers to.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Service implements validation and business rules for teams.
type Service struct {
	repo  Repository
	users UserLookup
	tx    database.Transactor
}

// NewService creates a new teams service.
func NewService(repo Repository, users UserLookup, tx database.Transactor) *Service {
	return &Service{repo: repo, users: users, tx: tx}
}

// List returns all teams, newest first.
func (s *Service) List(ctx context.Context) ([]*Team, error) {
	return s.repo.List(ctx)
}

// Get returns the team with id together with its manager and members.
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, t)
}

func (s *Service) detail(ctx context.Context, t *Team) (*Detail, error) {
	d := &Detail{Team: t, Members: []MemberDetail{}}

	manager, err := s.users.GetByID(ctx, t.ManagerID)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}
	d.Manager = manager

	members, err := s.repo.MembersByTeam(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		u, err := s.users.GetByID(ctx, m.UserID)
		if err != nil {
			return nil, err
		}
		d.Members = append(d.Members, MemberDetail{Member: m, User: u})
	}
	return d, nil
}

// Create validates in and stores the team and its initial members in one
// transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Detail, error) {
	name := strings.TrimSpace(in.Name)
	tag := strings.TrimSpace(in.Tag)
	managerID := strings.TrimSpace(in.ManagerID)
	if name == "" || tag == "" || managerID == "" {
		return nil, ErrRequired
	}

	status := StatusActive
	if in.Status != "" {
		st, err := ParseStatus(in.Status)
		if err != nil {
			return nil, ErrInvalidStatus
		}
		status = st
	}

	var out *Detail
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		taken, err := s.repo.TagTaken(ctx, tag, "")
		if err != nil {
			return err
		}
		if taken {
			return ErrTagTaken
		}
		if err := s.requireManager(ctx, managerID); err != nil {
			return err
		}

		playerIDs := uniqueIDs(in.PlayerIDs)
		for _, id := range playerIDs {
			if _, err := s.users.GetByID(ctx, id); err != nil {
				if errors.Is(err, user.ErrNotFound) {
					return ErrUnknownPlayer
				}
				return err
			}
		}

		t, err := s.repo.Create(ctx, CreateParams{
			Name:        name,
			Tag:         tag,
			Logo:        nullable(in.Logo),
			Description: nullable(in.Description),
			Status:      status,
			ManagerID:   managerID,
		})
		if err != nil {
			return err
		}
		for _, id := range playerIDs {
			if _, err := s.repo.AddMember(ctx, MemberParams{UserID: id, TeamID: t.ID}); err != nil {
				return err
			}
		}

		out, err = s.detail(ctx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial update. A tag change re-checks uniqueness and a
// manager change must name a MANAGER.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Detail, error) {
	var out *Detail
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		var ch Changes
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ErrNameEmpty
			}
			ch.Name = &name
		}
		if in.Tag != nil {
			tag := strings.TrimSpace(*in.Tag)
			if tag == "" {
				return ErrTagEmpty
			}
			if tag != current.Tag {
				taken, err := s.repo.TagTaken(ctx, tag, id)
				if err != nil {
					return err
				}
				if taken {
					return ErrTagTaken
				}
				ch.Tag = &tag
			}
		}
		if in.Status != nil {
			st, err := ParseStatus(*in.Status)
			if err != nil {
				return ErrInvalidStatus
			}
			ch.Status = &st
		}
		if in.ManagerID != nil {
			managerID := strings.TrimSpace(*in.ManagerID)
			if managerID != current.ManagerID {
				if err := s.requireManager(ctx, managerID); err != nil {
					return err
				}
				ch.ManagerID = &managerID
			}
		}
		ch.Logo = trimmed(in.Logo)
		ch.Description = trimmed(in.Description)

		t, err := s.repo.Update(ctx, id, ch)
		if err != nil {
			return err
		}
		out, err = s.detail(ctx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a team; its memberships go with it.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) requireManager(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotAManager
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return ErrNotAManager
	}
	if err != nil {
		return err
	}
	if u.Role != auth.RoleManager {
		return ErrNotAManager
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

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

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
