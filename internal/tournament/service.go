package tournament

import (
	"context"
	"strings"
	"time"

	"github.com/afina/roster/internal/apperr"
	"github.com/afina/roster/internal/database"
)

var (
	ErrNotFound          = apperr.NotFound("Tournament not found")
	ErrRequired          = apperr.Validation("Name and start date are required")
	ErrInvalidDate       = apperr.Validation("Dates must be RFC 3339 timestamps or YYYY-MM-DD")
	ErrEndBeforeStart    = apperr.Validation("End date cannot be before start date")
	ErrNegativePrizePool = apperr.Validation("Prize pool cannot be negative")
	ErrInvalidStatus     = apperr.Validation("Invalid tournament status")
)

// Repository is the storage the tournaments service depends on.
type Repository interface {
	Create(ctx context.Context, p CreateParams) (*Tournament, error)
	GetByID(ctx context.Context, id string) (*Tournament, error)
	List(ctx context.Context) ([]*Tournament, error)
	Update(ctx context.Context, id string, ch Changes) (*Tournament, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Service implements validation and business rules for tournaments.
type Service struct {
	repo Repository
	tx   database.Transactor
}

// NewService creates a new tournaments service.
func NewService(repo Repository, tx database.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

// List returns all tournaments, latest start date first.
func (s *Service) List(ctx context.Context) ([]*Tournament, error) {
	return s.repo.List(ctx)
}

// Create validates in and stores a new tournament. Status defaults to UPCOMING.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Tournament, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.StartDate) == "" {
		return nil, ErrRequired
	}
	start, err := ParseDate(in.StartDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	p := CreateParams{
		Name:        name,
		Description: nullable(in.Description),
		StartDate:   start,
		Game:        nullable(in.Game),
		Status:      StatusUpcoming,
	}
	if end := nullable(in.EndDate); end != nil {
		t, err := ParseDate(*end)
		if err != nil {
			return nil, ErrInvalidDate
		}
		if t.Before(start) {
			return nil, ErrEndBeforeStart
		}
		p.EndDate = &t
	}
	if v := in.PrizePool.Value; v != nil {
		if *v < 0 {
			return nil, ErrNegativePrizePool
		}
		p.PrizePool = v
	}
	if st := strings.TrimSpace(in.Status); st != "" {
		if p.Status, err = ParseStatus(st); err != nil {
			return nil, ErrInvalidStatus
		}
	}
	return s.repo.Create(ctx, p)
}

// Update requires name and start date and applies the remaining fields
// partially. The date range is validated against the stored end date when the
// update leaves it untouched.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Tournament, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.StartDate) == "" {
		return nil, ErrRequired
	}
	start, err := ParseDate(in.StartDate)
	if err != nil {
		return nil, ErrInvalidDate
	}

	ch := Changes{Name: &name, StartDate: &start}
	ch.Description = trimmed(in.Description)
	ch.Game = trimmed(in.Game)
	if in.EndDate != nil {
		if strings.TrimSpace(*in.EndDate) == "" {
			ch.ClearEndDate = true
		} else {
			t, err := ParseDate(*in.EndDate)
			if err != nil {
				return nil, ErrInvalidDate
			}
			ch.EndDate = &t
		}
	}
	if in.PrizePool.Set {
		switch v := in.PrizePool.Value; {
		case v == nil:
			ch.ClearPrizePool = true
		case *v < 0:
			return nil, ErrNegativePrizePool
		default:
			ch.PrizePool = v
		}
	}
	if in.Status != nil {
		st, err := ParseStatus(strings.TrimSpace(*in.Status))
		if err != nil {
			return nil, ErrInvalidStatus
		}
		ch.Status = &st
	}

	var out *Tournament
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		end := current.EndDate
		if ch.ClearEndDate {
			end = nil
		} else if ch.EndDate != nil {
			end = ch.EndDate
		}
		if end != nil && end.Before(start) {
			return ErrEndBeforeStart
		}
		out, err = s.repo.Update(ctx, id, ch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a tournament.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ParseDate accepts an RFC 3339 timestamp or a calendar date (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
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
