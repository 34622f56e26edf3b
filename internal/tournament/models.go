package tournament

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/afina/roster/internal/apperr"
)

// Status is the lifecycle state of a tournament.
type Status string

const (
	StatusUpcoming  Status = "UPCOMING"
	StatusOngoing   Status = "ONGOING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus validates s as a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("invalid tournament status %q", s)
	}
}

// Tournament is a competition the organization takes part in.
type Tournament struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	PrizePool   *float64   `json:"prizePool"`
	Game        *string    `json:"game"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Amount is an optional JSON number that also accepts numeric strings. Set
// records whether the field was present at all, so null can clear a value.
type Amount struct {
	Value *float64
	Set   bool
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	a.Set = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		a.Value = nil
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		a.Value = nil
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return apperr.Validation(fmt.Sprintf("Invalid amount %q", s))
	}
	a.Value = &v
	return nil
}

// CreateInput holds the fields accepted when creating a tournament. Dates are
// RFC 3339 timestamps or YYYY-MM-DD.
type CreateInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate,omitempty"`
	PrizePool   Amount  `json:"prizePool"`
	Game        *string `json:"game,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// UpdateInput holds the fields of a tournament update. Name and StartDate are
// required; other nil fields are left unchanged and "" (or a null prize pool)
// clears them.
type UpdateInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate,omitempty"`
	PrizePool   Amount  `json:"prizePool"`
	Game        *string `json:"game,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// CreateParams is a validated tournament ready to be stored.
type CreateParams struct {
	Name        string
	Description *string
	StartDate   time.Time
	EndDate     *time.Time
	PrizePool   *float64
	Game        *string
	Status      Status
}

// Changes is a validated partial update. A pointer to "" stores NULL in a
// nullable text column; the Clear flags null the other optional columns.
type Changes struct {
	Name           *string
	Description    *string
	StartDate      *time.Time
	EndDate        *time.Time
	ClearEndDate   bool
	PrizePool      *float64
	ClearPrizePool bool
	Game           *string
	Status         *Status
}
