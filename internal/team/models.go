package team

import (
	"fmt"
	"time"

	"github.com/afina/roster/internal/user"
)

// Status is the lifecycle state of a team.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusDisbanded Status = "DISBANDED"
)

// ParseStatus validates s as a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusInactive, StatusDisbanded:
		return st, nil
	default:
		return "", fmt.Errorf("invalid team status %q", s)
	}
}

// Team is a roster unit owned by exactly one manager.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Tag         string    `json:"tag"`
	Logo        *string   `json:"logo"`
	Description *string   `json:"description"`
	Status      Status    `json:"status"`
	ManagerID   string    `json:"managerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary is the short form of a team embedded in other resources.
type Summary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tag    string `json:"tag"`
	Status Status `json:"status"`
}

// Summary returns the short form of t.
func (t *Team) Summary() Summary {
	return Summary{ID: t.ID, Name: t.Name, Tag: t.Tag, Status: t.Status}
}

// Member links a user to a team.
type Member struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	TeamID   string    `json:"teamId"`
	Role     *string   `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
	Team     *Summary  `json:"team,omitempty"`
}

// MemberDetail is a member together with its user.
type MemberDetail struct {
	*Member
	User *user.User
}

// Detail is a team with its manager and members resolved.
type Detail struct {
	*Team
	Manager *user.User
	Members []MemberDetail
}

// CreateInput holds the fields accepted when creating a team.
type CreateInput struct {
	Name        string   `json:"name"`
	Tag         string   `json:"tag"`
	Logo        *string  `json:"logo,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	ManagerID   string   `json:"managerId"`
	PlayerIDs   []string `json:"playerIds,omitempty"`
}

// UpdateInput holds optional fields for a partial team update. An empty
// string clears a nullable field.
type UpdateInput struct {
	Name        *string `json:"name,omitempty"`
	Tag         *string `json:"tag,omitempty"`
	Logo        *string `json:"logo,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	ManagerID   *string `json:"managerId,omitempty"`
}

// CreateParams is a validated team ready to be stored.
type CreateParams struct {
	Name        string
	Tag         string
	Logo        *string
	Description *string
	Status      Status
	ManagerID   string
}

// Changes is a validated partial team update. A pointer to "" stores NULL in
// a nullable column.
type Changes struct {
	Name        *string
	Tag         *string
	Logo        *string
	Description *string
	Status      *Status
	ManagerID   *string
}

// MemberParams describes a membership to insert.
type MemberParams struct {
	UserID string
	TeamID string
	Role   *string
}
