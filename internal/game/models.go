package game

import "time"

// DefaultPlayersPerTeam is used when a game is created without a team size.
const DefaultPlayersPerTeam = 5

// Game is a title the organization fields teams in.
type Game struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description"`
	Icon           *string   `json:"icon"`
	Color          *string   `json:"color"`
	PlayersPerTeam int       `json:"playersPerTeam"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CreateInput holds the fields accepted when creating a game.
type CreateInput struct {
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	Icon           *string `json:"icon,omitempty"`
	Color          *string `json:"color,omitempty"`
	PlayersPerTeam *int    `json:"playersPerTeam,omitempty"`
}

// UpdateInput holds optional fields for a partial game update. An empty string
// clears a nullable field.
type UpdateInput struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	Icon           *string `json:"icon,omitempty"`
	Color          *string `json:"color,omitempty"`
	PlayersPerTeam *int    `json:"playersPerTeam,omitempty"`
}

// Params is a validated game row. Update leaves nil fields unchanged.
type Params struct {
	Name           *string
	Description    *string
	Icon           *string
	Color          *string
	PlayersPerTeam *int
}
