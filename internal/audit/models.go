package audit

import "time"

// Entry records one mutating request against the roster.
type Entry struct {
	ID           int64     `json:"id"`
	OccurredAt   time.Time `json:"occurredAt"`
	ActorID      string    `json:"actorId"`
	ActorEmail   string    `json:"actorEmail"`
	ActorRole    string    `json:"actorRole"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resourceType"`
	ResourceID   string    `json:"resourceId"`
	IP           string    `json:"ip"`
	RequestID    string    `json:"requestId"`
}

// Query selects a page of entries, newest first. Before is an exclusive id
// cursor; zero starts from the newest entry.
type Query struct {
	Limit  int
	Before int64
}

// DefaultLimit and MaxLimit bound the page size of a Query.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Normalize clamps the limit of q into range.
func (q Query) Normalize() Query {
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	if q.Before < 0 {
		q.Before = 0
	}
	return q
}
