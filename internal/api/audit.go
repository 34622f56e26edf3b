package api

import (
	"log/slog"
	"net/http"

	"github.com/afina/roster/internal/audit"
	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/ratelimit"
)

// recordAudit logs a successful mutation and queues it for the audit table.
func (s *server) recordAudit(r *http.Request, action, resourceType, resourceID string) {
	e := audit.Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IP:           ratelimit.ClientIP(r),
		RequestID:    RequestIDFromContext(r.Context()),
	}
	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		e.ActorID = p.ID
		e.ActorEmail = p.Email
		e.ActorRole = string(p.Role)
	}

	slog.InfoContext(r.Context(), "audit",
		"action", e.Action,
		"resource_type", e.ResourceType,
		"resource_id", e.ResourceID,
		"ip", e.IP,
		"request_id", e.RequestID,
		"user_id", e.ActorID,
		"user_role", e.ActorRole,
	)

	if s.deps.Audit != nil {
		s.deps.Audit.Record(e)
	}
}
