package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/afina/roster/internal/apperr"
)

// SessionMiddleware resolves the caller from a bearer token or the session
// cookie. Requests without a valid session continue anonymously; the guard
// decides whether that is acceptable. When lookup is non-nil the principal is
// refreshed from the store, and sessions of deleted users are dropped.
func SessionMiddleware(issuer *SessionIssuer, lookup PrincipalLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					token = c.Value
				}
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := issuer.Parse(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if lookup != nil {
				current, err := lookup.LookupPrincipal(r.Context(), p.ID)
				if err != nil || current == nil {
					if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
						slog.Warn("session lookup failed", "user_id", p.ID, "error", err)
					}
					next.ServeHTTP(w, r)
					return
				}
				p = current
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// DenyFunc observes guard denials.
type DenyFunc func(r *http.Request, op Operation, err error)

// Guard enforces the policy table in front of handlers.
type Guard struct {
	onDeny DenyFunc
}

// NewGuard creates a guard; onDeny may be nil.
func NewGuard(onDeny DenyFunc) *Guard {
	return &Guard{onDeny: onDeny}
}

// Require returns middleware that rejects the request unless the caller may
// perform op. Denied requests never reach the handler.
func (g *Guard) Require(op Operation) func(http.Handler) http.Handler {
	return g.RequireSubject(op, nil)
}

// RequireSubject is Require for self-or-admin operations; subject extracts the
// id of the user the request acts on.
func (g *Guard) RequireSubject(op Operation, subject func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var subjectID string
			if subject != nil {
				subjectID = subject(r)
			}
			if err := AuthorizeSubject(PrincipalFromContext(r.Context()), op, subjectID); err != nil {
				if g.onDeny != nil {
					g.onDeny(r, op, err)
				}
				writeError(w, apperr.StatusOf(err), apperr.MessageOf(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// BearerToken returns the bearer token of r, or "".
func BearerToken(r *http.Request) string {
	return extractBearerToken(r)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}
