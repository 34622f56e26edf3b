package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/afina/roster/internal/apperr"
	"github.com/afina/roster/internal/audit"
	"github.com/afina/roster/internal/auth"
)

// hasInitSecret reports whether r carries the configured init secret as its
// bearer token. An unset secret never matches.
func (s *server) hasInitSecret(r *http.Request) bool {
	if s.deps.InitSecret == "" {
		return false
	}
	token := auth.BearerToken(r)
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.deps.InitSecret)) == 1
}

// initSecretOr admits requests bearing the init secret and sends everything
// else through fallback.
func (s *server) initSecretOr(fallback func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := fallback(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.hasInitSecret(r) {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

// listAudit handles GET /api/admin/audit?limit=&before=.
func (s *server) listAudit(w http.ResponseWriter, r *http.Request) {
	if s.deps.AuditLog == nil {
		writeJSON(w, http.StatusOK, []*audit.Entry{})
		return
	}

	var q audit.Query
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeServiceError(w, r, apperr.Validation("limit must be an integer"))
			return
		}
		q.Limit = n
	}
	if v := r.URL.Query().Get("before"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeServiceError(w, r, apperr.Validation("before must be an integer"))
			return
		}
		q.Before = n
	}

	entries, err := s.deps.AuditLog.List(r.Context(), q.Normalize())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// initDB handles POST /api/admin/init-db.
func (s *server) initDB(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Maintainer.InitDatabase(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "init", "database", "")
	writeJSON(w, http.StatusOK, res)
}

// seedMockData handles POST /api/admin/seed-mock-data.
func (s *server) seedMockData(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Maintainer.SeedMockData(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "seed", "database", "")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Mock data seeded",
		"report":  report,
	})
}

// clearData handles POST /api/admin/clear-data. The calling account survives
// the wipe; callers using the init secret keep the first administrator.
func (s *server) clearData(w http.ResponseWriter, r *http.Request) {
	var keep string
	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		keep = p.ID
	}
	report, err := s.deps.Maintainer.ClearData(r.Context(), keep)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.recordAudit(r, "clear", "database", "")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All data cleared",
		"report":  report,
	})
}
