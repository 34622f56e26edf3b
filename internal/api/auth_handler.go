package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/afina/roster/internal/apperr"
	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/user"
)

var errCredentialsRequired = apperr.Validation("Email and password are required")

// login handles POST /api/auth/login.
func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeServiceError(w, r, errCredentialsRequired)
		return
	}

	u, err := s.deps.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			s.deps.Metrics.IncAuthFailure("password")
		}
		writeServiceError(w, r, err)
		return
	}

	token, expiresAt, err := s.deps.Sessions.Issue(u.Principal())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.deps.Metrics.IncAuthSuccess("password")

	http.SetCookie(w, s.sessionCookie(token, expiresAt))
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      newUserView(u),
	})
}

// me handles GET /api/auth/me.
func (s *server) me(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	u, err := s.deps.Users.Get(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(u))
}

// logout handles POST /api/auth/logout. Sessions are stateless, so this only
// clears the cookie.
func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	c := s.sessionCookie("", time.Unix(0, 0))
	c.MaxAge = -1
	http.SetCookie(w, c)
	writeSuccess(w)
}

func (s *server) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.deps.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
