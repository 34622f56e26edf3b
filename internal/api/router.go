package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/afina/roster/internal/apperr"
	"github.com/afina/roster/internal/audit"
	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/avatar"
	"github.com/afina/roster/internal/game"
	"github.com/afina/roster/internal/metrics"
	"github.com/afina/roster/internal/ratelimit"
	"github.com/afina/roster/internal/roster"
	"github.com/afina/roster/internal/seed"
	"github.com/afina/roster/internal/team"
	"github.com/afina/roster/internal/tournament"
	"github.com/afina/roster/internal/user"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuditRecorder queues audit entries.
type AuditRecorder interface {
	Record(e audit.Entry)
}

// AuditReader pages through stored audit entries.
type AuditReader interface {
	List(ctx context.Context, q audit.Query) ([]*audit.Entry, error)
}

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Users       *user.Service
	Players     *roster.Players
	Managers    *roster.Managers
	Teams       *team.Service
	Games       *game.Service
	Tournaments *tournament.Service
	Avatars     *avatar.Service
	Maintainer  *seed.Maintainer

	Sessions   *auth.SessionIssuer
	Principals auth.PrincipalLookup
	Limiter    *ratelimit.Limiter

	Audit    AuditRecorder
	AuditLog AuditReader
	Metrics  *metrics.Metrics
	DB       Pinger

	InitSecret     string
	SecureCookie   bool
	AllowedOrigins []string
}

type server struct {
	deps RouterDeps
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Avatars == nil {
		deps.Avatars = avatar.NewService(nil, 0)
	}
	s := &server{deps: deps}
	m := deps.Metrics

	guard := auth.NewGuard(func(r *http.Request, op auth.Operation, err error) {
		m.IncGuardDenial(string(op), apperr.StatusOf(err))
	})
	loginLimit := ratelimit.Middleware(deps.Limiter, ratelimit.ClientIP, func() {
		m.IncRateLimitRejection("login")
	})

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(chimw.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(requestLogger(m))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))

	r.Route("/api", func(ar chi.Router) {
		ar.Use(auth.SessionMiddleware(deps.Sessions, deps.Principals))

		ar.With(loginLimit).Post("/auth/login", s.login)
		ar.With(guard.Require(auth.OpMe)).Get("/auth/me", s.me)
		ar.Post("/auth/logout", s.logout)

		ar.Route("/users", func(ur chi.Router) {
			ur.With(guard.Require(auth.OpUsersList)).Get("/", s.listUsers)
			ur.With(guard.Require(auth.OpUsersUpdate)).Put("/{id}", s.updateUser)
			ur.With(guard.Require(auth.OpUsersDelete)).Delete("/{id}", s.deleteUser)

			avatarGuard := guard.RequireSubject(auth.OpUsersAvatar, func(r *http.Request) string {
				return chi.URLParam(r, "id")
			})
			ur.With(avatarGuard).Put("/{id}/avatar", s.setAvatar)
			ur.With(avatarGuard).Delete("/{id}/avatar", s.clearAvatar)
		})

		ar.Route("/games", func(gr chi.Router) {
			gr.With(guard.Require(auth.OpGamesList)).Get("/", s.listGames)
			gr.With(guard.Require(auth.OpGamesWrite)).Post("/", s.createGame)
			gr.With(guard.Require(auth.OpGamesWrite)).Put("/{id}", s.updateGame)
			gr.With(guard.Require(auth.OpGamesWrite)).Delete("/{id}", s.deleteGame)
		})

		ar.Route("/managers", func(mr chi.Router) {
			mr.With(guard.Require(auth.OpManagersList)).Get("/", s.listManagers)
			mr.With(guard.Require(auth.OpManagersWrite)).Post("/", s.createManager)
			mr.With(guard.Require(auth.OpManagersWrite)).Put("/{id}", s.updateManager)
			mr.With(guard.Require(auth.OpManagersDelete)).Delete("/{id}", s.deleteManager)
		})

		ar.Route("/players", func(pr chi.Router) {
			pr.With(guard.Require(auth.OpPlayersList)).Get("/", s.listPlayers)
			pr.With(guard.Require(auth.OpPlayersWrite)).Post("/", s.createPlayer)
			pr.With(guard.Require(auth.OpPlayersWrite)).Put("/{id}", s.updatePlayer)
			pr.With(guard.Require(auth.OpPlayersDelete)).Delete("/{id}", s.deletePlayer)
		})

		ar.Route("/teams", func(tr chi.Router) {
			tr.With(guard.Require(auth.OpTeamsList)).Get("/", s.listTeams)
			tr.With(guard.Require(auth.OpTeamsList)).Get("/{id}", s.getTeam)
			tr.With(guard.Require(auth.OpTeamsWrite)).Post("/", s.createTeam)
			tr.With(guard.Require(auth.OpTeamsWrite)).Put("/{id}", s.updateTeam)
			tr.With(guard.Require(auth.OpTeamsDelete)).Delete("/{id}", s.deleteTeam)
		})

		ar.Route("/tournaments", func(tr chi.Router) {
			tr.With(guard.Require(auth.OpTournamentsList)).Get("/", s.listTournaments)
			tr.With(guard.Require(auth.OpTournamentsEdit)).Post("/", s.createTournament)
			tr.With(guard.Require(auth.OpTournamentsEdit)).Put("/{id}", s.updateTournament)
			tr.With(guard.Require(auth.OpTournamentsEdit)).Delete("/{id}", s.deleteTournament)
		})

		ar.Route("/admin", func(adm chi.Router) {
			adm.With(guard.Require(auth.OpAdminRead)).Get("/audit", s.listAudit)
			adm.With(guard.Require(auth.OpAdminRead)).Get("/metrics", m.Handler())

			maintain := s.initSecretOr(guard.Require(auth.OpAdminMaintain))
			adm.With(maintain).Post("/init-db", s.initDB)
			adm.With(maintain).Post("/seed-mock-data", s.seedMockData)
			adm.With(maintain).Post("/clear-data", s.clearData)
		})
	})

	return r
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "degraded",
				"database": "disconnected",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "connected",
	})
}
