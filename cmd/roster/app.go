package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/afina/roster/internal/api"
	"github.com/afina/roster/internal/audit"
	"github.com/afina/roster/internal/auth"
	"github.com/afina/roster/internal/avatar"
	"github.com/afina/roster/internal/config"
	"github.com/afina/roster/internal/database"
	"github.com/afina/roster/internal/game"
	"github.com/afina/roster/internal/memstore"
	"github.com/afina/roster/internal/metrics"
	"github.com/afina/roster/internal/ratelimit"
	"github.com/afina/roster/internal/roster"
	"github.com/afina/roster/internal/seed"
	"github.com/afina/roster/internal/team"
	"github.com/afina/roster/internal/tournament"
	"github.com/afina/roster/internal/user"
)

// auditStore is what the collector writes to and the admin audit endpoint
// reads from.
type auditStore interface {
	audit.BatchInserter
	api.AuditReader
}

// backend is a storage implementation: PostgreSQL or the in-memory store.
type backend struct {
	users       user.Repository
	teams       team.Repository
	games       game.Repository
	tournaments tournament.Repository
	audit       auditStore
	tx          database.Transactor
	ping        api.Pinger
	migrate     seed.MigrateFunc
	poolStat    metrics.DBPoolStatFunc
	close       func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if inMemory {
		slog.Warn("using the in-memory store; data is lost on exit")
		s := memstore.New()
		return &backend{
			users:       s.Users(),
			teams:       s.Teams(),
			games:       s.Games(),
			tournaments: s.Tournaments(),
			audit:       s.Audit(),
			tx:          s,
			ping:        s,
			close:       func() {},
		}, nil
	}

	db, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	slog.Info("connected to database")
	return &backend{
		users:       user.NewStore(db),
		teams:       team.NewStore(db),
		games:       game.NewStore(db),
		tournaments: tournament.NewStore(db),
		audit:       audit.NewStore(db),
		tx:          db,
		ping:        db,
		migrate:     migrateUp(cfg),
		poolStat: func() metrics.PoolStats {
			st := db.Stat()
			return metrics.PoolStats{
				Total:             st.TotalConns(),
				Idle:              st.IdleConns(),
				Acquired:          st.AcquiredConns(),
				Max:               st.MaxConns(),
				AcquireCount:      st.AcquireCount(),
				EmptyAcquireCount: st.EmptyAcquireCount(),
			}
		},
		close: db.Close,
	}, nil
}

// app is the fully wired service graph.
type app struct {
	backend    *backend
	metrics    *metrics.Metrics
	collector  *audit.Collector
	limiter    *ratelimit.Limiter
	maintainer *seed.Maintainer
	deps       api.RouterDeps
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	if b.poolStat != nil {
		m.RegisterDBPoolCollector(b.poolStat)
	}

	users := user.NewService(b.users, b.tx, user.NewBcryptHasher(cfg.Auth.BcryptCost))
	users.AddGuard(roster.NewOwnerGuard(b.teams))

	reconciler := roster.NewReconciler(b.teams, b.tx, roster.FirstAdmin(b.users))
	reconciler.SetObserver(m)

	games := game.NewService(b.games, b.tx)
	tournaments := tournament.NewService(b.tournaments, b.tx)

	maintainer := seed.New(seed.Deps{
		Users:       users,
		Teams:       b.teams,
		Games:       games,
		GameRepo:    b.games,
		Tournaments: tournaments,
		TournRepo:   b.tournaments,
		Tx:          b.tx,
		Migrate:     b.migrate,
		Admin: seed.Admin{
			Email:    cfg.Bootstrap.AdminEmail,
			Password: cfg.Bootstrap.AdminPassword,
		},
	})

	var uploader avatar.Uploader
	if cfg.AvatarUploadsEnabled() {
		s3u, err := avatar.NewS3Uploader(ctx, avatar.S3Config{
			Endpoint:        cfg.Avatars.Endpoint,
			Region:          cfg.Avatars.Region,
			Bucket:          cfg.Avatars.Bucket,
			AccessKeyID:     cfg.Avatars.AccessKeyID,
			SecretAccessKey: cfg.Avatars.SecretAccessKey,
			PublicBaseURL:   cfg.Avatars.PublicBaseURL,
		})
		if err != nil {
			b.close()
			return nil, fmt.Errorf("configuring avatar storage: %w", err)
		}
		uploader = s3u
		slog.Info("avatar uploads enabled", "bucket", cfg.Avatars.Bucket)
	}

	collector := audit.NewCollector(b.audit, cfg.Audit.BatchSize, cfg.Audit.FlushInterval)
	collector.OnFlush(func(n int, err error) {
		m.ObserveAuditFlush(n, err)
		m.SetAuditBuffer(collector.Pending())
	})

	limiter := ratelimit.New(cfg.RateLimit.Login, cfg.RateLimit.Window)

	return &app{
		backend:    b,
		metrics:    m,
		collector:  collector,
		limiter:    limiter,
		maintainer: maintainer,
		deps: api.RouterDeps{
			Users:          users,
			Players:        roster.NewPlayers(users, b.teams, reconciler, b.tx),
			Managers:       roster.NewManagers(users, b.teams, reconciler, b.tx),
			Teams:          team.NewService(b.teams, b.users, b.tx),
			Games:          games,
			Tournaments:    tournaments,
			Avatars:        avatar.NewService(uploader, cfg.Avatars.MaxBytes),
			Maintainer:     maintainer,
			Sessions:       auth.NewSessionIssuer(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL),
			Principals:     user.NewAuthAdapter(b.users),
			Limiter:        limiter,
			Audit:          &meteredRecorder{collector: collector, metrics: m},
			AuditLog:       b.audit,
			Metrics:        m,
			DB:             b.ping,
			InitSecret:     cfg.Auth.InitSecret,
			SecureCookie:   cfg.Auth.SecureCookie,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		},
	}, nil
}

func (a *app) Close() {
	a.backend.close()
}

// meteredRecorder queues audit entries and keeps the buffer gauge current.
type meteredRecorder struct {
	collector *audit.Collector
	metrics   *metrics.Metrics
}

func (r *meteredRecorder) Record(e audit.Entry) {
	r.collector.Record(e)
	r.metrics.SetAuditBuffer(r.collector.Pending())
}
