package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus metric collectors for the roster service.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Access control.
	AuthFailuresTotal        *prometheus.CounterVec
	AuthSuccessesTotal       *prometheus.CounterVec
	GuardDenialsTotal        *prometheus.CounterVec
	RateLimitRejectionsTotal *prometheus.CounterVec

	// Relationship reconciler.
	TeamReassignmentsTotal  *prometheus.CounterVec
	PlayerTeamReplacedTotal prometheus.Counter

	// Audit collector.
	AuditBufferSize   prometheus.Gauge
	AuditFlushesTotal *prometheus.CounterVec
	AuditEntriesTotal prometheus.Counter

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roster_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_auth_failures_total",
			Help: "Total number of authentication failures.",
		}, []string{"auth_type"}),

		AuthSuccessesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_auth_successes_total",
			Help: "Total number of successful authentications.",
		}, []string{"auth_type"}),

		GuardDenialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_guard_denials_total",
			Help: "Total number of requests rejected by the authorization guard.",
		}, []string{"operation", "status_code"}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}, []string{"scope"}),

		TeamReassignmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_team_reassignments_total",
			Help: "Teams moved by manager team reconciliation.",
		}, []string{"outcome"}),

		PlayerTeamReplacedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roster_player_team_replacements_total",
			Help: "Total number of player team replacements.",
		}),

		AuditBufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roster_audit_buffer_size",
			Help: "Current number of buffered audit entries.",
		}),

		AuditFlushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_audit_flushes_total",
			Help: "Total number of audit collector flushes.",
		}, []string{"status"}),

		AuditEntriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roster_audit_entries_total",
			Help: "Total number of audit entries written.",
		}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roster_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthFailuresTotal,
		m.AuthSuccessesTotal,
		m.GuardDenialsTotal,
		m.RateLimitRejectionsTotal,
		m.TeamReassignmentsTotal,
		m.PlayerTeamReplacedTotal,
		m.AuditBufferSize,
		m.AuditFlushesTotal,
		m.AuditEntriesTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	// Register Go runtime and process collectors.
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector adds the pool collector to the registry.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, pattern string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pattern).Observe(elapsed.Seconds())
}

// IncAuthFailure increments the auth failure counter for the given auth type.
func (m *Metrics) IncAuthFailure(authType string) {
	m.AuthFailuresTotal.WithLabelValues(authType).Inc()
}

// IncAuthSuccess increments the auth success counter for the given auth type.
func (m *Metrics) IncAuthSuccess(authType string) {
	m.AuthSuccessesTotal.WithLabelValues(authType).Inc()
}

// IncGuardDenial counts a request the guard refused.
func (m *Metrics) IncGuardDenial(operation string, status int) {
	m.GuardDenialsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection(scope string) {
	m.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

// TeamsReassigned implements roster.Observer.
func (m *Metrics) TeamsReassigned(added, toFallback, unassigned int) {
	m.TeamReassignmentsTotal.WithLabelValues("assigned").Add(float64(added))
	m.TeamReassignmentsTotal.WithLabelValues("fallback").Add(float64(toFallback))
	m.TeamReassignmentsTotal.WithLabelValues("unassigned").Add(float64(unassigned))
}

// PlayerTeamReplaced implements roster.Observer.
func (m *Metrics) PlayerTeamReplaced() {
	m.PlayerTeamReplacedTotal.Inc()
}

// ObserveAuditFlush records the outcome of an audit collector flush.
func (m *Metrics) ObserveAuditFlush(n int, err error) {
	if err != nil {
		m.AuditFlushesTotal.WithLabelValues("error").Inc()
		return
	}
	m.AuditFlushesTotal.WithLabelValues("ok").Inc()
	m.AuditEntriesTotal.Add(float64(n))
}

// SetAuditBuffer sets the audit buffer gauge.
func (m *Metrics) SetAuditBuffer(n int) {
	m.AuditBufferSize.Set(float64(n))
}
