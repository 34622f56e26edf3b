package metrics

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	m := New()
	m.RegisterDBPoolCollector(func() PoolStats { return PoolStats{Total: 4, Idle: 3, Acquired: 1, Max: 10, EmptyAcquireCount: 2} })

	m.ObserveHTTP(http.MethodGet, "/api/teams", http.StatusOK, 10*time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "/api/teams", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTP(http.MethodPost, "/api/teams", http.StatusBadRequest, 5*time.Millisecond)
	m.ObserveHTTP(http.MethodDelete, "/api/teams/{id}", http.StatusForbidden, 5*time.Millisecond)

	m.IncAuthSuccess("password")
	m.IncAuthFailure("password")
	m.IncAuthFailure("password")
	m.IncGuardDenial("team.delete", http.StatusForbidden)
	m.IncRateLimitRejection("login")

	m.TeamsReassigned(2, 1, 0)
	m.TeamsReassigned(1, 0, 3)
	m.PlayerTeamReplaced()

	m.ObserveAuditFlush(5, nil)
	m.ObserveAuditFlush(0, errors.New("copy failed"))
	m.SetAuditBuffer(7)

	s, err := m.Summarize()
	require.NoError(t, err)

	assert.Equal(t, 4.0, s.HTTP.TotalRequests)
	assert.Equal(t, 0.5, s.HTTP.ErrorRate)
	assert.Greater(t, s.HTTP.P95Latency, 0.0)

	assert.Equal(t, 1.0, s.Auth.Successes)
	assert.Equal(t, 2.0, s.Auth.Failures)
	assert.Equal(t, 1.0, s.Auth.GuardDenials)
	assert.Equal(t, 1.0, s.RateLimit.Rejections)

	assert.Equal(t, 3.0, s.Reconciler.TeamsAssigned)
	assert.Equal(t, 1.0, s.Reconciler.TeamsToFallback)
	assert.Equal(t, 3.0, s.Reconciler.TeamsUnassigned)
	assert.Equal(t, 1.0, s.Reconciler.PlayerReplacements)

	assert.Equal(t, 7.0, s.Audit.BufferSize)
	assert.Equal(t, 2.0, s.Audit.TotalFlushes)
	assert.Equal(t, 1.0, s.Audit.FlushErrors)
	assert.Equal(t, 5.0, s.Audit.Entries)

	assert.Equal(t, 4.0, s.DB.TotalConns)
	assert.Equal(t, 3.0, s.DB.IdleConns)
	assert.Equal(t, 1.0, s.DB.AcquiredConns)
	assert.Equal(t, 10.0, s.DB.MaxConns)
	assert.Equal(t, 2.0, s.DB.EmptyAcquires)

	assert.Greater(t, s.Server.StartTime, 0.0)
	assert.GreaterOrEqual(t, s.Server.UptimeSeconds, 0.0)
}

func TestHandler(t *testing.T) {
	m := New()
	m.IncAuthSuccess("password")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 1.0, body.Auth.Successes)
}

func TestDBPoolCollector(t *testing.T) {
	c := NewDBPoolCollector(func() PoolStats { return PoolStats{Total: 10, Idle: 6, Acquired: 4, Max: 10} })
	assert.Equal(t, 6, testutil.CollectAndCount(c))
	assert.Equal(t, 1, testutil.CollectAndCount(c, "roster_db_pool_max_conns"))
}

func TestHistogramPercentileEmpty(t *testing.T) {
	assert.Equal(t, 0.0, histogramPercentile(nil, 0.5))
	assert.Equal(t, 0.0, computeErrorRate(nil))
}
