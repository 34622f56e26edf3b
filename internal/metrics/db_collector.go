package metrics

import "github.com/prometheus/client_golang/prometheus"

// PoolStats is a snapshot of the database connection pool.
type PoolStats struct {
	Total             int32
	Idle              int32
	Acquired          int32
	Max               int32
	AcquireCount      int64
	EmptyAcquireCount int64
}

// DBPoolStatFunc reads the current pool statistics. It keeps this package
// free of a pgxpool import.
type DBPoolStatFunc func() PoolStats

type poolMetric struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(PoolStats) float64
}

// dbPoolCollector reads pool statistics once per scrape.
type dbPoolCollector struct {
	stat    DBPoolStatFunc
	metrics []poolMetric
}

// NewDBPoolCollector returns a collector exposing the roster_db_pool_* series.
func NewDBPoolCollector(stat DBPoolStatFunc) prometheus.Collector {
	gauge := func(name, help string, v func(PoolStats) float64) poolMetric {
		return poolMetric{prometheus.NewDesc("roster_db_pool_"+name, help, nil, nil), prometheus.GaugeValue, v}
	}
	counter := func(name, help string, v func(PoolStats) float64) poolMetric {
		return poolMetric{prometheus.NewDesc("roster_db_pool_"+name, help, nil, nil), prometheus.CounterValue, v}
	}
	return &dbPoolCollector{
		stat: stat,
		metrics: []poolMetric{
			gauge("total_conns", "Connections currently open in the pool.",
				func(s PoolStats) float64 { return float64(s.Total) }),
			gauge("idle_conns", "Idle connections in the pool.",
				func(s PoolStats) float64 { return float64(s.Idle) }),
			gauge("acquired_conns", "Connections checked out of the pool.",
				func(s PoolStats) float64 { return float64(s.Acquired) }),
			gauge("max_conns", "Configured pool size.",
				func(s PoolStats) float64 { return float64(s.Max) }),
			counter("acquires_total", "Successful connection acquisitions.",
				func(s PoolStats) float64 { return float64(s.AcquireCount) }),
			counter("empty_acquires_total", "Acquisitions that had to wait for a free connection.",
				func(s PoolStats) float64 { return float64(s.EmptyAcquireCount) }),
		},
	}
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(s))
	}
}
