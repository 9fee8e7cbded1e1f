// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search backends.
const (
	BackendPostgres = "postgres"
	BackendElastic  = "elastic"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staffdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "staffdesk_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staffdesk_search_requests_total",
			Help: "Total number of universal search requests",
		},
		[]string{"entity", "backend", "outcome"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "staffdesk_search_duration_seconds",
			Help:    "Duration of universal search requests in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"entity", "backend"},
	)

	BulkAffected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staffdesk_bulk_records_affected_total",
			Help: "Records changed by bulk operations",
		},
		[]string{"entity", "operation"},
	)
)

// ObserveSearch records one search on backend that started at start.
func ObserveSearch(entity, backend string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	SearchRequests.WithLabelValues(entity, backend, outcome).Inc()
	SearchDuration.WithLabelValues(entity, backend).Observe(time.Since(start).Seconds())
}

// PoolStats is the part of *pgxpool.Stat the pool gauges read.
type PoolStats interface {
	TotalConns() int32
	AcquiredConns() int32
	IdleConns() int32
	MaxConns() int32
}

// RegisterPool exports connection pool gauges. stat is called on every scrape.
func RegisterPool(reg prometheus.Registerer, stat func() PoolStats) {
	gauge := func(name, help string, read func(PoolStats) int32) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "staffdesk_db_pool_" + name,
			Help: help,
		}, func() float64 { return float64(read(stat())) })
	}
	reg.MustRegister(
		gauge("total_conns", "Open connections", PoolStats.TotalConns),
		gauge("acquired_conns", "Connections in use", PoolStats.AcquiredConns),
		gauge("idle_conns", "Idle connections", PoolStats.IdleConns),
		gauge("max_conns", "Pool size limit", PoolStats.MaxConns),
	)
}
