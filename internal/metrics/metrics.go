// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	LinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkforge_links_created_total",
		Help: "Short links created",
	})

	CodeCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkforge_code_collisions_total",
		Help: "Generated codes rejected because they were already assigned",
	})

	CodeExhaustions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkforge_code_exhaustions_total",
		Help: "Create requests that ran out of code generation attempts",
	})

	Redirects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkforge_redirects_total",
		Help: "Resolve attempts by outcome",
	}, []string{"outcome"})

	// result is "recorded", "failed" or "overflow"
	Clicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkforge_clicks_total",
		Help: "Click recording results",
	}, []string{"result"})

	ClickQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linkforge_click_queue_depth",
		Help: "Click events waiting in the recorder buffer",
	})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkforge_cache_lookups_total",
		Help: "Resolve cache lookups by result",
	}, []string{"result"})

	MonitoredURLs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linkforge_monitored_urls",
		Help: "Long URLs by last observed reachability",
	}, []string{"state"})

	ReconciledLinks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkforge_reconciled_links_total",
		Help: "Links whose click counter was raised to match recorded events",
	})
)
