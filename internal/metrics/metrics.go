// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "customtrans"

var (
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "render_cache",
		Name:      "lookups_total",
		Help:      "Render cache lookups by result (hit or miss).",
	}, []string{"result"})

	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "render_cache",
		Name:      "invalidations_total",
		Help:      "Render cache invalidations by trigger.",
	}, []string{"trigger"})

	FetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fetch",
		Name:      "requests_total",
		Help:      "Fetch attempts by source host and outcome.",
	}, []string{"host", "outcome"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "fetch",
		Name:      "duration_seconds",
		Help:      "Fetch attempt latency by source host.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"host"})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "render_duration_seconds",
		Help:      "Uncached chapter render latency by outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	DictionaryWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dictionary",
		Name:      "warnings_total",
		Help:      "Glossary lines skipped during compilation.",
	})

	UpdateRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "update",
		Name:      "works_total",
		Help:      "Per-work update checks by outcome.",
	}, []string{"outcome"})

	NewChapters = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "update",
		Name:      "new_chapters_total",
		Help:      "Chapters discovered by update checks.",
	})
)
