package monitoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	PageCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagecache_lookups_total",
			Help: "Page cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	FollowConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "follow_conflicts_total",
			Help: "Follow creations rejected by the storage constraints",
		},
	)
)

var registerOnce sync.Once

// Register enregistre les métriques dans le registre par défaut (une seule fois).
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HttpRequestsTotal,
			HttpRequestDuration,
			PageCacheLookups,
			FollowConflicts,
		)
	})
}
