// Package metrics exposes Prometheus collectors for the configuration store.
// Collectors register on the default registry; the HTTP server serves them on
// /metrics via promhttp.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gitCommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "confgit",
		Subsystem: "git",
		Name:      "command_duration_seconds",
		Help:      "Duration of git binary invocations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"subcommand", "outcome"})

	syncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "confgit",
		Name:      "sync_total",
		Help:      "Repository synchronizations by result.",
	}, []string{"result"})

	loadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "confgit",
		Name:      "load_total",
		Help:      "Document loads by outcome.",
	}, []string{"outcome"})

	saveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "confgit",
		Name:      "save_total",
		Help:      "Document saves by outcome.",
	}, []string{"outcome"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "confgit",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveGitCommand records one git binary invocation
func ObserveGitCommand(sub string, d time.Duration, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	gitCommandDuration.WithLabelValues(sub, outcome).Observe(d.Seconds())
}

// RecordSync counts a synchronization result (merged, empty_remote,
// conflict_reset, failed)
func RecordSync(result string) {
	syncTotal.WithLabelValues(result).Inc()
}

// RecordLoad counts a document load outcome (ok, not_found, error)
func RecordLoad(outcome string) {
	loadTotal.WithLabelValues(outcome).Inc()
}

// RecordSave counts a document save outcome (ok, conflict, sync_conflict, error)
func RecordSave(outcome string) {
	saveTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest records one served HTTP request. The route is the
// matched pattern, not the raw path, to keep label cardinality bounded.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
