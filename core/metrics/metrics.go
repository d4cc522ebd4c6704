package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "unisync"

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Count of finalized sync runs by outcome.",
		},
		[]string{"institution", "category", "status"},
	)
	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_run_duration_seconds",
			Help:      "Wall time of sync runs from lock acquisition to ledger write.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"institution", "category"},
	)
	fetchAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Count of upstream fetch attempts by result (ok or the fetch error kind).",
		},
		[]string{"institution", "category", "result"},
	)
	recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Count of reconciled records by action.",
		},
		[]string{"institution", "category", "action"},
	)
	inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_in_flight",
			Help:      "Number of sync runs currently executing.",
		},
	)
	busyRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_busy_rejections_total",
			Help:      "Count of sync requests rejected because the pair was already running.",
		},
		[]string{"institution", "category"},
	)
)

var registerMetrics sync.Once

// Register adds all collectors plus the Go and process collectors to Registry.
// It is safe to call more than once.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(runsTotal)
		Registry.MustRegister(runDuration)
		Registry.MustRegister(fetchAttempts)
		Registry.MustRegister(recordsTotal)
		Registry.MustRegister(inFlight)
		Registry.MustRegister(busyRejections)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRun records a finalized run.
func RecordRun(institution, category, status string, duration time.Duration) {
	runsTotal.WithLabelValues(institution, category, status).Inc()
	runDuration.WithLabelValues(institution, category).Observe(duration.Seconds())
}

// RecordFetchAttempt records one fetch attempt. result is "ok" or the error kind.
func RecordFetchAttempt(institution, category, result string) {
	fetchAttempts.WithLabelValues(institution, category, result).Inc()
}

// RecordRecords adds reconciled record counts.
func RecordRecords(institution, category string, inserted, updated, unchanged, failed int) {
	recordsTotal.WithLabelValues(institution, category, "inserted").Add(float64(inserted))
	recordsTotal.WithLabelValues(institution, category, "updated").Add(float64(updated))
	recordsTotal.WithLabelValues(institution, category, "unchanged").Add(float64(unchanged))
	recordsTotal.WithLabelValues(institution, category, "failed").Add(float64(failed))
}

// RecordBusy records a rejected sync request.
func RecordBusy(institution, category string) {
	busyRejections.WithLabelValues(institution, category).Inc()
}

// TrackInFlight increments the in-flight gauge and returns the matching
// decrement.
func TrackInFlight() func() {
	inFlight.Inc()
	return inFlight.Dec
}
