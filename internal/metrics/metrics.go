package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadwatch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	notificationsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadwatch_notifications_generated_total",
			Help: "Notifications emitted by regeneration passes, by bucket",
		},
		[]string{"bucket"},
	)

	regenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadwatch_regenerations_total",
			Help: "Regeneration passes by outcome",
		},
		[]string{"outcome"},
	)

	regenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadwatch_regeneration_duration_seconds",
			Help:    "Wall time of a full regeneration pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	salesmanFetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadwatch_salesman_fetch_failures_total",
			Help: "Salesmen skipped during regeneration because their leads could not be loaded",
		},
	)

	afkAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadwatch_afk_alerts_total",
			Help: "AFK alerts raised for salesmen",
		},
	)

	salesmenByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leadwatch_salesmen_by_status",
			Help: "Salesmen per activity status at the last check",
		},
		[]string{"status"},
	)

	scheduledJobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadwatch_scheduled_job_runs_total",
			Help: "Scheduled job executions by job and outcome",
		},
		[]string{"job", "outcome"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency labelled by the mux route
// template, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func RecordNotifications(bucket string, n int) {
	if n > 0 {
		notificationsGenerated.WithLabelValues(bucket).Add(float64(n))
	}
}

func RecordRegeneration(success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	regenerations.WithLabelValues(outcome).Inc()
	regenerationDuration.Observe(duration.Seconds())
}

func RecordSalesmanFetchFailure() {
	salesmanFetchFailures.Inc()
}

func RecordAFKAlert() {
	afkAlerts.Inc()
}

func SetSalesmenByStatus(counts map[string]int) {
	salesmenByStatus.Reset()
	for status, n := range counts {
		salesmenByStatus.WithLabelValues(status).Set(float64(n))
	}
}

func RecordScheduledJob(job string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	scheduledJobRuns.WithLabelValues(job, outcome).Inc()
}
