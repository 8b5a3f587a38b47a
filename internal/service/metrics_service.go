package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the
// reconciliation engine.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	ingestFiles    *prometheus.CounterVec
	syncSessions   prometheus.Counter
	codesScanned   prometheus.Counter
	codesGenerated prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	ingestFiles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_files_total",
		Help: "Camera-card files processed by outcome (new, duplicate, failure)",
	}, []string{"outcome"})

	syncSessions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_sessions_merged_total",
		Help: "Offline sessions merged into the shared store",
	})

	codesScanned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_codes_marked_total",
		Help: "Scan codes newly marked scanned by sync merges",
	})

	codesGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_codes_generated_total",
		Help: "Scan codes compiled from preferences",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, ingestFiles, syncSessions, codesScanned, codesGenerated, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		ingestFiles:     ingestFiles,
		syncSessions:    syncSessions,
		codesScanned:    codesScanned,
		codesGenerated:  codesGenerated,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveIngestFile counts one per-file ingest outcome.
func (s *MetricsService) ObserveIngestFile(outcome string) {
	s.ingestFiles.WithLabelValues(outcome).Inc()
}

// ObserveSyncMerge records a committed merge.
func (s *MetricsService) ObserveSyncMerge(sessions, codesMarked int) {
	s.syncSessions.Add(float64(sessions))
	s.codesScanned.Add(float64(codesMarked))
}

// ObserveCodesGenerated records a completed generation run.
func (s *MetricsService) ObserveCodesGenerated(count int) {
	s.codesGenerated.Add(float64(count))
}
