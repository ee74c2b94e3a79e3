// Package metrics provides Prometheus metrics collection for HTTP requests and
// the chat pipeline.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/lewisedginton/shopping_assistant/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	subsystem = "app"
)

// Metrics provides Prometheus metrics collection for HTTP requests and the chat pipeline.
type Metrics struct {
	reg *prometheus.Registry

	TotalHTTPRequestsCounter prometheus.Counter
	HTTPRequestsCounters     map[int]prometheus.Counter
	HTTPDurationHistogram    prometheus.Histogram

	ChatRequestsCounter       *prometheus.CounterVec
	ProviderFallbacksCounter  *prometheus.CounterVec
	MemoryInjectionsCounter   *prometheus.CounterVec
	GenerationDurationSeconds prometheus.Histogram

	customMetrics []prometheus.Collector

	stopChan chan os.Signal
	errChan  chan error
	log      logger.Logger
}

// NewMetrics creates a new Metrics instance with the specified collectors enabled.
func NewMetrics(httpCounters, pipelineCounters bool, l logger.Logger) Metrics {
	m := Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}
	if httpCounters {
		m.TotalHTTPRequestsCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "total_http_requests",
			Help:      "Total HTTP requests",
		})
		m.reg.MustRegister(m.TotalHTTPRequestsCounter)
		m.HTTPRequestsCounters = make(map[int]prometheus.Counter)

		m.HTTPDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 1.0, 3.0, 5.0, 7.0, 10.0},
		})
		m.reg.MustRegister(m.HTTPDurationHistogram)
	}
	if pipelineCounters {
		m.ChatRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "total_chat_requests",
			Help:      "Total chat requests handled, partitioned by resolved intent",
		}, []string{"intent"})
		m.reg.MustRegister(m.ChatRequestsCounter)

		m.ProviderFallbacksCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "total_provider_fallbacks",
			Help:      "Total generation provider failures that advanced the fallback chain",
		}, []string{"provider"})
		m.reg.MustRegister(m.ProviderFallbacksCounter)

		m.MemoryInjectionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "total_memory_injections",
			Help:      "Total memory context injections, partitioned by importance tier",
		}, []string{"importance"})
		m.reg.MustRegister(m.MemoryInjectionsCounter)

		m.GenerationDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "generation_duration_seconds",
			Help:      "Generation backend call duration in seconds, including fallbacks",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 1.0, 3.0, 5.0, 7.0, 10.0},
		})
		m.reg.MustRegister(m.GenerationDurationSeconds)
	}
	return m
}

// Listen starts the metrics HTTP server on the specified port.
func (m *Metrics) Listen(port int) {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))
	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal)
	errChan := make(chan error)
	go func() {
		errChan <- server.ListenAndServe()
	}()
	go func() {
		for {
			sig := <-sigChan
			if sig == os.Interrupt {
				m.log.Info("Stopping metrics listener")
				_ = server.Shutdown(context.Background())
				return
			}
		}
	}()
	m.errChan = errChan
	m.stopChan = sigChan
}

// Stop signals the metrics server to shut down.
func (m *Metrics) Stop() {
	if m.stopChan != nil {
		m.stopChan <- os.Interrupt
	}
}

// ErrChan returns the channel carrying the metrics server error, if any.
func (m *Metrics) ErrChan() chan error {
	return m.errChan
}

// AddCustomMetric registers a custom Prometheus collector.
func (m *Metrics) AddCustomMetric(c prometheus.Collector) {
	m.customMetrics = append(m.customMetrics, c)
	m.reg.MustRegister(m.customMetrics[len(m.customMetrics)-1])
}

// IncrementChatRequests increments the chat request counter for the given intent.
func (m *Metrics) IncrementChatRequests(intent string) {
	if m.ChatRequestsCounter != nil {
		m.ChatRequestsCounter.WithLabelValues(intent).Inc()
	}
}

// IncrementProviderFallbacks records a provider failure that advanced the chain.
func (m *Metrics) IncrementProviderFallbacks(provider string) {
	if m.ProviderFallbacksCounter != nil {
		m.ProviderFallbacksCounter.WithLabelValues(provider).Inc()
	}
}

// IncrementMemoryInjections records a memory context injection at the given tier.
func (m *Metrics) IncrementMemoryInjections(importance string) {
	if m.MemoryInjectionsCounter != nil {
		m.MemoryInjectionsCounter.WithLabelValues(importance).Inc()
	}
}

// ObserveGenerationDuration records a generation call duration.
func (m *Metrics) ObserveGenerationDuration(d time.Duration) {
	if m.GenerationDurationSeconds != nil {
		m.GenerationDurationSeconds.Observe(d.Seconds())
	}
}

// IncrementHTTPResponseCounter increments the counter for the given HTTP status code.
func (m *Metrics) IncrementHTTPResponseCounter(code int) {
	_, ok := m.HTTPRequestsCounters[code]
	if !ok {
		m.HTTPRequestsCounters[code] = newTotalHTTPReqMetric(code)
		m.reg.MustRegister(m.HTTPRequestsCounters[code])
	}
	m.HTTPRequestsCounters[code].Inc()
}

func newTotalHTTPReqMetric(code int) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      fmt.Sprintf("total_%d_http_responses", code),
		Help:      fmt.Sprintf("Total %s HTTP responses returned", http.StatusText(code)),
	})
}

// HTTPMiddleware returns a Chi-compatible middleware that tracks HTTP metrics
func (m *Metrics) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.TotalHTTPRequestsCounter.Inc()

			rw := &responseWriter{ResponseWriter: w, statusCode: 200}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			m.HTTPDurationHistogram.Observe(duration.Seconds())
			m.IncrementHTTPResponseCounter(rw.statusCode)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
