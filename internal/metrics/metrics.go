// Package metrics exposes engine outcomes and API traffic to prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/Swapica/order-proxy-svc/internal/orderproxy"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "order_proxy"

type Metrics struct {
	registry *prometheus.Registry

	created   prometheus.Counter
	executed  *prometheus.CounterVec
	reclaimed prometheus.Counter
	rejected  *prometheus.CounterVec
	pending   prometheus.Gauge
	gasUsed   prometheus.Histogram
	published *prometheus.CounterVec
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders escrowed.",
		}),
		executed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_executed_total",
			Help:      "Orders settled, by payload shape.",
		}, []string{"shape"}),
		reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_reclaimed_total",
			Help:      "Expired orders refunded to their depositor.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_rejected_total",
			Help:      "Refused operations, by operation and failure kind.",
		}, []string{"op", "kind"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orders_pending",
			Help:      "Orders holding escrow.",
		}),
		gasUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_gas_used",
			Help:      "Metered gas of successful executions.",
			Buckets:   prometheus.ExponentialBuckets(25000, 2, 8),
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Ledger events mirrored by the publisher, by event name.",
		}, []string{"event"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests, by route, method and status.",
		}, []string{"route", "method", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	m.registry.MustRegister(m.created, m.executed, m.reclaimed, m.rejected, m.pending, m.gasUsed,
		m.published, m.requests, m.durations)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Created(data.Order) {
	m.created.Inc()
	m.pending.Inc()
}

func (m *Metrics) Executed(_ data.Order, r orderproxy.Receipt) {
	m.executed.WithLabelValues(r.Shape).Inc()
	m.pending.Dec()
	m.gasUsed.Observe(float64(r.GasUsed))
}

func (m *Metrics) Reclaimed(data.Order, *uint256.Int) {
	m.reclaimed.Inc()
	m.pending.Dec()
}

func (m *Metrics) Rejected(op string, err error) {
	m.rejected.WithLabelValues(op, orderproxy.Kind(err)).Inc()
}

func (m *Metrics) Published(event string) {
	m.published.WithLabelValues(event).Inc()
}

// Middleware records every request under route.
func (m *Metrics) Middleware(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			m.requests.WithLabelValues(route, r.Method, strconv.Itoa(recorder.status)).Inc()
			m.durations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

var _ orderproxy.Observer = (*Metrics)(nil)
