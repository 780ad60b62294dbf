// Package metrics provides Prometheus metrics for the squad optimizer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the optimizer metrics on a private registry.
// A nil *Manager is valid and records nothing.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	generations        prometheus.Counter
	bestFitness        prometheus.Gauge
	offspringRepaired  prometheus.Counter
	offspringDiscarded prometheus.Counter
	squadBuilds        *prometheus.CounterVec
	buildDuration      *prometheus.HistogramVec

	transferSuggestions *prometheus.CounterVec
	reasoningFailures   prometheus.Counter

	poolPlayers     prometheus.Gauge
	poolRefreshes   *prometheus.CounterVec
	poolLastRefresh prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace overrides the metric namespace (default "fpl_squad").
func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = ns }
}

// WithHistogramBuckets overrides duration buckets (seconds).
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) { m.buckets = buckets }
}

// WithRegistry registers metrics on the given registry instead of a new one.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// NewManager creates a Manager with its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "fpl_squad",
		buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.generations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "genetic",
		Name:      "generations_total",
		Help:      "Total number of generations evolved",
	})
	m.bestFitness = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "genetic",
		Name:      "best_fitness",
		Help:      "Best fitness of the most recent generation",
	})
	m.offspringRepaired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "genetic",
		Name:      "offspring_repaired_total",
		Help:      "Offspring restored to budget legality by repair",
	})
	m.offspringDiscarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "genetic",
		Name:      "offspring_discarded_total",
		Help:      "Offspring dropped because crossover or repair failed",
	})
	m.squadBuilds = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "builder",
		Name:      "builds_total",
		Help:      "Squad builds by method and outcome",
	}, []string{"method", "outcome"})
	m.buildDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "builder",
		Name:      "build_duration_seconds",
		Help:      "Squad build duration in seconds",
		Buckets:   m.buckets,
	}, []string{"method"})

	m.transferSuggestions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "transfer",
		Name:      "suggestions_total",
		Help:      "Transfer suggestions produced by kind",
	}, []string{"kind"})
	m.reasoningFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "transfer",
		Name:      "reasoning_failures_total",
		Help:      "Reasoning calls that failed and fell back to an empty reason",
	})

	m.poolPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "pool",
		Name:      "players",
		Help:      "Players in the last loaded pool",
	})
	m.poolRefreshes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "pool",
		Name:      "refreshes_total",
		Help:      "Pool refreshes by outcome",
	}, []string{"outcome"})
	m.poolLastRefresh = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "pool",
		Name:      "last_refresh_unix",
		Help:      "Unix time of the last successful pool refresh",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.buckets,
	}, []string{"route", "method"})
}

// Registry returns the registry the metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveGeneration records one evolved generation and its best fitness.
func (m *Manager) ObserveGeneration(best float64) {
	if m == nil {
		return
	}
	m.generations.Inc()
	m.bestFitness.Set(best)
}

// ObserveOffspring records repaired and discarded offspring counts.
func (m *Manager) ObserveOffspring(repaired, discarded int) {
	if m == nil {
		return
	}
	m.offspringRepaired.Add(float64(repaired))
	m.offspringDiscarded.Add(float64(discarded))
}

// ObserveBuild records a finished squad build.
func (m *Manager) ObserveBuild(method string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.squadBuilds.WithLabelValues(method, outcome).Inc()
	m.buildDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveSuggestions records produced suggestions of a kind (single, double, captain).
func (m *Manager) ObserveSuggestions(kind string, n int) {
	if m == nil {
		return
	}
	m.transferSuggestions.WithLabelValues(kind).Add(float64(n))
}

// ReasoningFailed counts a failed reasoning call.
func (m *Manager) ReasoningFailed() {
	if m == nil {
		return
	}
	m.reasoningFailures.Inc()
}

// ObservePoolRefresh records a pool refresh attempt.
func (m *Manager) ObservePoolRefresh(players int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.poolRefreshes.WithLabelValues("error").Inc()
		return
	}
	m.poolRefreshes.WithLabelValues("ok").Inc()
	m.poolPlayers.Set(float64(players))
	m.poolLastRefresh.Set(float64(time.Now().Unix()))
}

// ObserveHTTP records a served HTTP request.
func (m *Manager) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
