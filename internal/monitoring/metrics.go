// Package monitoring exposes the generator's Prometheus metrics and the
// development server's health checks.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "sunny"

// Build outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Metrics records build, link-check, watcher and live-reload activity. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prom.Registry

	buildDuration prom.Histogram
	stageDuration *prom.HistogramVec
	buildOutcomes *prom.CounterVec
	pagesWritten  prom.Counter
	brokenLinks   *prom.CounterVec
	watcherEvents *prom.CounterVec
	reloadClients prom.Gauge
	reloadsSent   prom.Counter
	httpRequests  *prom.CounterVec
}

// NewMetrics creates the metrics and registers them on reg. A nil reg gets a
// fresh registry.
func NewMetrics(reg *prom.Registry) *Metrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "build_duration_seconds",
			Help:      "Total site build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "build_outcomes_total",
			Help:      "Builds by final status",
		}, []string{"outcome"}),
		pagesWritten: prom.NewCounter(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "pages_written_total",
			Help:      "HTML pages written to the output directory",
		}),
		brokenLinks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "broken_links_total",
			Help:      "Broken internal links by the policy applied to them",
		}, []string{"policy"}),
		watcherEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "watcher_events_total",
			Help:      "File system events seen by the watcher",
		}, []string{"op"}),
		reloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: Namespace,
			Name:      "livereload_clients",
			Help:      "Connected live-reload clients",
		}),
		reloadsSent: prom.NewCounter(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "livereload_messages_total",
			Help:      "Reload messages broadcast to clients",
		}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Requests served by the development server",
		}, []string{"code"}),
	}
	reg.MustRegister(
		m.buildDuration,
		m.stageDuration,
		m.buildOutcomes,
		m.pagesWritten,
		m.brokenLinks,
		m.watcherEvents,
		m.reloadClients,
		m.reloadsSent,
		m.httpRequests,
	)
	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prom.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveBuild(d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(d.Seconds())
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailed
	}
	m.buildOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) AddPages(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.pagesWritten.Add(float64(n))
}

func (m *Metrics) IncBrokenLink(policy string) {
	if m == nil {
		return
	}
	m.brokenLinks.WithLabelValues(policy).Inc()
}

func (m *Metrics) IncWatcherEvent(op string) {
	if m == nil {
		return
	}
	m.watcherEvents.WithLabelValues(op).Inc()
}

func (m *Metrics) SetReloadClients(n int) {
	if m == nil {
		return
	}
	m.reloadClients.Set(float64(n))
}

func (m *Metrics) IncReloads() {
	if m == nil {
		return
	}
	m.reloadsSent.Inc()
}

// ObserveRequest counts a served request by status code.
func (m *Metrics) ObserveRequest(code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}
