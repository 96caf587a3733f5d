// Package obs wires logging and Prometheus metrics for protify commands.
package obs

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Star outcomes.
const (
	StarDone    = "done"
	StarFailed  = "failed"
	StarResumed = "resumed"
)

// Metrics holds the run and API collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	starsTotal     *prometheus.CounterVec
	sectorsTotal   *prometheus.CounterVec
	sectorDuration prometheus.Histogram
	starDuration   prometheus.Histogram
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		starsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "protify_stars_total",
			Help: "Stars handled by outcome (done, failed, resumed).",
		}, []string{"outcome"}),
		sectorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "protify_sectors_total",
			Help: "Sectors analysed by outcome (ok, failed, skipped).",
		}, []string{"outcome"}),
		sectorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "protify_sector_analysis_seconds",
			Help:    "Time spent on periodogram, selection and peak fit per sector.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		starDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "protify_star_seconds",
			Help:    "Time per star including acquisition.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "protify_http_requests_total",
			Help: "Results API requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "protify_http_request_duration_seconds",
			Help:    "Results API request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.reg.MustRegister(
		m.starsTotal,
		m.sectorsTotal,
		m.sectorDuration,
		m.starDuration,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObserveSector records one analysed sector.
func (m *Metrics) ObserveSector(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.sectorsTotal.WithLabelValues(outcome).Inc()
	m.sectorDuration.Observe(d.Seconds())
}

// ObserveStar records one star.
func (m *Metrics) ObserveStar(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.starsTotal.WithLabelValues(outcome).Inc()
	if outcome != StarResumed {
		m.starDuration.Observe(d.Seconds())
	}
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
