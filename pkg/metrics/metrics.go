// Package metrics exposes booking activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fbsbot"

// Metrics holds the bot's collectors on a private registry.
type Metrics struct {
	registry   *prometheus.Registry
	bookings   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rejections *prometheus.CounterVec
	inFlight   prometheus.Gauge
	updates    prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking attempts by venue and outcome.",
		}, []string{"venue", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_duration_seconds",
			Help:      "Time spent driving the portal per attempt.",
			Buckets:   []float64{15, 30, 45, 60, 75, 90, 120, 180, 300},
		}, []string{"outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Commands rejected before reaching the portal, by reason.",
		}, []string{"reason"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bookings_in_flight",
			Help:      "Messages currently being handled.",
		}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_updates_total",
			Help:      "Updates received from Telegram.",
		}),
	}

	m.registry.MustRegister(
		m.bookings,
		m.duration,
		m.rejections,
		m.inFlight,
		m.updates,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveBooking records one engine invocation.
func (m *Metrics) ObserveBooking(venue, outcome string, elapsed time.Duration) {
	m.bookings.WithLabelValues(venue, outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveRejection records a command refused before the engine ran.
func (m *Metrics) ObserveRejection(reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}

// HandlingStarted marks a message as being handled.
func (m *Metrics) HandlingStarted() { m.inFlight.Inc() }

// HandlingFinished marks a message as done.
func (m *Metrics) HandlingFinished() { m.inFlight.Dec() }

// UpdateReceived counts an inbound Telegram update.
func (m *Metrics) UpdateReceived() { m.updates.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
