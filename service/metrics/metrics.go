package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khaledhikmat/proctor-go/service/lgr"
	"github.com/khaledhikmat/proctor-go/tracker"
)

// Metrics holds the proctoring counters on a private registry
type Metrics struct {
	registry *prometheus.Registry

	FramesProcessed prometheus.Counter
	FramesMalformed prometheus.Counter
	Alerts          *prometheus.CounterVec
	Violations      *prometheus.GaugeVec
	FrameLatency    prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proctor_frames_processed_total",
			Help: "Frames fed to the violation tracker",
		}),
		FramesMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proctor_frames_malformed_total",
			Help: "Frames skipped because the landmark set was incomplete",
		}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proctor_alerts_total",
			Help: "Persisted alert lines by violation kind",
		}, []string{"kind"}),
		Violations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "proctor_violations",
			Help: "Violations counted in the current session by kind",
		}, []string{"kind"}),
		FrameLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "proctor_frame_seconds",
			Help:    "Per-frame processing time including landmark inference",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}

	m.registry.MustRegister(m.FramesProcessed, m.FramesMalformed, m.Alerts, m.Violations, m.FrameLatency)
	return m
}

func (m *Metrics) ObserveFrame(elapsed time.Duration, malformed bool) {
	m.FramesProcessed.Inc()
	if malformed {
		m.FramesMalformed.Inc()
	}
	m.FrameLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAlert(kind tracker.Kind) {
	m.Alerts.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) ObserveTotals(t tracker.SessionTotals) {
	m.Violations.WithLabelValues(string(tracker.KindGaze)).Set(float64(t.GazeViolations))
	m.Violations.WithLabelValues(string(tracker.KindHeadTurn)).Set(float64(t.HeadTurnViolations))
	m.Violations.WithLabelValues(string(tracker.KindNoFace)).Set(float64(t.AbsenceViolations))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr
// disables the endpoint.
func (m *Metrics) Serve(ctx context.Context, addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		lgr.Logger.Info("metrics endpoint listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lgr.Logger.Error("metrics endpoint failed", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
