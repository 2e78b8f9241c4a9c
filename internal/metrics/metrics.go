// Package metrics exposes the engine's Prometheus counters/gauges (spec
// §4.9 EXPANSION) on a private registry, served over go-chi/chi when
// configured.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quickstrom/quickstrom-go/internal/log"
)

// Recorder records engine-lifecycle events as Prometheus metrics. A nil
// *Recorder is valid and degrades every call to a no-op, so callers never
// need to branch on whether metrics are enabled.
type Recorder struct {
	registry         *prometheus.Registry
	sessionsStarted  prometheus.Counter
	actionsPerformed prometheus.Counter
	staleReplies     prometheus.Counter
	protocolErrors   prometheus.Counter
	stateVersion     prometheus.Gauge

	server *http.Server
}

// New creates a Recorder registered on a fresh, private registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickstrom_sessions_started_total",
			Help: "Number of browser sessions started.",
		}),
		actionsPerformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickstrom_actions_performed_total",
			Help: "Number of RequestAction messages performed.",
		}),
		staleReplies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickstrom_stale_replies_total",
			Help: "Number of Stale replies sent for version-mismatched requests.",
		}),
		protocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickstrom_protocol_errors_total",
			Help: "Number of fatal protocol errors encountered.",
		}),
		stateVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quickstrom_state_version",
			Help: "Current state version of the active session.",
		}),
	}
	reg.MustRegister(r.sessionsStarted, r.actionsPerformed, r.staleReplies, r.protocolErrors, r.stateVersion)
	return r
}

func (r *Recorder) SessionStarted() {
	if r == nil {
		return
	}
	r.sessionsStarted.Inc()
}

func (r *Recorder) ActionPerformed() {
	if r == nil {
		return
	}
	r.actionsPerformed.Inc()
}

func (r *Recorder) StaleReply() {
	if r == nil {
		return
	}
	r.staleReplies.Inc()
}

func (r *Recorder) ProtocolError() {
	if r == nil {
		return
	}
	r.protocolErrors.Inc()
}

func (r *Recorder) SetStateVersion(v int) {
	if r == nil {
		return
	}
	r.stateVersion.Set(float64(v))
}

// Serve starts the /metrics HTTP server on addr and returns a function
// that shuts it down. Returns a no-op shutdown if r is nil or addr is "".
func (r *Recorder) Serve(addr string) (shutdown func(), err error) {
	if r == nil || addr == "" {
		return func() {}, nil
	}

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	r.server = &http.Server{Addr: addr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.server.Shutdown(ctx); err != nil {
			log.L().Sugar().Warnw("metrics server shutdown error", "error", err)
		}
	}, nil
}
