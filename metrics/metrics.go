// ABOUTME: Prometheus collectors for the transport, the event router and the session.
// ABOUTME: New registers against the given Registerer; a nil Registerer yields unregistered collectors for tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event results recorded by the router.
const (
	ResultApplied = "applied"
	ResultUnknown = "unknown"
	ResultInvalid = "invalid"
)

// Metrics groups every collector the dashboard exports.
type Metrics struct {
	// ProbeFailures counts failed GET /ok liveness probes.
	ProbeFailures prometheus.Counter
	// Connects counts websocket connections that reached the open state.
	Connects prometheus.Counter
	// Disconnects counts websocket closes, whatever the cause.
	Disconnects prometheus.Counter
	// Heartbeats counts ping frames sent.
	Heartbeats prometheus.Counter
	// Frames counts inbound websocket frames by decode result.
	Frames *prometheus.CounterVec
	// Events counts routed events by event name and result.
	Events *prometheus.CounterVec
	// Requests counts one-shot HTTP requests by method, path and status class.
	Requests *prometheus.CounterVec
	// Resyncs counts full model resets (welcome, playback load/unload).
	Resyncs *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when non-nil.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProbeFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "astiencoder_dashboard_probe_failures_total",
			Help: "Total failed liveness probes against the engine",
		}),
		Connects: f.NewCounter(prometheus.CounterOpts{
			Name: "astiencoder_dashboard_socket_connects_total",
			Help: "Total websocket connections opened",
		}),
		Disconnects: f.NewCounter(prometheus.CounterOpts{
			Name: "astiencoder_dashboard_socket_disconnects_total",
			Help: "Total websocket connections closed",
		}),
		Heartbeats: f.NewCounter(prometheus.CounterOpts{
			Name: "astiencoder_dashboard_heartbeats_total",
			Help: "Total keepalive pings sent",
		}),
		Frames: f.NewCounterVec(prometheus.CounterOpts{
			Name: "astiencoder_dashboard_frames_total",
			Help: "Total inbound websocket frames by decode result",
		}, []string{"result"}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "astiencoder_dashboard_events_total",
			Help: "Total routed events by name and result",
		}, []string{"event", "result"}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "astiencoder_dashboard_requests_total",
			Help: "Total HTTP requests to the engine by method, path and status class",
		}, []string{"method", "path", "status"}),
		Resyncs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "astiencoder_dashboard_resyncs_total",
			Help: "Total full model resets by reason",
		}, []string{"reason"}),
	}
}
