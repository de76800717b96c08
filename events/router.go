// ABOUTME: Router maps a named engine event onto a Graph Model mutation.
// ABOUTME: Live frames and playback items go through the same Route call so replay matches live semantics.
package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/LogicalOverflow/go-astiencoder/graph"
	"github.com/LogicalOverflow/go-astiencoder/metrics"
)

// Router is stateless apart from its logger and metrics.
type Router struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewRouter creates a Router. A nil metrics value disables counting.
func NewRouter(log zerolog.Logger, m *metrics.Metrics) *Router {
	return &Router{
		log:     log.With().Str("component", "router").Logger(),
		metrics: m,
	}
}

// Route applies the event to the model. It returns false for unknown events
// and for payloads that cannot be decoded; both are dropped without error.
func (r *Router) Route(m *graph.Model, name string, payload json.RawMessage) bool {
	event := Normalize(name)

	err := r.route(m, event, payload)
	switch {
	case errors.Is(err, errUnknownEvent):
		r.count(metrics.ResultUnknown, metrics.ResultUnknown)
		r.log.Debug().Str("event", name).Msg("event ignored")
		return false
	case err != nil:
		r.count(event, metrics.ResultInvalid)
		r.log.Warn().Err(err).Str("event", name).Msg("event dropped")
		return false
	}

	r.count(event, metrics.ResultApplied)
	return true
}

// RouteItem routes a playback or live item.
func (r *Router) RouteItem(m *graph.Model, item Item) bool {
	return r.Route(m, item.Name, item.Payload)
}

func (r *Router) route(m *graph.Model, event string, payload json.RawMessage) error {
	switch event {
	case NodeStarted:
		var p graph.NodePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("decode node descriptor: %w", err)
		}
		if p.Key() == "" {
			return errMissingNode
		}
		m.Apply(p.Key(), p)

	case NodeContinued:
		return setStatus(m, payload, graph.StatusRunning)

	case NodePaused:
		return setStatus(m, payload, graph.StatusPaused)

	case NodeStopped:
		return setStatus(m, payload, graph.StatusStopped)

	case NodeStats:
		var p StatsPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("decode stats: %w", err)
		}
		if p.Name == "" {
			return errMissingNode
		}
		m.Apply(p.Name, graph.NodePayload{Stats: p.Stats})

	default:
		return errUnknownEvent
	}
	return nil
}

// setStatus decodes a bare node key and applies a status-only update.
func setStatus(m *graph.Model, payload json.RawMessage, s graph.Status) error {
	var key string
	if err := json.Unmarshal(payload, &key); err != nil {
		return fmt.Errorf("decode node key: %w", err)
	}
	if key == "" {
		return errMissingNode
	}
	m.SetStatus(key, s)
	return nil
}

func (r *Router) count(event, result string) {
	if r.metrics == nil {
		return
	}
	r.metrics.Events.WithLabelValues(event, result).Inc()
}
