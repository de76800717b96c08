// ABOUTME: Headless presentation that logs session changes instead of drawing the terminal UI.
// ABOUTME: Used when stdout is not a terminal or --headless is set.
package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/LogicalOverflow/go-astiencoder/graph"
	"github.com/LogicalOverflow/go-astiencoder/session"
)

// runHeadless logs connection changes at info and node status changes at
// debug until ctx is done or the session stops publishing.
func runHeadless(ctx context.Context, views <-chan session.View, log zerolog.Logger) error {
	log = log.With().Str("component", "headless").Logger()
	var (
		prev     session.View
		statuses = map[string]graph.Status{}
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-views:
			if !ok {
				return nil
			}
			logView(log, prev, v, statuses)
			prev = v
		}
	}
}

func logView(log zerolog.Logger, prev, v session.View, statuses map[string]graph.Status) {
	if prev.Connected != v.Connected {
		log.Info().
			Bool("connected", v.Connected).
			Int("nodes", len(v.Nodes)).
			Bool("recording", v.Recording.Started).
			Msg("connection changed")
	}
	if v.LastError != "" && v.LastError != prev.LastError {
		log.Warn().Str("error", v.LastError).Msg("request failed")
	}

	seen := make(map[string]struct{}, len(v.Nodes))
	for _, n := range v.Nodes {
		seen[n.Key] = struct{}{}
		if old, ok := statuses[n.Key]; !ok || old != n.Status {
			log.Debug().Str("node", n.Key).Str("status", n.Status.String()).Msg("node status")
			statuses[n.Key] = n.Status
		}
	}
	for k := range statuses {
		if _, ok := seen[k]; !ok {
			delete(statuses, k)
		}
	}
}
