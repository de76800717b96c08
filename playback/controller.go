// ABOUTME: Playback controller that steps through a recorded session served by the engine.
// ABOUTME: I/O methods talk to the engine; Apply methods mutate the graph model from the owning goroutine.
package playback

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/LogicalOverflow/go-astiencoder/api"
	"github.com/LogicalOverflow/go-astiencoder/events"
	"github.com/LogicalOverflow/go-astiencoder/graph"
	"github.com/LogicalOverflow/go-astiencoder/transport"
)

// State is the playback position.
type State struct {
	Loaded bool
	Done   bool
}

// Controller is not safe for concurrent use. The I/O methods only read the
// client, so they may run off the goroutine that owns the controller while
// the Apply methods must not.
type Controller struct {
	client *transport.Client
	router *events.Router
	log    zerolog.Logger
	state  State
}

// New creates a controller with nothing loaded.
func New(client *transport.Client, router *events.Router, log zerolog.Logger) *Controller {
	return &Controller{
		client: client,
		router: router,
		log:    log.With().Str("component", "playback").Logger(),
	}
}

// State returns the current position.
func (c *Controller) State() State {
	return c.state
}

// CanAdvance reports whether Next would return more events.
func (c *Controller) CanAdvance() bool {
	return c.state.Loaded && !c.state.Done
}

// Load uploads a recording and returns the node snapshot at its start.
func (c *Controller) Load(ctx context.Context, filename string, r io.Reader) (api.Snapshot, error) {
	var snap api.Snapshot
	resp, err := c.client.PostMultipart(ctx, api.PathPlaybackLoad, api.PlaybackFileField, filename, r)
	if err != nil {
		return snap, fmt.Errorf("load playback %s: %w", filename, err)
	}
	resp.Decode(&snap)
	return snap, nil
}

// Next fetches the next batch of recorded events.
func (c *Controller) Next(ctx context.Context) (api.Batch, error) {
	var batch api.Batch
	if _, err := c.client.GetJSON(ctx, api.PathPlaybackNext, &batch); err != nil {
		return batch, fmt.Errorf("next playback batch: %w", err)
	}
	return batch, nil
}

// Unload leaves playback. The returned snapshot is the live workflow, or nil
// when the engine has none.
func (c *Controller) Unload(ctx context.Context) (*api.Snapshot, error) {
	var snap api.Snapshot
	ok, err := c.client.GetJSON(ctx, api.PathPlaybackUnload, &snap)
	if err != nil {
		return nil, fmt.Errorf("unload playback: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// ApplyLoad replaces the model with the recording's initial nodes.
func (c *Controller) ApplyLoad(m *graph.Model, snap api.Snapshot) {
	m.Reset()
	c.state = State{Loaded: true}
	applyNodes(m, snap.Nodes)
	c.log.Info().Int("nodes", len(snap.Nodes)).Msg("playback loaded")
}

// ApplyNext records whether the log is exhausted and routes every item.
func (c *Controller) ApplyNext(m *graph.Model, batch api.Batch) error {
	if !c.state.Loaded {
		return ErrNotLoaded
	}
	c.state.Done = batch.Done
	for _, item := range batch.Items {
		c.router.RouteItem(m, item)
	}
	c.log.Debug().Int("items", len(batch.Items)).Bool("done", batch.Done).Msg("playback advanced")
	return nil
}

// ApplyUnload returns the model to live data.
func (c *Controller) ApplyUnload(m *graph.Model, snap *api.Snapshot) {
	m.Reset()
	c.state = State{}
	if snap != nil {
		applyNodes(m, snap.Nodes)
	}
	c.log.Info().Msg("playback unloaded")
}

func applyNodes(m *graph.Model, nodes []graph.NodePayload) {
	for _, n := range nodes {
		m.Apply(n.Key(), n)
	}
}
