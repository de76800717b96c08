// ABOUTME: Tests for the playback controller against the fake engine.
// ABOUTME: Walks a recording from load to done and back to live data.
package playback_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/LogicalOverflow/go-astiencoder/api"
	"github.com/LogicalOverflow/go-astiencoder/events"
	"github.com/LogicalOverflow/go-astiencoder/fakeengine"
	"github.com/LogicalOverflow/go-astiencoder/graph"
	"github.com/LogicalOverflow/go-astiencoder/playback"
	"github.com/LogicalOverflow/go-astiencoder/transport"
)

func newController(t *testing.T) (*playback.Controller, *fakeengine.Server) {
	t.Helper()
	engine := fakeengine.New(zerolog.Nop())
	srv := httptest.NewServer(engine.Handler())
	t.Cleanup(srv.Close)

	c, err := transport.NewClient(transport.ClientConfig{BaseURL: srv.URL, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return playback.New(c, events.NewRouter(zerolog.Nop(), nil), zerolog.Nop()), engine
}

func recordingFile(t *testing.T) []byte {
	t.Helper()
	name := "A"
	rec := fakeengine.Recording{
		Nodes: []graph.NodePayload{{Name: &name}},
		Batches: [][]events.Item{
			{{Name: "astiencoder.node.started", Payload: json.RawMessage(`{"name":"A","status":"running"}`)}},
			{},
		},
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestPlaybackScenario(t *testing.T) {
	ctrl, _ := newController(t)
	m := graph.NewModel()
	ctx := context.Background()

	snap, err := ctrl.Load(ctx, "rec.json", bytes.NewReader(recordingFile(t)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ctrl.ApplyLoad(m, snap)

	if st := ctrl.State(); !st.Loaded || st.Done {
		t.Fatalf("state after load = %+v", st)
	}
	n, ok := m.Node("A")
	if !ok || n.Status() != graph.StatusUnset {
		t.Fatalf("node A after load = %v, %v", n, ok)
	}

	batch, err := ctrl.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := ctrl.ApplyNext(m, batch); err != nil {
		t.Fatalf("ApplyNext: %v", err)
	}
	n, _ = m.Node("A")
	if n.Status() != graph.StatusRunning || !n.HasTag("running") {
		t.Fatalf("node A after first batch: status %q tags %v", n.Status(), n.Tags())
	}
	if !ctrl.CanAdvance() {
		t.Fatal("CanAdvance = false before the log is exhausted")
	}

	batch, err = ctrl.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := ctrl.ApplyNext(m, batch); err != nil {
		t.Fatalf("ApplyNext: %v", err)
	}
	if !ctrl.State().Done || ctrl.CanAdvance() {
		t.Fatalf("state after last batch = %+v", ctrl.State())
	}
	n, _ = m.Node("A")
	if n.Status() != graph.StatusRunning {
		t.Fatalf("empty batch changed node A to %q", n.Status())
	}
}

func TestUnloadRestoresLiveWorkflow(t *testing.T) {
	ctrl, engine := newController(t)
	engine.SetWorkflow(fakeengine.DemoWorkflow())
	m := graph.NewModel()
	ctx := context.Background()

	snap, err := ctrl.Load(ctx, "rec.json", bytes.NewReader(recordingFile(t)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ctrl.ApplyLoad(m, snap)

	live, err := ctrl.Unload(ctx)
	if err != nil {
		t.Fatalf("Unload: %v", err)
	}
	ctrl.ApplyUnload(m, live)

	if ctrl.State() != (playback.State{}) {
		t.Fatalf("state after unload = %+v", ctrl.State())
	}
	if _, ok := m.Node("A"); ok {
		t.Fatal("recorded node survived unload")
	}
	if m.Len() != len(fakeengine.DemoWorkflow().Nodes) {
		t.Fatalf("live nodes = %d", m.Len())
	}
}

func TestUnloadWithoutLiveWorkflow(t *testing.T) {
	ctrl, _ := newController(t)
	m := graph.NewModel()

	live, err := ctrl.Unload(context.Background())
	if err != nil {
		t.Fatalf("Unload: %v", err)
	}
	if live != nil {
		t.Fatalf("snapshot = %+v, want nil", live)
	}
	ctrl.ApplyUnload(m, live)
	if m.Len() != 0 {
		t.Fatalf("nodes = %d, want 0", m.Len())
	}
}

func TestApplyNextRequiresLoad(t *testing.T) {
	ctrl, _ := newController(t)
	err := ctrl.ApplyNext(graph.NewModel(), api.Batch{Done: true})
	if !errors.Is(err, playback.ErrNotLoaded) {
		t.Fatalf("ApplyNext error = %v, want ErrNotLoaded", err)
	}
}

func TestNextWithoutLoadIsStatusError(t *testing.T) {
	ctrl, _ := newController(t)
	_, err := ctrl.Next(context.Background())
	var serr *transport.StatusError
	if !errors.As(err, &serr) || serr.StatusCode != 400 {
		t.Fatalf("Next error = %v, want 400 StatusError", err)
	}
}
