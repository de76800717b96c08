// ABOUTME: End-to-end tests for the session actor against the fake engine over real HTTP and websocket.
// ABOUTME: Covers the welcome resync, live events, reconnects, playback and user commands.
package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/LogicalOverflow/go-astiencoder/events"
	"github.com/LogicalOverflow/go-astiencoder/fakeengine"
	"github.com/LogicalOverflow/go-astiencoder/graph"
	"github.com/LogicalOverflow/go-astiencoder/metrics"
	"github.com/LogicalOverflow/go-astiencoder/playback"
	"github.com/LogicalOverflow/go-astiencoder/session"
	"github.com/LogicalOverflow/go-astiencoder/transport"
)

type harness struct {
	engine  *fakeengine.Server
	session *session.Session
	metrics *metrics.Metrics
	dir     string
	cancel  context.CancelFunc
	done    chan error
	once    sync.Once
}

func newHarness(t *testing.T, setup func(e *fakeengine.Server)) *harness {
	t.Helper()
	engine := fakeengine.New(zerolog.Nop())
	if setup != nil {
		setup(engine)
	}
	srv := httptest.NewServer(engine.Handler())

	m := metrics.New(nil)
	client, err := transport.NewClient(transport.ClientConfig{BaseURL: srv.URL, Logger: zerolog.Nop(), Metrics: m})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	socket := transport.NewSocket(transport.SocketConfig{
		Client:     client,
		RetryDelay: 10 * time.Millisecond,
		Logger:     zerolog.Nop(),
		Metrics:    m,
	})
	dir := t.TempDir()
	s, err := session.New(session.Config{Client: client, Socket: socket, PlaybackDir: dir, Logger: zerolog.Nop(), Metrics: m})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{engine: engine, session: s, metrics: m, dir: dir, cancel: cancel, done: make(chan error, 1)}
	go func() { h.done <- s.Run(ctx) }()

	t.Cleanup(func() {
		h.stop(t)
		engine.Close()
		srv.Close()
	})
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	h.once.Do(func() {
		h.cancel()
		select {
		case err := <-h.done:
			if err != nil {
				t.Errorf("Run returned %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Run did not return after cancel")
		}
	})
}

func (h *harness) waitView(t *testing.T, what string, cond func(v session.View) bool) session.View {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if v := h.session.View(); cond(v) {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; last view %+v", what, h.session.View())
	return session.View{}
}

func nodeByKey(v session.View, key string) (graph.NodeSnapshot, bool) {
	for _, n := range v.Nodes {
		if n.Key == key {
			return n, true
		}
	}
	return graph.NodeSnapshot{}, false
}

func connected(v session.View) bool { return v.Connected }

func TestWelcomeSyncsWorkflow(t *testing.T) {
	h := newHarness(t, func(e *fakeengine.Server) {
		e.SetWorkflow(fakeengine.DemoWorkflow())
		e.SetRecording(true)
	})

	v := h.waitView(t, "welcome", func(v session.View) bool { return v.Connected && len(v.Nodes) == 6 })
	if v.Recording != (session.Recording{Disabled: false, Started: true}) {
		t.Fatalf("recording = %+v", v.Recording)
	}
	n, ok := nodeByKey(v, "muxer_1")
	if !ok || n.Status != graph.StatusStopped || !n.Active {
		t.Fatalf("muxer_1 = %+v", n)
	}
	if got := testutil.ToFloat64(h.metrics.Resyncs.WithLabelValues("welcome")); got != 1 {
		t.Fatalf("welcome resyncs = %v, want 1", got)
	}
}

func TestWelcomeWithoutWorkflowDisablesRecording(t *testing.T) {
	h := newHarness(t, nil)
	v := h.waitView(t, "connect", connected)
	if !v.Recording.Disabled || len(v.Nodes) != 0 {
		t.Fatalf("view = %+v", v)
	}
}

func TestLiveEventsApplyInOrder(t *testing.T) {
	h := newHarness(t, func(e *fakeengine.Server) { e.SetWorkflow(fakeengine.DemoWorkflow()) })
	h.waitView(t, "welcome", func(v session.View) bool { return v.Connected && len(v.Nodes) == 6 })

	h.engine.Broadcast(events.Prefix+events.NodeContinued, "muxer_1")
	h.engine.Broadcast(events.Prefix+events.NodePaused, "muxer_1")
	fps, unit := 25.0, "fps"
	h.engine.Broadcast(events.Prefix+events.NodeStats, events.StatsPayload{
		Name:  "muxer_1",
		Stats: []graph.StatPayload{{Label: "Framerate", Value: &fps, Unit: &unit}},
	})

	v := h.waitView(t, "stats", func(v session.View) bool {
		n, _ := nodeByKey(v, "muxer_1")
		return len(n.Stats) == 1
	})
	n, _ := nodeByKey(v, "muxer_1")
	if n.Status != graph.StatusPaused {
		t.Fatalf("status = %q, want paused", n.Status)
	}
	if n.Stats[0].Value != "25.00" {
		t.Fatalf("stat value = %q", n.Stats[0].Value)
	}
}

func TestReconnectResyncs(t *testing.T) {
	h := newHarness(t, func(e *fakeengine.Server) { e.SetWorkflow(fakeengine.DemoWorkflow()) })
	h.waitView(t, "welcome", func(v session.View) bool { return v.Connected && len(v.Nodes) == 6 })

	h.engine.SetWorkflow(nil)
	h.engine.DropConnections()

	v := h.waitView(t, "resync", func(v session.View) bool { return v.Connected && len(v.Nodes) == 0 })
	if !v.Recording.Disabled {
		t.Fatalf("recording = %+v, want disabled", v.Recording)
	}
	if got := testutil.ToFloat64(h.metrics.Resyncs.WithLabelValues("welcome")); got != 2 {
		t.Fatalf("welcome resyncs = %v, want 2", got)
	}
}

func writeRecording(t *testing.T, dir string) string {
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
	if err := os.WriteFile(filepath.Join(dir, "rec.json"), data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return "rec.json"
}

func TestPlaybackThroughSession(t *testing.T) {
	h := newHarness(t, nil)
	h.waitView(t, "connect", connected)
	ctx := context.Background()

	if err := h.session.Advance(ctx); !errors.Is(err, playback.ErrNotLoaded) {
		t.Fatalf("Advance before load = %v, want ErrNotLoaded", err)
	}

	if err := h.session.LoadPlayback(ctx, writeRecording(t, h.dir)); err != nil {
		t.Fatalf("LoadPlayback: %v", err)
	}
	h.waitView(t, "load", func(v session.View) bool { return v.Playback.Loaded && len(v.Nodes) == 1 })

	if err := h.session.PressKey(ctx, session.KeyRight); err != nil {
		t.Fatalf("PressKey: %v", err)
	}
	v := h.waitView(t, "first batch", func(v session.View) bool {
		n, _ := nodeByKey(v, "A")
		return n.Status == graph.StatusRunning && !v.AdvanceInFlight
	})
	if v.Playback.Done {
		t.Fatal("done after first batch")
	}

	if err := h.session.Advance(ctx); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	h.waitView(t, "done", func(v session.View) bool { return v.Playback.Done && !v.AdvanceInFlight })

	if err := h.session.Advance(ctx); !errors.Is(err, session.ErrPlaybackDone) {
		t.Fatalf("Advance after done = %v, want ErrPlaybackDone", err)
	}
	if err := h.session.PressKey(ctx, session.KeyRight); err != nil {
		t.Fatalf("PressKey after done: %v", err)
	}

	if err := h.session.UnloadPlayback(ctx); err != nil {
		t.Fatalf("UnloadPlayback: %v", err)
	}
	v = h.waitView(t, "unload", func(v session.View) bool { return !v.Playback.Loaded })
	if len(v.Nodes) != 0 {
		t.Fatalf("nodes after unload = %d, want 0", len(v.Nodes))
	}
}

func TestLoadMissingFileReportsError(t *testing.T) {
	h := newHarness(t, nil)
	h.waitView(t, "connect", connected)

	if err := h.session.LoadPlayback(context.Background(), "missing.json"); err != nil {
		t.Fatalf("LoadPlayback: %v", err)
	}
	v := h.waitView(t, "error", func(v session.View) bool { return v.LastError != "" })
	if v.Playback.Loaded {
		t.Fatal("playback loaded from a missing file")
	}
}

func TestSearchAndTagsThroughSession(t *testing.T) {
	h := newHarness(t, func(e *fakeengine.Server) { e.SetWorkflow(fakeengine.DemoWorkflow()) })
	h.waitView(t, "welcome", func(v session.View) bool { return v.Connected && len(v.Nodes) == 6 })
	ctx := context.Background()

	if err := h.session.Search(ctx, "VIDEO"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	visible := func(v session.View) int {
		c := 0
		for _, n := range v.Nodes {
			if n.Visible() {
				c++
			}
		}
		return c
	}
	v := h.session.View()
	if v.Query != "VIDEO" || visible(v) != 2 {
		t.Fatalf("query %q visible %d, want 2", v.Query, visible(v))
	}

	h.session.Search(ctx, "")
	if err := h.session.ToggleTagShow(ctx, "audio"); err != nil {
		t.Fatalf("ToggleTagShow: %v", err)
	}
	if v := h.session.View(); visible(v) != 2 || !v.TagsFiltered {
		t.Fatalf("visible with audio shown = %d filtered=%v, want 2/true", visible(v), v.TagsFiltered)
	}

	h.session.ToggleTagHide(ctx, "audio")
	if got := visible(h.session.View()); got != 4 {
		t.Fatalf("visible with audio hidden = %d, want 4", got)
	}

	h.session.ResetTags(ctx)
	if v := h.session.View(); visible(v) != 6 || v.TagsFiltered {
		t.Fatalf("visible after reset = %d filtered=%v, want 6/false", visible(v), v.TagsFiltered)
	}
}

func TestSubscribeReceivesLatestView(t *testing.T) {
	h := newHarness(t, nil)
	ch := h.session.Subscribe()
	defer h.session.Unsubscribe(ch)

	if _, ok := <-ch; !ok {
		t.Fatal("subscription closed")
	}
	h.session.Search(context.Background(), "x")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-ch:
			if v.Query == "x" {
				return
			}
		case <-deadline:
			t.Fatal("no view with the new query")
		}
	}
}

func TestSubmitAfterRunReturns(t *testing.T) {
	h := newHarness(t, nil)
	h.stop(t)

	if err := h.session.Search(context.Background(), "x"); !errors.Is(err, session.ErrSessionClosed) {
		t.Fatalf("Search after stop = %v, want ErrSessionClosed", err)
	}
}
