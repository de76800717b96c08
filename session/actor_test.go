// ABOUTME: White-box tests for command handling that do not need a running engine.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/LogicalOverflow/go-astiencoder/api"
	"github.com/LogicalOverflow/go-astiencoder/events"
	"github.com/LogicalOverflow/go-astiencoder/graph"
	"github.com/LogicalOverflow/go-astiencoder/transport"
)

func newIdleSession(t *testing.T) *Session {
	t.Helper()
	return newSessionAt(t, "http://127.0.0.1:1")
}

// newSessionAt builds a session whose actor is not running. Tests call
// process directly and read async results off cmdCh themselves.
func newSessionAt(t *testing.T, baseURL string) *Session {
	t.Helper()
	c, err := transport.NewClient(transport.ClientConfig{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	s, err := New(Config{Client: c, Socket: transport.NewSocket(transport.SocketConfig{Client: c}), Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestAdvanceIgnoredWhileInFlight(t *testing.T) {
	s := newIdleSession(t)
	s.playback.ApplyLoad(s.model, api.Snapshot{})
	s.advanceInFlight = true

	if err := s.process(AdvanceCommand{}); !errors.Is(err, ErrAdvanceInFlight) {
		t.Fatalf("Advance = %v, want ErrAdvanceInFlight", err)
	}
	if err := s.process(KeyCommand{Key: KeyRight}); err != nil {
		t.Fatalf("KeyRight = %v, want nil", err)
	}
	if !s.advanceInFlight {
		t.Fatal("in-flight flag cleared by ignored key")
	}

	if err := s.process(batchLoaded{batch: api.Batch{Done: true}}); err != nil {
		t.Fatalf("batchLoaded = %v", err)
	}
	if s.advanceInFlight || !s.playback.State().Done {
		t.Fatalf("after batch: inFlight=%v state=%+v", s.advanceInFlight, s.playback.State())
	}
}

func TestFailedAdvanceClearsInFlight(t *testing.T) {
	s := newIdleSession(t)
	s.advanceInFlight = true
	s.process(requestFailed{op: "advance playback", err: errors.New("boom")})
	if s.advanceInFlight {
		t.Fatal("in-flight flag not cleared")
	}
	if s.View().LastError != "advance playback: boom" {
		t.Fatalf("LastError = %q", s.View().LastError)
	}
}

func TestUnknownKeyIgnored(t *testing.T) {
	s := newIdleSession(t)
	before := s.View().Seq
	if err := s.process(KeyCommand{Key: "left"}); err != nil {
		t.Fatalf("process = %v", err)
	}
	if s.View().Seq != before+1 {
		t.Fatal("command not counted")
	}
}

func TestWelcomeReappliesSearch(t *testing.T) {
	s := newIdleSession(t)
	name := "video_encoder"
	s.process(SearchCommand{Query: "audio"})
	s.process(socketOpened{ok: true, welcome: api.Welcome{
		Recording: true,
		Workflow:  &api.Workflow{Nodes: []graph.NodePayload{{Name: &name}}},
	}})

	v := s.View()
	if !v.Connected || v.Recording != (Recording{Started: true}) {
		t.Fatalf("view = %+v", v)
	}
	if len(v.Nodes) != 1 || !v.Nodes[0].NotInSearch {
		t.Fatalf("nodes = %+v, want one node hidden by the active search", v.Nodes)
	}

	s.process(socketClosed{})
	if s.View().Connected {
		t.Fatal("still connected after close")
	}
}

func TestFailedWelcomeKeepsModel(t *testing.T) {
	s := newIdleSession(t)
	name := "demuxer"
	s.process(socketOpened{ok: true, welcome: api.Welcome{
		Workflow: &api.Workflow{Nodes: []graph.NodePayload{{Name: &name}}},
	}})
	s.process(socketClosed{})
	s.process(socketOpened{err: errors.New("unexpected status 500")})

	v := s.View()
	if !v.Connected {
		t.Fatal("connection not reported")
	}
	if len(v.Nodes) != 1 || v.Recording.Disabled {
		t.Fatalf("model or recording reset by a failed welcome: %+v", v)
	}
	if v.LastError != "welcome: unexpected status 500" {
		t.Fatalf("LastError = %q", v.LastError)
	}
}

// nextResult waits for the result an async request posted back to the actor.
func nextResult(t *testing.T, s *Session) Command {
	t.Helper()
	select {
	case env := <-s.cmdCh:
		return env.cmd
	case <-time.After(3 * time.Second):
		t.Fatal("no result posted")
		return nil
	}
}

func TestPendingAdvanceSurvivesReload(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /playback/next", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.Batch{
			Done:  true,
			Items: []events.Item{{Name: events.Prefix + events.NodeStarted, Payload: json.RawMessage(`{"name":"stale","label":"Stale"}`)}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newSessionAt(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.ctx = ctx

	first, second := "first", "second"
	s.process(playbackLoaded{snap: api.Snapshot{Nodes: []graph.NodePayload{{Name: &first}}}})
	if err := s.process(AdvanceCommand{}); err != nil {
		t.Fatalf("Advance = %v", err)
	}

	s.process(playbackUnloaded{})
	s.process(playbackLoaded{snap: api.Snapshot{Nodes: []graph.NodePayload{{Name: &second}}}})

	if err := s.process(AdvanceCommand{}); !errors.Is(err, ErrAdvanceInFlight) {
		t.Fatalf("Advance while the first is pending = %v, want ErrAdvanceInFlight", err)
	}
	if err := s.process(KeyCommand{Key: KeyRight}); err != nil {
		t.Fatalf("KeyRight = %v", err)
	}

	close(release)
	result := nextResult(t, s)
	if _, ok := result.(batchLoaded); !ok {
		t.Fatalf("result = %T, want batchLoaded", result)
	}
	s.process(result)

	v := s.View()
	if len(v.Nodes) != 1 || v.Nodes[0].Key != "second" {
		t.Fatalf("nodes = %+v, want only the second recording's node", v.Nodes)
	}
	if v.Playback.Done {
		t.Fatal("the old recording's done flag leaked into the new one")
	}
	if v.AdvanceInFlight {
		t.Fatal("in-flight flag not cleared once the pending advance returned")
	}

	if err := s.process(AdvanceCommand{}); err != nil {
		t.Fatalf("Advance after the pending one returned = %v", err)
	}
	s.process(nextResult(t, s))
	if v := s.View(); !v.Playback.Done || len(v.Nodes) != 2 {
		t.Fatalf("current advance not applied: %+v", v)
	}
}

func TestStaleAdvanceFailureKeepsLastError(t *testing.T) {
	s := newIdleSession(t)
	s.advanceInFlight = true
	s.process(playbackLoaded{})

	s.process(requestFailed{op: opAdvance, gen: 0, err: errors.New("gone")})
	if s.advanceInFlight {
		t.Fatal("in-flight flag not cleared")
	}
	if s.View().LastError != "" {
		t.Fatalf("LastError = %q, want none for a stale failure", s.View().LastError)
	}
}
