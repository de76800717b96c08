// ABOUTME: Fake engine serving the HTTP and websocket API the dashboard consumes.
// ABOUTME: Used by tests to drive probes, frames and playback, and by the mock binary for demos.
package fakeengine

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/LogicalOverflow/go-astiencoder/api"
	"github.com/LogicalOverflow/go-astiencoder/events"
	"github.com/LogicalOverflow/go-astiencoder/graph"
)

// Stats reports what the fake engine observed.
type Stats struct {
	Probes        int
	ProbeFailures int
	SocketsOpened int
	OpenSockets   int
	Pings         int
	Uploads       int
}

// Server is an in-memory engine.
type Server struct {
	log      zerolog.Logger
	router   chi.Router
	upgrader websocket.Upgrader

	mu         sync.Mutex
	stats      Stats
	failProbes int
	conns      map[*websocket.Conn]*sync.Mutex
	recording  bool
	workflow   *api.Workflow
	recorded   Recording
	playback   *playbackState
}

// New creates a fake engine with no workflow.
func New(log zerolog.Logger) *Server {
	s := &Server{
		log:   log.With().Str("component", "fakeengine").Logger(),
		conns: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving the engine API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))

	r.Get(api.PathOK, s.handleOK)
	r.Get(api.PathWelcome, s.handleWelcome)
	r.Get(api.PathRecordingStart, s.handleRecordingStart)
	r.Get(api.PathRecordingStop, s.handleRecordingStop)
	r.Get(api.PathRecordingExport, s.handleRecordingExport)
	r.Post(api.PathPlaybackLoad, s.handlePlaybackLoad)
	r.Get(api.PathPlaybackUnload, s.handlePlaybackUnload)
	r.Get(api.PathPlaybackNext, s.handlePlaybackNext)
	r.Get(api.PathWebSocket, s.handleWebSocket)
	return r
}

// FailProbes makes the next n liveness probes answer 503.
func (s *Server) FailProbes(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failProbes = n
}

// SetWorkflow sets the live workflow returned by /welcome. Nil means idle.
func (s *Server) SetWorkflow(w *api.Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflow = w
}

// SetRecording marks the engine as recording or not without touching the log.
func (s *Server) SetRecording(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = on
}

// Stats returns a copy of the counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.OpenSockets = len(s.conns)
	return st
}

// Broadcast sends an event to every connected client and appends it to the
// recording when one is in progress.
func (s *Server) Broadcast(name string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", name, err)
	}
	frame, err := json.Marshal(struct {
		EventName string          `json:"event_name"`
		Payload   json.RawMessage `json:"payload"`
	}{name, raw})
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", name, err)
	}

	s.mu.Lock()
	if s.recording {
		s.recorded.Batches = append(s.recorded.Batches, []events.Item{{Name: name, Payload: raw}})
	}
	conns := make(map[*websocket.Conn]*sync.Mutex, len(s.conns))
	for c, wmu := range s.conns {
		conns[c] = wmu
	}
	s.mu.Unlock()

	for c, wmu := range conns {
		wmu.Lock()
		err := c.WriteMessage(websocket.TextMessage, frame)
		wmu.Unlock()
		if err != nil {
			s.log.Debug().Err(err).Msg("broadcast write failed")
		}
	}
	return nil
}

// SendRaw writes raw bytes to every client, for malformed-frame tests.
func (s *Server) SendRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c, wmu := range s.conns {
		wmu.Lock()
		_ = c.WriteMessage(websocket.TextMessage, data)
		wmu.Unlock()
	}
}

// DropConnections closes every websocket from the server side.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.Close()
	}
}

// Close drops every connection. The HTTP listener is owned by the caller.
func (s *Server) Close() {
	s.DropConnections()
}

func (s *Server) handleOK(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.stats.Probes++
	fail := s.failProbes > 0
	if fail {
		s.failProbes--
		s.stats.ProbeFailures++
	}
	s.mu.Unlock()

	if fail {
		writeError(w, http.StatusServiceUnavailable, "engine starting")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	body := api.Welcome{Recording: s.recording, Workflow: s.workflow}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workflow == nil {
		writeError(w, http.StatusBadRequest, "no workflow")
		return
	}
	s.recording = true
	s.recorded = Recording{Nodes: append([]graph.NodePayload(nil), s.workflow.Nodes...)}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = false
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRecordingExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rec := s.recorded
	s.mu.Unlock()
	w.Header().Set("Content-Disposition", `attachment; filename="recording.json"`)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePlaybackLoad(w http.ResponseWriter, r *http.Request) {
	f, _, err := r.FormFile(api.PlaybackFileField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer f.Close()

	var rec Recording
	if err := json.NewDecoder(f).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid recording")
		return
	}

	s.mu.Lock()
	s.stats.Uploads++
	s.playback = &playbackState{rec: rec}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.Snapshot{Nodes: rec.Nodes})
}

func (s *Server) handlePlaybackNext(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	pb := s.playback
	var batch api.Batch
	if pb != nil {
		batch.Items, batch.Done = pb.next()
	}
	s.mu.Unlock()

	if pb == nil {
		writeError(w, http.StatusBadRequest, "no playback loaded")
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handlePlaybackUnload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.playback = nil
	wf := s.workflow
	s.mu.Unlock()

	if wf == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, api.Snapshot{Nodes: wf.Nodes})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.mu.Lock()
	s.conns[conn] = &sync.Mutex{}
	s.stats.SocketsOpened++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f struct {
			EventName string `json:"event_name"`
		}
		if json.Unmarshal(data, &f) == nil && f.EventName == "ping" {
			s.mu.Lock()
			s.stats.Pings++
			s.mu.Unlock()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
