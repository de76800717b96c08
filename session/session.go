// ABOUTME: Session actor that owns the graph model, playback controller and connection state.
// ABOUTME: One goroutine applies commands in order; readers use ReadModel or subscribe to published views.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/LogicalOverflow/go-astiencoder/api"
	"github.com/LogicalOverflow/go-astiencoder/events"
	"github.com/LogicalOverflow/go-astiencoder/graph"
	"github.com/LogicalOverflow/go-astiencoder/metrics"
	"github.com/LogicalOverflow/go-astiencoder/playback"
	"github.com/LogicalOverflow/go-astiencoder/transport"
)

// Resync reasons recorded in metrics.
const (
	resyncWelcome        = "welcome"
	resyncPlaybackLoad   = "playback_load"
	resyncPlaybackUnload = "playback_unload"
)

const opAdvance = "advance playback"

// Config wires a Session to its engine.
type Config struct {
	Client *transport.Client
	Socket *transport.Socket
	// PlaybackDir resolves relative recording paths. Empty means the working directory.
	PlaybackDir string
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

type envelope struct {
	cmd   Command
	reply chan error
}

// Session is safe for concurrent use.
type Session struct {
	client      *transport.Client
	socket      *transport.Socket
	router      *events.Router
	playbackDir string
	log         zerolog.Logger
	metrics     *metrics.Metrics

	cmdCh chan envelope
	done  chan struct{}
	// ctx is set once Run starts and bounds the HTTP calls started by commands.
	ctx context.Context

	views *viewBroadcaster

	// mu guards everything below. Only the actor goroutine writes.
	mu              sync.RWMutex
	model           *graph.Model
	playback        *playback.Controller
	query           string
	connected       bool
	recording       Recording
	advanceInFlight bool
	// playbackGen changes whenever the model is replaced, so a batch fetched
	// for one recording never lands in another.
	playbackGen uint64
	lastError       string
	seq             uint64
	running         bool
}

// New creates a session. Client and Socket are required.
func New(cfg Config) (*Session, error) {
	if cfg.Client == nil || cfg.Socket == nil {
		return nil, errors.New("session: client and socket are required")
	}
	log := cfg.Logger.With().Str("component", "session").Logger()
	router := events.NewRouter(cfg.Logger, cfg.Metrics)
	return &Session{
		client:      cfg.Client,
		socket:      cfg.Socket,
		router:      router,
		playbackDir: cfg.PlaybackDir,
		log:         log,
		metrics:     cfg.Metrics,
		cmdCh:       make(chan envelope, 64),
		done:        make(chan struct{}),
		views:       &viewBroadcaster{},
		model:       graph.NewModel(),
		playback:    playback.New(cfg.Client, router, cfg.Logger),
		recording:   Recording{Disabled: true},
	}, nil
}

// Run starts the actor and the socket and blocks until ctx is done. A session
// runs once; later commands return ErrSessionClosed.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("session: already running")
	}
	s.running = true
	s.ctx = ctx
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loop(gctx)
	})
	g.Go(func() error {
		return s.socket.Run(gctx, transport.Handlers{
			OnOpen:    func() { s.onOpen(gctx) },
			OnMessage: s.onMessage,
			OnClose:   func(err error) { s.post(socketClosed{err: err}) },
		})
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Subscribe returns a channel receiving the latest View after every change.
// The current view is delivered immediately.
func (s *Session) Subscribe() <-chan View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views.subscribe(s.viewLocked())
}

// Unsubscribe stops delivery and closes the channel.
func (s *Session) Unsubscribe(ch <-chan View) {
	s.views.unsubscribe(ch)
}

// View returns the current view.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

// ReadModel calls fn with a read lock held on the model. fn must not retain
// the model or mutate it.
func (s *Session) ReadModel(fn func(m *graph.Model)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.model)
}

// Submit queues cmd and waits until the actor has processed it. Work that
// needs the engine completes later and shows up in a subsequent View.
func (s *Session) Submit(ctx context.Context, cmd Command) error {
	reply := make(chan error, 1)
	select {
	case s.cmdCh <- envelope{cmd: cmd, reply: reply}:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Search filters nodes by a case-insensitive label or name match.
func (s *Session) Search(ctx context.Context, query string) error {
	return s.Submit(ctx, SearchCommand{Query: query})
}

// ToggleTagShow toggles the show flag of a tag.
func (s *Session) ToggleTagShow(ctx context.Context, name string) error {
	return s.Submit(ctx, ToggleTagShowCommand{Name: name})
}

// ToggleTagHide toggles the hide flag of a tag.
func (s *Session) ToggleTagHide(ctx context.Context, name string) error {
	return s.Submit(ctx, ToggleTagHideCommand{Name: name})
}

// ResetTags clears every tag flag.
func (s *Session) ResetTags(ctx context.Context) error {
	return s.Submit(ctx, ResetTagsCommand{})
}

// PressKey handles a keyboard shortcut.
func (s *Session) PressKey(ctx context.Context, k Key) error {
	return s.Submit(ctx, KeyCommand{Key: k})
}

// Advance steps playback forward by one batch.
func (s *Session) Advance(ctx context.Context) error {
	return s.Submit(ctx, AdvanceCommand{})
}

// LoadPlayback uploads a recording and switches to playback.
func (s *Session) LoadPlayback(ctx context.Context, path string) error {
	return s.Submit(ctx, LoadPlaybackCommand{Path: path})
}

// UnloadPlayback returns to live data.
func (s *Session) UnloadPlayback(ctx context.Context) error {
	return s.Submit(ctx, UnloadPlaybackCommand{})
}

// onOpen runs on the socket's read goroutine before any frame is read, so the
// welcome resync is queued ahead of every event of the new connection.
func (s *Session) onOpen(ctx context.Context) {
	var w api.Welcome
	ok, err := s.client.GetJSON(ctx, api.PathWelcome, &w)
	s.post(socketOpened{welcome: w, ok: ok, err: err})
}

func (s *Session) onMessage(name string, payload json.RawMessage) {
	s.post(socketMessage{name: name, payload: payload})
}

// post queues an internal message without waiting for it. It blocks while the
// queue is full so messages are never dropped or reordered.
func (s *Session) post(cmd Command) {
	select {
	case s.cmdCh <- envelope{cmd: cmd}:
	case <-s.done:
	}
}

// async runs fn off the actor and posts its result.
func (s *Session) async(fn func(ctx context.Context) Command) {
	ctx := s.ctx
	go func() {
		s.post(fn(ctx))
	}()
}

func (s *Session) loop(ctx context.Context) error {
	defer func() {
		close(s.done)
		s.views.closeAll()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-s.cmdCh:
			err := s.process(env.cmd)
			if env.reply != nil {
				env.reply <- err
			}
		}
	}
}

func (s *Session) process(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.apply(cmd)
	s.seq++
	// Publishing under the lock orders it against Subscribe.
	s.views.publish(s.viewLocked())
	return err
}

// apply runs with the write lock held.
func (s *Session) apply(cmd Command) error {
	switch c := cmd.(type) {
	case SearchCommand:
		s.query = c.Query
		s.model.Search(c.Query)

	case ToggleTagShowCommand:
		s.model.ToggleTagShow(c.Name)

	case ToggleTagHideCommand:
		s.model.ToggleTagHide(c.Name)

	case ResetTagsCommand:
		s.model.ResetAllTags()

	case KeyCommand:
		if c.Key == KeyRight && s.playback.CanAdvance() && !s.advanceInFlight {
			return s.startAdvance()
		}

	case AdvanceCommand:
		switch {
		case s.advanceInFlight:
			return ErrAdvanceInFlight
		case !s.playback.State().Loaded:
			return playback.ErrNotLoaded
		case s.playback.State().Done:
			return ErrPlaybackDone
		}
		return s.startAdvance()

	case LoadPlaybackCommand:
		path := c.Path
		if !filepath.IsAbs(path) && s.playbackDir != "" {
			path = filepath.Join(s.playbackDir, path)
		}
		s.async(func(ctx context.Context) Command {
			f, err := os.Open(path)
			if err != nil {
				return requestFailed{op: "load playback", err: err}
			}
			defer f.Close()
			snap, err := s.playback.Load(ctx, filepath.Base(path), f)
			if err != nil {
				return requestFailed{op: "load playback", err: err}
			}
			return playbackLoaded{path: path, snap: snap}
		})

	case UnloadPlaybackCommand:
		s.async(func(ctx context.Context) Command {
			snap, err := s.playback.Unload(ctx)
			if err != nil {
				return requestFailed{op: "unload playback", err: err}
			}
			return playbackUnloaded{snap: snap}
		})

	case socketOpened:
		s.connected = true
		if c.err != nil {
			// The model keeps whatever it had; the next connection retries.
			s.lastError = fmt.Sprintf("welcome: %v", c.err)
			s.log.Warn().Err(c.err).Msg("welcome failed")
			break
		}
		s.model.Reset()
		s.recording = Recording{Disabled: true}
		if c.ok {
			s.recording = Recording{Disabled: c.welcome.Workflow == nil, Started: c.welcome.Recording}
			if c.welcome.Workflow != nil {
				for _, n := range c.welcome.Workflow.Nodes {
					s.model.Apply(n.Key(), n)
				}
			}
		}
		s.playbackGen++
		s.reapplySearch()
		s.countResync(resyncWelcome)
		s.log.Info().Int("nodes", s.model.Len()).Bool("recording", s.recording.Started).Msg("session synced")

	case socketClosed:
		s.connected = false

	case socketMessage:
		if s.router.Route(s.model, c.name, c.payload) {
			s.reapplySearch()
		}

	case playbackLoaded:
		s.playback.ApplyLoad(s.model, c.snap)
		s.playbackGen++
		s.lastError = ""
		s.reapplySearch()
		s.countResync(resyncPlaybackLoad)

	case batchLoaded:
		// At most one advance is pending, so this result always ends it.
		s.advanceInFlight = false
		if c.gen != s.playbackGen {
			s.log.Debug().Uint64("gen", c.gen).Uint64("current", s.playbackGen).Msg("stale playback batch dropped")
			break
		}
		if err := s.playback.ApplyNext(s.model, c.batch); err != nil {
			s.log.Warn().Err(err).Msg("playback batch dropped")
		}
		s.reapplySearch()

	case playbackUnloaded:
		s.playback.ApplyUnload(s.model, c.snap)
		s.playbackGen++
		s.reapplySearch()
		s.countResync(resyncPlaybackUnload)

	case requestFailed:
		if c.op == opAdvance {
			s.advanceInFlight = false
			if c.gen != s.playbackGen {
				s.log.Debug().Err(c.err).Msg("stale playback advance failed")
				break
			}
		}
		s.lastError = fmt.Sprintf("%s: %v", c.op, c.err)
		s.log.Warn().Err(c.err).Str("op", c.op).Msg("request failed")

	default:
		return fmt.Errorf("session: unknown command %T", cmd)
	}
	return nil
}

func (s *Session) startAdvance() error {
	s.advanceInFlight = true
	gen := s.playbackGen
	s.async(func(ctx context.Context) Command {
		batch, err := s.playback.Next(ctx)
		if err != nil {
			return requestFailed{op: opAdvance, gen: gen, err: err}
		}
		return batchLoaded{gen: gen, batch: batch}
	})
	return nil
}

// reapplySearch keeps the current query applied to nodes created since it was set.
func (s *Session) reapplySearch() {
	if s.query != "" {
		s.model.Search(s.query)
	}
}

func (s *Session) countResync(reason string) {
	if s.metrics != nil {
		s.metrics.Resyncs.WithLabelValues(reason).Inc()
	}
}

func (s *Session) viewLocked() View {
	return View{
		Seq:             s.seq,
		Nodes:           s.model.Snapshot(),
		Tags:            s.model.Tags(),
		Query:           s.query,
		Connected:       s.connected,
		Recording:       s.recording,
		Playback:        s.playback.State(),
		AdvanceInFlight: s.advanceInFlight,
		TagsFiltered:    s.model.TagsFiltering(),
		LastError:       s.lastError,
	}
}
