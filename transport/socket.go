// ABOUTME: Health-checked, auto-reconnecting websocket to the engine with a keepalive heartbeat.
// ABOUTME: Each cycle probes GET /ok, dials, pings on an interval and restarts after a fixed delay on any failure.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/LogicalOverflow/go-astiencoder/metrics"
)

// Defaults for SocketConfig.
const (
	DefaultSocketPath        = "/websocket"
	DefaultProbePath         = "/ok"
	DefaultRetryDelay        = time.Second
	DefaultHeartbeatInterval = 50 * time.Second
)

// writeWait bounds a single frame write so a stalled peer cannot wedge the heartbeat.
const writeWait = 10 * time.Second

// ErrAlreadyRunning is returned when Run is called on a socket that is already running.
var ErrAlreadyRunning = errors.New("socket already running")

// Handlers receive socket lifecycle callbacks. They are called from the
// socket's read goroutine, in order, one at a time.
type Handlers struct {
	OnOpen    func()
	OnMessage func(name string, payload json.RawMessage)
	// OnClose is optional and reports why the connection ended.
	OnClose func(err error)
}

// SocketConfig configures a Socket. Zero values take the defaults above.
type SocketConfig struct {
	Client            *Client
	Path              string
	ProbePath         string
	RetryDelay        time.Duration
	HeartbeatInterval time.Duration
	Dialer            *websocket.Dialer
	Logger            zerolog.Logger
	Metrics           *metrics.Metrics
}

// Socket maintains at most one websocket to the engine at a time.
type Socket struct {
	cfg SocketConfig
	log zerolog.Logger

	running atomic.Bool

	// mu guards conn and serializes writes on it.
	mu   sync.Mutex
	conn *websocket.Conn

	heartbeats atomic.Int32
	opened     atomic.Int64
}

// NewSocket creates a Socket. cfg.Client is required.
func NewSocket(cfg SocketConfig) *Socket {
	if cfg.Path == "" {
		cfg.Path = DefaultSocketPath
	}
	if cfg.ProbePath == "" {
		cfg.ProbePath = DefaultProbePath
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Dialer == nil {
		d := *websocket.DefaultDialer
		cfg.Dialer = &d
	}
	return &Socket{
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "socket").Logger(),
	}
}

// Connected reports whether a connection is currently open.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send writes a frame when connected. It is a no-op returning ErrNotConnected
// otherwise; callers must not assume delivery.
func (s *Socket) Send(name string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(outboundFrame{EventName: name, Payload: payload}); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Run connects and keeps reconnecting until ctx is done. There is no retry
// limit: every failure (probe, dial, read) waits RetryDelay and starts a new
// cycle. Run returns nil once ctx is done.
func (s *Socket) Run(ctx context.Context, h Handlers) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	for {
		err := s.cycle(ctx, h)
		if ctx.Err() != nil {
			return nil
		}
		s.log.Debug().Err(err).Dur("retry_in", s.cfg.RetryDelay).Msg("socket cycle ended")

		timer := time.NewTimer(s.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// cycle performs one probe/dial/read sequence and returns why it ended.
func (s *Socket) cycle(ctx context.Context, h Handlers) error {
	if _, err := s.cfg.Client.Get(ctx, s.cfg.ProbePath); err != nil {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.ProbeFailures.Inc()
		}
		return fmt.Errorf("probe: %w", err)
	}

	header := http.Header{}
	header.Set(HeaderClientID, s.cfg.Client.ClientID())
	conn, _, err := s.cfg.Dialer.DialContext(ctx, s.cfg.Client.WebSocketURL(s.cfg.Path), header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.opened.Add(1)
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.Connects.Inc()
	}
	s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("socket connected")

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	hbDone := make(chan struct{})
	s.heartbeats.Add(1)
	go s.heartbeat(hbCtx, hbDone)

	// Unblock the read below when the caller goes away.
	stopWatch := context.AfterFunc(ctx, func() { conn.Close() })

	err = s.read(conn, h)

	stopWatch()
	stopHeartbeat()
	<-hbDone

	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()
	conn.Close()

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.Disconnects.Inc()
	}
	s.log.Info().Err(err).Msg("socket closed")
	if h.OnClose != nil {
		h.OnClose(err)
	}
	return err
}

// read dispatches frames until the connection fails.
func (s *Socket) read(conn *websocket.Conn, h Handlers) error {
	if h.OnOpen != nil {
		h.OnOpen()
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			s.countFrame("invalid")
			s.log.Warn().Err(err).Int("bytes", len(data)).Msg("frame dropped")
			continue
		}
		s.countFrame("ok")
		if h.OnMessage != nil {
			h.OnMessage(f.EventName, f.Payload)
		}
	}
}

// heartbeat sends a ping frame every HeartbeatInterval until ctx is done.
func (s *Socket) heartbeat(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	defer s.heartbeats.Add(-1)

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Send(PingEvent, nil); err != nil {
				s.log.Debug().Err(err).Msg("ping failed")
				continue
			}
			if s.cfg.Metrics != nil {
				s.cfg.Metrics.Heartbeats.Inc()
			}
		}
	}
}

func (s *Socket) countFrame(result string) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.Frames.WithLabelValues(result).Inc()
	}
}
