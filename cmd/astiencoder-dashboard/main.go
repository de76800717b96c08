// ABOUTME: CLI entrypoint for the astiencoder dashboard: terminal UI or headless logging of a live engine.
// ABOUTME: Wires config, logging, metrics, the transport, the session actor and signal handling.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/LogicalOverflow/go-astiencoder/config"
	"github.com/LogicalOverflow/go-astiencoder/logging"
	"github.com/LogicalOverflow/go-astiencoder/metrics"
	"github.com/LogicalOverflow/go-astiencoder/session"
	"github.com/LogicalOverflow/go-astiencoder/tracing"
	"github.com/LogicalOverflow/go-astiencoder/transport"
	"github.com/LogicalOverflow/go-astiencoder/tui"
)

var version = "dev"

// options holds flags that are not part of config.Config.
type options struct {
	configPath  string
	showVersion bool
	showHelp    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// flagSet declares every flag. Config flags default to the zero value and are
// applied only when set, so the file and environment keep precedence below them.
func flagSet(opts *options, cfg *config.Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("astiencoder-dashboard", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&opts.showHelp, "help", "h", false, "Show help")

	fs.StringVar(&cfg.BaseURL, "base-url", "", "Engine address")
	fs.DurationVar(&cfg.RetryDelay, "retry-delay", 0, "Delay between reconnect attempts")
	fs.DurationVar(&cfg.HeartbeatInterval, "heartbeat-interval", 0, "Interval between keepalive pings")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", 0, "Timeout for one-shot requests (0 waits forever)")
	fs.StringVar(&cfg.Log.Level, "log-level", "", "Log level")
	fs.StringVar(&cfg.Log.Format, "log-format", "", "Log format: console or json")
	fs.StringVar(&cfg.Log.Output, "log-output", "", "Log destination: stderr, stdout or a file path")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.BoolVar(&cfg.Headless, "headless", false, "Log session changes instead of drawing the terminal UI")
	fs.StringVar(&cfg.PlaybackDir, "playback-dir", "", "Directory for relative recording paths")
	fs.StringVar(&cfg.TraceOutput, "trace-output", "", "Export request spans to stdout, stderr or a file path")
	return fs
}

// loadConfig parses args and layers flags over the file and environment.
func loadConfig(args []string) (options, config.Config, error) {
	var (
		opts  options
		flags config.Config
	)
	fs := flagSet(&opts, &flags)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return opts, config.Config{}, err
	}
	if opts.showVersion || opts.showHelp {
		return opts, config.Config{}, nil
	}

	cfg, err := config.Load(opts.configPath, ".env")
	if err != nil {
		return opts, cfg, err
	}
	applyFlags(fs, &cfg, flags)
	return opts, cfg, cfg.Validate()
}

func applyFlags(fs *pflag.FlagSet, cfg *config.Config, f config.Config) {
	set := map[string]func(){
		"base-url":           func() { cfg.BaseURL = f.BaseURL },
		"retry-delay":        func() { cfg.RetryDelay = f.RetryDelay },
		"heartbeat-interval": func() { cfg.HeartbeatInterval = f.HeartbeatInterval },
		"request-timeout":    func() { cfg.RequestTimeout = f.RequestTimeout },
		"log-level":          func() { cfg.Log.Level = f.Log.Level },
		"log-format":         func() { cfg.Log.Format = f.Log.Format },
		"log-output":         func() { cfg.Log.Output = f.Log.Output },
		"metrics-addr":       func() { cfg.MetricsAddr = f.MetricsAddr },
		"headless":           func() { cfg.Headless = f.Headless },
		"playback-dir":       func() { cfg.PlaybackDir = f.PlaybackDir },
		"trace-output":       func() { cfg.TraceOutput = f.TraceOutput },
	}
	fs.Visit(func(fl *pflag.Flag) {
		if apply, ok := set[fl.Name]; ok {
			apply()
		}
	})
}

// run returns an exit code: 0 for success, 1 for runtime failure, 2 for usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	opts, cfg, err := loadConfig(args)
	switch {
	case opts.showHelp:
		printHelp(stdout, version)
		return 0
	case opts.showVersion:
		fmt.Fprintf(stdout, "astiencoder-dashboard %s\n", version)
		return 0
	case errors.Is(err, pflag.ErrHelp):
		printHelp(stdout, version)
		return 0
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	headless := cfg.Headless || !isTerminal(stdout)
	if !headless && (cfg.Log.Output == "" || cfg.Log.Output == logging.OutputStderr || cfg.Log.Output == logging.OutputStdout) {
		cfg.Log.Output = filepath.Join(os.TempDir(), "astiencoder-dashboard.log")
	}

	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer closer.Close()

	if !headless && (cfg.TraceOutput == tracing.OutputStdout || cfg.TraceOutput == tracing.OutputStderr) {
		cfg.TraceOutput = filepath.Join(os.TempDir(), "astiencoder-dashboard-traces.jsonl")
	}
	shutdownTracing, err := tracing.Setup(cfg.TraceOutput, version)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("flush traces")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, headless, log); err != nil {
		log.Error().Err(err).Msg("dashboard failed")
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// serve runs the session, the optional metrics endpoint and the presentation
// layer until ctx is done or the UI exits.
func serve(ctx context.Context, cfg config.Config, headless bool, log zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client, err := transport.NewClient(transport.ClientConfig{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.RequestTimeout,
		Logger:  log,
		Metrics: m,
	})
	if err != nil {
		return err
	}
	socket := transport.NewSocket(transport.SocketConfig{
		Client:            client,
		RetryDelay:        cfg.RetryDelay,
		HeartbeatInterval: cfg.HeartbeatInterval,
		Logger:            log,
		Metrics:           m,
	})
	sess, err := session.New(session.Config{
		Client:      client,
		Socket:      socket,
		PlaybackDir: cfg.PlaybackDir,
		Logger:      log,
		Metrics:     m,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sess.Run(gctx)
	})

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	views := sess.Subscribe()
	g.Go(func() error {
		// Leaving the UI ends the process.
		defer cancel()
		if headless {
			return runHeadless(gctx, views, log)
		}
		program := tea.NewProgram(
			tui.NewAppModel(gctx, sess, views, cfg.BaseURL),
			tea.WithAltScreen(),
			tea.WithContext(gctx),
		)
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("terminal ui: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
