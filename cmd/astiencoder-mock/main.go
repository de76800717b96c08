// ABOUTME: Mock engine binary serving a simulated encoding pipeline over the engine's HTTP and websocket API.
// ABOUTME: Lets the dashboard be exercised end to end without a real encoder.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/LogicalOverflow/go-astiencoder/fakeengine"
	"github.com/LogicalOverflow/go-astiencoder/logging"
)

type options struct {
	addr      string
	tick      time.Duration
	recording bool
	log       logging.Config
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func parseFlags(args []string) (options, error) {
	opts := options{log: logging.DefaultConfig()}
	fs := pflag.NewFlagSet("astiencoder-mock", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.addr, "addr", "127.0.0.1:4000", "Listen address")
	fs.DurationVar(&opts.tick, "tick", time.Second, "Interval between simulated stats")
	fs.BoolVar(&opts.recording, "recording", false, "Start with recording on")
	fs.StringVar(&opts.log.Level, "log-level", opts.log.Level, "Log level")
	fs.StringVar(&opts.log.Format, "log-format", opts.log.Format, "Log format: console or json")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.tick <= 0 {
		return opts, fmt.Errorf("tick must be positive, got %s", opts.tick)
	}
	return opts, opts.log.Validate()
}

func run(args []string, stderr io.Writer) int {
	opts, err := parseFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	log, closer, err := logging.New(opts.log)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := fakeengine.New(log)
	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           engine.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", opts.addr).Msg("mock engine listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		engine.SetRecording(opts.recording)
		return engine.Simulate(gctx, opts.tick)
	})
	g.Go(func() error {
		<-gctx.Done()
		engine.Close()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("mock engine failed")
		return 1
	}
	return 0
}
