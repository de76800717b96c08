// ABOUTME: Dashboard configuration layered as defaults, optional YAML file, .env and ASTIENCODER_* environment.
// ABOUTME: Command-line flags are applied on top by the binary before Validate is called.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/LogicalOverflow/go-astiencoder/logging"
)

// EnvPrefix namespaces every environment variable.
const EnvPrefix = "ASTIENCODER"

// Config holds every setting of the dashboard.
type Config struct {
	// BaseURL is the engine address.
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL"`
	RetryDelay        time.Duration `yaml:"retry_delay" envconfig:"RETRY_DELAY"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" envconfig:"HEARTBEAT_INTERVAL"`
	// RequestTimeout bounds one-shot requests. Zero waits forever.
	RequestTimeout time.Duration  `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	Log            logging.Config `yaml:"log" envconfig:"LOG"`
	// MetricsAddr serves /metrics when non-empty.
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
	// Headless logs views instead of drawing the terminal UI.
	Headless    bool   `yaml:"headless" envconfig:"HEADLESS"`
	PlaybackDir string `yaml:"playback_dir" envconfig:"PLAYBACK_DIR"`
	// TraceOutput receives engine request spans: stdout, stderr or a file path.
	TraceOutput string `yaml:"trace_output" envconfig:"TRACE_OUTPUT"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:           "http://127.0.0.1:4000",
		RetryDelay:        time.Second,
		HeartbeatInterval: 50 * time.Second,
		Log:               logging.DefaultConfig(),
	}
}

// Load layers the YAML file at path (skipped when path is empty), the .env
// files and the environment over the defaults. Variables already in the
// environment win over .env entries.
func Load(path string, dotenv ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the dashboard cannot run with.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base_url %q: want http(s)://host[:port]", c.BaseURL)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry_delay must be positive, got %s", c.RetryDelay)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive, got %s", c.HeartbeatInterval)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
