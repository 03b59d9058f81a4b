package depot

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config holds the environment driven configuration of a World.
type Config struct {
	// Log level ("debug", "info", "warn", "error").
	LogLevel string `env:"DEPOT_LOG_LEVEL" envDefault:"info"`

	// Log format ("json", "pretty").
	LogFormat string `env:"DEPOT_LOG_FORMAT" envDefault:"json"`

	// QueryCache when false makes every query recompute its intersection.
	QueryCache bool `env:"DEPOT_QUERY_CACHE" envDefault:"true"`

	// MaxCachedQueries bounds the number of cached signatures. 0 means unbounded.
	MaxCachedQueries int `env:"DEPOT_MAX_CACHED_QUERIES" envDefault:"0"`
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse depot config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate depot config")
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return eris.Errorf("invalid log level: %s (must be 'debug', 'info', 'warn', or 'error')", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "pretty" {
		return eris.Errorf("invalid log format: %s (must be 'json' or 'pretty')", cfg.LogFormat)
	}
	if cfg.MaxCachedQueries < 0 {
		return eris.New("max cached queries cannot be negative")
	}
	return nil
}

// WorldOptions converts the configuration into options for Factory.NewWorld, with a
// logger writing to stdout.
func (cfg *Config) WorldOptions() WorldOptions {
	logger := NewLogger(*cfg, os.Stdout)
	return WorldOptions{
		Logger:            &logger,
		DisableQueryCache: !cfg.QueryCache,
		MaxCachedQueries:  cfg.MaxCachedQueries,
	}
}

// NewLogger builds a logger at the configured level and format.
func NewLogger(cfg Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}

	writer := out
	if cfg.LogFormat == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("component", "depot").
		Logger()
}

// WorldOptions configures a World. Zero values keep the defaults.
type WorldOptions struct {
	Logger            *zerolog.Logger // Defaults to a no-op logger
	DisableQueryCache bool
	MaxCachedQueries  int // 0 means unbounded
}

func newDefaultWorldOptions() WorldOptions {
	nop := zerolog.Nop()
	return WorldOptions{
		Logger:            &nop,
		DisableQueryCache: false,
		MaxCachedQueries:  0,
	}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *WorldOptions) apply(newOpt WorldOptions) {
	if newOpt.Logger != nil {
		opt.Logger = newOpt.Logger
	}
	if newOpt.DisableQueryCache {
		opt.DisableQueryCache = true
	}
	if newOpt.MaxCachedQueries != 0 {
		opt.MaxCachedQueries = newOpt.MaxCachedQueries
	}
}

func (opt *WorldOptions) validate() error {
	if opt.Logger == nil {
		return eris.New("logger cannot be nil")
	}
	if opt.MaxCachedQueries < 0 {
		return eris.New("max cached queries cannot be negative")
	}
	return nil
}
