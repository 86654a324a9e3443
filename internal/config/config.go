// Package config loads studyparse settings from a YAML file, the environment
// and command line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read, e.g. STUDYPARSE_DB.
const EnvPrefix = "STUDYPARSE_"

// DefaultFile is read when present and no --config flag is given.
const DefaultFile = "studyparse.yaml"

// Config holds every runtime setting.
type Config struct {
	DB            string        `koanf:"db" validate:"required"`
	Addr          string        `koanf:"addr" validate:"required,hostname_port"`
	ReposDir      string        `koanf:"repos_dir" validate:"required"`
	Format        string        `koanf:"format" validate:"oneof=json yaml"`
	Topic         string        `koanf:"topic"`
	RateLimit     float64       `koanf:"rate_limit" validate:"gte=0"`
	RateBurst     int           `koanf:"rate_burst" validate:"gte=1"`
	MaxInputBytes int64         `koanf:"max_input_bytes" validate:"gt=0"`
	Debounce      time.Duration `koanf:"debounce" validate:"gt=0"`
	LogLevel      string        `koanf:"log_level" validate:"oneof=debug info warn error"`
}

// Flags returns a flag set carrying every setting with its default value.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.String("config", DefaultFile, "Path to a YAML config file")
	fs.String("db", "studyparse.db", "Path to the SQLite database file")
	fs.String("addr", ":8080", "HTTP listen address for serve")
	fs.String("repos-dir", "repos", "Directory holding clones of git sources")
	fs.StringP("format", "f", "json", "Output format: json or yaml")
	fs.StringP("topic", "t", "", "Topic used as the mind map root when the text names none")
	fs.Float64("rate-limit", 5, "Requests per second allowed per client, 0 to disable")
	fs.Int("rate-burst", 10, "Request burst allowed per client")
	fs.Int64("max-input-bytes", 1<<20, "Largest accepted input")
	fs.Duration("debounce", 250*time.Millisecond, "Quiet time before a watched file is re-parsed")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	return fs
}

// Load layers the config file, the environment and the flags of fs, which
// must already be parsed, and validates the result. A missing default config
// file is not an error.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, _ := fs.GetString("config")
	if _, err := os.Stat(path); err == nil || fs.Changed("config") {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	// Flags left at their defaults only fill keys no other source set.
	err = k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if f.Name == "config" {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading flags: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger returns a text logger on stderr at the configured level.
func (c *Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.SlogLevel()}))
}
