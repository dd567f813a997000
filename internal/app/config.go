package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Mode selects how the App hosts the calculator.
type Mode int

const (
	// ModeTerminal applies the edits locally and prints the grouped snapshot.
	ModeTerminal Mode = iota
	// ModeServe hosts a shared session over HTTP and socket.io.
	ModeServe
	// ModeRemote sends the edits to a running server.
	ModeRemote
)

func (m Mode) String() string {
	switch m {
	case ModeServe:
		return "serve"
	case ModeRemote:
		return "remote"
	default:
		return "terminal"
	}
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	FieldsPath    string        `env:"TRACKER_FIELDS"`
	Listen        string        `env:"TRACKER_LISTEN"`
	Remote        string        `env:"TRACKER_REMOTE"`
	LogFormat     string        `env:"TRACKER_LOG_FORMAT"     envDefault:"text"`
	LogLevel      string        `env:"TRACKER_LOG_LEVEL"      envDefault:"info"`
	Settle        bool          `env:"TRACKER_SETTLE"         envDefault:"true"`
	RemoteTimeout time.Duration `env:"TRACKER_REMOTE_TIMEOUT" envDefault:"10s"`

	// Edits are raw `id=value` or nudge arguments, applied in order.
	Edits []string

	edits []Edit
}

// ParseEnv fills cfg from TRACKER_* variables. A nil environ reads the
// process environment.
func ParseEnv(cfg *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// NewConfig validates cfg and parses its edits.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	if cfg.Listen != "" && cfg.Remote != "" {
		return nil, errors.New("listen and remote are mutually exclusive")
	}
	if cfg.RemoteTimeout <= 0 {
		return nil, fmt.Errorf("remote-timeout must be positive, got %v", cfg.RemoteTimeout)
	}

	cfg.edits = make([]Edit, 0, len(cfg.Edits))
	for _, arg := range cfg.Edits {
		e, err := ParseEdit(arg)
		if err != nil {
			return nil, err
		}
		cfg.edits = append(cfg.edits, e)
	}
	return &cfg, nil
}

// Mode reports the run mode implied by the configuration.
func (c *Config) Mode() Mode {
	switch {
	case c.Remote != "":
		return ModeRemote
	case c.Listen != "":
		return ModeServe
	default:
		return ModeTerminal
	}
}

// ParsedEdits returns the validated edits.
func (c *Config) ParsedEdits() []Edit {
	return c.edits
}
