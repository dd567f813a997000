package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/trackertools/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments on top of the TRACKER_* environment.
// A nil environ reads the process environment. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer, environ map[string]string) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var cfg app.Config
	if err := app.ParseEnv(&cfg, environ); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("trackertools", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Tracker+ Tools - tempo, duration and pitch calculators for tracker musicians.

Usage:
  trackertools [options] [FIELD=VALUE | FIELD+ | FIELD++ | FIELD- | FIELD-- ...]

Arguments:
  FIELD=VALUE
    Edits applied in order, e.g. projectTempo=140 targetSemitones=-3.
    Values that read as numbers are numbers, anything else is text.
  FIELD+, FIELD-, FIELD++, FIELD--
    Nudge the field up or down by its step, or by its large step.

Modes:
  (default)          apply the edits and print every calculator
  -listen ADDR       host a shared session over HTTP and socket.io
  -remote URL        send the edits to a running session

Options:
`)
		flagSet.PrintDefaults()
	}

	flagSet.StringVar(&cfg.FieldsPath, "fields", cfg.FieldsPath, "Path to a .hcl field catalog or a directory of them. Empty uses the built-in catalog.")
	flagSet.StringVar(&cfg.FieldsPath, "f", cfg.FieldsPath, "Path to the field catalog (shorthand).")
	flagSet.StringVar(&cfg.Listen, "listen", cfg.Listen, "Address to serve the session on, e.g. ':8080'.")
	flagSet.StringVar(&cfg.Remote, "remote", cfg.Remote, "URL of a running session to edit, e.g. 'http://localhost:8080'.")
	flagSet.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log output format. Options: 'text' or 'json'.")
	flagSet.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.BoolVar(&cfg.Settle, "settle", cfg.Settle, "Run one derivation pass before the first edit.")
	flagSet.DurationVar(&cfg.RemoteTimeout, "remote-timeout", cfg.RemoteTimeout, "Timeout for connecting to and editing a remote session.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	cfg.Edits = flagSet.Args()
	slog.Debug("Arguments parsed successfully.", "edits", len(cfg.Edits))

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "mode", config.Mode().String())
	return config, false, nil
}
