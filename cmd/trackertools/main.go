package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/trackertools/internal/app"
	"github.com/vk/trackertools/internal/cli"
	"github.com/vk/trackertools/internal/hcl"
)

// main is the entrypoint for the trackertools application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:], nil); err != nil {
		stop()
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. Results go to outW, logs and usage errors to errW.
func run(ctx context.Context, outW, errW io.Writer, args []string, environ map[string]string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW, environ)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Instantiate the concrete HCL loader to pass to the app.
	trackerApp, err := app.NewApp(outW, errW, appConfig, hcl.NewLoader())
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	return trackerApp.Run(ctx)
}
